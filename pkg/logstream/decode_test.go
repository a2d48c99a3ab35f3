package logstream_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

func TestDecodeQueryResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    *logstream.QueryResult
		wantErr bool
	}{
		{
			name: "wrapped object",
			body: `{"records":[{"a":1}]}`,
			want: &logstream.QueryResult{Records: []logstream.Record{{"a": float64(1)}}},
		},
		{
			name: "wrapped object with fields",
			body: `{"fields":["a","b"],"records":[{"a":1,"b":"x"}]}`,
			want: &logstream.QueryResult{
				Records: []logstream.Record{{"a": float64(1), "b": "x"}},
				Fields:  []string{"a", "b"},
			},
		},
		{
			name: "bare array",
			body: `[{"a":1}]`,
			want: &logstream.QueryResult{Records: []logstream.Record{{"a": float64(1)}}},
		},
		{
			name: "leading whitespace",
			body: " \t\r\n[{\"a\":1},{\"a\":2}]",
			want: &logstream.QueryResult{Records: []logstream.Record{{"a": float64(1)}, {"a": float64(2)}}},
		},
		{
			name: "empty array",
			body: `[]`,
			want: &logstream.QueryResult{Records: []logstream.Record{}},
		},
		{
			name: "wrapped empty records",
			body: `{"records":[]}`,
			want: &logstream.QueryResult{Records: []logstream.Record{}},
		},
		{
			name:    "object without records",
			body:    `{}`,
			wantErr: true,
		},
		{
			name:    "server error object",
			body:    `{"error":"table logs not found"}`,
			wantErr: true,
		},
		{
			name: "empty body",
			body: "",
			want: &logstream.QueryResult{Records: []logstream.Record{}},
		},
		{
			name:    "malformed object",
			body:    `{bad json`,
			wantErr: true,
		},
		{
			name:    "malformed array",
			body:    `[{"a":1},`,
			wantErr: true,
		},
		{
			name:    "plain text",
			body:    `syntax error near SELECT`,
			wantErr: true,
		},
		{
			name:    "bare number",
			body:    `42`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := logstream.DecodeQueryResult([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, logstream.IsDecodingError(err))
				assert.Contains(t, err.Error(), "unexpected format")
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeQueryResult() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeRetention(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    []logstream.RetentionPolicy
		wantErr bool
	}{
		{
			name: "empty body",
			body: "",
			want: []logstream.RetentionPolicy{},
		},
		{
			name: "whitespace body",
			body: "  \n",
			want: []logstream.RetentionPolicy{},
		},
		{
			name: "list",
			body: `[{"description":"drop old","action":"delete","duration":"30d"}]`,
			want: []logstream.RetentionPolicy{{Description: "drop old", Action: "delete", Duration: "30d"}},
		},
		{
			name: "empty list",
			body: `[]`,
			want: []logstream.RetentionPolicy{},
		},
		{
			name: "single object",
			body: `{"action":"delete","duration":"7d"}`,
			want: []logstream.RetentionPolicy{{Action: "delete", Duration: "7d"}},
		},
		{
			name:    "garbage",
			body:    `not json`,
			wantErr: true,
		},
		{
			name:    "wrong type",
			body:    `"30d"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := logstream.DecodeRetention([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, logstream.IsDecodingError(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeStrict_ToleratesOptionalFields(t *testing.T) {
	t.Parallel()

	about, err := logstream.DecodeStrict[logstream.About]([]byte(`{"version":"v1.2.0","unknownField":true}`))
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", about.Version)
	assert.Empty(t, about.Store.Type)

	_, err = logstream.DecodeStrict[logstream.About]([]byte(`{"version":`))
	require.Error(t, err)
	assert.True(t, logstream.IsDecodingError(err))

	_, err = logstream.DecodeStrict[[]logstream.LogStream]([]byte(``))
	require.Error(t, err, "empty body is not an empty stream list")
}

func TestDecodeAlerts(t *testing.T) {
	t.Parallel()

	t.Run("consolidated bare array", func(t *testing.T) {
		t.Parallel()

		config, err := logstream.DecodeAlerts([]byte(`[{"id":"1","title":"errors","stream":"web"}]`), true)
		require.NoError(t, err)
		require.Len(t, config.Alerts, 1)
		assert.Equal(t, "errors", config.Alerts[0].DisplayName())
	})

	t.Run("consolidated wrapped", func(t *testing.T) {
		t.Parallel()

		config, err := logstream.DecodeAlerts([]byte(`{"version":"v2","alerts":[{"name":"a"}]}`), true)
		require.NoError(t, err)
		assert.Equal(t, "v2", config.Version)
		require.Len(t, config.Alerts, 1)
		assert.Equal(t, "a", config.Alerts[0].DisplayName())
	})

	t.Run("legacy requires object", func(t *testing.T) {
		t.Parallel()

		_, err := logstream.DecodeAlerts([]byte(`[{"name":"a"}]`), false)
		require.Error(t, err)
		assert.True(t, logstream.IsDecodingError(err))
	})
}

func TestDecodeUsers(t *testing.T) {
	t.Parallel()

	users, err := logstream.DecodeUsers([]byte(`["admin",{"id":"alice","method":"native","roles":{"reader":[]}}]`))
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "admin", users[0].ID)
	assert.Equal(t, "alice", users[1].ID)
	assert.Equal(t, "native", users[1].Method)
	assert.Equal(t, []string{"reader"}, users[1].RoleNames())
}
