package logstream_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

func TestFormatQueryTime(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2024-01-01T00:00:00.000Z",
		logstream.FormatQueryTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	berlin := time.FixedZone("CET", 3600)
	assert.Equal(t, "2024-06-30T22:15:30.123Z",
		logstream.FormatQueryTime(time.Date(2024, 6, 30, 23, 15, 30, 123456789, berlin)))
}

func TestAbout_StoreShapes(t *testing.T) {
	t.Parallel()

	var legacy logstream.About
	require.NoError(t, json.Unmarshal([]byte(`{"version":"v0.9","store":"s3"}`), &legacy))
	assert.Equal(t, "s3", legacy.Store.Type)

	var current logstream.About
	require.NoError(t, json.Unmarshal(
		[]byte(`{"version":"v1.5","store":{"type":"local","path":"/data"},"grpcPort":8001}`), &current))
	assert.Equal(t, "local", current.Store.Type)
	assert.Equal(t, "/data", current.Store.Path)
	assert.Equal(t, 8001, current.GRPCPort)
}

func TestStats_SizeShapes(t *testing.T) {
	t.Parallel()

	body := `{
		"stream": "web",
		"ingestion": {"count": 10, "size": "2048 Bytes", "format": "json"},
		"storage": {"size": 1024, "format": "parquet"}
	}`

	var stats logstream.Stats
	require.NoError(t, json.Unmarshal([]byte(body), &stats))

	assert.Equal(t, uint64(10), stats.Ingestion.Count)
	assert.Equal(t, logstream.ByteSize(2048), stats.Ingestion.Size)
	assert.Equal(t, logstream.ByteSize(1024), stats.Storage.Size)
	assert.Equal(t, "2.0 kB", stats.Ingestion.Size.String())
}

func TestByteSize_HumanString(t *testing.T) {
	t.Parallel()

	var size logstream.ByteSize
	require.NoError(t, json.Unmarshal([]byte(`"1.5 MB"`), &size))
	assert.Equal(t, logstream.ByteSize(1500000), size)

	require.Error(t, json.Unmarshal([]byte(`"lots"`), &size))
}

func TestStreamInfo_FlexibleFlag(t *testing.T) {
	t.Parallel()

	var info logstream.StreamInfo
	require.NoError(t, json.Unmarshal(
		[]byte(`{"created-at":"2024-01-01T00:00:00Z","first-event-at":"2024-01-02T00:00:00Z","static_schema_flag":"true"}`),
		&info))

	assert.Equal(t, "2024-01-01T00:00:00Z", info.CreatedAt)
	assert.Equal(t, "2024-01-02T00:00:00Z", info.FirstEventAt)
	assert.True(t, bool(info.StaticSchemaFlag))

	var modern logstream.StreamInfo
	require.NoError(t, json.Unmarshal([]byte(`{"created-at":"x","static_schema_flag":false}`), &modern))
	assert.False(t, bool(modern.StaticSchemaFlag))
}

func TestField_TypeName(t *testing.T) {
	t.Parallel()

	var schema logstream.Schema
	require.NoError(t, json.Unmarshal([]byte(`{"fields":[
		{"name":"msg","data_type":"Utf8","nullable":true},
		{"name":"p_timestamp","data_type":{"Timestamp":["Millisecond",null]}},
		{"name":"n"}
	]}`), &schema))

	require.Len(t, schema.Fields, 3)
	assert.Equal(t, "Utf8", schema.Fields[0].TypeName())
	assert.True(t, schema.Fields[0].Nullable)
	assert.Equal(t, "Timestamp", schema.Fields[1].TypeName())
	assert.Empty(t, schema.Fields[2].TypeName())
}

func TestFilter_WireNames(t *testing.T) {
	t.Parallel()

	request := logstream.FilterCreateRequest{
		Name:       "errors",
		StreamName: "web",
		Query: logstream.FilterQuery{
			FilterType:  "sql",
			FilterQuery: "SELECT * FROM web WHERE level = 'error'",
		},
		TimeFilter: &logstream.TimeFilter{From: "2024-01-01T00:00:00.000Z", To: "2024-01-02T00:00:00.000Z"},
	}

	data, err := json.Marshal(request)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"filter_name": "errors",
		"stream_name": "web",
		"query": {"filter_type": "sql", "filter_query": "SELECT * FROM web WHERE level = 'error'"},
		"time_filter": {"from": "2024-01-01T00:00:00.000Z", "to": "2024-01-02T00:00:00.000Z"}
	}`, string(data))
}
