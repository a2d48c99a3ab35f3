package logstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/fivetwenty-io/logstream-client/internal/constants"
)

// Connection identifies one server a client talks to. The secret is never
// part of it; it is resolved through a CredentialStore keyed by ID.
type Connection struct {
	ID       string `json:"id"       yaml:"id"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	Username string `json:"username" yaml:"username"`
}

// About represents the /api/v1/about response.
type About struct {
	Version         string      `json:"version"                   yaml:"version"`
	UIVersion       string      `json:"uiVersion,omitempty"       yaml:"ui_version,omitempty"`
	Commit          string      `json:"commit,omitempty"          yaml:"commit,omitempty"`
	DeploymentID    string      `json:"deploymentId,omitempty"    yaml:"deployment_id,omitempty"`
	UpdateAvailable bool        `json:"updateAvailable,omitempty" yaml:"update_available,omitempty"`
	LatestVersion   string      `json:"latestVersion,omitempty"   yaml:"latest_version,omitempty"`
	OIDCActive      bool        `json:"oidcActive,omitempty"      yaml:"oidc_active,omitempty"`
	License         string      `json:"license,omitempty"         yaml:"license,omitempty"`
	Mode            string      `json:"mode,omitempty"            yaml:"mode,omitempty"`
	Staging         string      `json:"staging,omitempty"         yaml:"staging,omitempty"`
	HotTier         string      `json:"hotTier,omitempty"         yaml:"hot_tier,omitempty"`
	GRPCPort        int         `json:"grpcPort,omitempty"        yaml:"grpc_port,omitempty"`
	Store           StorageInfo `json:"store"                     yaml:"store"`
}

// StorageInfo describes the server's storage backend. Older servers report a
// bare string, newer ones an object.
type StorageInfo struct {
	Type string `json:"type"           yaml:"type"`
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// UnmarshalJSON accepts either "s3" or {"type":"s3","path":"..."}.
func (s *StorageInfo) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &s.Type)
	}

	type plain StorageInfo

	var decoded plain

	err := json.Unmarshal(trimmed, &decoded)
	if err != nil {
		return err
	}

	*s = StorageInfo(decoded)

	return nil
}

// LogStream is one entry of the stream list.
type LogStream struct {
	Name string `json:"name" yaml:"name"`
}

// Schema is the field list of a stream.
type Schema struct {
	Fields []Field `json:"fields" yaml:"fields"`
}

// Field is a single schema column. DataType is kept raw because servers
// report it either as a string or as an Arrow type object.
type Field struct {
	Name     string          `json:"name"               yaml:"name"`
	DataType json.RawMessage `json:"data_type"          yaml:"-"`
	Nullable bool            `json:"nullable,omitempty" yaml:"nullable,omitempty"`
}

// TypeName renders DataType for display.
func (f Field) TypeName() string {
	trimmed := bytes.TrimSpace(f.DataType)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}

	switch trimmed[0] {
	case '"':
		var name string
		if json.Unmarshal(trimmed, &name) == nil {
			return name
		}
	case '{':
		var object map[string]json.RawMessage
		if json.Unmarshal(trimmed, &object) == nil && len(object) == 1 {
			for name := range object {
				return name
			}
		}
	}

	return string(trimmed)
}

// ByteSize is a size reported either as a number or as "1234 Bytes".
type ByteSize uint64

// UnmarshalJSON accepts numbers and size strings.
func (b *ByteSize) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] != '"' {
		var n uint64

		err := json.Unmarshal(trimmed, &n)
		if err != nil {
			return fmt.Errorf("parsing size: %w", err)
		}

		*b = ByteSize(n)

		return nil
	}

	var text string

	err := json.Unmarshal(trimmed, &text)
	if err != nil {
		return err
	}

	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "Bytes"))
	if text == "" {
		return nil
	}

	n, err := strconv.ParseUint(text, 10, 64)
	if err == nil {
		*b = ByteSize(n)

		return nil
	}

	n, err = humanize.ParseBytes(text)
	if err != nil {
		return fmt.Errorf("parsing size %q: %w", text, err)
	}

	*b = ByteSize(n)

	return nil
}

// String renders the size in human units.
func (b ByteSize) String() string {
	return humanize.Bytes(uint64(b))
}

// Stats represents the /logstream/{name}/stats response.
type Stats struct {
	Stream    string         `json:"stream"              yaml:"stream"`
	Time      string         `json:"time,omitempty"      yaml:"time,omitempty"`
	Ingestion IngestionStats `json:"ingestion"           yaml:"ingestion"`
	Storage   StorageStats   `json:"storage"             yaml:"storage"`
}

// IngestionStats holds event counters.
type IngestionStats struct {
	Count         uint64   `json:"count"                    yaml:"count"`
	Size          ByteSize `json:"size"                     yaml:"size"`
	Format        string   `json:"format,omitempty"         yaml:"format,omitempty"`
	LifetimeCount uint64   `json:"lifetime_count,omitempty" yaml:"lifetime_count,omitempty"`
	LifetimeSize  ByteSize `json:"lifetime_size,omitempty"  yaml:"lifetime_size,omitempty"`
	DeletedCount  uint64   `json:"deleted_count,omitempty"  yaml:"deleted_count,omitempty"`
	DeletedSize   ByteSize `json:"deleted_size,omitempty"   yaml:"deleted_size,omitempty"`
}

// StorageStats holds on-disk sizes.
type StorageStats struct {
	Size         ByteSize `json:"size"                    yaml:"size"`
	Format       string   `json:"format,omitempty"        yaml:"format,omitempty"`
	LifetimeSize ByteSize `json:"lifetime_size,omitempty" yaml:"lifetime_size,omitempty"`
	DeletedSize  ByteSize `json:"deleted_size,omitempty"  yaml:"deleted_size,omitempty"`
}

// FlexBool accepts true/false as JSON booleans or strings.
type FlexBool bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexBool) UnmarshalJSON(data []byte) error {
	trimmed := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if trimmed == "" || trimmed == "null" {
		*f = false

		return nil
	}

	value, err := strconv.ParseBool(trimmed)
	if err != nil {
		return fmt.Errorf("parsing boolean %q: %w", trimmed, err)
	}

	*f = FlexBool(value)

	return nil
}

// StreamInfo represents the /logstream/{name}/info response.
type StreamInfo struct {
	CreatedAt          string   `json:"created-at"                     yaml:"created_at"`
	FirstEventAt       string   `json:"first-event-at,omitempty"       yaml:"first_event_at,omitempty"`
	TimePartition      string   `json:"time_partition,omitempty"       yaml:"time_partition,omitempty"`
	TimePartitionLimit string   `json:"time_partition_limit,omitempty" yaml:"time_partition_limit,omitempty"`
	CustomPartition    string   `json:"custom_partition,omitempty"     yaml:"custom_partition,omitempty"`
	StaticSchemaFlag   FlexBool `json:"static_schema_flag,omitempty"   yaml:"static_schema_flag,omitempty"`
	StreamType         string   `json:"stream_type,omitempty"          yaml:"stream_type,omitempty"`
	LogSource          any      `json:"log_source,omitempty"           yaml:"log_source,omitempty"`
}

// QueryRequest is the input of a SQL query.
type QueryRequest struct {
	Query     string
	StartTime time.Time
	EndTime   time.Time
	// Fields asks the server to include the field list in the response.
	Fields bool
	// SendNull asks the server to emit null columns instead of dropping them.
	SendNull bool
}

// Record is one loosely typed result row.
type Record = map[string]any

// QueryResult holds ordered result rows and, when the server sends it, the
// field list.
type QueryResult struct {
	Records []Record `json:"records"          yaml:"records"`
	Fields  []string `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// FormatQueryTime renders t in the exact layout the query endpoint expects.
func FormatQueryTime(t time.Time) string {
	return t.UTC().Format(constants.QueryTimeLayout)
}

// AlertConfig groups the alert rules that apply to a stream.
type AlertConfig struct {
	Version string  `json:"version,omitempty" yaml:"version,omitempty"`
	Alerts  []Alert `json:"alerts"            yaml:"alerts"`
}

// Alert is a single alert rule. Rule and Targets differ between server
// generations and are kept raw.
type Alert struct {
	ID       string          `json:"id,omitempty"       yaml:"id,omitempty"`
	Name     string          `json:"name,omitempty"     yaml:"name,omitempty"`
	Title    string          `json:"title,omitempty"    yaml:"title,omitempty"`
	Stream   string          `json:"stream,omitempty"   yaml:"stream,omitempty"`
	Message  string          `json:"message,omitempty"  yaml:"message,omitempty"`
	Severity string          `json:"severity,omitempty" yaml:"severity,omitempty"`
	State    string          `json:"state,omitempty"    yaml:"state,omitempty"`
	Rule     json.RawMessage `json:"rule,omitempty"     yaml:"-"`
	Targets  json.RawMessage `json:"targets,omitempty"  yaml:"-"`
}

// DisplayName returns the title on newer servers and the name on older ones.
func (a Alert) DisplayName() string {
	if a.Title != "" {
		return a.Title
	}

	return a.Name
}

// RetentionPolicy is one retention task of a stream.
type RetentionPolicy struct {
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Action      string `json:"action"                yaml:"action"`
	Duration    string `json:"duration"              yaml:"duration"`
}

// User is a server account. Older servers list users as bare id strings.
type User struct {
	ID     string          `json:"id"               yaml:"id"`
	Method string          `json:"method,omitempty" yaml:"method,omitempty"`
	Roles  json.RawMessage `json:"roles,omitempty"  yaml:"-"`
}

// UnmarshalJSON accepts "alice" or {"id":"alice",...}.
func (u *User) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		*u = User{}

		return json.Unmarshal(trimmed, &u.ID)
	}

	type plain User

	var decoded plain

	err := json.Unmarshal(trimmed, &decoded)
	if err != nil {
		return err
	}

	*u = User(decoded)

	return nil
}

// RoleNames lists the role names when Roles is an object or an array.
func (u User) RoleNames() []string {
	trimmed := bytes.TrimSpace(u.Roles)
	if len(trimmed) == 0 {
		return nil
	}

	var names []string
	if json.Unmarshal(trimmed, &names) == nil {
		return names
	}

	var object map[string]json.RawMessage
	if json.Unmarshal(trimmed, &object) == nil {
		for name := range object {
			names = append(names, name)
		}
	}

	return names
}

// Filter is a saved query.
type Filter struct {
	ID         string      `json:"filter_id,omitempty"   yaml:"filter_id,omitempty"`
	Name       string      `json:"filter_name"           yaml:"filter_name"`
	StreamName string      `json:"stream_name"           yaml:"stream_name"`
	UserID     string      `json:"user_id,omitempty"     yaml:"user_id,omitempty"`
	Version    string      `json:"version,omitempty"     yaml:"version,omitempty"`
	Query      FilterQuery `json:"query"                 yaml:"query"`
	TimeFilter *TimeFilter `json:"time_filter,omitempty" yaml:"time_filter,omitempty"`
}

// FilterQuery is the saved query body.
type FilterQuery struct {
	FilterType    string          `json:"filter_type"              yaml:"filter_type"`
	FilterQuery   string          `json:"filter_query,omitempty"   yaml:"filter_query,omitempty"`
	FilterBuilder json.RawMessage `json:"filter_builder,omitempty" yaml:"-"`
}

// TimeFilter is the saved time window.
type TimeFilter struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to"   yaml:"to"`
}

// FilterCreateRequest is the body of a filter create call.
type FilterCreateRequest struct {
	Name       string      `json:"filter_name"           yaml:"filter_name"`
	StreamName string      `json:"stream_name"           yaml:"stream_name"`
	Query      FilterQuery `json:"query"                 yaml:"query"`
	TimeFilter *TimeFilter `json:"time_filter,omitempty" yaml:"time_filter,omitempty"`
}
