package model

import "time"

// SourceType identifies the kind of live log producer a StreamingSource
// wraps.
type SourceType string

const (
	SourceFile        SourceType = "file"
	SourceCommand     SourceType = "command"
	SourceTCPListener SourceType = "tcp_listener"
	SourceStdin       SourceType = "stdin"
	SourceHTTPEndpoint SourceType = "http_endpoint"
)

// SourceStatus is the lifecycle state of a StreamingSource.
type SourceStatus string

const (
	SourceActive  SourceStatus = "active"
	SourceStopped SourceStatus = "stopped"
	SourceFailed  SourceStatus = "failed"
)

// LogFormat is the wire format a streaming source's lines are parsed as.
type LogFormat string

const (
	FormatText      LogFormat = "text"
	FormatJSON      LogFormat = "json"
	FormatSyslog    LogFormat = "syslog"
	FormatCommonLog LogFormat = "common"
)

// ParserConfig configures how raw streaming lines are projected onto the
// canonical LogEntry shape.
type ParserConfig struct {
	Format          LogFormat `json:"format"`
	TimestampFormat string    `json:"timestamp_format,omitempty"`
	LevelField      string    `json:"level_field,omitempty"`
	MessageField    string    `json:"message_field,omitempty"`
	MetadataFields  []string  `json:"metadata_fields,omitempty"`
}

// StreamingSource is a live producer of log lines attached to a project.
type StreamingSource struct {
	ID              string       `json:"id"`
	ProjectID       string       `json:"project_id"`
	Name            string       `json:"name"`
	SourceType      SourceType   `json:"source_type"`
	Config          string       `json:"config"` // JSON, source-type specific
	ParserConfig    ParserConfig `json:"parser_config"`
	BufferSize      int          `json:"buffer_size"`
	BatchTimeout    time.Duration `json:"batch_timeout"`
	RestartOnError  bool         `json:"restart_on_error"`
	MaxRestarts     int          `json:"max_restarts"`
	Status          SourceStatus `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// DefaultBufferSize and DefaultBatchTimeout are the spec's defaults for a
// StreamingSource's buffering behavior.
const (
	DefaultBufferSize   = 100
	DefaultBatchTimeout = 2 * time.Second
)

// StreamingLogEntry is a LogEntry tagged with its originating source, for
// use inside a StreamingBatch.
type StreamingLogEntry struct {
	LogEntry
	SourceID string `json:"source_id"`
}

// StreamingBatch is a bounded, time- or size-triggered broadcast unit.
//
// Invariant: every entry in a batch shares ProjectID.
type StreamingBatch struct {
	BatchID    string              `json:"batch_id"`
	Timestamp  time.Time           `json:"timestamp"`
	SourceName string              `json:"source_name"`
	ProjectID  string              `json:"project_id"`
	Entries    []StreamingLogEntry `json:"entries"`
}

// FileSourceConfig configures a File source.
type FileSourceConfig struct {
	Path string `json:"path"`
}

// CommandSourceConfig configures a Command source.
type CommandSourceConfig struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// TCPListenerSourceConfig configures a TcpListener source.
type TCPListenerSourceConfig struct {
	Port int `json:"port"`
}

// HTTPEndpointSourceConfig configures an HttpEndpoint source.
type HTTPEndpointSourceConfig struct {
	Path string `json:"path"`
}
