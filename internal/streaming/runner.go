package streaming

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/loglens/loglens/internal/clierr"
	"github.com/loglens/loglens/internal/logx"
	"github.com/loglens/loglens/internal/model"
	"github.com/loglens/loglens/internal/parse"
)

// StatusStore is the subset of *storage.Store the runner needs to persist
// a streaming source's lifecycle status.
type StatusStore interface {
	UpdateStreamingSourceStatus(ctx context.Context, id string, status model.SourceStatus) error
}

// buildSource constructs the concrete Source for a StreamingSource's
// config, decoding the type-specific JSON payload in src.Config.
func buildSource(src model.StreamingSource) (Source, error) {
	switch src.SourceType {
	case model.SourceFile:
		var cfg model.FileSourceConfig
		if err := json.Unmarshal([]byte(src.Config), &cfg); err != nil {
			return nil, clierr.Wrap(clierr.KindInvalidInput, "invalid file source config", err)
		}
		return &FileSource{Path: cfg.Path}, nil
	case model.SourceCommand:
		var cfg model.CommandSourceConfig
		if err := json.Unmarshal([]byte(src.Config), &cfg); err != nil {
			return nil, clierr.Wrap(clierr.KindInvalidInput, "invalid command source config", err)
		}
		return &CommandSource{Command: cfg.Command, Args: cfg.Args}, nil
	case model.SourceTCPListener:
		var cfg model.TCPListenerSourceConfig
		if err := json.Unmarshal([]byte(src.Config), &cfg); err != nil {
			return nil, clierr.Wrap(clierr.KindInvalidInput, "invalid tcp listener source config", err)
		}
		return &TCPListenerSource{Port: cfg.Port}, nil
	case model.SourceStdin:
		return &StdinSource{}, nil
	case model.SourceHTTPEndpoint:
		var cfg model.HTTPEndpointSourceConfig
		if err := json.Unmarshal([]byte(src.Config), &cfg); err != nil {
			return nil, clierr.Wrap(clierr.KindInvalidInput, "invalid http endpoint source config", err)
		}
		return &HTTPEndpointSource{Path: cfg.Path}, nil
	default:
		return nil, clierr.New(clierr.KindInvalidInput, "unknown streaming source type: "+string(src.SourceType))
	}
}

// Run drives one StreamingSource to completion: build its Source, batch
// its parsed lines to hub, and restart it (up to MaxRestarts times) on
// failure when RestartOnError is set. It blocks until ctx is cancelled or
// restarts are exhausted.
func Run(ctx context.Context, src model.StreamingSource, hub *Hub, store StatusStore) error {
	attempts := 0
	for {
		source, err := buildSource(src)
		if err != nil {
			markStatus(ctx, store, src.ID, model.SourceFailed)
			return err
		}

		markStatus(ctx, store, src.ID, model.SourceActive)
		batcher := newBatcher(src, hub)

		err = source.Run(ctx, func(line string) {
			batcher.add(line)
		})
		batcher.flush()

		if ctx.Err() != nil {
			markStatus(ctx, store, src.ID, model.SourceStopped)
			return nil
		}
		if err == nil {
			markStatus(ctx, store, src.ID, model.SourceStopped)
			return nil
		}

		attempts++
		logx.Log().Warn().Str("source_id", src.ID).Err(err).Int("attempt", attempts).Msg("streaming source ended with error")
		if !src.RestartOnError || attempts > src.MaxRestarts {
			markStatus(ctx, store, src.ID, model.SourceFailed)
			return err
		}
	}
}

func markStatus(ctx context.Context, store StatusStore, id string, status model.SourceStatus) {
	if store == nil {
		return
	}
	if err := store.UpdateStreamingSourceStatus(ctx, id, status); err != nil {
		logx.Log().Error().Str("source_id", id).Err(err).Msg("failed to update streaming source status")
	}
}

// batcher accumulates parsed entries for a source and flushes a
// StreamingBatch to the hub when it reaches BufferSize entries or
// BatchTimeout elapses since the first unflushed entry, per spec.md
// §4.12's buffering/batching requirement.
type batcher struct {
	projectID  string
	sourceID   string
	sourceName string
	hub        *Hub
	bufferSize int
	timeout    time.Duration

	entries  []model.StreamingLogEntry
	deadline time.Time
	lineNum  int
}

func newBatcher(src model.StreamingSource, hub *Hub) *batcher {
	size := src.BufferSize
	if size <= 0 {
		size = model.DefaultBufferSize
	}
	timeout := src.BatchTimeout
	if timeout <= 0 {
		timeout = model.DefaultBatchTimeout
	}
	return &batcher{
		projectID:  src.ProjectID,
		sourceID:   src.ID,
		sourceName: src.Name,
		hub:        hub,
		bufferSize: size,
		timeout:    timeout,
	}
}

func (b *batcher) add(line string) {
	b.lineNum++
	entry := parse.ParseLine(line, b.lineNum)
	if b.entries == nil {
		b.deadline = time.Now().Add(b.timeout)
	}
	b.entries = append(b.entries, model.StreamingLogEntry{LogEntry: entry, SourceID: b.sourceID})

	if len(b.entries) >= b.bufferSize || time.Now().After(b.deadline) {
		b.flush()
	}
}

func (b *batcher) flush() {
	if len(b.entries) == 0 {
		return
	}
	batch := model.StreamingBatch{
		BatchID:    uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		SourceName: b.sourceName,
		ProjectID:  b.projectID,
		Entries:    b.entries,
	}
	b.hub.Publish(batch)
	b.entries = nil
}
