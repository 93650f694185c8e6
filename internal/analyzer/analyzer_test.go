package analyzer

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/loglens/loglens/internal/breaker"
	"github.com/loglens/loglens/internal/clierr"
	"github.com/loglens/loglens/internal/model"
)

type fakeProvider struct {
	calls   int32
	analyze func(req model.AnalysisRequest) (*model.AnalysisResponse, error)
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.analyze(req)
}

func (f *fakeProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	return nil, nil
}

func makeEntries(n int) []model.LogEntry {
	out := make([]model.LogEntry, n)
	for i := range out {
		out[i] = model.LogEntry{Message: fmt.Sprintf("line %d", i), Level: model.LevelInfo}
	}
	return out
}

func TestAnalyzeSingleChunk(t *testing.T) {
	fp := &fakeProvider{analyze: func(req model.AnalysisRequest) (*model.AnalysisResponse, error) {
		return &model.AnalysisResponse{SequenceOfEvents: "ok", Confidence: 0.9}, nil
	}}
	b := breaker.New("fake", breaker.DefaultConfig())
	cfg := DefaultConfig()
	a := New(fp, b, time.Second, cfg)

	resp, err := a.Analyze(context.Background(), makeEntries(10), model.AnalysisRequest{}, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if resp.SequenceOfEvents != "ok" {
		t.Errorf("SequenceOfEvents = %q", resp.SequenceOfEvents)
	}
	if fp.calls != 1 {
		t.Errorf("calls = %d, want 1", fp.calls)
	}
}

func TestAnalyzeChunksAndMerges(t *testing.T) {
	var counter int32
	fp := &fakeProvider{analyze: func(req model.AnalysisRequest) (*model.AnalysisResponse, error) {
		n := atomic.AddInt32(&counter, 1)
		return &model.AnalysisResponse{
			SequenceOfEvents: fmt.Sprintf("chunk-%d", n),
			Confidence:       float64(n) / 10.0,
			RootCause:        model.RootCause{Description: fmt.Sprintf("cause-%d", n), Confidence: float64(n) / 10.0},
			Recommendations:  []string{"do something", fmt.Sprintf("specific-%d", n)},
		}, nil
	}}
	b := breaker.New("fake", breaker.DefaultConfig())
	cfg := DefaultConfig()
	cfg.ChunkingThreshold = 5
	cfg.MaxTokensPerChunk = 1
	cfg.MaxParallelChunks = 2
	a := New(fp, b, time.Second, cfg)

	resp, err := a.Analyze(context.Background(), makeEntries(20), model.AnalysisRequest{}, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if resp.SequenceOfEvents == "" {
		t.Error("SequenceOfEvents is empty after merge")
	}
	if len(resp.Recommendations) == 0 {
		t.Error("Recommendations is empty after merge")
	}
	if fp.calls < 2 {
		t.Errorf("calls = %d, want multiple chunks dispatched", fp.calls)
	}
}

func TestAnalyzeAllChunksFailReturnsAnalysisFailed(t *testing.T) {
	fp := &fakeProvider{analyze: func(req model.AnalysisRequest) (*model.AnalysisResponse, error) {
		return nil, fmt.Errorf("boom")
	}}
	b := breaker.New("fake", breaker.DefaultConfig())
	cfg := DefaultConfig()
	cfg.ChunkingThreshold = 1
	cfg.MaxTokensPerChunk = 1
	a := New(fp, b, time.Second, cfg)

	_, err := a.Analyze(context.Background(), makeEntries(3), model.AnalysisRequest{}, nil)
	if err == nil {
		t.Fatal("expected error when provider always fails")
	}
	ce, ok := err.(*clierr.Error)
	if !ok || ce.Kind != clierr.KindAnalysisFailed {
		t.Fatalf("err = %v, want a %s error", err, clierr.KindAnalysisFailed)
	}
}

func TestProgressFeedbackEmitsEvents(t *testing.T) {
	fp := &fakeProvider{analyze: func(req model.AnalysisRequest) (*model.AnalysisResponse, error) {
		return &model.AnalysisResponse{SequenceOfEvents: "ok", Confidence: 1}, nil
	}}
	b := breaker.New("fake", breaker.DefaultConfig())
	cfg := DefaultConfig()
	cfg.ProgressFeedback = true
	a := New(fp, b, time.Second, cfg)

	var events []model.ProgressEvent
	_, err := a.Analyze(context.Background(), makeEntries(5), model.AnalysisRequest{}, func(e model.ProgressEvent) {
		events = append(events, e)
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(events) == 0 {
		t.Error("expected progress events when ProgressFeedback is enabled")
	}
}
