// Package analyzer implements LogLens's analysis driver (C6), per
// spec.md §4.6: it slims entries, chunks oversized sequences, dispatches
// bounded-parallel provider calls, and merges partial responses
// deterministically. Parallel dispatch is grounded on the teacher
// orchestrator's goroutine-plus-WaitGroup fan-out, bounded here by
// golang.org/x/sync/semaphore to respect max_parallel_chunks.
package analyzer

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/loglens/loglens/internal/breaker"
	"github.com/loglens/loglens/internal/clierr"
	"github.com/loglens/loglens/internal/model"
	"github.com/loglens/loglens/internal/provider"
	"github.com/loglens/loglens/internal/slim"
)

// Config tunes the Analyzer's chunking and concurrency behavior.
type Config struct {
	MaxTokensPerChunk  int
	ChunkingThreshold  int
	SlimmingMode       slim.Mode
	MaxParallelChunks  int
	ProgressFeedback   bool
	MaxRecommendations int
}

// DefaultConfig mirrors spec.md §4.6's defaults for an unconfigured
// analysis.
func DefaultConfig() Config {
	return Config{
		MaxTokensPerChunk:  3000,
		ChunkingThreshold:  200,
		MaxParallelChunks:  4,
		MaxRecommendations: 5,
	}
}

// ProgressFunc receives progress events when Config.ProgressFeedback is
// enabled.
type ProgressFunc func(model.ProgressEvent)

// Analyzer drives one or more provider calls to produce a single
// AnalysisResponse.
type Analyzer struct {
	provider provider.Provider
	breaker  *breaker.CircuitBreaker
	config   Config
	timeout  time.Duration
}

// New constructs an Analyzer calling p under breaker b, each call bounded
// by perCallTimeout.
func New(p provider.Provider, b *breaker.CircuitBreaker, perCallTimeout time.Duration, cfg Config) *Analyzer {
	return &Analyzer{provider: p, breaker: b, config: cfg, timeout: perCallTimeout}
}

// chunkResult pairs a chunk's response with its position and entry count,
// for deterministic merging.
type chunkResult struct {
	index    int
	entries  int
	response *model.AnalysisResponse
	err      error
}

// Analyze runs the full algorithm of spec.md §4.6 over entries.
func (a *Analyzer) Analyze(ctx context.Context, entries []model.LogEntry, req model.AnalysisRequest, progress ProgressFunc) (*model.AnalysisResponse, error) {
	start := time.Now()
	emit := func(stage model.ProgressStage, pct float64, msg string) {
		if a.config.ProgressFeedback && progress != nil {
			progress(model.ProgressEvent{Stage: stage, Progress: pct, Message: msg, ElapsedMS: time.Since(start).Milliseconds()})
		}
	}

	emit(model.StageSlimming, 0.1, "slimming entries")
	mode := a.config.SlimmingMode
	if mode == "" {
		mode = slim.SelectMode(len(entries))
	}
	slimmed := slim.Slim(entries, mode)

	if len(slimmed) <= a.config.ChunkingThreshold {
		emit(model.StageAnalyzing, 0.5, "analyzing single chunk")
		chunkReq := req
		chunkReq.Entries = slimmed
		resp, err := a.callProvider(ctx, chunkReq)
		if err != nil {
			return nil, err
		}
		emit(model.StageFinalizing, 1.0, "done")
		return resp, nil
	}

	chunks := partitionByTokenBudget(slimmed, a.config.MaxTokensPerChunk)
	emit(model.StageAnalyzing, 0.3, "dispatching chunks")

	results := a.dispatchChunks(ctx, chunks, req, emit)

	emit(model.StageFinalizing, 0.9, "merging chunk results")
	merged, err := a.merge(results)
	if err != nil {
		return nil, err
	}
	emit(model.StageFinalizing, 1.0, "done")
	return merged, nil
}

func (a *Analyzer) callProvider(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error) {
	var resp *model.AnalysisResponse
	err := a.breaker.Call(ctx, func(callCtx context.Context) error {
		callCtx, cancel := context.WithTimeout(callCtx, a.timeout)
		defer cancel()
		r, err := a.provider.Analyze(callCtx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// dispatchChunks runs up to MaxParallelChunks provider calls concurrently.
func (a *Analyzer) dispatchChunks(ctx context.Context, chunks [][]model.LogEntry, req model.AnalysisRequest, emit func(model.ProgressStage, float64, string)) []chunkResult {
	limit := a.config.MaxParallelChunks
	if limit <= 0 {
		limit = 1
	}
	sem := semaphore.NewWeighted(int64(limit))

	results := make([]chunkResult, len(chunks))
	var completed int32
	var mu sync.Mutex

	// errgroup fans the chunks out; the semaphore still caps how many
	// run at once, independent of errgroup's own (unbounded) SetLimit.
	var g errgroup.Group
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = chunkResult{index: i, entries: len(chunk), err: err}
				return nil
			}
			defer sem.Release(1)

			chunkReq := req
			chunkReq.Entries = chunk
			resp, err := a.callProvider(ctx, chunkReq)

			mu.Lock()
			completed++
			n := completed
			mu.Unlock()
			emit(model.StageAnalyzing, 0.3+0.6*float64(n)/float64(len(chunks)), "chunk analyzed")

			results[i] = chunkResult{index: i, entries: len(chunk), response: resp, err: err}
			return nil
		})
	}
	g.Wait()
	return results
}

// merge implements spec.md §4.6 step 5/6: deterministic merge of partial
// responses, or AnalysisFailed if every chunk failed.
func (a *Analyzer) merge(results []chunkResult) (*model.AnalysisResponse, error) {
	var succeeded []chunkResult
	var firstErr error
	for _, r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		succeeded = append(succeeded, r)
	}

	if len(succeeded) == 0 {
		return nil, clierr.Wrap(clierr.KindAnalysisFailed, "all chunks failed to analyze", firstErr)
	}

	merged := &model.AnalysisResponse{
		Metadata: map[string]string{},
	}
	if len(succeeded) < len(results) {
		merged.Metadata["warning"] = "partial analysis: some chunks failed"
	}

	var sequenceParts []string
	var bestRoot *model.RootCause
	bestConfidence := -1.0
	bestIndex := -1
	recSeen := make(map[string]bool)
	relatedSeen := make(map[string]bool)
	unrelatedSeen := make(map[string]bool)
	var totalWeight, weightedConfidence float64

	for _, r := range succeeded {
		sequenceParts = append(sequenceParts, r.response.SequenceOfEvents)

		if r.response.RootCause.Confidence > bestConfidence ||
			(r.response.RootCause.Confidence == bestConfidence && (bestIndex == -1 || r.index < bestIndex)) {
			bestConfidence = r.response.RootCause.Confidence
			rc := r.response.RootCause
			bestRoot = &rc
			bestIndex = r.index
		}

		for _, rec := range r.response.Recommendations {
			if !recSeen[rec] {
				recSeen[rec] = true
				if len(merged.Recommendations) < a.recommendationCap() {
					merged.Recommendations = append(merged.Recommendations, rec)
				}
			}
		}
		for _, e := range r.response.RelatedErrors {
			if !relatedSeen[e] {
				relatedSeen[e] = true
				merged.RelatedErrors = append(merged.RelatedErrors, e)
			}
		}
		for _, e := range r.response.UnrelatedErrors {
			if !unrelatedSeen[e] {
				unrelatedSeen[e] = true
				merged.UnrelatedErrors = append(merged.UnrelatedErrors, e)
			}
		}

		weight := float64(r.entries)
		if weight == 0 {
			weight = 1
		}
		totalWeight += weight
		weightedConfidence += weight * r.response.Confidence
	}

	merged.SequenceOfEvents = joinNonEmpty(sequenceParts)
	if bestRoot != nil {
		merged.RootCause = *bestRoot
	}
	if totalWeight > 0 {
		merged.Confidence = weightedConfidence / totalWeight
	}
	return merged, nil
}

func (a *Analyzer) recommendationCap() int {
	if a.config.MaxRecommendations > 0 {
		return a.config.MaxRecommendations
	}
	return 5
}

func joinNonEmpty(parts []string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	result := ""
	for i, p := range out {
		if i > 0 {
			result += " "
		}
		result += p
	}
	return result
}

// partitionByTokenBudget splits entries into contiguous chunks whose
// approximate token size (4 characters per token, a common heuristic)
// stays under maxTokensPerChunk. Order is preserved.
func partitionByTokenBudget(entries []model.LogEntry, maxTokensPerChunk int) [][]model.LogEntry {
	if maxTokensPerChunk <= 0 {
		maxTokensPerChunk = 3000
	}
	maxChars := maxTokensPerChunk * 4

	var chunks [][]model.LogEntry
	var current []model.LogEntry
	currentChars := 0

	for _, e := range entries {
		entryChars := len(e.Message) + 32 // overhead for timestamp/level framing
		if currentChars+entryChars > maxChars && len(current) > 0 {
			chunks = append(chunks, current)
			current = nil
			currentChars = 0
		}
		current = append(current, e)
		currentChars += entryChars
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}
