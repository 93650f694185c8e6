// Package scheduler implements LogLens's long-lived analysis worker (C11),
// per spec.md §4.11: a fixed-interval tick/claim loop over pending
// analyses, bounded in-flight concurrency, and crash recovery for
// analyses left Running by a prior process that died mid-call. The
// tick/dispatch shape is grounded on the teacher orchestrator's
// goroutine-plus-WaitGroup fan-out; the in-flight tracker generalizes the
// teacher's observer.PIDTracker from "track spawned BCC PIDs" to "track
// in-flight analysis ids".
package scheduler

import (
	"context"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/loglens/loglens/internal/analyzer"
	"github.com/loglens/loglens/internal/breaker"
	"github.com/loglens/loglens/internal/decode"
	"github.com/loglens/loglens/internal/digest"
	"github.com/loglens/loglens/internal/filter"
	"github.com/loglens/loglens/internal/logx"
	"github.com/loglens/loglens/internal/model"
	"github.com/loglens/loglens/internal/parse"
	"github.com/loglens/loglens/internal/provider"
	"github.com/loglens/loglens/internal/storage"
)

// Config tunes the scheduler's tick interval, concurrency bound, and
// crash-recovery grace period.
type Config struct {
	TickInterval       time.Duration
	MaxInFlight        int
	PerAnalysisTimeout time.Duration
	StaleRunningGrace  time.Duration
	AnalyzerConfig     analyzer.Config
	DigestConfig       model.DigestConfig
}

// DefaultConfig matches SPEC_FULL.md §9(b)'s crash-recovery defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval:       30 * time.Second,
		MaxInFlight:        4,
		PerAnalysisTimeout: 2 * time.Minute,
		StaleRunningGrace:  10 * time.Minute,
		AnalyzerConfig:     analyzer.DefaultConfig(),
		DigestConfig:       model.DefaultDigestConfig(),
	}
}

// Credentials resolves a provider name to the configuration (API key,
// model override, base URL) the scheduler should construct it with.
type Credentials func(providerName string) provider.Config

// Scheduler drives pending analyses to completion.
type Scheduler struct {
	store       *storage.Store
	breakers    *breaker.Registry
	credentials Credentials
	config      Config

	sem *semaphore.Weighted

	mu       sync.Mutex
	inFlight map[string]time.Time // analysis id -> claimed-at
}

// New constructs a Scheduler. credentials resolves per-provider API keys;
// breakers is shared with any other component (e.g. the dashboard) that
// also calls providers, per spec.md's "breaker registry is a singleton"
// requirement.
func New(store *storage.Store, breakers *breaker.Registry, credentials Credentials, cfg Config) *Scheduler {
	limit := cfg.MaxInFlight
	if limit <= 0 {
		limit = 1
	}
	return &Scheduler{
		store:       store,
		breakers:    breakers,
		credentials: credentials,
		config:      cfg,
		sem:         semaphore.NewWeighted(int64(limit)),
		inFlight:    map[string]time.Time{},
	}
}

// Run blocks ticking at cfg.TickInterval, claiming and dispatching pending
// analyses, until ctx is cancelled. It performs the crash-recovery sweep
// once before entering the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.recoverStaleRunning(ctx); err != nil {
		logx.Log().Error().Err(err).Msg("stale-running recovery sweep failed")
	}

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) recoverStaleRunning(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.config.StaleRunningGrace)
	n, err := s.store.ResetStaleRunning(ctx, cutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		logx.Log().Warn().Int64("count", n).Msg("reset stale running analyses to pending")
	}
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	pending, err := s.store.PendingAnalysesWithLogFile(ctx)
	if err != nil {
		logx.Log().Error().Err(err).Msg("failed to query pending analyses")
		return
	}

	var wg sync.WaitGroup
	for _, a := range pending {
		if s.alreadyClaimed(a.ID) {
			continue
		}
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return
		}
		s.claim(a.ID)
		wg.Add(1)
		go func(a model.Analysis) {
			defer wg.Done()
			defer s.sem.Release(1)
			defer s.release(a.ID)
			s.runOne(ctx, a)
		}(a)
	}
	wg.Wait()
}

func (s *Scheduler) alreadyClaimed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[id]
	return ok
}

func (s *Scheduler) claim(id string) {
	s.mu.Lock()
	s.inFlight[id] = time.Now().UTC()
	s.mu.Unlock()
}

func (s *Scheduler) release(id string) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}

// runOne executes the full pipeline for a single analysis: Running ->
// decode/parse/filter -> analyze -> digest -> Completed|Failed.
func (s *Scheduler) runOne(ctx context.Context, a model.Analysis) {
	log := logx.Log().With().Str("analysis_id", a.ID).Str("provider", a.Provider).Logger()

	if err := s.store.TransitionStatus(ctx, a.ID, model.AnalysisRunning, "", ""); err != nil {
		log.Error().Err(err).Msg("failed to claim analysis")
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.PerAnalysisTimeout)
	defer cancel()

	result, err := s.analyze(callCtx, a)
	if err != nil {
		log.Error().Err(err).Msg("analysis failed")
		if ferr := s.store.TransitionStatus(ctx, a.ID, model.AnalysisFailed, "", err.Error()); ferr != nil {
			log.Error().Err(ferr).Msg("failed to record analysis failure")
		}
		return
	}

	if err := s.store.StoreAnalysisResult(ctx, *result); err != nil {
		log.Error().Err(err).Msg("failed to persist analysis result")
	}
	if err := s.store.TransitionStatus(ctx, a.ID, model.AnalysisCompleted, result.Summary, ""); err != nil {
		log.Error().Err(err).Msg("failed to record analysis completion")
	}
}

func (s *Scheduler) analyze(ctx context.Context, a model.Analysis) (*model.AnalysisResult, error) {
	data, err := os.ReadFile(a.LogFilePath)
	if err != nil {
		return nil, err
	}

	decoded, err := decode.Decode(data)
	if err != nil {
		return nil, err
	}

	entries := parse.Parse(decoded.Lines)

	levelFilter := a.LevelFilter
	if levelFilter == "" {
		levelFilter = "INFO"
	}
	filtered, err := filter.FilterByName(entries, levelFilter)
	if err != nil {
		return nil, err
	}

	p, err := provider.New(a.Provider, s.credentials(a.Provider))
	if err != nil {
		return nil, err
	}

	az := analyzer.New(p, s.breakers.Get(a.Provider), s.config.PerAnalysisTimeout, s.config.AnalyzerConfig)
	req := model.AnalysisRequest{}
	response, err := az.Analyze(ctx, filtered, req, nil)
	if err != nil {
		return nil, err
	}

	d := digest.Build(entries, filtered, decoded.Lines, response, s.config.DigestConfig)
	patterns, err := encodePatterns(d.CriticalErrors)
	if err != nil {
		return nil, err
	}

	return &model.AnalysisResult{
		AnalysisID:       a.ID,
		Summary:          response.SequenceOfEvents,
		FullReport:       response.RootCause.Description,
		PatternsDetected: patterns,
		IssuesFound:      len(d.CriticalErrors),
	}, nil
}
