// Package poller refreshes the fleet snapshot on a fixed interval
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/velivert/velivert/internal/fleet"
	"github.com/velivert/velivert/internal/metrics"
	"github.com/velivert/velivert/internal/models"
	"github.com/velivert/velivert/internal/transit"
)

// Defaults used when WithInterval or WithTimeout are not given.
const (
	// DefaultInterval is the time between cycle starts
	DefaultInterval = 10 * time.Second
	// DefaultTimeout bounds a single cycle, and stays below DefaultInterval
	DefaultTimeout = 8 * time.Second
)

// ErrAlreadyStarted is returned by Start when the loop is already running
var ErrAlreadyStarted = errors.New("poller already started")

// State is the poller lifecycle state
type State int32

const (
	Idle State = iota
	Fetching
	Stopped
)

func (s State) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Stopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Fetcher retrieves all three feeds in one call
type Fetcher interface {
	FetchAll(ctx context.Context) (transit.Feeds, error)
}

// Recorder receives every successfully published snapshot
type Recorder interface {
	RecordSnapshot(ctx context.Context, snap models.Snapshot) error
}

// Option configures a Poller
type Option func(*Poller)

// WithInterval sets the tick period
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithTimeout bounds each cycle
func WithTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the cycle logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics enables cycle instrumentation
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) {
		p.metrics = m
	}
}

// WithRecorder archives each successful snapshot
func WithRecorder(r Recorder) Option {
	return func(p *Poller) {
		p.recorder = r
	}
}

// Poller runs fetch cycles and publishes immutable snapshots.
//
// At most one cycle is in flight; ticks that arrive while a cycle is still
// running are dropped. A failed cycle keeps the previous data and sets Err.
// Once Stop returns, nothing is published.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	recorder Recorder

	busy  chan struct{}
	state atomic.Int32

	mu          sync.RWMutex
	current     models.Snapshot
	lastAttempt time.Time
	started     bool
	stopped     bool
	cancel      context.CancelFunc

	cycles   sync.WaitGroup
	loopDone chan struct{}
	stopOnce sync.Once
}

// New creates a Poller. The initial snapshot is empty and not degraded.
func New(fetcher Fetcher, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
		busy:     make(chan struct{}, 1),
		loopDone: make(chan struct{}),
		current: models.Snapshot{
			Stations: []models.Station{},
			Bikes:    []models.Bike{},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start runs a first cycle immediately, then one per interval, until ctx
// is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	p.started = true
	p.cancel = cancel
	p.mu.Unlock()

	p.logger.Info("poller started", "interval", p.interval, "timeout", p.timeout)

	go p.loop(ctx)
	return nil
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.loopDone)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick starts a cycle in the background unless one is already running
func (p *Poller) tick(ctx context.Context) {
	if !p.acquire() {
		p.metrics.SkippedTick()
		p.logger.Debug("poll tick skipped, cycle in flight")
		return
	}
	if !p.track() {
		p.release()
		return
	}
	go func() {
		defer p.cycles.Done()
		defer p.release()
		p.cycle(ctx)
	}()
}

// RunOnce runs one cycle synchronously. It returns false without fetching
// when another cycle is in flight or the poller is stopped.
func (p *Poller) RunOnce(ctx context.Context) bool {
	if !p.acquire() {
		return false
	}
	defer p.release()
	if !p.track() {
		return false
	}
	defer p.cycles.Done()

	p.cycle(ctx)
	return true
}

// track registers a cycle with Stop's wait group, refusing once stopped
func (p *Poller) track() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return false
	}
	p.cycles.Add(1)
	return true
}

func (p *Poller) acquire() bool {
	select {
	case p.busy <- struct{}{}:
		return true
	default:
		return false
	}
}

func (p *Poller) release() {
	<-p.busy
}

func (p *Poller) cycle(ctx context.Context) {
	cycleID := uuid.NewString()
	start := time.Now()
	logger := p.logger.With("cycle_id", cycleID)

	p.setState(Fetching)
	defer p.setState(Idle)

	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	feeds, err := p.fetcher.FetchAll(cctx)
	duration := time.Since(start)

	if err != nil {
		snap, ok := p.publishFailure(err, start)
		if !ok {
			return
		}
		kind := string(transit.KindOf(err))
		p.metrics.FetchError(kind)
		p.metrics.ObserveCycle(metrics.ResultError, duration)
		logger.Warn("poll cycle failed",
			"duration", duration,
			"kind", kind,
			"error", err,
			"serving_cycle_id", snap.CycleID,
		)
		return
	}

	snap := models.Snapshot{
		CycleID:   cycleID,
		Stations:  fleet.MergeStations(feeds.StationInfos, feeds.StationStatuses),
		Bikes:     feeds.Bikes,
		Counts:    fleet.CountBikes(feeds.Bikes),
		FetchedAt: time.Now().UTC(),
	}
	if !p.publish(snap, start) {
		return
	}

	p.metrics.ObserveCycle(metrics.ResultSuccess, duration)
	p.metrics.SetSnapshot(snap)
	logger.Info("poll cycle succeeded",
		"duration", duration,
		"stations", len(snap.Stations),
		"bikes", len(snap.Bikes),
	)

	if p.recorder != nil {
		if err := p.recorder.RecordSnapshot(cctx, snap); err != nil {
			logger.Error("failed to archive snapshot", "error", err)
		}
	}
}

// publish replaces the current snapshot unless the poller was stopped
func (p *Poller) publish(snap models.Snapshot, attempt time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return false
	}
	p.current = snap
	p.lastAttempt = attempt
	return true
}

// publishFailure keeps the previous data and records err on it
func (p *Poller) publishFailure(err error, attempt time.Time) (models.Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return models.Snapshot{}, false
	}
	snap := p.current
	snap.Err = err
	p.current = snap
	p.lastAttempt = attempt
	return snap, true
}

// Stop cancels the loop and any in-flight cycle, then waits for them to
// exit. It is safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		cancel := p.cancel
		started := p.started
		p.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if started {
			<-p.loopDone
		}
		p.cycles.Wait()
		p.setState(Stopped)
		p.logger.Info("poller stopped")
	})
}

// Current returns the latest published snapshot
func (p *Poller) Current() models.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// LastAttempt returns when the latest published cycle started
func (p *Poller) LastAttempt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastAttempt
}

// State returns the lifecycle state
func (p *Poller) State() State {
	return State(p.state.Load())
}

func (p *Poller) setState(s State) {
	// Stopped is terminal
	for {
		cur := p.state.Load()
		if State(cur) == Stopped {
			return
		}
		if p.state.CompareAndSwap(cur, int32(s)) {
			return
		}
	}
}
