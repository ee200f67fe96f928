// Package detect discovers JDK installations. The Engine enumerates
// candidate locations, probes them, ranks the matches and keeps the
// published result set current as watches, timers and reconfiguration
// trigger re-scans.
package detect

import (
	"context"
	"errors"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/quantmind-br/jdkinfo/internal/cleanup"
	"github.com/quantmind-br/jdkinfo/internal/core"
	"github.com/quantmind-br/jdkinfo/internal/fsops"
	"github.com/quantmind-br/jdkinfo/internal/results"
	"github.com/quantmind-br/jdkinfo/internal/watch"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const (
	DefaultDepth    = 1
	DefaultInterval = 5 * time.Minute
	DefaultDebounce = 500 * time.Millisecond
)

// Options configures an Engine
type Options struct {
	Prober core.Prober

	// Registry is consulted for registry key candidates; nil disables them
	Registry core.RegistryReader

	// Watcher watches directory candidates; nil means timer-only detection
	Watcher core.Watcher

	// RegistryWatcher watches registry key candidates; nil disables it
	RegistryWatcher core.Watcher

	// Platform supplies default locations; nil means DefaultPlatform(runtime.GOOS)
	Platform *Platform

	Fs           afero.Fs
	Multiple     bool
	Depth        int
	Interval     time.Duration
	Debounce     time.Duration
	ProbeTimeout time.Duration
	Concurrency  int

	// OnScanFailure receives enumeration failures; the scan is skipped
	OnScanFailure func(err error)

	Getenv func(string) string
	Logger *zerolog.Logger
}

// DefaultOptions returns options with multiple mode on and the default
// depth, interval, debounce, probe timeout and concurrency.
func DefaultOptions() Options {
	return Options{
		Multiple:     true,
		Depth:        DefaultDepth,
		Interval:     DefaultInterval,
		Debounce:     DefaultDebounce,
		ProbeTimeout: DefaultProbeTimeout,
		Concurrency:  DefaultConcurrency,
	}
}

// Engine is the scan scheduler. One goroutine owns the scan state; public
// methods only signal it.
type Engine struct {
	opts     Options
	platform Platform
	runner   *ProbeRunner
	results  *results.Set
	logger   *zerolog.Logger

	mu          sync.Mutex
	state       core.EngineState
	searchPaths []string
	triggers    chan struct{}
	reconfigure chan struct{}
	stop        chan struct{}
	done        chan struct{}
	stopErr     error
}

// New creates a stopped engine
func New(opts Options) *Engine {
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	platform := DefaultPlatform(runtime.GOOS, opts.Depth, opts.Getenv)
	if opts.Platform != nil {
		platform = *opts.Platform
	}

	return &Engine{
		opts:     opts,
		platform: platform,
		runner: &ProbeRunner{
			Prober:      opts.Prober,
			Fs:          opts.Fs,
			Multiple:    opts.Multiple,
			Timeout:     opts.ProbeTimeout,
			Concurrency: opts.Concurrency,
			Getenv:      opts.Getenv,
			Logger:      opts.Logger,
		},
		results: results.NewSet(),
		logger:  opts.Logger,
		state:   core.StateStopped,
	}
}

// Results returns the observable result set
func (e *Engine) Results() *results.Set {
	return e.results
}

// State returns the current lifecycle state
func (e *Engine) State() core.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start computes candidates, runs and publishes an initial scan, registers
// watches and arms the periodic timer. An enumeration failure during the
// initial scan is reported through OnScanFailure; the engine still starts.
//
// Scans keep the values of ctx but not its cancellation: only Stop ends the
// engine, and a scan in flight at that point completes before it is published.
func (e *Engine) Start(ctx context.Context, searchPaths []string) error {
	if err := e.opts.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	if e.state != core.StateStopped {
		e.mu.Unlock()
		return core.ErrAlreadyRunning
	}
	e.state = core.StateStarting
	e.searchPaths = append([]string(nil), searchPaths...)
	e.triggers = make(chan struct{}, 1)
	e.reconfigure = make(chan struct{}, 1)
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	e.stopErr = nil
	e.mu.Unlock()

	scanCtx := context.WithoutCancel(ctx)
	s := &scheduler{
		ctx:         scanCtx,
		triggers:    e.triggers,
		reconfigure: e.reconfigure,
		stop:        e.stop,
		done:        e.done,
		watches:     make(map[string]io.Closer),
		teardown:    cleanup.NewStack(e.logger),
	}
	s.debouncer = watch.NewDebouncer(e.opts.Debounce, func(locations []string) {
		e.logger.Debug().Strs("locations", locations).Msg("change detected")
		e.trigger()
	})

	s.paths = e.currentPaths()
	if e.recompute(s) {
		e.publish(s, e.scan(scanCtx, s.candidates))
	}

	e.setState(core.StateIdle)
	go e.loop(s)

	e.logger.Info().Int("candidates", len(s.candidates)).Int("watches", len(s.watches)).Msg("detect engine started")
	return nil
}

// Stop unregisters every watch and timer, waits for an in-flight scan to
// publish and returns the engine to Stopped. It may be followed by Start.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.state == core.StateStopped || e.state == core.StateStopping {
		e.mu.Unlock()
		return nil
	}
	e.state = core.StateStopping
	close(e.stop)
	done := e.done
	e.mu.Unlock()

	<-done

	e.mu.Lock()
	e.state = core.StateStopped
	err := e.stopErr
	e.mu.Unlock()

	e.logger.Info().Msg("detect engine stopped")
	return err
}

// Rescan requests a scan. Requests made while a scan runs collapse into one
// follow-up scan.
func (e *Engine) Rescan() {
	e.trigger()
}

// SetSearchPaths replaces the configured paths, reconciles watches and
// triggers a scan. On a stopped engine it only records the paths, which the
// next Start replaces with its own argument.
func (e *Engine) SetSearchPaths(paths []string) {
	e.mu.Lock()
	e.searchPaths = append([]string(nil), paths...)
	running := e.state != core.StateStopped && e.state != core.StateStopping
	ch := e.reconfigure
	e.mu.Unlock()

	if running {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (e *Engine) trigger() {
	e.mu.Lock()
	ch := e.triggers
	e.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (e *Engine) currentPaths() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.searchPaths...)
}

// setState never leaves Stopping; only Stop does
func (e *Engine) setState(state core.EngineState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == core.StateStopping || e.state == core.StateStopped {
		return
	}
	e.state = state
}

// scheduler is owned by the loop goroutine (and by Start before the loop runs)
type scheduler struct {
	ctx           context.Context
	triggers      chan struct{}
	reconfigure   chan struct{}
	stop          chan struct{}
	done          chan struct{}
	paths         []string
	candidates    []core.Candidate
	designated    string
	scanning      bool
	pendingRescan bool
	scanDone      chan scanResult
	watches       map[string]io.Closer
	teardown      *cleanup.Stack
	debouncer     *watch.Debouncer
}

type scanResult struct {
	installs   []core.Installation
	designated string
	err        error
}

func (e *Engine) loop(s *scheduler) {
	defer close(s.done)

	var tick <-chan time.Time
	if e.opts.Interval > 0 {
		ticker := time.NewTicker(e.opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-s.stop:
			e.shutdown(s)
			return

		case <-s.triggers:
			e.request(s)

		case <-tick:
			e.logger.Debug().Msg("periodic rescan")
			e.request(s)

		case <-s.reconfigure:
			s.paths = e.currentPaths()
			if e.recompute(s) {
				e.request(s)
			}

		case r := <-s.scanDone:
			s.scanning = false
			s.scanDone = nil
			e.publish(s, r)
			e.setState(core.StateIdle)
			if s.pendingRescan {
				s.pendingRescan = false
				e.request(s)
			}
		}
	}
}

// request starts a scan, or marks one pending if a scan is in flight
func (e *Engine) request(s *scheduler) {
	if s.scanning {
		s.pendingRescan = true
		return
	}

	s.scanning = true
	s.scanDone = make(chan scanResult, 1)
	e.setState(core.StateScanning)

	cands := append([]core.Candidate(nil), s.candidates...)
	done := s.scanDone
	go func() {
		done <- e.scan(s.ctx, cands)
	}()
}

func (e *Engine) shutdown(s *scheduler) {
	s.debouncer.Stop()
	err := s.teardown.Run()
	s.watches = make(map[string]io.Closer)

	if s.scanning {
		e.publish(s, <-s.scanDone)
		s.scanning = false
	}

	e.mu.Lock()
	e.stopErr = err
	e.triggers = nil
	e.mu.Unlock()
}

// scan enumerates registry candidates and probes everything. It must not
// touch scheduler state; it runs on its own goroutine.
func (e *Engine) scan(ctx context.Context, cands []core.Candidate) scanResult {
	expanded, regHome, err := expandRegistry(e.opts.Registry, cands)
	if err != nil {
		return scanResult{err: err}
	}

	installs, envHome := e.runner.RunAll(ctx, expanded)

	designated := envHome
	if designated == "" && regHome != "" {
		designated = fsops.Canonical(e.opts.Fs, regHome)
	}

	return scanResult{installs: installs, designated: designated}
}

func (e *Engine) publish(s *scheduler, r scanResult) {
	if r.err != nil {
		e.logger.Error().Err(r.err).Msg("scan skipped")
		if e.opts.OnScanFailure != nil {
			e.opts.OnScanFailure(r.err)
		}
		return
	}

	// The last system designation sticks until a scan reports a new one
	if r.designated != "" {
		s.designated = r.designated
	}

	ranked, defaultPath := Rank(r.installs, s.designated)
	snap := e.results.Replace(ranked, defaultPath)

	e.logger.Debug().
		Uint64("scan_seq", snap.Seq).
		Int("count", len(ranked)).
		Str("default", defaultPath).
		Msg("scan published")
}

// recompute rebuilds candidates from the current paths and reconciles
// watches. On failure the previous candidates are kept and no scan should run.
func (e *Engine) recompute(s *scheduler) bool {
	cands, err := ComputeCandidates(s.paths, e.platform)
	if err != nil {
		e.logger.Error().Err(err).Msg("cannot compute candidates")
		if e.opts.OnScanFailure != nil {
			e.opts.OnScanFailure(err)
		}
		return false
	}
	s.candidates = cands
	e.reconcileWatches(s)
	return true
}

func (e *Engine) reconcileWatches(s *scheduler) {
	wanted := make(map[string]core.Watcher)
	var order []string
	for _, c := range s.candidates {
		var w core.Watcher
		switch c.Kind {
		case core.CandidatePath:
			w = e.opts.Watcher
		case core.CandidateRegistryKey:
			w = e.opts.RegistryWatcher
		}
		if w == nil {
			continue
		}
		loc := c.Location()
		if _, ok := wanted[loc]; !ok {
			wanted[loc] = w
			order = append(order, loc)
		}
	}

	for loc := range s.watches {
		if _, keep := wanted[loc]; keep {
			continue
		}
		if _, err := s.teardown.Release(watchResource(loc)); err != nil {
			e.logger.Warn().Err(err).Str("candidate", loc).Msg("failed to remove watch")
		}
		delete(s.watches, loc)
	}

	for _, loc := range order {
		if _, ok := s.watches[loc]; ok {
			continue
		}
		location := loc
		handle, err := wanted[loc].Watch(location, func() { s.debouncer.Add(location) })
		if err != nil {
			e.logger.Warn().
				Err(&core.WatchError{Location: location, Err: err}).
				Str("candidate", location).
				Msg("watch unavailable; relying on periodic rescans")
			continue
		}
		s.watches[location] = handle
		s.teardown.AddCloser(watchResource(location), handle)
	}
}

func watchResource(location string) string {
	return "watch " + location
}

var errNoProber = errors.New("detect: no prober configured")

// Validate reports configuration errors that would make every scan fail
func (o Options) Validate() error {
	if o.Prober == nil {
		return errNoProber
	}
	return nil
}
