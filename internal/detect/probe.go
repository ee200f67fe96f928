package detect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/quantmind-br/jdkinfo/internal/core"
	"github.com/quantmind-br/jdkinfo/internal/fsops"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultProbeTimeout = 5 * time.Second
	DefaultConcurrency  = 4
)

// ProbeRunner applies a Prober to candidates, descending into
// subdirectories and bounding each probe with a timeout.
type ProbeRunner struct {
	Prober      core.Prober
	Fs          afero.Fs
	Multiple    bool
	Timeout     time.Duration
	Concurrency int
	Getenv      func(string) string
	Logger      *zerolog.Logger
}

// Run probes dir and, down to depth levels, its subdirectories. A directory
// that matches is not descended into. In single mode the first match wins.
func (r *ProbeRunner) Run(ctx context.Context, dir string, depth int) []core.Installation {
	var found []core.Installation
	r.walk(ctx, dir, depth, &found)
	return found
}

// walk returns true when the search should stop
func (r *ProbeRunner) walk(ctx context.Context, dir string, depth int, found *[]core.Installation) bool {
	if ctx.Err() != nil {
		return true
	}

	if inst, ok := r.probe(ctx, dir); ok {
		*found = append(*found, inst)
		return !r.Multiple
	}

	return r.descend(ctx, dir, depth, found)
}

// descend walks the subdirectories of dir that lie within depth
func (r *ProbeRunner) descend(ctx context.Context, dir string, depth int, found *[]core.Installation) bool {
	if depth <= 0 || ctx.Err() != nil {
		return false
	}

	subdirs, err := fsops.SubDirs(r.fs(), dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger().Debug().Err(err).Str("path", dir).Msg("cannot list candidate directory")
		}
		return false
	}

	for _, sub := range subdirs {
		if r.walk(ctx, sub, depth-1, found) {
			return true
		}
	}
	return false
}

// probe runs the Prober with a timeout and classifies the outcome
func (r *ProbeRunner) probe(ctx context.Context, dir string) (core.Installation, bool) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		inst *core.Installation
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		inst, err := r.Prober.Probe(probeCtx, dir)
		done <- outcome{inst, err}
	}()

	var res outcome
	select {
	case res = <-done:
	case <-probeCtx.Done():
		res = outcome{err: fmt.Errorf("timed out after %s: %w", timeout, probeCtx.Err())}
	}

	switch {
	case errors.Is(res.err, core.ErrNotInstallation):
		r.logger().Debug().Str("path", dir).Msg("not a jdk")
		return core.Installation{}, false
	case res.err != nil:
		r.logger().Warn().Err(&core.ProbeError{Dir: dir, Err: res.err}).Str("path", dir).Msg("probe failed")
		return core.Installation{}, false
	case res.inst == nil:
		return core.Installation{}, false
	}

	inst := res.inst.Clone()
	if inst.Path == "" {
		inst.Path = dir
	}
	inst.Path = fsops.Canonical(r.fs(), inst.Path)
	inst.IsDefault = false
	return inst, true
}

// RunAll probes every directory and env-hint candidate concurrently and
// returns the matches in candidate order, plus the installation path the
// env hint resolved to, if any. An env hint naming a parent directory is
// searched like a path candidate but designates nothing.
func (r *ProbeRunner) RunAll(ctx context.Context, cands []core.Candidate) ([]core.Installation, string) {
	perCandidate := make([][]core.Installation, len(cands))
	envMatch := make([]bool, len(cands))

	limit := r.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var group errgroup.Group
	group.SetLimit(limit)

	for i, c := range cands {
		switch c.Kind {
		case core.CandidatePath:
			group.Go(func() error {
				perCandidate[i] = r.Run(ctx, c.Dir, c.Depth)
				return nil
			})
		case core.CandidateEnvHint:
			dir := r.getenv(c.EnvVar)
			if dir == "" {
				continue
			}
			group.Go(func() error {
				// Only a JDK at the variable's own directory designates the default
				if inst, ok := r.probe(ctx, dir); ok {
					perCandidate[i] = []core.Installation{inst}
					envMatch[i] = true
					return nil
				}
				var found []core.Installation
				r.descend(ctx, dir, c.Depth, &found)
				perCandidate[i] = found
				return nil
			})
		}
	}
	_ = group.Wait()

	var all []core.Installation
	designated := ""
	for i, found := range perCandidate {
		if envMatch[i] && designated == "" {
			designated = found[0].Path
		}
		all = append(all, found...)
	}
	return all, designated
}

func (r *ProbeRunner) fs() afero.Fs {
	if r.Fs == nil {
		return afero.NewOsFs()
	}
	return r.Fs
}

func (r *ProbeRunner) getenv(key string) string {
	if r.Getenv == nil {
		return os.Getenv(key)
	}
	return r.Getenv(key)
}

func (r *ProbeRunner) logger() *zerolog.Logger {
	if r.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return r.Logger
}
