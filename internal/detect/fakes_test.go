package detect

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/quantmind-br/jdkinfo/internal/core"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// fakeProber recognises the directories it was told about
type fakeProber struct {
	mu      sync.Mutex
	jdks    map[string]core.Installation
	errs    map[string]error
	gate    chan struct{}
	entered chan string
	calls   int
}

func newFakeProber() *fakeProber {
	return &fakeProber{
		jdks:    make(map[string]core.Installation),
		errs:    make(map[string]error),
		entered: make(chan string, 64),
	}
}

func (p *fakeProber) add(path, version string, build int, arch string) {
	v, err := core.ParseVersion(version)
	if err != nil {
		panic(err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jdks[path] = core.Installation{Path: path, Version: v, Build: build, Arch: arch}
}

func (p *fakeProber) remove(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.jdks, path)
}

// block makes every following Probe wait until the returned func is called
func (p *fakeProber) block() (release func()) {
	gate := make(chan struct{})
	p.mu.Lock()
	p.gate = gate
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			p.gate = nil
			p.mu.Unlock()
			close(gate)
		})
	}
}

func (p *fakeProber) Probe(ctx context.Context, dir string) (*core.Installation, error) {
	p.mu.Lock()
	p.calls++
	gate := p.gate
	p.mu.Unlock()

	if gate != nil {
		select {
		case p.entered <- dir:
		default:
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.errs[dir]; ok {
		return nil, err
	}
	inst, ok := p.jdks[dir]
	if !ok {
		return nil, core.ErrNotInstallation
	}
	return &inst, nil
}

func (p *fakeProber) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// fakeWatcher records registrations and lets tests fire change events
type fakeWatcher struct {
	mu      sync.Mutex
	subs    map[string]func()
	fail    map[string]bool
	watched []string
	closed  []string
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{subs: make(map[string]func()), fail: make(map[string]bool)}
}

func (w *fakeWatcher) Watch(location string, onChange func()) (io.Closer, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail[location] {
		return nil, errors.New("no space left on device")
	}
	w.subs[location] = onChange
	w.watched = append(w.watched, location)
	return closerFunc(func() error {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs, location)
		w.closed = append(w.closed, location)
		return nil
	}), nil
}

func (w *fakeWatcher) fire(location string) bool {
	w.mu.Lock()
	fn, ok := w.subs[location]
	w.mu.Unlock()
	if ok {
		fn()
	}
	return ok
}

func (w *fakeWatcher) active() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.subs))
	for loc := range w.subs {
		out = append(out, loc)
	}
	return out
}

func (w *fakeWatcher) closedLocations() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.closed...)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// fakeRegistry is an in-memory registry keyed by `key|value`
type fakeRegistry struct {
	mu      sync.Mutex
	values  map[string]string
	subkeys map[string][]string
	err     error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{values: make(map[string]string), subkeys: make(map[string][]string)}
}

func (r *fakeRegistry) ReadValue(key, name string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", false, r.err
	}
	v, ok := r.values[key+"|"+name]
	return v, ok, nil
}

func (r *fakeRegistry) SubKeys(key string) ([]string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, false, r.err
	}
	subs, ok := r.subkeys[key]
	return subs, ok, nil
}

func mkdirs(t *testing.T, fs afero.Fs, dirs ...string) {
	t.Helper()
	for _, dir := range dirs {
		require.NoError(t, fs.MkdirAll(dir, 0o755))
	}
}

func paths(installs []core.Installation) []string {
	out := make([]string, len(installs))
	for i, inst := range installs {
		out[i] = inst.Path
	}
	return out
}
