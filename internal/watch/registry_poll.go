package watch

import (
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/quantmind-br/jdkinfo/internal/core"
	"github.com/rs/zerolog"
)

// DefaultRegistryPollInterval is how often registry keys are fingerprinted
const DefaultRegistryPollInterval = 10 * time.Second

// RegistryPoller watches registry keys by periodically fingerprinting their
// subkeys and the values the detector reads. The registry has no
// cross-platform notification API, so polling keeps the watcher testable.
type RegistryPoller struct {
	reader    core.RegistryReader
	interval  time.Duration
	valueName string
	logger    *zerolog.Logger
}

// NewRegistryPoller creates a poller. valueName is read under every subkey
// as part of the fingerprint (typically "JavaHome").
func NewRegistryPoller(reader core.RegistryReader, valueName string, interval time.Duration, log *zerolog.Logger) *RegistryPoller {
	if interval <= 0 {
		interval = DefaultRegistryPollInterval
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &RegistryPoller{reader: reader, interval: interval, valueName: valueName, logger: log}
}

// Watch implements core.Watcher. The key must be readable when Watch is
// called; a missing key is watched for appearance.
func (p *RegistryPoller) Watch(key string, onChange func()) (io.Closer, error) {
	if p.reader == nil {
		return nil, errors.New("watch: no registry reader")
	}

	initial, err := p.fingerprint(key)
	if err != nil {
		return nil, fmt.Errorf("watch: registry key %s: %w", key, err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		last := initial
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				current, err := p.fingerprint(key)
				if err != nil {
					p.logger.Debug().Err(err).Str("key", key).Msg("registry poll failed")
					continue
				}
				if current != last {
					last = current
					onChange()
				}
			}
		}
	}()

	return &pollHandle{stop: stop, done: done}, nil
}

func (p *RegistryPoller) fingerprint(key string) (uint64, error) {
	h := fnv.New64a()

	current, _, err := p.reader.ReadValue(key, "CurrentVersion")
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(h, "cv=%s\n", current)

	subkeys, ok, err := p.reader.SubKeys(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return h.Sum64(), nil
	}

	sorted := append([]string(nil), subkeys...)
	sort.Strings(sorted)
	for _, sub := range sorted {
		value, _, err := p.reader.ReadValue(key+`\`+sub, p.valueName)
		if err != nil {
			return 0, err
		}
		fmt.Fprintf(h, "%s=%s\n", strings.ToLower(sub), value)
	}
	return h.Sum64(), nil
}

type pollHandle struct {
	once sync.Once
	stop chan struct{}
	done chan struct{}
}

func (h *pollHandle) Close() error {
	h.once.Do(func() {
		close(h.stop)
		<-h.done
	})
	return nil
}
