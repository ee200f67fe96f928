package core

import (
	"context"
	"io"
)

// Prober inspects a single directory and describes the JDK rooted there.
// It returns ErrNotInstallation when dir is not a JDK home.
type Prober interface {
	Probe(ctx context.Context, dir string) (*Installation, error)
}

// ProberFunc adapts a function to the Prober interface
type ProberFunc func(ctx context.Context, dir string) (*Installation, error)

// Probe implements Prober
func (f ProberFunc) Probe(ctx context.Context, dir string) (*Installation, error) {
	return f(ctx, dir)
}

// RegistryReader reads values from the platform registry.
// On platforms without a registry every lookup reports absent.
type RegistryReader interface {
	// ReadValue returns the string value, or ok=false when the key or value is missing
	ReadValue(key, valueName string) (value string, ok bool, err error)

	// SubKeys lists the immediate subkeys of key, or ok=false when the key is missing
	SubKeys(key string) (names []string, ok bool, err error)
}

// Watcher registers change notifications for a location.
// Closing the returned handle unregisters the watch.
type Watcher interface {
	Watch(location string, onChange func()) (io.Closer, error)
}
