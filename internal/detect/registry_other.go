//go:build !windows

package detect

import "github.com/quantmind-br/jdkinfo/internal/core"

type noRegistry struct{}

// NewRegistryReader returns a reader that reports every key as absent
func NewRegistryReader() core.RegistryReader {
	return noRegistry{}
}

func (noRegistry) ReadValue(string, string) (string, bool, error) { return "", false, nil }

func (noRegistry) SubKeys(string) ([]string, bool, error) { return nil, false, nil }
