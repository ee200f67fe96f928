//go:build windows

package detect

import (
	"errors"
	"fmt"

	"github.com/quantmind-br/jdkinfo/internal/core"
	"golang.org/x/sys/windows/registry"
)

type windowsRegistry struct{}

// NewRegistryReader returns a reader for the Windows registry
func NewRegistryReader() core.RegistryReader {
	return windowsRegistry{}
}

func openKey(path string, access uint32) (registry.Key, bool, error) {
	hive, sub, err := splitRegistryPath(path)
	if err != nil {
		return 0, false, err
	}

	roots := map[string]registry.Key{
		"HKLM": registry.LOCAL_MACHINE,
		"HKCU": registry.CURRENT_USER,
		"HKCR": registry.CLASSES_ROOT,
		"HKU":  registry.USERS,
	}

	k, err := registry.OpenKey(roots[hive], sub, access)
	if errors.Is(err, registry.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("open %s: %w", path, err)
	}
	return k, true, nil
}

func (windowsRegistry) ReadValue(key, valueName string) (string, bool, error) {
	k, ok, err := openKey(key, registry.QUERY_VALUE)
	if err != nil || !ok {
		return "", false, err
	}
	defer k.Close()

	value, _, err := k.GetStringValue(valueName)
	if errors.Is(err, registry.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s\\%s: %w", key, valueName, err)
	}
	return value, true, nil
}

func (windowsRegistry) SubKeys(key string) ([]string, bool, error) {
	k, ok, err := openKey(key, registry.ENUMERATE_SUB_KEYS|registry.QUERY_VALUE)
	if err != nil || !ok {
		return nil, false, err
	}
	defer k.Close()

	names, err := k.ReadSubKeyNames(-1)
	if err != nil {
		return nil, false, fmt.Errorf("list subkeys of %s: %w", key, err)
	}
	return names, true, nil
}
