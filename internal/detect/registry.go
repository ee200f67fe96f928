package detect

import (
	"fmt"
	"strings"
)

// splitRegistryPath separates `HKLM\SOFTWARE\...` into its hive and subpath
func splitRegistryPath(path string) (hive, sub string, err error) {
	hive, sub, _ = strings.Cut(path, `\`)
	switch strings.ToUpper(hive) {
	case "HKLM", "HKEY_LOCAL_MACHINE":
		return "HKLM", sub, nil
	case "HKCU", "HKEY_CURRENT_USER":
		return "HKCU", sub, nil
	case "HKCR", "HKEY_CLASSES_ROOT":
		return "HKCR", sub, nil
	case "HKU", "HKEY_USERS":
		return "HKU", sub, nil
	}
	return "", "", fmt.Errorf("unknown registry hive in %q", path)
}
