package detect

import (
	"os"
	"path/filepath"
	"strings"
)

// EnvHint is the environment variable consulted for the system JDK
const EnvHint = "JAVA_HOME"

// RegistryValue is the value read under each registry subkey
const RegistryValue = "JavaHome"

// Platform describes the OS-specific inputs to candidate enumeration
type Platform struct {
	GOOS string

	// Defaults are well-known install roots probed after configured paths
	Defaults []string

	// EnvVar names the environment hint; empty disables it
	EnvVar string

	// RegistryKeys are probed through RegistryValue subkeys (Windows only)
	RegistryKeys []string

	// Depth is the descent limit for directory candidates
	Depth int

	// Abs makes a path absolute; defaults to filepath.Abs
	Abs func(string) (string, error)
}

// CaseInsensitive reports whether paths compare without case
func (p Platform) CaseInsensitive() bool {
	return p.GOOS == "windows"
}

func (p Platform) abs(path string) (string, error) {
	if p.Abs != nil {
		return p.Abs(path)
	}
	return filepath.Abs(path)
}

// DefaultPlatform returns the well-known JDK locations for goos.
// getenv resolves Windows folder variables; nil means os.Getenv.
func DefaultPlatform(goos string, depth int, getenv func(string) string) Platform {
	if getenv == nil {
		getenv = os.Getenv
	}

	p := Platform{GOOS: goos, EnvVar: EnvHint, Depth: depth}

	switch goos {
	case "linux":
		p.Defaults = []string{"/usr/lib/jvm", "/usr/java", "/opt/java", "/opt"}
	case "darwin":
		p.Defaults = []string{
			"/Library/Java/JavaVirtualMachines",
			"/System/Library/Java/JavaVirtualMachines",
		}
	case "windows":
		for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)", "SystemDrive"} {
			base := getenv(env)
			if base == "" {
				continue
			}
			p.Defaults = append(p.Defaults, strings.TrimRight(base, `\`)+`\Java`)
		}
		p.RegistryKeys = []string{
			`HKLM\SOFTWARE\JavaSoft\Java Development Kit`,
			`HKLM\SOFTWARE\Wow6432Node\JavaSoft\Java Development Kit`,
			`HKLM\SOFTWARE\JavaSoft\JDK`,
		}
	default:
		p.Defaults = []string{"/usr/java", "/opt/java"}
	}

	return p
}
