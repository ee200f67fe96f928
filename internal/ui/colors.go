package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Color scheme for jdkinfo
var (
	Success = color.New(color.FgGreen)
	Error   = color.New(color.FgRed, color.Bold)
	Warning = color.New(color.FgYellow)
	Info    = color.New(color.FgCyan)

	Highlight = color.New(color.FgHiCyan, color.Bold)
	Muted     = color.New(color.Faint)
	Bold      = color.New(color.Bold)

	CheckMark = color.GreenString("✓")
	CrossMark = color.RedString("✗")
	Arrow     = color.CyanString("→")
	Star      = color.YellowString("★")

	archX64   = color.New(color.FgBlue)
	archARM   = color.New(color.FgMagenta)
	archOther = color.New(color.FgYellow)
)

// InitColors applies a logging.color style setting (auto, always, never).
// auto leaves fatih/color's terminal detection in place but honours
// NO_COLOR and TERM=dumb.
func InitColors(setting string) {
	switch strings.ToLower(setting) {
	case "always":
		color.NoColor = false
		return
	case "never":
		color.NoColor = true
		return
	}

	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		color.NoColor = true
	}
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	Success.Fprintf(os.Stdout, "%s %s\n", CheckMark, fmt.Sprintf(format, args...))
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	Error.Fprintf(os.Stderr, "%s Error: %s\n", CrossMark, fmt.Sprintf(format, args...))
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	Warning.Fprintf(os.Stderr, "Warning: %s\n", fmt.Sprintf(format, args...))
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	Info.Fprintf(os.Stdout, "%s %s\n", Arrow, fmt.Sprintf(format, args...))
}

// PrintKeyValue prints a key-value pair with color
func PrintKeyValue(key, value string) {
	Bold.Fprintf(os.Stdout, "%s: ", key)
	fmt.Fprintln(os.Stdout, value)
}

// PrintHeader prints a section header
func PrintHeader(text string) {
	fmt.Fprintln(os.Stdout)
	Bold.Fprintln(os.Stdout, text)
	Muted.Fprintln(os.Stdout, "────────────────────────────────────────")
}

// ColorizeArch returns a colored architecture name
func ColorizeArch(arch string) string {
	switch arch {
	case "x64", "x86":
		return archX64.Sprint(arch)
	case "arm64", "arm":
		return archARM.Sprint(arch)
	default:
		return archOther.Sprint(arch)
	}
}

// DefaultMarker returns the marker shown next to the default installation
func DefaultMarker(isDefault bool) string {
	if isDefault {
		return Star
	}
	return ""
}

// SprintSuccess returns a success string without printing
func SprintSuccess(format string, args ...interface{}) string {
	return fmt.Sprintf("%s %s", CheckMark, fmt.Sprintf(format, args...))
}

// SprintError returns an error string without printing
func SprintError(format string, args ...interface{}) string {
	return fmt.Sprintf("%s %s", CrossMark, fmt.Sprintf(format, args...))
}

// AreColorsEnabled returns whether colors are currently enabled
func AreColorsEnabled() bool {
	return !color.NoColor
}

// PrintSubheader prints a subsection header
func PrintSubheader(text string) {
	Highlight.Fprintln(os.Stdout, text)
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Fprintf(os.Stdout, "  • %s\n", item)
	}
}
