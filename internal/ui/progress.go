package ui

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Spinner shows activity while a scan of unknown length runs
type Spinner struct {
	bar *progressbar.ProgressBar
}

// NewSpinner creates a spinner writing to w (stderr when nil)
func NewSpinner(description string, w io.Writer) *Spinner {
	if w == nil {
		w = os.Stderr
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(10),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)

	return &Spinner{bar: bar}
}

// Tick advances the spinner animation
func (s *Spinner) Tick() error {
	return s.bar.Add(1)
}

// Describe changes the spinner text
func (s *Spinner) Describe(description string) {
	s.bar.Describe(description)
}

// Finish stops and clears the spinner
func (s *Spinner) Finish() error {
	return s.bar.Finish()
}
