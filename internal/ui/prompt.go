package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/manifoldco/promptui"
)

// ErrCancelled is returned when the user aborts a prompt
var ErrCancelled = errors.New("selection cancelled by user")

// SelectOption is one entry of a detailed selection list
type SelectOption struct {
	Label  string
	Detail string
	Value  string
}

// FuzzySearcher matches the typed filter against label and detail
func FuzzySearcher(options []SelectOption) func(input string, index int) bool {
	return func(input string, index int) bool {
		if index < 0 || index >= len(options) {
			return false
		}
		input = strings.TrimSpace(input)
		if input == "" {
			return true
		}
		opt := options[index]
		return fuzzy.MatchNormalizedFold(input, opt.Label) || fuzzy.MatchNormalizedFold(input, opt.Detail)
	}
}

// SelectPromptDetailed presents options with details and fuzzy search,
// starting on cursor.
func SelectPromptDetailed(label string, options []SelectOption, cursor int) (int, SelectOption, error) {
	if len(options) == 0 {
		return -1, SelectOption{}, errors.New("nothing to select")
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   "▸ {{ .Label | cyan }} ({{ .Detail | faint }})",
		Inactive: "  {{ .Label | faint }} ({{ .Detail | faint }})",
		Selected: "▸ {{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     options,
		Templates: templates,
		Size:      min(10, len(options)),
		Searcher:  FuzzySearcher(options),
		CursorPos: max(0, min(cursor, len(options)-1)),
	}

	index, _, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
			return -1, SelectOption{}, ErrCancelled
		}
		return -1, SelectOption{}, fmt.Errorf("select prompt: %w", err)
	}

	return index, options[index], nil
}
