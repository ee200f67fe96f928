package detect

import (
	"sort"
	"strings"

	"github.com/quantmind-br/jdkinfo/internal/core"
)

// Compare orders installations by version, then build, then architecture
func Compare(a, b core.Installation) int {
	if c := a.Version.Compare(b.Version); c != 0 {
		return c
	}
	switch {
	case a.Build < b.Build:
		return -1
	case a.Build > b.Build:
		return 1
	}
	return strings.Compare(a.Arch, b.Arch)
}

// Rank de-duplicates results by path (first wins), sorts them ascending and
// marks exactly one default: the designated path when present, otherwise the
// newest installation. It returns a fresh slice and the default path.
func Rank(results []core.Installation, designated string) ([]core.Installation, string) {
	ranked := make([]core.Installation, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for _, inst := range results {
		if _, dup := seen[inst.Path]; dup {
			continue
		}
		seen[inst.Path] = struct{}{}
		ranked = append(ranked, inst.Clone())
	}

	if len(ranked) == 0 {
		return ranked, ""
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return Compare(ranked[i], ranked[j]) < 0
	})

	defaultIdx := len(ranked) - 1
	if designated != "" {
		for i := range ranked {
			if ranked[i].Path == designated {
				defaultIdx = i
				break
			}
		}
	}

	for i := range ranked {
		ranked[i].IsDefault = i == defaultIdx
	}
	return ranked, ranked[defaultIdx].Path
}
