package detect

import (
	"path/filepath"
	"strings"

	"github.com/quantmind-br/jdkinfo/internal/core"
)

// ComputeCandidates builds the ordered candidate list: configured paths,
// then the env hint, then platform defaults, then registry keys.
// Directory candidates are de-duplicated by absolute path. It never touches
// the disk.
func ComputeCandidates(configured []string, p Platform) ([]core.Candidate, error) {
	var out []core.Candidate
	seen := make(map[string]struct{})

	addDir := func(raw string) error {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
		abs, err := p.abs(raw)
		if err != nil {
			return &core.EnumerationError{Location: raw, Err: err}
		}
		abs = filepath.Clean(abs)

		key := abs
		if p.CaseInsensitive() {
			key = strings.ToLower(abs)
		}
		if _, dup := seen[key]; dup {
			return nil
		}
		seen[key] = struct{}{}

		out = append(out, core.Candidate{Kind: core.CandidatePath, Dir: abs, Depth: p.Depth})
		return nil
	}

	for _, path := range configured {
		if err := addDir(path); err != nil {
			return nil, err
		}
	}

	if p.EnvVar != "" {
		out = append(out, core.Candidate{Kind: core.CandidateEnvHint, EnvVar: p.EnvVar, Depth: p.Depth})
	}

	for _, path := range p.Defaults {
		if err := addDir(path); err != nil {
			return nil, err
		}
	}

	for _, key := range p.RegistryKeys {
		out = append(out, core.Candidate{
			Kind:      core.CandidateRegistryKey,
			Key:       key,
			ValueName: RegistryValue,
			Depth:     1,
		})
	}

	return out, nil
}

// expandRegistry resolves registry key candidates into directory candidates
// and reads the system designation. A missing key contributes nothing; any
// other registry failure aborts enumeration.
func expandRegistry(reg core.RegistryReader, cands []core.Candidate) ([]core.Candidate, string, error) {
	out := make([]core.Candidate, 0, len(cands))
	designated := ""
	seen := make(map[string]struct{})

	for _, c := range cands {
		if c.Kind != core.CandidateRegistryKey {
			out = append(out, c)
			continue
		}
		if reg == nil {
			continue
		}

		subkeys, ok, err := reg.SubKeys(c.Key)
		if err != nil {
			return nil, "", &core.EnumerationError{Location: c.Key, Err: err}
		}
		if !ok {
			continue
		}

		for _, sub := range subkeys {
			home, ok, err := reg.ReadValue(c.Key+`\`+sub, c.ValueName)
			if err != nil {
				return nil, "", &core.EnumerationError{Location: c.Key + `\` + sub, Err: err}
			}
			if !ok || home == "" {
				continue
			}
			lower := strings.ToLower(home)
			if _, dup := seen[lower]; dup {
				continue
			}
			seen[lower] = struct{}{}
			// A registry JavaHome is the JDK home itself
			out = append(out, core.Candidate{Kind: core.CandidatePath, Dir: home, Depth: 0})
		}

		if designated == "" {
			designated = currentVersionHome(reg, c)
		}
	}

	return out, designated, nil
}

// currentVersionHome reads key\<CurrentVersion>\JavaHome. Any missing piece
// or read failure means no designation.
func currentVersionHome(reg core.RegistryReader, c core.Candidate) string {
	current, ok, err := reg.ReadValue(c.Key, "CurrentVersion")
	if err != nil || !ok || current == "" {
		return ""
	}
	home, ok, err := reg.ReadValue(c.Key+`\`+current, c.ValueName)
	if err != nil || !ok {
		return ""
	}
	return home
}
