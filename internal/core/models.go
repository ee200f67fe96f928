package core

import "time"

// CandidateKind identifies where a candidate location comes from
type CandidateKind string

const (
	CandidatePath        CandidateKind = "path"
	CandidateEnvHint     CandidateKind = "env"
	CandidateRegistryKey CandidateKind = "registry"
)

// Candidate is a location that may contain a JDK
type Candidate struct {
	Kind      CandidateKind `json:"kind"`
	Dir       string        `json:"dir,omitempty"`
	EnvVar    string        `json:"env_var,omitempty"`
	Key       string        `json:"key,omitempty"`
	ValueName string        `json:"value_name,omitempty"`
	Depth     int           `json:"depth"`
}

// Location returns the string used to identify the candidate in logs and watches
func (c Candidate) Location() string {
	switch c.Kind {
	case CandidateEnvHint:
		return "$" + c.EnvVar
	case CandidateRegistryKey:
		return c.Key
	default:
		return c.Dir
	}
}

// Installation represents one confirmed JDK
type Installation struct {
	Path        string            `json:"path"`
	Version     Version           `json:"version"`
	Build       int               `json:"build"`
	Arch        string            `json:"arch"`
	IsDefault   bool              `json:"default"`
	Vendor      string            `json:"vendor,omitempty"`
	Executables map[string]string `json:"executables,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Clone returns a deep copy of the installation
func (i Installation) Clone() Installation {
	out := i
	if i.Executables != nil {
		out.Executables = make(map[string]string, len(i.Executables))
		for k, v := range i.Executables {
			out.Executables[k] = v
		}
	}
	if i.Metadata != nil {
		out.Metadata = make(map[string]string, len(i.Metadata))
		for k, v := range i.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Snapshot is the ranked result of one scan
type Snapshot struct {
	Seq           uint64         `json:"seq"`
	TakenAt       time.Time      `json:"taken_at"`
	DefaultPath   string         `json:"default_path,omitempty"`
	Installations []Installation `json:"installations"`
}

// Default returns the default installation, if any
func (s Snapshot) Default() (Installation, bool) {
	for _, inst := range s.Installations {
		if inst.IsDefault {
			return inst, true
		}
	}
	return Installation{}, false
}

// Clone returns a copy that shares no mutable state with s
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Installations = CloneInstallations(s.Installations)
	return out
}

// CloneInstallations deep-copies a slice of installations
func CloneInstallations(in []Installation) []Installation {
	out := make([]Installation, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// EngineState is the scan scheduler lifecycle state
type EngineState string

const (
	StateStopped  EngineState = "stopped"
	StateStarting EngineState = "starting"
	StateIdle     EngineState = "idle"
	StateScanning EngineState = "scanning"
	StateStopping EngineState = "stopping"
)

// Exit codes
const (
	ExitSuccess     = 0
	ExitGeneral     = 1
	ExitInvalidArgs = 2
	ExitScanFailed  = 3
	ExitDatabase    = 5
	ExitInterrupted = 130
)
