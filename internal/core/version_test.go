package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJavaVersion(t *testing.T) {
	tests := []struct {
		input     string
		want      Version
		wantBuild int
	}{
		{"1.8.0_202", Version{Major: 1, Minor: 8, Patch: 0}, 202},
		{"1.8.0_202-b08", Version{Major: 1, Minor: 8, Patch: 0}, 202},
		{"1.7.0-b147", Version{Major: 1, Minor: 7, Patch: 0}, 147},
		{"11.0.2", Version{Major: 11, Minor: 0, Patch: 2}, 0},
		{"11.0.2+7", Version{Major: 11, Minor: 0, Patch: 2}, 7},
		{`"17.0.1"`, Version{Major: 17, Minor: 0, Patch: 1}, 0},
		{"21", Version{Major: 21}, 0},
		{"21-ea+19", Version{Major: 21, Qualifier: "ea"}, 19},
		{"11.0.9.1+1", Version{Major: 11, Patch: 9}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, build, err := ParseJavaVersion(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantBuild, build)
		})
	}
}

func TestParseJavaVersionErrors(t *testing.T) {
	for _, input := range []string{"", "abc", "1.x.0", "1.8.0_abc", "1.2.3.4.5"} {
		t.Run(input, func(t *testing.T) {
			_, _, err := ParseJavaVersion(input)
			assert.Error(t, err)
		})
	}
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"equal", "11.0.2", "11.0.2", 0},
		{"major", "1.8.0", "11.0.2", -1},
		{"minor", "11.1.0", "11.0.9", 1},
		{"patch", "17.0.1", "17.0.10", -1},
		{"release above prerelease", "21.0.0", "21.0.0-ea", 1},
		{"prerelease below release", "21.0.0-ea", "21.0.0", -1},
		{"numeric qualifiers", "17.0.0-1", "17.0.0-2", -1},
		{"numeric below alpha", "17.0.0-1", "17.0.0-ea", -1},
		{"longer qualifier wins", "17.0.0-ea.1", "17.0.0-ea", 1},
		{"underscore qualifier", "17.0.0-ea_1", "17.0.0-ea-1", 0},
		{"leading zeros", "17.0.0-007", "17.0.0-7", 0},
		{"legacy below modern", "1.8.0_202", "9.0.4", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseVersion(tt.a)
			require.NoError(t, err)
			b, err := ParseVersion(tt.b)
			require.NoError(t, err)

			assert.Equal(t, tt.want, a.Compare(b))
			assert.Equal(t, -tt.want, b.Compare(a))
		})
	}
}

func TestVersionTextRoundTrip(t *testing.T) {
	inst := Installation{Path: "/opt/jdk-21", Version: Version{Major: 21, Qualifier: "ea"}}

	data, err := json.Marshal(inst)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version":"21.0.0-ea"`)

	var decoded Installation
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, inst.Version, decoded.Version)
}

func TestSemverPrerelease(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ea", "ea"},
		{"ea.1", "ea.1"},
		{"ea_1", "ea-1"},
		{"007", "7"},
		{"000", "0"},
		{"ea..1", "ea.0.1"},
		{"rc+x", "rc-x"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, semverPrerelease(tt.in))
			assert.Equal(t, "v1.0.0-"+tt.want, Version{Major: 1, Qualifier: tt.in}.semver())
		})
	}
}
