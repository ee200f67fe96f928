package cmd

import (
	"encoding/json"
	"testing"

	"github.com/quantmind-br/jdkinfo/internal/core"
	"github.com/quantmind-br/jdkinfo/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCmd_EmptyDatabase(t *testing.T) {
	t.Parallel()

	out, err := execute(t, NewListCmd(testConfig(t), discardLogger()))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestListCmd_Table(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	seedSnapshot(t, cfg, sampleSnapshot())

	out, err := execute(t, NewListCmd(cfg, discardLogger()))
	require.NoError(t, err)

	assert.Contains(t, out, "/usr/lib/jvm/java-17-openjdk")
	assert.Contains(t, out, "1.8.0+202")
	assert.Contains(t, out, "21.0.0-ea+19")
	assert.Contains(t, out, "Eclipse Adoptium")
}

func TestListCmd_JSON(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	want := sampleSnapshot()
	seedSnapshot(t, cfg, want)

	out, err := execute(t, NewListCmd(cfg, discardLogger()), "--json")
	require.NoError(t, err)

	var got core.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, want.Seq, got.Seq)
	assert.Equal(t, want.DefaultPath, got.DefaultPath)
	require.Len(t, got.Installations, len(want.Installations))
	for i := range want.Installations {
		assert.Equal(t, want.Installations[i].Path, got.Installations[i].Path)
	}
}

func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	for seq := uint64(1); seq <= 3; seq++ {
		snap := sampleSnapshot()
		snap.Seq = seq
		seedSnapshot(t, cfg, snap)
	}

	out, err := execute(t, NewHistoryCmd(cfg, discardLogger()))
	require.NoError(t, err)
	assert.Contains(t, out, "java-17-openjdk")

	out, err = execute(t, NewHistoryCmd(cfg, discardLogger()), "--json", "--limit", "2")
	require.NoError(t, err)

	var summaries []db.SnapshotSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, uint64(3), summaries[0].Seq)
	assert.Equal(t, uint64(2), summaries[1].Seq)
	assert.Equal(t, 5, summaries[0].Count)
}

func TestHistoryCmd_Empty(t *testing.T) {
	t.Parallel()

	out, err := execute(t, NewHistoryCmd(testConfig(t), discardLogger()))
	require.NoError(t, err)
	assert.Empty(t, out)
}
