package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()

	want := []string{"provision", "ingest", "search", "cluster", "count", "delete", "version"}
	got := make(map[string]bool)
	for _, c := range root.Commands() {
		got[c.Name()] = true
	}
	for _, name := range want {
		assert.True(t, got[name], "missing command %q", name)
	}
}

func TestVersionCommand(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "neorag")
	assert.Contains(t, out.String(), AppVersion)
}

func TestDeleteRequiresURI(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"delete"})

	// argument validation fires before any connection is attempted
	assert.Error(t, root.Execute())
}

func TestClusterFlagDefaults(t *testing.T) {
	root := NewRootCmd()
	cluster, _, err := root.Find([]string{"cluster"})
	require.NoError(t, err)

	assert.Equal(t, "5", cluster.Flags().Lookup("top-k").DefValue)
	assert.Equal(t, "0.9", cluster.Flags().Lookup("threshold").DefValue)
	assert.Equal(t, "false", cluster.Flags().Lookup("singletons").DefValue)
}
