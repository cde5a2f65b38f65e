package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"resolve", "serve", "kb"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "trailpost", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestKBCommand_HasSubcommands(t *testing.T) {
	cmds := kbCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"add", "list", "import", "migrate"}
	for _, name := range expected {
		assert.True(t, names[name], "expected kb subcommand %q not found", name)
	}
}

func TestParsePoint(t *testing.T) {
	p, err := parsePoint("38.7223", "-9.1393")
	require.NoError(t, err)
	assert.InDelta(t, 38.7223, p.Lat, 1e-9)
	assert.InDelta(t, -9.1393, p.Lon, 1e-9)

	_, err = parsePoint("north", "-9.1393")
	assert.Error(t, err)
}

func TestParseFixCSV(t *testing.T) {
	points, err := parseFixCSV(strings.NewReader("38.7223,-9.1393\n41.1579,-8.6291\n"))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.InDelta(t, 41.1579, points[1].Lat, 1e-9)
}

func TestParseFixCSV_SkipsHeader(t *testing.T) {
	points, err := parseFixCSV(strings.NewReader("lat,lon\n38.7223,-9.1393\n"))
	require.NoError(t, err)
	require.Len(t, points, 1)
}

func TestParseFixCSV_BadRow(t *testing.T) {
	_, err := parseFixCSV(strings.NewReader("38.7223,-9.1393\n38.7,here\n"))
	assert.Error(t, err)
}
