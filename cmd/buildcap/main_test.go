package main

import (
	"bytes"
	"testing"

	"buildcap/internal/cmdline"
	"buildcap/internal/errors"
	"buildcap/internal/workspace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProperties(t *testing.T) {
	props, err := parseProperties([]string{"TargetFramework=net8.0", "DefineConstants=A;B", "Empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"TargetFramework": "net8.0",
		"DefineConstants": "A;B",
		"Empty":           "",
	}, props)

	_, err = parseProperties([]string{"novalue"})
	require.Error(t, err)
	assert.Equal(t, []string{"use -P Name=Value"}, errors.GetAllHints(err))

	_, err = parseProperties([]string{"=x"})
	assert.Error(t, err)
}

func TestTokenizeCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"tokenize", `csc.exe /define:"A B" Program.cs`})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "  0  /define:A B\n  1  Program.cs\n", out.String())

	rootCmd.SetArgs([]string{"tokenize", `/out:"x`})
	err := rootCmd.Execute()
	var te *cmdline.TokenizerError
	assert.True(t, errors.As(err, &te))
}

func TestBuildLabel(t *testing.T) {
	ws := workspace.New()
	net8 := &workspace.Project{ID: workspace.NewProjectID(0), Name: "Lib", OutputFilePath: "/src/Lib/obj/Debug/net8.0/Lib.dll"}
	ns20 := &workspace.Project{ID: workspace.NewProjectID(1), Name: "Lib", OutputFilePath: "/src/Lib/obj/Debug/netstandard2.0/Lib.dll"}
	app := &workspace.Project{ID: workspace.NewProjectID(2), Name: "App", OutputFilePath: "/src/App/obj/Debug/net8.0/App.dll"}
	for _, p := range []*workspace.Project{net8, ns20, app} {
		ws.Add(p)
	}

	assert.Equal(t, " [build 1 of 2, net8.0]", buildLabel(ws, net8))
	assert.Equal(t, " [build 2 of 2, netstandard2.0]", buildLabel(ws, ns20))
	assert.Empty(t, buildLabel(ws, app))
}
