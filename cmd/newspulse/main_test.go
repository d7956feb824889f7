package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, e := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY"} {
		t.Setenv(e, "")
		os.Unsetenv(e)
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	assert.Contains(t, run(t, "version"), "NewsPulse dev")
}

func TestConfigCommand(t *testing.T) {
	out := run(t, "config", "--log-level", "debug")
	assert.Contains(t, out, "llm:")
	assert.Contains(t, out, "level: debug")
}

func TestStatusCommand(t *testing.T) {
	out := run(t, "status")
	assert.Contains(t, out, "LLM Primary:   gemini")
	assert.Contains(t, out, "Gemini API Key:")
	assert.Contains(t, out, "not set")
}

func TestReportCommandRejectsFormat(t *testing.T) {
	t.Chdir(t.TempDir())
	rootCmd.SetArgs([]string{"report", "Tesla", "--format", "docx"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown report format")
}
