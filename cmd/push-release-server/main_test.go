package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paritytech/push-release/internal/auth"
	"github.com/paritytech/push-release/internal/config"
)

func TestSecretHash(t *testing.T) {
	for _, args := range [][]string{
		{"secret", "hash", "test"},
		{"secret", "hash"},
	} {
		cmd := newRootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetIn(strings.NewReader("test\n"))
		cmd.SetArgs(args)

		require.NoError(t, cmd.Execute())
		assert.Equal(t, auth.HashSecret("test")+"\n", out.String())
	}
}

func TestSecretHash_TrimsStdin(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("  test \r\n"))
	cmd.SetArgs([]string{"secret", "hash"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, auth.HashSecret("test")+"\n", out.String())
}

func TestPrintConfig_RedactsPassword(t *testing.T) {
	cfg := config.Default()
	cfg.Ledger.Password = "hunter2"
	cfg.Release.SecretHash = auth.HashSecret("test")

	var out bytes.Buffer
	require.NoError(t, printConfig(&out, cfg))

	assert.NotContains(t, out.String(), "hunter2")
	assert.Contains(t, out.String(), "********")
	assert.Contains(t, out.String(), "rpcUrl: http://localhost:8545")
	assert.Equal(t, "hunter2", cfg.Ledger.Password, "caller's config is untouched")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}
