package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"pyramid"}, args...))
	return out.String(), err
}

func exitCode(err error) int {
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return -1
}

func TestRun_Table(t *testing.T) {
	out, err := runApp(t, "--current", "100", "--stop-loss", "80", "--capital", "100000", "--target", "130")
	require.NoError(t, err)
	assert.Contains(t, out, "99722.00")
	assert.Contains(t, out, "84.44")
}

func TestRun_CSV(t *testing.T) {
	out, err := runApp(t, "-c", "100", "-s", "80", "-m", "100000", "--csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 21)
	assert.True(t, strings.HasPrefix(lines[0], "band,price"))
	assert.True(t, strings.HasPrefix(lines[20], "20,80.0000"))
}

func TestRun_ValidationExitCode(t *testing.T) {
	_, err := runApp(t, "--current", "80", "--stop-loss", "90", "--capital", "1000")
	require.Error(t, err)
	assert.Equal(t, exitValidation, exitCode(err))
	assert.Contains(t, err.Error(), "InvalidPriceRange")

	_, err = runApp(t, "--current", "100", "--stop-loss", "90", "--capital", "-1")
	require.Error(t, err)
	assert.Equal(t, exitValidation, exitCode(err))
	assert.Contains(t, err.Error(), "InvalidCapital")
}

func TestRun_MissingPriceSource(t *testing.T) {
	t.Setenv("PYRAMID_DATA_SOURCE_SYMBOL", "")
	_, err := runApp(t, "--stop-loss", "80", "--capital", "1000")
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestRun_MissingRequiredFlag(t *testing.T) {
	_, err := runApp(t, "--current", "100")
	require.Error(t, err)
}
