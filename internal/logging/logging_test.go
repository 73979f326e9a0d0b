package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	l, err := New(Options{Console: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	l, err = New(Options{Level: "WARN", Console: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())

	l, err = New(Options{Level: "error", Verbose: true, Console: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	_, err = New(Options{Level: "chatty"})
	assert.Error(t, err)
}

func TestNewWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "fx.log")

	l, err := New(Options{File: path, MaxSizeMB: 1, Console: &console})
	require.NoError(t, err)
	l.WithComponent("converter").WithField("file", "in.xlsx").Info("report written")
	require.NoError(t, l.Close())

	assert.Contains(t, console.String(), "report written")
	assert.Contains(t, console.String(), "component=converter")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "report written")
}

func TestJSONFormatter(t *testing.T) {
	var console bytes.Buffer
	l, err := New(Options{JSON: true, Console: &console})
	require.NoError(t, err)
	l.Info("hello")
	assert.Contains(t, console.String(), `"message":"hello"`)
	assert.NoError(t, l.Close())
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Info("nothing") })
}
