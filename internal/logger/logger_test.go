package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel("info")
	})

	SetLevel("warn")
	L.Info("hidden")
	require.Zero(t, buf.Len())

	L.Warn("shown", "probe", "Streaming")
	require.Contains(t, buf.String(), `"msg":"shown"`)
	require.Contains(t, buf.String(), `"probe":"Streaming"`)

	buf.Reset()
	SetLevel("DEBUG")
	L.Debug("debug line")
	require.Contains(t, buf.String(), "debug line")

	buf.Reset()
	SetLevel("bogus")
	L.Debug("dropped")
	require.Zero(t, buf.Len())
}
