package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndList(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, filepath.Join(t.TempDir(), "history.db"))
	t.Cleanup(func() { _ = s.Close() })
	require.NotNil(t, s.db)

	run := NewRunID()
	other := NewRunID()
	require.NotEqual(t, run, other)

	s.Save(ctx, Entry{RunID: run, Seq: 1, Name: "Streaming", Status: "PASS", Message: "Received 3 chunks"})
	s.Save(ctx, Entry{RunID: run, Seq: 0, Name: "Basic Completion", Status: "FAIL", Message: "boom"})
	s.Save(ctx, Entry{RunID: other, Seq: 0, Name: "Memory", Status: "PASS"})

	got := s.List(ctx, run)
	require.Len(t, got, 2)
	require.Equal(t, "Basic Completion", got[0].Name)
	require.Equal(t, "FAIL", got[0].Status)
	require.Equal(t, "Streaming", got[1].Name)
	require.Equal(t, "Received 3 chunks", got[1].Message)
	require.False(t, got[1].CreatedAt.IsZero())
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	run := NewRunID()

	s := Open(ctx, path)
	s.Save(ctx, Entry{RunID: run, Seq: 0, Name: "Retry Logic", Status: "PASS"})
	require.NoError(t, s.Close())

	reopened := Open(ctx, path)
	t.Cleanup(func() { _ = reopened.Close() })
	got := reopened.List(ctx, run)
	require.Len(t, got, 1)
	require.Equal(t, "Retry Logic", got[0].Name)
}

func TestStore_MemoryFallback(t *testing.T) {
	ctx := context.Background()
	// A directory cannot be opened as a database file.
	s := Open(ctx, t.TempDir())
	require.Nil(t, s.db)

	s.Save(ctx, Entry{RunID: "r1", Name: "Temperature", Status: "PASS"})
	s.Save(ctx, Entry{RunID: "r2", Name: "Max Tokens", Status: "WARN"})

	got := s.List(ctx, "r1")
	require.Len(t, got, 1)
	require.Equal(t, "Temperature", got[0].Name)
	require.NoError(t, s.Close())
}
