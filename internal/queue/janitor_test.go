package queue

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJanitorSweepsExpiredUploads(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "stale.pdf")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh := filepath.Join(dir, "fresh.docx")
	require.NoError(t, os.WriteFile(fresh, []byte("new"), 0o644))

	j := NewJanitor(dir, time.Hour)
	removed := j.Sweep()
	assert.Equal(t, 1, removed)

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

func TestJanitorSweepEmptyDir(t *testing.T) {
	j := NewJanitor(t.TempDir(), time.Hour)
	assert.Zero(t, j.Sweep())
}
