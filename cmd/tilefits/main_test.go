package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortFlags(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "tilefits.db")
	out := filepath.Join(dir, "fixtures")

	require.NoError(t, newApp(dir).Run([]string{"tilefits", "-v", "--db", db, "generate", out}))
	require.NoError(t, newApp(dir).Run([]string{"tilefits", "--verbose", "--db", db, "verify", out}))

	_, err := os.Stat(filepath.Join(out, "gzip_5x4_i16_tiled_3x2.tfits"))
	assert.NoError(t, err)

	require.NoError(t, newApp(dir).Run([]string{"tilefits", "-V"}))
}
