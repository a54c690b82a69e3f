package logger

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel("info") })

	SetLevel("debug")
	assert.Equal(t, zerolog.DebugLevel, Log.GetLevel())

	SetLevel("release")
	assert.Equal(t, zerolog.InfoLevel, Log.GetLevel())

	SetLevel("not-a-level")
	assert.Equal(t, zerolog.InfoLevel, Log.GetLevel())
}

func TestEnableFileKeepsLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel("info") })

	SetLevel("warn")
	EnableFile(filepath.Join(t.TempDir(), "restock.log"))
	assert.Equal(t, zerolog.WarnLevel, Log.GetLevel())

	EnableFile("")
	assert.Equal(t, zerolog.WarnLevel, Log.GetLevel())
}
