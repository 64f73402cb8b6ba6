package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesToFileAndCloudWatch(t *testing.T) {
	dir := t.TempDir()
	var cw bytes.Buffer

	log, err := New(Options{Env: "production", Dir: dir, CloudWatch: &cw})
	require.NoError(t, err)

	log.Info("Created variable product", zap.String("sku", "A1-P"))
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(dir, DefaultFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Created variable product")
	assert.Contains(t, string(data), `"sku":"A1-P"`)
	assert.Contains(t, cw.String(), "Created variable product")
}

func TestFileSinkDefaults(t *testing.T) {
	sink, err := FileSink(Options{Dir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxSizeMB, sink.MaxSize)
	assert.Equal(t, DefaultMaxAgeDays, sink.MaxAge)
	assert.Equal(t, DefaultFileName, filepath.Base(sink.Filename))
}
