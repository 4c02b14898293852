package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabuist001/stock-pattern-matcher/pkg/config"
)

// TestApplyConfig_ExplicitZeroFloorKept: -minsim 0 means "accept every
// candidate" and must not fall back to the configured floor. Only the
// negative sentinel does.
func TestApplyConfig_ExplicitZeroFloorKept(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, 0.7, cfg.Scan.MinSimilarity)

	f := flags{minSimilarity: 0}
	applyConfig(&f, cfg)
	assert.Equal(t, 0.0, f.minSimilarity)

	f = flags{minSimilarity: -1}
	applyConfig(&f, cfg)
	assert.Equal(t, 0.7, f.minSimilarity)

	f = flags{minSimilarity: 0.45}
	applyConfig(&f, cfg)
	assert.Equal(t, 0.45, f.minSimilarity)
}
