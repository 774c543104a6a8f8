// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"grimm.is/degrader/internal/errors"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, uint16(0), cfg.QueueNum)
	require.True(t, cfg.PerConnection)
	require.Nil(t, cfg.Random)
	require.Nil(t, cfg.Bandwidth)
}

func TestParseRandomSpec(t *testing.T) {
	cfg, err := Parse([]string{"--random", "10 20 100"})
	require.NoError(t, err)
	require.NotNil(t, cfg.Random)
	require.Equal(t, uint32(10), cfg.Random.LossRate)
	require.Equal(t, 20*time.Millisecond, cfg.Random.DelayMin)
	require.Equal(t, 100*time.Millisecond, cfg.Random.DelayMax)
}

func TestParseRandomRejectsInvertedDelayRange(t *testing.T) {
	_, err := Parse([]string{"--random", "10 100 20"})
	require.Error(t, err)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, errors.KindConfig, e.Kind)
}

func TestParseBandwidthSpec(t *testing.T) {
	cfg, err := Parse([]string{"--bandwidth", "100 50 200"})
	require.NoError(t, err)
	require.NotNil(t, cfg.Bandwidth)
	require.Equal(t, uint64(100*1024), cfg.Bandwidth.RateBytesPerS)
	require.Equal(t, uint64(50*1024), cfg.Bandwidth.BurstBytes)
	require.Equal(t, uint64(200*1024), cfg.Bandwidth.BufferBytes)
}

func TestParseBandwidthRejectsZeroRate(t *testing.T) {
	_, err := Parse([]string{"--bandwidth", "0 50 200"})
	require.Error(t, err)
}

func TestParseBandwidthRejectsZeroBurst(t *testing.T) {
	_, err := Parse([]string{"--bandwidth", "100 0 200"})
	require.Error(t, err)
}

func TestParseBandwidthRejectsBurstLargerThanBuffer(t *testing.T) {
	_, err := Parse([]string{"--bandwidth", "100 300 200"})
	require.Error(t, err)
}

func TestParsePatternFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pattern.csv")
	require.NoError(t, os.WriteFile(path, []byte("delay_ms,drop\n100,0\n150,0\n0,1\n"), 0o644))

	info, err := ParsePatternFile(path)
	require.NoError(t, err)
	require.Len(t, info, 3)
	require.Equal(t, 100*time.Millisecond, info[0].Delay)
	require.False(t, info[0].Drop)
	require.True(t, info[2].Drop)
}

func TestParsePatternFileRejectsEmptyBody(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("delay_ms,drop\n"), 0o644))

	_, err := ParsePatternFile(path)
	require.Error(t, err)
}
