package logx

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{" ALL ", LevelDebug},
		{"Info", LevelInfo},
		{"warning", LevelWarn},
		{"WARN", LevelWarn},
		{"error", LevelError},
		{"FATAL", LevelFatal},
		{"verbose", LevelWarn},
		{"", LevelWarn},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in, LevelWarn), "ParseLevel(%q)", tt.in)
	}
}

func TestLevelsAreOrdered(t *testing.T) {
	assert.Less(t, LevelDebug, LevelInfo)
	assert.Less(t, LevelInfo, LevelWarn)
	assert.Less(t, LevelWarn, LevelError)
	assert.Less(t, LevelError, LevelFatal)
	assert.Equal(t, "ERROR", LevelError.String())
}

func TestRangeAccepts(t *testing.T) {
	for _, l := range []Level{LevelDebug, LevelInfo, LevelWarn} {
		assert.False(t, QuietRange.Accepts(l), l.String())
		assert.True(t, VerboseRange.Accepts(l), l.String())
	}
	assert.True(t, QuietRange.Accepts(LevelError))
	assert.True(t, QuietRange.Accepts(LevelFatal))
}

func TestFilterThresholdAndChain(t *testing.T) {
	var f Filter
	assert.True(t, f.Accepts(LevelDebug))

	f.SetThreshold(LevelInfo)
	assert.False(t, f.Accepts(LevelDebug))

	f.AddFilter(Range{Min: LevelDebug, Max: LevelWarn})
	f.AddFilter(Range{Min: LevelWarn, Max: LevelFatal})
	assert.False(t, f.Accepts(LevelInfo))
	assert.True(t, f.Accepts(LevelWarn))
	assert.False(t, f.Accepts(LevelError))

	f.ClearFilters()
	assert.Empty(t, f.Filters())
	assert.True(t, f.Accepts(LevelError))
	assert.Equal(t, LevelInfo, f.Threshold())
}

func TestMetricsSinkCountsByLevel(t *testing.T) {
	reg := prometheus.NewRegistry()
	ms, err := NewMetricsSink("metrics", reg)
	require.NoError(t, err)

	// a second sink on the same registry reuses the collector
	other, err := NewMetricsSink("other", reg)
	require.NoError(t, err)

	c := newTestContext(t)
	require.NoError(t, c.AddSink(ms))
	log := c.Root()
	log.Info("a")
	log.Info("b")
	log.Error("c")

	assert.Equal(t, 2.0, testutil.ToFloat64(ms.Counter(LevelInfo)))
	assert.Equal(t, 1.0, testutil.ToFloat64(ms.Counter(LevelError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(other.Counter(LevelInfo)))
}
