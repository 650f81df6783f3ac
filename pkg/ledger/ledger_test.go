package ledger

import (
	"testing"
	"time"

	"github.com/cuemby/flowsim/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func t0() time.Time { return time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC) }

func TestReserveRejectsOverlap(t *testing.T) {
	l := New()
	require.NoError(t, l.Reserve("W1", t0(), t0().Add(30*time.Minute), "A"))
	err := l.Reserve("W1", t0().Add(10*time.Minute), t0().Add(20*time.Minute), "B")
	require.ErrorIs(t, err, types.ErrOverlapDetected)
}

func TestReserveAllowsAdjacentIntervals(t *testing.T) {
	l := New()
	require.NoError(t, l.Reserve("W1", t0(), t0().Add(30*time.Minute), "A"))
	require.NoError(t, l.Reserve("W1", t0().Add(30*time.Minute), t0().Add(60*time.Minute), "B"))
	assert.True(t, l.Disjoint("W1"))
}

func TestEarliestAvailableSkipsOccupiedSpan(t *testing.T) {
	l := New()
	require.NoError(t, l.Reserve("M1", t0(), t0().Add(60*time.Minute), "A"))
	got := l.EarliestAvailable("M1", t0().Add(10*time.Minute))
	assert.Equal(t, t0().Add(60*time.Minute), got)
}

func TestEarliestAvailableWhenFree(t *testing.T) {
	l := New()
	got := l.EarliestAvailable("M1", t0())
	assert.Equal(t, t0(), got)
}

func TestSpliceTruncatesAtBoundary(t *testing.T) {
	l := New()
	require.NoError(t, l.Reserve("W1", t0(), t0().Add(30*time.Minute), "A"))
	require.NoError(t, l.Splice("W1", t0().Add(30*time.Minute), "A", "B"))
	got := l.EarliestAvailable("W1", t0())
	assert.Equal(t, t0().Add(30*time.Minute), got)
}

func TestMachineNeverDoubleBooked(t *testing.T) {
	l := New()
	require.NoError(t, l.Reserve("MX", t0(), t0().Add(20*time.Minute), "A"))
	err := l.Reserve("MX", t0(), t0().Add(5*time.Minute), "B")
	require.ErrorIs(t, err, types.ErrOverlapDetected)
}
