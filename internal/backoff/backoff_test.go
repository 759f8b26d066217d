package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSchedule_Shape(t *testing.T) {
	s := DefaultSchedule()
	require.Equal(t, 10, s.Len())

	want := []time.Duration{
		15 * time.Second, 30 * time.Second, 30 * time.Second, 45 * time.Second,
		60 * time.Second, 60 * time.Second, 60 * time.Second,
		60 * time.Second, 60 * time.Second, 60 * time.Second,
	}
	for i, d := range want {
		got, ok := s.DelayForAttempt(i)
		require.True(t, ok, "attempt %d should be in bounds", i)
		assert.Equal(t, d, got, "attempt %d", i)
	}
}

func TestDefaultSchedule_MonotonicallyNonDecreasing(t *testing.T) {
	s := DefaultSchedule()
	for i := 1; i < s.Len(); i++ {
		assert.GreaterOrEqual(t, s[i], s[i-1], "delay %d must not shrink", i)
	}
}

func TestDelayForAttempt_Exhaustion(t *testing.T) {
	s := DefaultSchedule()
	_, ok := s.DelayForAttempt(s.Len())
	assert.False(t, ok)
	_, ok = s.DelayForAttempt(s.Len() + 5)
	assert.False(t, ok)
	_, ok = s.DelayForAttempt(-1)
	assert.False(t, ok)
}

func TestCustomSchedule(t *testing.T) {
	s := Schedule{time.Second, 2 * time.Second}
	d, ok := s.DelayForAttempt(1)
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, d)
	_, ok = s.DelayForAttempt(2)
	assert.False(t, ok)
	assert.Equal(t, 2, s.Len())
}
