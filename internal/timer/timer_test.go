package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClock(t *testing.T) {
	current := time.Date(2014, time.September, 21, 10, 30, 15, 0, time.FixedZone("EET", 3*60*60))
	clock := New(func() time.Time {
		return current
	})

	require.Equal(t, "Sun, 21 Sep 2014 07:30:15 GMT", clock.Date())
	require.Equal(t, current, clock.Now())

	t.Run("same second", func(t *testing.T) {
		current = current.Add(500 * time.Millisecond)
		clock.Refresh()
		require.Equal(t, "Sun, 21 Sep 2014 07:30:15 GMT", clock.Date())
		require.Equal(t, current, clock.Now())
	})

	t.Run("next second", func(t *testing.T) {
		current = current.Add(time.Second)
		require.Equal(t, current, clock.Refresh())
		require.Equal(t, "Sun, 21 Sep 2014 07:30:16 GMT", clock.Date())
	})
}

func TestSystemClock(t *testing.T) {
	clock := New(nil)
	require.WithinDuration(t, time.Now(), clock.Now(), time.Second)
}
