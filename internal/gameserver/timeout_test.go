package gameserver

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tilegame/internal/game/session"
)

func TestTimeoutQueue_TrackAndPeek(t *testing.T) {
	q := NewTimeoutQueue()
	base := time.Now()

	q.Track(1, base.Add(30*time.Second))
	q.Track(2, base.Add(10*time.Second))
	q.Track(3, base.Add(20*time.Second))

	assert.Equal(t, 3, q.Len())
	id, deadline, ok := q.PeekEarliest()
	require.True(t, ok)
	assert.Equal(t, session.ClientID(2), id)
	assert.Equal(t, base.Add(10*time.Second), deadline)
}

func TestTimeoutQueue_TrackExistingMovesDeadline(t *testing.T) {
	q := NewTimeoutQueue()
	base := time.Now()

	q.Track(1, base.Add(10*time.Second))
	q.Track(2, base.Add(20*time.Second))
	q.Track(1, base.Add(30*time.Second))

	assert.Equal(t, 2, q.Len())
	id, _, ok := q.PeekEarliest()
	require.True(t, ok)
	assert.Equal(t, session.ClientID(2), id)
}

func TestTimeoutQueue_Touch(t *testing.T) {
	q := NewTimeoutQueue()
	base := time.Now()

	q.Track(1, base.Add(10*time.Second))
	q.Track(2, base.Add(20*time.Second))
	require.NoError(t, q.Touch(1, base.Add(40*time.Second)))

	id, _, ok := q.PeekEarliest()
	require.True(t, ok)
	assert.Equal(t, session.ClientID(2), id)
}

func TestTimeoutQueue_TouchUntracked(t *testing.T) {
	q := NewTimeoutQueue()

	err := q.Touch(7, time.Now())
	assert.ErrorIs(t, err, ErrNotTracked)
}

func TestTimeoutQueue_Untrack(t *testing.T) {
	q := NewTimeoutQueue()
	base := time.Now()

	q.Track(1, base.Add(10*time.Second))
	require.NoError(t, q.Untrack(1))
	assert.ErrorIs(t, q.Untrack(1), ErrNotTracked)
	assert.ErrorIs(t, q.Untrack(99), ErrNotTracked)

	assert.Zero(t, q.Len())
	_, _, ok := q.PeekEarliest()
	assert.False(t, ok)
}

func TestTimeoutQueue_Expired(t *testing.T) {
	q := NewTimeoutQueue()
	base := time.Now()

	q.Track(1, base.Add(30*time.Second))
	q.Track(2, base.Add(10*time.Second))
	q.Track(3, base.Add(20*time.Second))

	assert.Empty(t, q.Expired(base.Add(5*time.Second)))
	assert.Equal(t, []session.ClientID{2, 3}, q.Expired(base.Add(20*time.Second)))
	assert.Equal(t, 1, q.Len())

	// Expiry removes entries for good.
	assert.Empty(t, q.Expired(base.Add(20*time.Second)))
	assert.Equal(t, []session.ClientID{1}, q.Expired(base.Add(time.Minute)))
	assert.Zero(t, q.Len())
}

func TestTimeoutQueue_ExpiryOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		q := NewTimeoutQueue()
		base := time.Unix(0, 0)

		count := rapid.IntRange(1, 50).Draw(t, "count")
		offsets := make([]int, count)
		for i := 0; i < count; i++ {
			offsets[i] = rapid.IntRange(0, 1000).Draw(t, "offset")
			q.Track(session.ClientID(i+1), base.Add(time.Duration(offsets[i])*time.Millisecond))
		}

		expired := q.Expired(base.Add(time.Hour))
		if len(expired) != count {
			t.Fatalf("expired %d clients, want %d", len(expired), count)
		}
		sorted := sort.SliceIsSorted(expired, func(i, j int) bool {
			return offsets[expired[i]-1] < offsets[expired[j]-1]
		})
		if !sorted {
			t.Fatalf("expiry order %v does not follow deadlines %v", expired, offsets)
		}
	})
}
