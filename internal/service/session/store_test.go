package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *clock { return &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)} }

func TestGetOrCreateIsStable(t *testing.T) {
	s := New()
	a := s.GetOrCreate("alice")
	b := s.GetOrCreate("alice")
	assert.Equal(t, a, b)
	assert.Contains(t, a, "session-")
	assert.NotEqual(t, a, s.GetOrCreate("bob"))
}

func TestClearThenRecreateYieldsNewToken(t *testing.T) {
	s := New()
	first := s.GetOrCreate("alice")

	assert.True(t, s.Clear("alice"))
	assert.False(t, s.Clear("alice"))

	second := s.GetOrCreate("alice")
	assert.NotEqual(t, first, second)
}

func TestSweepRemovesIdleSessionsOnly(t *testing.T) {
	c := newClock()
	var removed []string
	s := New(WithClock(c.Now), WithTimeout(time.Hour), WithExpireHook(func(tok string) { removed = append(removed, tok) }))

	idle := s.GetOrCreate("idle")
	c.Advance(40 * time.Minute)
	s.GetOrCreate("active")
	c.Advance(30 * time.Minute)
	s.GetOrCreate("active")

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, []string{idle}, removed)
	assert.Equal(t, []string{"active"}, s.Stats().Users)
}

func TestActivityRefreshesTimeout(t *testing.T) {
	c := newClock()
	s := New(WithClock(c.Now))

	tok := s.GetOrCreate("alice")
	for i := 0; i < 5; i++ {
		c.Advance(50 * time.Minute)
		require.Equal(t, tok, s.GetOrCreate("alice"))
		s.Sweep()
	}
	assert.Equal(t, 1, s.Stats().ActiveSessions)
}

func TestTimeoutBoundaryIsInclusive(t *testing.T) {
	c := newClock()
	s := New(WithClock(c.Now))
	s.GetOrCreate("alice")

	c.Advance(time.Hour)
	assert.Equal(t, 0, s.Sweep(), "exactly at the timeout the session is still alive")
	c.Advance(time.Millisecond)
	assert.Equal(t, 1, s.Sweep())
}

func TestClearAllAndStats(t *testing.T) {
	var mu sync.Mutex
	hooked := 0
	s := New(WithExpireHook(func(string) { mu.Lock(); hooked++; mu.Unlock() }))
	s.GetOrCreate("carol")
	s.GetOrCreate("alice")

	assert.Equal(t, 2, s.Count())
	st := s.Stats()
	assert.Equal(t, 2, st.ActiveSessions)
	assert.Equal(t, []string{"alice", "carol"}, st.Users)

	assert.Equal(t, 2, s.ClearAll())
	assert.Equal(t, 0, s.Stats().ActiveSessions)
	assert.Zero(t, s.Count())
	assert.Equal(t, 2, hooked)
}

func TestBackgroundSweep(t *testing.T) {
	s := New(WithTimeout(time.Millisecond), WithSweepInterval(2*time.Millisecond))
	s.GetOrCreate("alice")
	s.Start()
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return s.Stats().ActiveSessions == 0 }, time.Second, 5*time.Millisecond)
}

func TestStopWithoutStart(t *testing.T) {
	s := New()
	s.Stop()
}

func TestConcurrentUse(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	tokens := make([]string, 16)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i] = s.GetOrCreate("shared")
			s.Sweep()
		}(i)
	}
	wg.Wait()
	for _, tok := range tokens {
		assert.Equal(t, tokens[0], tok)
	}
}
