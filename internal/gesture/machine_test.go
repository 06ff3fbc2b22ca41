package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/detector"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func hold(key string) action.Descriptor {
	return action.NewDescriptor(action.KeyID(key))
}

func repeat(key string, hz float64) action.Descriptor {
	d := action.NewDescriptor(action.KeyID(key))
	d.Mode = action.Repeat
	d.RepeatHz = hz
	return d
}

// drive advances k once per step, spacing frames by dt, and collects intents.
func drive(m *Machine, k Key, d action.Descriptor, dt time.Duration, active ...bool) []Intent {
	var out []Intent
	for i, a := range active {
		if in, ok := m.Advance(k, a, d, t0.Add(time.Duration(i)*dt)); ok {
			out = append(out, in)
		}
	}
	return out
}

func TestMachine_Hold(t *testing.T) {
	t.Run("press once and release on exit", func(t *testing.T) {
		m := NewMachine()
		got := drive(m, LeftPinch, hold("w"), 33*time.Millisecond, false, true, true, true, false, false)

		require.Len(t, got, 2)
		assert.Equal(t, Intent{Key: LeftPinch, Kind: Press, Action: action.KeyID("w")}, got[0])
		assert.Equal(t, Intent{Key: LeftPinch, Kind: Release, Action: action.KeyID("w")}, got[1])
		assert.False(t, m.State(LeftPinch).Pressed)
	})

	t.Run("presses and releases alternate", func(t *testing.T) {
		m := NewMachine()
		got := drive(m, RightFist, hold("a"), time.Millisecond, true, false, true, true, false, true)

		kinds := make([]IntentKind, 0, len(got))
		for _, in := range got {
			kinds = append(kinds, in.Kind)
		}
		assert.Equal(t, []IntentKind{Press, Release, Press, Release, Press}, kinds)
	})

	t.Run("release targets the action that was pressed", func(t *testing.T) {
		m := NewMachine()
		_, ok := m.Advance(LeftFist, true, hold("d"), t0)
		require.True(t, ok)

		in, ok := m.Advance(LeftFist, false, hold("x"), t0.Add(time.Second))
		require.True(t, ok)
		assert.Equal(t, action.KeyID("d"), in.Action)
	})

	t.Run("inactive key never emits", func(t *testing.T) {
		m := NewMachine()
		assert.Empty(t, drive(m, LeftTwo, hold("q"), time.Millisecond, false, false, false))
	})
}

func TestMachine_Repeat(t *testing.T) {
	t.Run("taps are spaced by the period", func(t *testing.T) {
		m := NewMachine()
		d := repeat("space", 5)

		var taps []time.Time
		for ms := 0; ms <= 1000; ms += 10 {
			now := t0.Add(time.Duration(ms) * time.Millisecond)
			if in, ok := m.Advance(RightTwo, true, d, now); ok {
				assert.Equal(t, Tap, in.Kind)
				assert.Equal(t, action.DefaultTapMs, in.TapMs)
				taps = append(taps, now)
			}
		}

		require.Len(t, taps, 6)
		assert.Equal(t, t0, taps[0])
		for i := 1; i < len(taps); i++ {
			assert.Equal(t, 200*time.Millisecond, taps[i].Sub(taps[i-1]))
		}
	})

	t.Run("frames faster than the period are gated", func(t *testing.T) {
		m := NewMachine()
		got := drive(m, RightTwo, repeat("space", 5), 199*time.Millisecond, true, true)
		assert.Len(t, got, 1)
	})

	t.Run("deactivation forgets the last tap", func(t *testing.T) {
		m := NewMachine()
		d := repeat("space", 1)

		_, ok := m.Advance(LeftTwo, true, d, t0)
		require.True(t, ok)

		_, ok = m.Advance(LeftTwo, false, d, t0.Add(10*time.Millisecond))
		assert.False(t, ok)
		assert.True(t, m.State(LeftTwo).LastFire.IsZero())

		in, ok := m.Advance(LeftTwo, true, d, t0.Add(20*time.Millisecond))
		require.True(t, ok)
		assert.Equal(t, Tap, in.Kind)
	})

	t.Run("rate below one hertz is clamped", func(t *testing.T) {
		m := NewMachine()
		got := drive(m, LeftTwo, repeat("space", 0.1), 500*time.Millisecond, true, true, true, true, true)
		assert.Len(t, got, 3)
	})

	t.Run("repeat never emits a release", func(t *testing.T) {
		m := NewMachine()
		got := drive(m, LeftTwo, repeat("space", 5), 300*time.Millisecond, true, true, false)
		for _, in := range got {
			assert.NotEqual(t, Release, in.Kind)
		}
	})
}

func TestMachine_ModeSwitch(t *testing.T) {
	t.Run("hold to repeat releases first", func(t *testing.T) {
		m := NewMachine()
		_, ok := m.Advance(LeftPinch, true, hold("w"), t0)
		require.True(t, ok)

		in, ok := m.Advance(LeftPinch, true, repeat("w", 5), t0.Add(time.Millisecond))
		require.True(t, ok)
		assert.Equal(t, Release, in.Kind)
		assert.Equal(t, action.KeyID("w"), in.Action)

		in, ok = m.Advance(LeftPinch, true, repeat("w", 5), t0.Add(2*time.Millisecond))
		require.True(t, ok)
		assert.Equal(t, Tap, in.Kind)
	})

	t.Run("repeat to hold presses without a stale release", func(t *testing.T) {
		m := NewMachine()
		_, ok := m.Advance(RightPinch, true, repeat("s", 5), t0)
		require.True(t, ok)

		in, ok := m.Advance(RightPinch, true, hold("s"), t0.Add(time.Millisecond))
		require.True(t, ok)
		assert.Equal(t, Press, in.Kind)
		assert.True(t, m.State(RightPinch).LastFire.IsZero())
	})
}

func TestMachine_ReleaseSide(t *testing.T) {
	m := NewMachine()
	m.Advance(LeftPinch, true, hold("w"), t0)
	m.Advance(LeftFist, true, hold("d"), t0)
	m.Advance(LeftTwo, true, repeat("q", 5), t0)
	m.Advance(RightFist, true, hold("a"), t0)

	got := m.ReleaseSide(detector.Left)
	assert.Equal(t, []Intent{
		{Key: LeftPinch, Kind: Release, Action: action.KeyID("w")},
		{Key: LeftFist, Kind: Release, Action: action.KeyID("d")},
	}, got)

	for _, f := range Families {
		s := m.State(KeyFor(detector.Left, f))
		assert.False(t, s.Pressed)
		assert.True(t, s.LastFire.IsZero())
	}
	assert.True(t, m.State(RightFist).Pressed)

	assert.Empty(t, m.ReleaseSide(detector.Left))
}

func TestMachine_ReleaseAll(t *testing.T) {
	m := NewMachine()
	m.Advance(LeftPinch, true, hold("w"), t0)
	m.Advance(RightPinch, true, hold("s"), t0)

	got := m.ReleaseAll()
	require.Len(t, got, 2)
	assert.Equal(t, RightPinch, got[1].Key)

	for k := Key(0); k < NumKeys; k++ {
		assert.False(t, m.State(k).Pressed, k.String())
	}
	assert.Empty(t, m.ReleaseAll())
}
