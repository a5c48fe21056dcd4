package personality

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetContextValidation(t *testing.T) {
	r := NewResolver()

	t.Run("unknown mood rejected", func(t *testing.T) {
		err := r.SetContext("melancholic", 5)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownMood)
	})

	t.Run("chaos below range rejected", func(t *testing.T) {
		err := r.SetContext(MoodPlayful, 0)
		assert.ErrorIs(t, err, ErrChaosRange)
	})

	t.Run("chaos above range rejected", func(t *testing.T) {
		err := r.SetContext(MoodPlayful, 11)
		assert.ErrorIs(t, err, ErrChaosRange)
	})

	t.Run("rejection leaves context untouched", func(t *testing.T) {
		before := r.Current()
		_ = r.SetContext("melancholic", 99)
		assert.Equal(t, before, r.Current())
	})

	t.Run("valid context applied", func(t *testing.T) {
		require.NoError(t, r.SetContext(MoodChaotic, 9))
		assert.Equal(t, Context{Mood: MoodChaotic, Chaos: 9}, r.Current())
	})
}

func TestScopedOverride(t *testing.T) {
	r := NewResolver()
	require.NoError(t, r.SetContext(MoodReliable, 3))
	base := r.Current()

	require.NoError(t, r.Push(MoodChaotic, 10))
	assert.Equal(t, Context{Mood: MoodChaotic, Chaos: 10}, r.Current())
	assert.Equal(t, 2, r.Depth())

	require.NoError(t, r.Pop())
	assert.Equal(t, base, r.Current())
	assert.Equal(t, 1, r.Depth())
}

func TestPopUnderflow(t *testing.T) {
	r := NewResolver()
	err := r.Pop()
	assert.ErrorIs(t, err, ErrContextUnderflow)
	assert.Equal(t, 1, r.Depth())
}

func TestWithRestoresOnNormalExit(t *testing.T) {
	r := NewResolver()
	require.NoError(t, r.SetContext(MoodCautious, 4))
	before := r.Current()

	var seen Context
	err := r.With(MoodChaotic, 10, func() {
		seen = r.Current()
	})
	require.NoError(t, err)
	assert.Equal(t, Context{Mood: MoodChaotic, Chaos: 10}, seen)
	assert.Equal(t, before, r.Current())
	assert.Equal(t, 1, r.Depth())
}

func TestWithRestoresOnPanic(t *testing.T) {
	r := NewResolver()
	require.NoError(t, r.SetContext(MoodReliable, 2))
	before := r.Current()

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected the panic to propagate")
			}
		}()
		_ = r.With(MoodChaotic, 10, func() {
			panic("nested region failure")
		})
	}()

	assert.Equal(t, before, r.Current())
	assert.Equal(t, 1, r.Depth())
}

func TestWithInvalidOverride(t *testing.T) {
	r := NewResolver()
	called := false
	err := r.With("bogus", 5, func() { called = true })
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMood))
	assert.False(t, called, "fn must not run when the override is invalid")
}

func TestNestedOverrides(t *testing.T) {
	r := NewResolver()
	require.NoError(t, r.Push(MoodCautious, 2))
	require.NoError(t, r.Push(MoodChaotic, 8))

	assert.Equal(t, Context{Mood: MoodChaotic, Chaos: 8}, r.Current())
	require.NoError(t, r.Pop())
	assert.Equal(t, Context{Mood: MoodCautious, Chaos: 2}, r.Current())
	require.NoError(t, r.Pop())
	assert.Equal(t, DefaultContext(), r.Current())
}

func TestResolverLookupsArePureReads(t *testing.T) {
	r := NewResolver()
	require.NoError(t, r.SetContext(MoodPlayful, 7))

	p1 := r.ProbabilityFor(KindLoopContinuation)
	p2 := r.ProbabilityFor(KindLoopContinuation)
	assert.Equal(t, p1, p2, "repeated lookups under one context must agree")

	v1 := r.VarianceFor(KindRepeatVariance)
	v2 := r.VarianceFor(KindRepeatVariance)
	assert.Equal(t, v1, v2)
}
