package reveal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	prefixes []string
}

func (s *recordingSink) SetText(text string) {
	s.prefixes = append(s.prefixes, text)
}

func TestReveal_MonotonicPrefixes(t *testing.T) {
	s := NewScheduler(nil)
	sink := &recordingSink{}
	full := "Got it, thanks!"

	err := s.Reveal(context.Background(), full, sink)
	require.NoError(t, err)

	require.NotEmpty(t, sink.prefixes)
	prev := -1
	for _, p := range sink.prefixes {
		assert.True(t, len(p) > prev, "prefix lengths must strictly increase")
		assert.True(t, strings.HasPrefix(full, p), "each step must be a prefix of the full text")
		prev = len(p)
	}

	finals := 0
	for _, p := range sink.prefixes {
		if p == full {
			finals++
		}
	}
	assert.Equal(t, 1, finals, "the full text appears exactly once")
}

func TestReveal_ShortTextOneRunePerStep(t *testing.T) {
	s := NewScheduler(nil)
	sink := &recordingSink{}

	err := s.Reveal(context.Background(), "hello", sink)
	require.NoError(t, err)
	assert.Len(t, sink.prefixes, 5)
}

func TestReveal_MediumTextChunksOfThree(t *testing.T) {
	s := NewScheduler(nil)
	sink := &recordingSink{}
	full := strings.Repeat("a", 401)

	err := s.Reveal(context.Background(), full, sink)
	require.NoError(t, err)
	// ceil(401/3) steps
	assert.Len(t, sink.prefixes, 134)
	assert.Equal(t, full, sink.prefixes[len(sink.prefixes)-1])
}

func TestReveal_LongTextChunksOfSix(t *testing.T) {
	s := NewScheduler(nil)
	sink := &recordingSink{}
	full := strings.Repeat("b", 1201)

	err := s.Reveal(context.Background(), full, sink)
	require.NoError(t, err)
	// ceil(1201/6) steps
	assert.Len(t, sink.prefixes, 201)
	assert.Equal(t, full, sink.prefixes[len(sink.prefixes)-1])
}

func TestReveal_MultibyteRunesStayIntact(t *testing.T) {
	s := NewScheduler(nil)
	sink := &recordingSink{}
	full := "🔥🌋💥🌀🌊"

	err := s.Reveal(context.Background(), full, sink)
	require.NoError(t, err)
	for _, p := range sink.prefixes {
		assert.True(t, strings.HasPrefix(full, p), "prefixes must split on rune boundaries")
	}
	assert.Equal(t, full, sink.prefixes[len(sink.prefixes)-1])
}

func TestReveal_EmptyTextNoSteps(t *testing.T) {
	s := NewScheduler(nil)
	sink := &recordingSink{}

	err := s.Reveal(context.Background(), "", sink)
	require.NoError(t, err)
	assert.Empty(t, sink.prefixes)
	assert.False(t, s.FirstToken())
}

func TestReveal_FirstTokenFlipsOnce(t *testing.T) {
	s := NewScheduler(nil)
	s.Reset()
	assert.False(t, s.FirstToken())

	err := s.Reveal(context.Background(), "hi", &recordingSink{})
	require.NoError(t, err)
	assert.True(t, s.FirstToken())

	s.Reset()
	assert.False(t, s.FirstToken())
}

func TestReveal_CancellationAborts(t *testing.T) {
	s := NewScheduler(nil)
	sink := &recordingSink{}
	full := strings.Repeat("c", 2000)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := s.Reveal(ctx, full, sink)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotEmpty(t, sink.prefixes)
	assert.NotEqual(t, full, sink.prefixes[len(sink.prefixes)-1], "cancelled reveal keeps a partial prefix")
}
