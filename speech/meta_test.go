package speech

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackerCountsPauses(t *testing.T) {
	var tr TurnTracker
	start := time.Now()

	tr.Track("so I have been", false, start)
	tr.Track("thinking about", false, start.Add(500*time.Millisecond))   // 500ms gap: pause
	tr.Track("my next step", false, start.Add(1600*time.Millisecond))    // 1100ms gap: long pause
	tr.Track("my next step here", true, start.Add(1800*time.Millisecond)) // 200ms gap: no pause

	meta := tr.Finalize(start.Add(2 * time.Second))

	assert.Equal(t, 2, meta.PauseCount)
	assert.Equal(t, 1, meta.LongPauseCount)
	assert.Equal(t, int64(1100), meta.MaxPauseMs)
	assert.Equal(t, 1, meta.FinalChunkCount)
	assert.Equal(t, 4, meta.WordCount)
	assert.Equal(t, int64(2000), meta.DurationMs)
}

func TestTrackerOnlyFinalChunksCountWords(t *testing.T) {
	var tr TurnTracker
	start := time.Now()

	tr.Track("interim words that change", false, start)
	tr.Track("two words", true, start.Add(100*time.Millisecond))

	meta := tr.Finalize(start.Add(time.Second))
	assert.Equal(t, 2, meta.WordCount)
}

func TestFinalizeComputesSpeakingRate(t *testing.T) {
	var tr TurnTracker
	start := time.Now()

	tr.Track("", false, start)
	tr.meta.WordCount = 40

	meta := tr.Finalize(start.Add(20 * time.Second))
	assert.InDelta(t, 120, meta.SpeakingRateWpm, 0.01)
}

func TestFinalizeEnforcesMinimumDuration(t *testing.T) {
	var tr TurnTracker
	start := time.Now()

	tr.Track("hi there", true, start)
	meta := tr.Finalize(start.Add(50 * time.Millisecond))

	assert.Equal(t, int64(200), meta.DurationMs)
}

func TestFinalizeWithoutWordsHasNoRate(t *testing.T) {
	var tr TurnTracker
	meta := tr.Finalize(time.Now())
	assert.Zero(t, meta.SpeakingRateWpm)
}

func TestResetClearsState(t *testing.T) {
	var tr TurnTracker
	start := time.Now()
	tr.Track("some words here", true, start)
	tr.Track("more", true, start.Add(time.Second))

	tr.Reset()
	meta := tr.Finalize(start.Add(2 * time.Second))

	assert.Zero(t, meta.WordCount)
	assert.Zero(t, meta.PauseCount)
	assert.Zero(t, meta.FinalChunkCount)
}
