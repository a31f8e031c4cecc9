// Package speech derives qualitative conversational signals from raw voice
// turn timing. Everything here is pure computation over chunk arrival times
// and word counts; no backend calls are involved, so the signals stay
// available even when generation is degraded to templates.
package speech

import (
	"strings"
	"time"
)

const (
	pauseThresholdMs     = 450
	longPauseThresholdMs = 900
	minTurnDurationMs    = 200
)

// TurnMeta aggregates the timing statistics of one voice turn. It is
// transient: reset when the next voice turn starts, never persisted.
type TurnMeta struct {
	DurationMs      int64   `json:"durationMs"`
	WordCount       int     `json:"wordCount"`
	SpeakingRateWpm float64 `json:"speakingRateWpm"`
	PauseCount      int     `json:"pauseCount"`
	LongPauseCount  int     `json:"longPauseCount"`
	MaxPauseMs      int64   `json:"maxPauseMs"`
	FinalChunkCount int     `json:"finalChunkCount"`
}

// TurnTracker accumulates TurnMeta while recognition chunks arrive.
// It is not safe for concurrent use; each voice connection owns one.
type TurnTracker struct {
	startedAt   time.Time
	lastChunkAt time.Time
	meta        TurnMeta
	active      bool
}

// Reset discards any accumulated state and marks the tracker inactive until
// the next chunk arrives.
func (t *TurnTracker) Reset() {
	*t = TurnTracker{}
}

// Track records one recognition chunk arriving at now. Gaps between chunks
// above the pause thresholds are counted; finalized chunks contribute words.
func (t *TurnTracker) Track(chunk string, isFinal bool, now time.Time) {
	if !t.active {
		t.startedAt = now
		t.lastChunkAt = now
		t.active = true
	} else {
		gap := now.Sub(t.lastChunkAt).Milliseconds()
		if gap > pauseThresholdMs {
			t.meta.PauseCount++
		}
		if gap > longPauseThresholdMs {
			t.meta.LongPauseCount++
		}
		if gap > t.meta.MaxPauseMs {
			t.meta.MaxPauseMs = gap
		}
		t.lastChunkAt = now
	}

	if isFinal {
		t.meta.FinalChunkCount++
		t.meta.WordCount += countWords(chunk)
	}
}

// Finalize closes the turn at now and returns the derived metadata,
// including the speaking rate when at least one word was recognized.
func (t *TurnTracker) Finalize(now time.Time) TurnMeta {
	meta := t.meta
	if t.active {
		meta.DurationMs = now.Sub(t.startedAt).Milliseconds()
	}
	if meta.DurationMs < minTurnDurationMs {
		meta.DurationMs = minTurnDurationMs
	}
	if meta.WordCount > 0 {
		meta.SpeakingRateWpm = float64(meta.WordCount) / float64(meta.DurationMs) * 60000
	}
	return meta
}

func countWords(s string) int {
	return len(strings.Fields(s))
}
