package speech

import "fmt"

// Signals are the qualitative labels derived from one turn's metadata.
type Signals struct {
	Pace  string `json:"speechPace"`
	Pause string `json:"pausePattern"`
	Load  string `json:"cognitiveLoadSignal"`
}

const (
	slowWpmLimit = 95
	fastWpmLimit = 155

	hesitantLongPauses = 3
	hesitantMaxPauseMs = 1800
	reflectivePauses   = 2
)

// InferSignals classifies a turn's pace, pause pattern, and cognitive load.
// A zero-valued meta (text channel, or no recognized words) yields unknowns.
func InferSignals(meta TurnMeta) Signals {
	s := Signals{Pace: "unknown", Pause: "unknown", Load: "unknown"}

	if meta.SpeakingRateWpm > 0 {
		switch {
		case meta.SpeakingRateWpm < slowWpmLimit:
			s.Pace = "slow"
		case meta.SpeakingRateWpm > fastWpmLimit:
			s.Pace = "fast"
		default:
			s.Pace = "balanced"
		}
	}

	// Hesitation thresholds apply even without a measured pace; the smooth
	// default does not.
	switch {
	case meta.LongPauseCount >= hesitantLongPauses || meta.MaxPauseMs >= hesitantMaxPauseMs:
		s.Pause = "hesitant"
	case meta.PauseCount >= reflectivePauses:
		s.Pause = "reflective"
	case meta.SpeakingRateWpm > 0:
		s.Pause = "smooth"
	}

	switch {
	case s.Pause == "hesitant", s.Pace == "slow" && meta.LongPauseCount >= 1:
		s.Load = "high"
	case s.Pause == "reflective", s.Pace == "fast":
		s.Load = "moderate"
	case s.Pace == "balanced" && meta.PauseCount <= 1:
		s.Load = "light"
	}

	return s
}

// Summarize renders a one-line cadence description for prompt assembly.
func Summarize(meta TurnMeta) string {
	if meta.WordCount == 0 && meta.PauseCount == 0 && meta.FinalChunkCount == 0 {
		return "not available"
	}
	return fmt.Sprintf("pace=%.0fwpm, pauses=%d, long_pauses=%d, max_pause=%dms",
		meta.SpeakingRateWpm, meta.PauseCount, meta.LongPauseCount, meta.MaxPauseMs)
}
