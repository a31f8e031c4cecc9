package twin

import (
	"github.com/mirrorlabs/twinengine/sessionstore"
	"github.com/mirrorlabs/twinengine/speech"
	"github.com/mirrorlabs/twinengine/types"
)

// dedupe discards a candidate answer identical (after normalization) to the
// previous assistant turn and substitutes a fallback selected with a
// shifted seed. Applied to every candidate, live or templated.
func dedupe(sess *sessionstore.Session, candidate, userText string) string {
	previous, ok := types.LastByRole(sess.History, types.RoleAssistant)
	if !ok {
		return candidate
	}

	prevNorm := speech.Normalize(previous.Content)
	if prevNorm == "" || prevNorm != speech.Normalize(candidate) {
		return candidate
	}
	return smartFallback(sess, userText, sess.MessageCount+1)
}
