package sessionstore

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInitializesSession(t *testing.T) {
	store := NewMemoryStore(30 * time.Minute)

	sess := store.Create(ModeTwin, false)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, ModeTwin, sess.Mode)
	assert.Equal(t, "No summary yet.", sess.Summary)
	assert.Equal(t, 0, sess.MessageCount)
	assert.Empty(t, sess.History)
	assert.False(t, sess.Consent.VoiceAdapt)
	assert.False(t, sess.Consent.TwinTraining)
	assert.False(t, sess.Consent.VoiceClone)

	state := sess.UserState
	assert.Equal(t, "discovery", state.Phase)
	assert.Equal(t, "unknown", state.Goal)
	assert.Equal(t, "unclear", state.EmotionalState)
	assert.Equal(t, "neutral", state.TonePreference)
	assert.InDelta(t, 0.2, state.Confidence, 1e-9)

	assert.True(t, sess.ExpiresAt.After(time.Now()))
}

func TestCreateWithAutoConsent(t *testing.T) {
	store := NewMemoryStore(30 * time.Minute)

	sess := store.Create(ModeCoach, true)

	assert.True(t, sess.Consent.VoiceAdapt)
	assert.True(t, sess.Consent.TwinTraining)
	assert.True(t, sess.Consent.VoiceClone)
	assert.False(t, sess.Consent.UpdatedAt.IsZero())
}

func TestGetUnknownID(t *testing.T) {
	store := NewMemoryStore(30 * time.Minute)

	_, err := store.Get("no-such-session")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := NewMemoryStore(30 * time.Minute)
	sess := store.Create(ModeTwin, false)

	assert.True(t, store.Delete(sess.ID))
	assert.False(t, store.Delete(sess.ID))

	_, err := store.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSweepExpired(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	expired := store.Create(ModeTwin, false)
	live := store.Create(ModeTwin, false)

	expired.ExpiresAt = time.Now().Add(-time.Second)

	count := store.SweepExpired(time.Now())
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, store.Len())

	_, err := store.Get(expired.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(live.ID)
	assert.NoError(t, err)
}

func TestExtendTTLSlidesExpiry(t *testing.T) {
	store := NewMemoryStore(30 * time.Minute)
	sess := store.Create(ModeTwin, false)
	original := sess.ExpiresAt

	later := time.Now().Add(10 * time.Minute)
	store.ExtendTTL(sess, later)

	require.True(t, sess.ExpiresAt.After(original))
	assert.Equal(t, later.Add(30*time.Minute), sess.ExpiresAt)
}

func TestExpired(t *testing.T) {
	sess := &Session{ExpiresAt: time.Now()}

	assert.False(t, sess.Expired(sess.ExpiresAt.Add(-time.Second)))
	assert.True(t, sess.Expired(sess.ExpiresAt.Add(time.Second)))
}

func TestUserStateJSONKeys(t *testing.T) {
	data, err := json.Marshal(InitialUserState())
	require.NoError(t, err)

	var keys map[string]any
	require.NoError(t, json.Unmarshal(data, &keys))

	// The cognitive-load field is surfaced under its signal name, matching
	// what the inference prompts and clients key on.
	assert.Contains(t, keys, "cognitiveLoadSignal")
	assert.NotContains(t, keys, "cognitiveLoad")
	assert.Contains(t, keys, "speechPace")
	assert.Contains(t, keys, "pausePattern")
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, ClampConfidence(-0.4))
	assert.Equal(t, 1.0, ClampConfidence(1.7))
	assert.Equal(t, 0.65, ClampConfidence(0.65))
}

func TestValidMode(t *testing.T) {
	assert.True(t, ValidMode(ModeTwin))
	assert.True(t, ValidMode(ModeCoach))
	assert.False(t, ValidMode(Mode("mentor")))
	assert.False(t, ValidMode(Mode("")))
}
