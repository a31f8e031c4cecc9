package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mirrorlabs/twinengine/logger"
	"github.com/mirrorlabs/twinengine/speech"
	"github.com/mirrorlabs/twinengine/twin"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Same-origin policy is enforced by the reverse proxy in deployment.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// voiceClientMessage is one frame from the browser's recognition loop.
type voiceClientMessage struct {
	Type      string `json:"type"` // "chunk" | "finalize" | "playback"
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
	IsFinal   bool   `json:"isFinal"`
	// Playback frames flip the echo-suppression state.
	Speaking   bool   `json:"speaking"`
	SpokenText string `json:"spokenText"`
}

type voiceServerMessage struct {
	Type       string           `json:"type"` // "answer" | "meta" | "suppressed" | "error"
	Answer     string           `json:"answer,omitempty"`
	SpeechMeta *speech.TurnMeta `json:"speechMeta,omitempty"`
	Error      string           `json:"error,omitempty"`
	Hint       string           `json:"hint,omitempty"`
}

// handleVoiceSocket runs the voice turn loop: recognition chunks stream in,
// echo-suppressed chunks are discarded before any metadata accumulation,
// and a finalize frame submits the accumulated turn through the engine.
func (s *Server) handleVoiceSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var tracker speech.TurnTracker
	var playback speech.PlaybackState

	for {
		var msg voiceClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("voice socket closed unexpectedly", "error", err)
			}
			return
		}

		switch msg.Type {
		case "playback":
			if msg.Speaking {
				playback.Mark(msg.SpokenText)
			} else {
				playback.Clear()
			}

		case "chunk":
			// Echo check runs before tracking so self-echo never pollutes
			// the pause and pace statistics.
			if speech.LooksLikeEcho(msg.Text, playback) {
				s.writeSocket(conn, voiceServerMessage{Type: "suppressed"})
				continue
			}
			tracker.Track(msg.Text, msg.IsFinal, time.Now())

		case "finalize":
			meta := tracker.Finalize(time.Now())
			tracker.Reset()

			result, err := s.engine.SubmitTurn(context.WithoutCancel(r.Context()), msg.SessionID, msg.Text, meta)
			if err != nil {
				s.writeSocket(conn, s.turnErrorMessage(err))
				continue
			}
			s.writeSocket(conn, voiceServerMessage{Type: "meta", SpeechMeta: &meta})
			s.writeSocket(conn, voiceServerMessage{Type: "answer", Answer: result.Answer})

		default:
			s.writeSocket(conn, voiceServerMessage{Type: "error", Error: "unknown message type"})
		}
	}
}

func (s *Server) writeSocket(conn *websocket.Conn, msg voiceServerMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		logger.Debug("voice socket write failed", "error", err)
	}
}

func (s *Server) turnErrorMessage(err error) voiceServerMessage {
	msg := voiceServerMessage{Type: "error", Error: err.Error()}
	var bErr *twin.BackendError
	if errors.As(err, &bErr) {
		msg.Hint = bErr.Hint
	}
	return msg
}
