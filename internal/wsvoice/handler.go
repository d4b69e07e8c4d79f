// Package wsvoice is the WebSocket transport for the voice channel: it
// upgrades the connection, sends the welcome frame, and routes subsequent
// JSON messages to a session.Session.
package wsvoice

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/audioio"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  16384,
	WriteBufferSize: 16384,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SessionFactory creates a fresh session for one connection.
type SessionFactory func() *session.Session

// Handler upgrades connections and runs voice sessions.
type Handler struct {
	newSession SessionFactory
}

// NewHandler creates a WebSocket handler bound to a session factory.
func NewHandler(newSession SessionFactory) *Handler {
	return &Handler{newSession: newSession}
}

// clientMessage is the envelope for every client→server frame: an audio
// chunk with optional flag updates, or a bare control message.
type clientMessage struct {
	Type      string `json:"type"`
	WavBase64 string `json:"wav_base64"`
	AudioData string `json:"audio_data"`
	UseWake   *bool  `json:"use_wake"`
	UseSV     *bool  `json:"use_sv"`
	UseLLM    *bool  `json:"use_llm"`
}

// serverMessage is the envelope for every server→client frame.
type serverMessage struct {
	Type             string `json:"type"`
	Message          string `json:"message,omitempty"`
	Timestamp        string `json:"timestamp,omitempty"`
	UseWake          bool   `json:"use_wake,omitempty"`
	Mode             string `json:"mode,omitempty"`
	Status           string `json:"status,omitempty"`
	IntermediateText string `json:"intermediate_text,omitempty"`
	Text             string `json:"text,omitempty"`
	Success          bool   `json:"success,omitempty"`
	Code             string `json:"code,omitempty"`
}

// ServeHTTP upgrades the connection and runs the voice session loop.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	sess := h.newSession()
	defer sess.Close()

	send := newSender(conn)
	send(serverMessage{
		Type:      "welcome",
		Message:   "connected",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		UseWake:   sess.UseWake(),
		Mode:      sess.Mode().String(),
	})

	slog.Info("voice session started", "session_id", sessionID)
	runLoop(context.Background(), conn, sess, send)
	slog.Info("voice session ended", "session_id", sessionID)
}

func runLoop(ctx context.Context, conn *websocket.Conn, sess *session.Session, send func(serverMessage)) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		handleMessage(ctx, data, sess, send)
	}
}

func handleMessage(ctx context.Context, data []byte, sess *session.Session, send func(serverMessage)) {
	if len(data) == 0 {
		send(serverMessage{Type: "error", Code: "EMPTY_MESSAGE", Message: "empty message"})
		return
	}

	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		send(serverMessage{Type: "error", Code: "INVALID_JSON", Message: "invalid json"})
		return
	}

	applyFlags(msg, sess)

	if msg.Type != "" {
		for _, ev := range sess.HandleControl(msg.Type) {
			send(toServerMessage(ev))
		}
		return
	}

	b64 := msg.WavBase64
	if b64 == "" {
		b64 = msg.AudioData
	}
	if b64 == "" {
		send(serverMessage{Type: "error", Code: "MISSING_AUDIO_DATA", Message: "missing audio data"})
		return
	}

	chunk, err := audioio.DecodeBase64WAV(b64)
	if err != nil {
		send(serverMessage{Type: "error", Code: "AUDIO_DECODE_ERROR", Message: err.Error()})
		return
	}

	for _, ev := range sess.ProcessChunk(ctx, chunk) {
		send(toServerMessage(ev))
	}
}

func applyFlags(msg clientMessage, sess *session.Session) {
	if msg.UseWake != nil {
		sess.SetUseWake(*msg.UseWake)
	}
	if msg.UseSV != nil {
		sess.SetUseSV(*msg.UseSV)
	}
	if msg.UseLLM != nil {
		sess.SetUseLLM(*msg.UseLLM)
	}
}

func toServerMessage(ev session.Event) serverMessage {
	return serverMessage{
		Type:             ev.Type,
		Status:           ev.Status,
		Message:          ev.Message,
		Text:             ev.Text,
		Success:          ev.Success,
		IntermediateText: ev.IntermediateText,
		Code:             ev.Code,
	}
}

func newSender(conn *websocket.Conn) func(serverMessage) {
	var mu sync.Mutex
	return func(msg serverMessage) {
		mu.Lock()
		defer mu.Unlock()
		if err := conn.WriteJSON(msg); err != nil {
			slog.Error("write event", "error", err)
		}
	}
}
