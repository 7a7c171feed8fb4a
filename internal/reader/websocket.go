package reader

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/localrivet/readaloud/internal/command"
)

// Frame types exchanged over a session websocket.
const (
	FrameSpeak   = "speak"   // server -> client: speak an utterance
	FrameCancel  = "cancel"  // server -> client: stop speaking
	FrameSpoken  = "spoken"  // client -> server: utterance finished
	FrameCommand = "command" // client -> server: voice transcript
	FrameState   = "state"   // server -> client: session state changed
	FrameAction  = "action"  // server -> client: accepted command
	FrameError   = "error"   // server -> client: rejected command or failure
)

// DefaultWriteWait is the write deadline for each frame.
const DefaultWriteWait = 10 * time.Second

// ErrSpeakerClosed is returned by Speak once the connection has gone away.
var ErrSpeakerClosed = errors.New("speaker connection closed")

// Frame is one JSON message on the session websocket.
type Frame struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Text      string          `json:"text,omitempty"`
	Error     string          `json:"error,omitempty"`
	Utterance *Utterance      `json:"utterance,omitempty"`
	Change    *Change         `json:"change,omitempty"`
	Snapshot  *Snapshot       `json:"snapshot,omitempty"`
	Action    *command.Action `json:"action,omitempty"`
}

// WebsocketSpeaker speaks through a browser connected over a websocket. The
// browser performs speech synthesis and acknowledges each utterance with a
// "spoken" frame, which the connection's read loop passes to Ack.
type WebsocketSpeaker struct {
	conn      *websocket.Conn
	writeWait time.Duration
	writeMu   sync.Mutex

	mu      sync.Mutex
	pending map[string]chan error

	closed    chan struct{}
	closeOnce sync.Once
}

// NewWebsocketSpeaker creates a speaker writing to conn.
func NewWebsocketSpeaker(conn *websocket.Conn) *WebsocketSpeaker {
	return &WebsocketSpeaker{
		conn:      conn,
		writeWait: DefaultWriteWait,
		pending:   make(map[string]chan error),
		closed:    make(chan struct{}),
	}
}

// Send writes one frame. It is safe for concurrent use.
func (w *WebsocketSpeaker) Send(f Frame) error {
	select {
	case <-w.closed:
		return ErrSpeakerClosed
	default:
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	if err := w.conn.SetWriteDeadline(time.Now().Add(w.writeWait)); err != nil {
		return err
	}
	return w.conn.WriteJSON(f)
}

// Speak implements Speaker.
func (w *WebsocketSpeaker) Speak(ctx context.Context, u Utterance) error {
	id := uuid.NewString()
	ack := make(chan error, 1)

	w.mu.Lock()
	w.pending[id] = ack
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		delete(w.pending, id)
		w.mu.Unlock()
	}()

	if err := w.Send(Frame{Type: FrameSpeak, ID: id, Utterance: &u}); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.closed:
		return ErrSpeakerClosed
	case err := <-ack:
		return err
	}
}

// Cancel implements Speaker.
func (w *WebsocketSpeaker) Cancel() error {
	err := w.Send(Frame{Type: FrameCancel})
	if errors.Is(err, ErrSpeakerClosed) {
		return nil
	}
	return err
}

// Ack completes the utterance id. A non-empty errMsg fails it.
func (w *WebsocketSpeaker) Ack(id, errMsg string) {
	w.mu.Lock()
	ack, ok := w.pending[id]
	w.mu.Unlock()

	if !ok {
		return
	}

	var err error
	if errMsg != "" {
		err = errors.New(errMsg)
	}
	select {
	case ack <- err:
	default:
	}
}

// Close fails pending and future utterances. It does not close the connection.
func (w *WebsocketSpeaker) Close() {
	w.closeOnce.Do(func() { close(w.closed) })
}
