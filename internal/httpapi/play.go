package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"learnquiz/internal/auth"
	"learnquiz/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS policy and the bearer token.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Message is the envelope for both directions of a play socket.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SelectPayload answers one question, by option index or by option text.
type SelectPayload struct {
	Question int     `json:"question"`
	Option   *int    `json:"option,omitempty"`
	Text     *string `json:"text,omitempty"`
}

const (
	MessageState  = "state"
	MessageSelect = "select"
)

// HandlePlay upgrades to a websocket and runs one quiz session for the
// signed-in user. Every state change is pushed as a "state" message.
func (a *API) HandlePlay(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	studentID := auth.SubjectFromContext(r.Context())

	params := session.Params{StudentID: studentID, CourseID: courseID}
	if course, err := a.quizzes.GetCourse(r.Context(), courseID); err == nil {
		params.CourseName = course.CourseName
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Printf("play upgrade course=%s: %v", courseID, err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess := a.engine.Start(ctx, params)
	go a.readPump(ctx, cancel, conn, sess)
	a.writePump(ctx, cancel, conn, sess)
}

func (a *API) readPump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, sess *session.Session) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				a.logger.Printf("play read: %v", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != MessageSelect {
			continue
		}
		var sel SelectPayload
		if err := json.Unmarshal(msg.Payload, &sel); err != nil {
			continue
		}

		switch {
		case sel.Text != nil:
			sess.SelectOption(sel.Question, *sel.Text)
		case sel.Option != nil:
			sess.Select(sel.Question, *sel.Option)
		}

		if ctx.Err() != nil {
			return
		}
	}
}

func (a *API) writePump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, sess *session.Session) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	states := sess.States()
	for {
		select {
		case state, ok := <-states:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session finished"))
				return
			}
			if err := writeState(conn, state); err != nil {
				cancel()
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cancel()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func writeState(conn *websocket.Conn, state session.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(Message{Type: MessageState, Payload: payload})
}
