package userclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"learnquiz/internal/httpapi"
	"learnquiz/internal/session"
)

const (
	handshakeTimeout = 10 * time.Second
	writeWait        = 10 * time.Second
	stateBuffer      = 16
)

// RemoteAttempt is a quiz session running on the server, driven over a
// websocket. It satisfies cli.Attempt.
type RemoteAttempt struct {
	conn   *websocket.Conn
	states chan session.State
	closed chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// StartPlay opens the play socket for courseID. The server starts the
// session as soon as the upgrade succeeds.
func (c *HTTPClient) StartPlay(ctx context.Context, courseID string) (*RemoteAttempt, error) {
	target, err := c.playURL(courseID)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}
	conn, response, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		if response != nil {
			defer response.Body.Close()
			return nil, decodeAPIError(response)
		}
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	attempt := &RemoteAttempt{
		conn:   conn,
		states: make(chan session.State, stateBuffer),
		closed: make(chan struct{}),
	}
	go attempt.readLoop()
	return attempt, nil
}

func (c *HTTPClient) playURL(courseID string) (string, error) {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return "", errors.New("course id is required")
	}

	target, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	switch target.Scheme {
	case "https":
		target.Scheme = "wss"
	default:
		target.Scheme = "ws"
	}
	prefix := strings.TrimRight(target.Path, "/") + "/ws/quizzes/"
	target.Path = prefix + courseID
	target.RawPath = prefix + url.PathEscape(courseID)

	query := url.Values{}
	query.Set("access_token", c.token)
	target.RawQuery = query.Encode()
	return target.String(), nil
}

func (a *RemoteAttempt) States() <-chan session.State {
	return a.states
}

// Select sends one answer. It reports false when the socket is gone.
func (a *RemoteAttempt) Select(question, option int) bool {
	payload, err := json.Marshal(httpapi.SelectPayload{Question: question, Option: &option})
	if err != nil {
		return false
	}

	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	select {
	case <-a.closed:
		return false
	default:
	}
	_ = a.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return a.conn.WriteJSON(httpapi.Message{Type: httpapi.MessageSelect, Payload: payload}) == nil
}

func (a *RemoteAttempt) Close() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.closed)

		a.writeMu.Lock()
		_ = a.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		a.writeMu.Unlock()

		err = a.conn.Close()
	})
	return err
}

func (a *RemoteAttempt) readLoop() {
	defer close(a.states)

	for {
		var msg httpapi.Message
		if err := a.conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type != httpapi.MessageState {
			continue
		}

		var state session.State
		if err := json.Unmarshal(msg.Payload, &state); err != nil {
			continue
		}

		select {
		case a.states <- state:
		case <-a.closed:
			return
		}
		if state.Phase.Terminal() {
			return
		}
	}
}
