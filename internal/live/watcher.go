package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
)

// ErrReconnectExhausted is returned by Run once the reconnection budget is spent.
var ErrReconnectExhausted = errors.New("live: reconnection attempts exhausted")

// Handler receives the raw data of one event type.
type Handler func(data json.RawMessage)

// Watcher is a client for the live channel. It joins the user's room on every
// (re)connect and keeps at most one handler per event type.
type Watcher struct {
	url    string
	token  string
	userID string
	dialer *websocket.Dialer

	maxRetries  uint64
	baseDelay   time.Duration
	maxDelay    time.Duration
	stableAfter time.Duration // sessions shorter than this spend the reconnection budget

	mu       sync.RWMutex
	handlers map[string]Handler

	log *logrus.Entry
}

type WatcherOption func(*Watcher)

// WithReconnect sets the retry budget per outage and the exponential backoff bounds.
func WithReconnect(maxRetries uint64, base, max time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.maxRetries, w.baseDelay, w.maxDelay = maxRetries, base, max
	}
}

// WithStableSession sets how long a session must last before the next outage
// gets a fresh reconnection budget.
func WithStableSession(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.stableAfter = d
	}
}

// NewWatcher connects to wsURL (e.g. ws://host/ws) as userID using an access token.
func NewWatcher(wsURL, token, userID string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		url:         wsURL,
		token:       token,
		userID:      userID,
		dialer:      websocket.DefaultDialer,
		maxRetries:  5,
		baseDelay:   time.Second,
		maxDelay:    5 * time.Second,
		stableAfter: 10 * time.Second,
		handlers:    make(map[string]Handler),
		log:         logrus.WithField("component", "watcher"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// On sets the handler for event, replacing any previous one.
func (w *Watcher) On(event string, h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[event] = h
}

// OnClick sets the url-clicked handler.
func (w *Watcher) OnClick(fn func(ClickUpdate)) {
	w.On(EventURLClicked, func(data json.RawMessage) {
		var update ClickUpdate
		if err := json.Unmarshal(data, &update); err != nil {
			w.log.WithError(err).Warn("malformed click update")
			return
		}
		fn(update)
	})
}

// Run keeps a session open until ctx is done. An outage after a stable session
// gets a fresh reconnection budget; a session that drops early waits out the
// backoff and spends the current one.
func (w *Watcher) Run(ctx context.Context) error {
	backoff := w.newBackoff()
	for {
		conn, err := w.connect(ctx, backoff)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%w: %v", ErrReconnectExhausted, err)
		}

		started := time.Now()
		err = w.consume(ctx, conn)
		if ctx.Err() != nil {
			return nil
		}

		if time.Since(started) >= w.stableAfter {
			backoff = w.newBackoff()
			w.log.WithError(err).Warn("live connection lost, reconnecting")
			continue
		}

		delay, stop := backoff.Next()
		if stop {
			return fmt.Errorf("%w: session dropped after %s: %v", ErrReconnectExhausted, time.Since(started).Round(time.Millisecond), err)
		}
		w.log.WithError(err).WithField("retry_in", delay).Warn("live connection dropped early, backing off")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

func (w *Watcher) newBackoff() retry.Backoff {
	return retry.WithMaxRetries(w.maxRetries,
		retry.WithCappedDuration(w.maxDelay, retry.NewExponential(w.baseDelay)))
}

func (w *Watcher) connect(ctx context.Context, backoff retry.Backoff) (*websocket.Conn, error) {

	header := http.Header{}
	header.Set("Authorization", "Bearer "+w.token)

	var conn *websocket.Conn
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, resp, err := w.dialer.DialContext(ctx, w.url, header)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusUnauthorized {
				return fmt.Errorf("dial: %w", err)
			}
			w.log.WithError(err).Debug("dial failed")
			return retry.RetryableError(err)
		}

		join, _ := Encode(EventJoin, w.userID)
		if err := c.WriteMessage(websocket.TextMessage, join); err != nil {
			c.Close()
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (w *Watcher) consume(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		w.dispatch(msg)
	}
}

func (w *Watcher) dispatch(msg inbound) {
	w.mu.RLock()
	h, ok := w.handlers[msg.Event]
	w.mu.RUnlock()
	if ok {
		h(msg.Data)
	}
}
