// Package push listens for row change notifications over a websocket.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"

	"github.com/AntoineGS/loadtracker/internal/loads"
)

// Message types exchanged with the hub.
const (
	TypeJoin       = "join"
	TypeRowUpdated = "rowUpdated"
)

// Message is a hub frame. Join frames carry Group and Period; rowUpdated
// frames carry ID.
type Message struct {
	Type   string `json:"type"`
	Group  string `json:"group,omitempty"`
	Period string `json:"period,omitempty"`
	ID     int64  `json:"id,omitempty"`
}

// JoinMessage builds the join frame for a customer and period.
func JoinMessage(customer string, p loads.Period) Message {
	return Message{Type: TypeJoin, Group: customer, Period: p.Key()}
}

// Listener keeps a hub subscription open and reports changed row ids.
type Listener struct {
	dialer   *websocket.Dialer
	logger   *slog.Logger
	newBack  func() backoff.BackOff
	url      string
	customer string
	period   loads.Period
}

// NewListener creates a listener for the hub at url.
func NewListener(url, customer string, p loads.Period) *Listener {
	return &Listener{
		url:      url,
		customer: customer,
		period:   p,
		dialer:   websocket.DefaultDialer,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		newBack:  defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	return b
}

// WithLogger sets the logger
func (l *Listener) WithLogger(logger *slog.Logger) *Listener {
	l2 := *l
	l2.logger = logger
	return &l2
}

// WithBackOff sets the reconnect policy factory.
func (l *Listener) WithBackOff(fn func() backoff.BackOff) *Listener {
	l2 := *l
	l2.newBack = fn
	return &l2
}

// Run connects, joins the group and sends every updated row id to out
// until ctx ends. Connection failures are logged and retried. Run closes
// out when it returns.
func (l *Listener) Run(ctx context.Context, out chan<- int64) {
	defer close(out)

	b := l.newBack()
	for {
		connected, err := l.session(ctx, out)
		if ctx.Err() != nil {
			return
		}
		if connected {
			b.Reset()
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			l.logger.Warn("push channel giving up", "error", err)
			return
		}
		l.logger.Warn("push channel lost", "error", err, "retry_in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// session runs one connection. connected reports whether the join frame
// was sent.
func (l *Listener) session(ctx context.Context, out chan<- int64) (connected bool, err error) {
	conn, resp, err := l.dialer.DialContext(ctx, l.url, http.Header{})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close() //nolint:errcheck,gosec // handshake body is unused
	}
	if err != nil {
		return false, fmt.Errorf("dialing hub: %w", err)
	}
	defer func() { _ = conn.Close() }() //nolint:errcheck,gosec // defer close is best-effort

	if err := conn.WriteJSON(JoinMessage(l.customer, l.period)); err != nil {
		return false, fmt.Errorf("joining group: %w", err)
	}
	l.logger.Info("push channel joined", "group", l.customer, "period", l.period.Key())

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() }) //nolint:errcheck,gosec // unblocks ReadMessage
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return true, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return true, errors.New("hub closed the connection")
			}
			return true, fmt.Errorf("reading hub message: %w", err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			l.logger.Debug("ignoring malformed hub message", "error", err)
			continue
		}
		if msg.Type != TypeRowUpdated || msg.ID == 0 {
			l.logger.Debug("ignoring hub message", "type", msg.Type)
			continue
		}

		select {
		case out <- msg.ID:
		case <-ctx.Done():
			return true, ctx.Err()
		}
	}
}
