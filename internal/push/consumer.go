// Package push consumes the portal's long-lived event channel. Only
// presence events travel on it; message content always arrives via
// fetch, so a broken push channel degrades delivery to polling latency,
// never to incorrect state.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/rs/zerolog"

	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/service"
)

const (
	EventPresenceOnline  = "presence:online"
	EventPresenceOffline = "presence:offline"
)

// Envelope is the wire format wrapper of every push event.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type presencePayload struct {
	UserID   int64      `json:"user_id"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

// Consumer dials the push channel, forwards presence events to the
// tracker and nudges the sync engine so the active room refreshes ahead
// of its next poll tick.
type Consumer struct {
	url      string
	token    string
	presence *service.PresenceService
	sync     *service.SyncService
	log      zerolog.Logger

	dialer    *websocket.Dialer
	baseDelay time.Duration
	maxDelay  time.Duration
}

func NewConsumer(url, token string, presence *service.PresenceService, syncSvc *service.SyncService, log zerolog.Logger) *Consumer {
	return &Consumer{
		url:       url,
		token:     token,
		presence:  presence,
		sync:      syncSvc,
		log:       log,
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		baseDelay: time.Second,
		maxDelay:  32 * time.Second,
	}
}

// Run connects and consumes events until ctx is cancelled, reconnecting
// with exponential backoff. Errors inside the loop are logged, never
// fatal.
func (c *Consumer) Run(ctx context.Context) {
	delay := c.baseDelay
	for {
		if ctx.Err() != nil {
			return
		}

		header := http.Header{}
		header.Set("Authorization", "Bearer "+c.token)
		conn, _, err := c.dialer.DialContext(ctx, c.url, header)
		if err != nil {
			c.log.Warn().Err(err).Dur("retry_in", delay).Msg("push channel dial failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			if delay *= 2; delay > c.maxDelay {
				delay = c.maxDelay
			}
			continue
		}

		c.log.Info().Str("url", c.url).Msg("push channel connected")
		delay = c.baseDelay
		c.readLoop(ctx, conn)
	}
}

func (c *Consumer) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.log.Warn().Err(err).Msg("push channel read failed, reconnecting")
			}
			conn.Close()
			return
		}
		if err := c.HandleEvent(ctx, data); err != nil {
			c.log.Warn().Err(err).Msg("dropping malformed push event")
		}
	}
}

// HandleEvent decodes and applies one raw push event.
func (c *Consumer) HandleEvent(ctx context.Context, data []byte) error {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decoding envelope: %w", err)
	}

	switch env.Type {
	case EventPresenceOnline:
		var p presencePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
		c.presence.ApplyEvent(p.UserID, true, nil, time.Now().UTC())

	case EventPresenceOffline:
		var p presencePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
		eventAt := time.Now().UTC()
		if p.LastSeen != nil {
			eventAt = *p.LastSeen
		}
		c.presence.ApplyEvent(p.UserID, false, p.LastSeen, eventAt)

	default:
		c.log.Debug().Str("type", env.Type).Msg("ignoring unknown push event")
		return nil
	}

	// Any push activity doubles as a refresh hint for the open room.
	c.sync.RefreshActive(ctx)
	return nil
}
