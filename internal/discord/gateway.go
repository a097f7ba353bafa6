package discord

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// GatewayURL is the Discord websocket gateway endpoint.
const GatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

// Gateway opcodes used by this client.
const (
	opDispatch     = 0
	opHeartbeat    = 1
	opIdentify     = 2
	opHello        = 10
	opHeartbeatACK = 11
)

// reconnectDelay spaces out gateway reconnect attempts.
const reconnectDelay = 5 * time.Second

// intents requested at identify: guild messages plus message content.
const intents = 1<<9 | 1<<15

type gatewayPayload struct {
	Op int             `json:"op"`
	T  string          `json:"t,omitempty"`
	S  *int64          `json:"s,omitempty"`
	D  json.RawMessage `json:"d,omitempty"`
}

type helloData struct {
	HeartbeatInterval int `json:"heartbeat_interval"`
}

type readyData struct {
	User User `json:"user"`
}

type identifyData struct {
	Token      string         `json:"token"`
	Intents    int            `json:"intents"`
	Properties map[string]any `json:"properties"`
}

// MessageHandler is invoked once per inbound MESSAGE_CREATE event.
type MessageHandler func(msg Message)

// Gateway is a minimal Discord gateway client for the reactive deployment
// shape. It identifies, heartbeats, and dispatches MESSAGE_CREATE events to a
// handler; everything else on the socket is ignored.
type Gateway struct {
	Token   string
	URL     string
	OnReady func(self User)
	Handler MessageHandler

	dial func(url string) (*websocket.Conn, error)
}

// NewGateway builds a gateway client for the given bot token.
func NewGateway(token string, handler MessageHandler) *Gateway {
	return &Gateway{
		Token:   token,
		URL:     GatewayURL,
		Handler: handler,
		dial: func(url string) (*websocket.Conn, error) {
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			return conn, err
		},
	}
}

// Run connects and processes events until ctx is cancelled, reconnecting
// with a fixed delay after any connection failure.
func (g *Gateway) Run(ctx context.Context) error {
	for {
		if err := g.session(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Msg("gateway session ended, reconnecting")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

// session runs one connect→identify→read cycle.
func (g *Gateway) session(ctx context.Context) error {
	conn, err := g.dial(g.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Close the socket when ctx is cancelled so ReadJSON unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	var hello gatewayPayload
	if err := conn.ReadJSON(&hello); err != nil {
		return err
	}
	if hello.Op != opHello {
		return errors.New("gateway: expected hello")
	}
	var hd helloData
	if err := json.Unmarshal(hello.D, &hd); err != nil {
		return err
	}

	if err := g.identify(conn); err != nil {
		return err
	}

	// seq is written by the read loop and read by the heartbeat goroutine.
	var seq atomic.Int64
	heartbeat := time.NewTicker(time.Duration(hd.HeartbeatInterval) * time.Millisecond)
	defer heartbeat.Stop()

	// Writes come from both the heartbeat goroutine and acks; serialize them.
	writes := make(chan gatewayPayload, 4)
	go func() {
		for {
			select {
			case <-done:
				return
			case <-heartbeat.C:
				s := seq.Load()
				writes <- gatewayPayload{Op: opHeartbeat, S: &s}
			}
		}
	}()
	go func() {
		for {
			select {
			case <-done:
				return
			case p := <-writes:
				if err := conn.WriteJSON(p); err != nil {
					_ = conn.Close()
					return
				}
			}
		}
	}()

	for {
		var p gatewayPayload
		if err := conn.ReadJSON(&p); err != nil {
			return err
		}
		if p.S != nil {
			seq.Store(*p.S)
		}
		switch p.Op {
		case opDispatch:
			g.dispatch(p)
		case opHeartbeat:
			s := seq.Load()
			writes <- gatewayPayload{Op: opHeartbeat, S: &s}
		case opHeartbeatACK:
			// nothing to do
		}
	}
}

func (g *Gateway) identify(conn *websocket.Conn) error {
	return conn.WriteJSON(gatewayPayload{
		Op: opIdentify,
		D: mustMarshal(identifyData{
			Token:   g.Token,
			Intents: intents,
			Properties: map[string]any{
				"os":      "linux",
				"browser": "go-discord-relay",
				"device":  "go-discord-relay",
			},
		}),
	})
}

func (g *Gateway) dispatch(p gatewayPayload) {
	switch p.T {
	case "READY":
		var rd readyData
		if err := json.Unmarshal(p.D, &rd); err != nil {
			log.Warn().Err(err).Msg("gateway: bad READY payload")
			return
		}
		log.Info().Str("user", rd.User.Username).Str("id", rd.User.ID).Msg("gateway ready")
		if g.OnReady != nil {
			g.OnReady(rd.User)
		}
	case "MESSAGE_CREATE":
		var msg Message
		if err := json.Unmarshal(p.D, &msg); err != nil {
			log.Warn().Err(err).Msg("gateway: bad MESSAGE_CREATE payload")
			return
		}
		if g.Handler != nil {
			g.Handler(msg)
		}
	}
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
