// Package stream implements a smoke-test client for an Alpaca-style
// market-data websocket feed: connect, authenticate, subscribe, then
// log whatever arrives for a bounded window. Diagnostic only; there is
// no reconnect machinery and nothing is persisted.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// Config configures client timeouts.
type Config struct {
	// HandshakeTimeout bounds the websocket dial.
	HandshakeTimeout time.Duration
	// WriteTimeout bounds each outgoing frame.
	WriteTimeout time.Duration
	// ControlTimeout bounds the welcome/auth handshake reads.
	ControlTimeout time.Duration
	// ReadInterval is the per-read deadline inside Listen; a quiet
	// interval is reported, not fatal.
	ReadInterval time.Duration
}

// DefaultConfig returns default client configuration.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ControlTimeout:   10 * time.Second,
		ReadInterval:     1 * time.Second,
	}
}

// Client is a single-connection feed client.
type Client struct {
	conn   *websocket.Conn
	config Config
}

type authRequest struct {
	Action string `json:"action"`
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

type subscribeRequest struct {
	Action string   `json:"action"`
	Trades []string `json:"trades,omitempty"`
	Quotes []string `json:"quotes,omitempty"`
}

// Dial connects to the feed endpoint and reads the welcome frame.
func Dial(ctx context.Context, endpoint string, config *Config) (*Client, []byte, error) {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("websocket dial: %w", err)
	}

	c := &Client{conn: conn, config: cfg}

	welcome, err := c.readControl()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("read welcome: %w", err)
	}

	return c, welcome, nil
}

// Authenticate sends the auth action and returns the feed's response
// frame. The caller decides whether the response grants access; the
// smoke check only logs it.
func (c *Client) Authenticate(key, secret string) ([]byte, error) {
	if err := c.writeJSON(authRequest{Action: "auth", Key: key, Secret: secret}); err != nil {
		return nil, fmt.Errorf("send auth: %w", err)
	}

	resp, err := c.readControl()
	if err != nil {
		return nil, fmt.Errorf("read auth response: %w", err)
	}
	return resp, nil
}

// Subscribe requests trade and quote streams for the given symbols.
func (c *Client) Subscribe(trades, quotes []string) error {
	req := subscribeRequest{Action: "subscribe", Trades: trades, Quotes: quotes}
	if err := c.writeJSON(req); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}
	return nil
}

// Listen reads frames until the window elapses or ctx is cancelled,
// invoking fn for each frame. An interval without any frame invokes
// onQuiet (if non-nil). Returns the number of frames received.
//
// Reads run on a separate goroutine: gorilla read errors are
// permanent, so the connection cannot be polled with short read
// deadlines from the loop itself.
func (c *Client) Listen(ctx context.Context, window time.Duration, fn func(msg []byte), onQuiet func()) (int, error) {
	type frame struct {
		data []byte
		err  error
	}

	// Bound the reader goroutine's lifetime past the window so it
	// cannot block forever once Listen returns.
	if err := c.conn.SetReadDeadline(time.Now().Add(window + c.config.ReadInterval)); err != nil {
		return 0, fmt.Errorf("set read deadline: %w", err)
	}

	frames := make(chan frame)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		for {
			_, msg, err := c.conn.ReadMessage()
			select {
			case frames <- frame{data: msg, err: err}:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	timer := time.NewTimer(window)
	defer timer.Stop()
	ticker := time.NewTicker(c.config.ReadInterval)
	defer ticker.Stop()

	received := 0
	for {
		select {
		case <-ctx.Done():
			return received, nil
		case <-timer.C:
			return received, nil
		case <-ticker.C:
			if onQuiet != nil {
				onQuiet()
			}
		case f := <-frames:
			if f.err != nil {
				var netErr net.Error
				if errors.As(f.err, &netErr) && netErr.Timeout() {
					return received, nil
				}
				if websocket.IsCloseError(f.err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return received, nil
				}
				return received, fmt.Errorf("read message: %w", f.err)
			}
			received++
			if fn != nil {
				fn(f.data)
			}
			ticker.Reset(c.config.ReadInterval)
		}
	}
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	deadline := time.Now().Add(c.config.WriteTimeout)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, deadline)
	return c.conn.Close()
}

func (c *Client) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readControl() ([]byte, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.config.ControlTimeout)); err != nil {
		return nil, err
	}
	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return msg, nil
}
