package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Peer is a named handle to a remote service. Call is blocking
// request/reply with a timeout; Emit is fire-and-forget and expects no
// response.
type Peer interface {
	Call(ctx context.Context, pattern string, payload, reply any) error
	Emit(pattern string, payload any) error
}

var _ Peer = (*Client)(nil)

// Client implements Peer over a NATS connection.
type Client struct {
	conn    *nats.Conn
	timeout time.Duration
}

func NewClient(conn *nats.Conn, timeout time.Duration) *Client {
	return &Client{
		conn:    conn,
		timeout: timeout,
	}
}

// Call sends payload to the pattern subject and decodes the reply envelope
// into reply. Remote typed errors are restored; a nil reply discards the
// response data.
func (c *Client) Call(ctx context.Context, pattern string, payload, reply any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request for %s: %w", pattern, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.conn.RequestWithContext(ctx, pattern, data)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", pattern, err)
	}

	var env envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		return fmt.Errorf("failed to decode reply from %s: %w", pattern, err)
	}
	if env.Error != nil {
		return decodeError(env.Error)
	}
	if reply == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, reply); err != nil {
		return fmt.Errorf("failed to decode reply data from %s: %w", pattern, err)
	}
	return nil
}

// Emit publishes payload to the pattern subject without waiting for
// anything.
func (c *Client) Emit(pattern string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event for %s: %w", pattern, err)
	}
	if err := c.conn.Publish(pattern, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", pattern, err)
	}
	return nil
}
