package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dtroode/shopkeeper-server/internal/logger"
)

// HandlerFunc serves one message pattern. The returned value is marshaled
// into the reply envelope; the error is translated to a wire error.
type HandlerFunc func(ctx context.Context, data json.RawMessage) (any, error)

// Router subscribes pattern handlers on a NATS connection. Request/reply
// patterns answer with an envelope; event patterns (no reply subject) run
// the handler and drop its result.
type Router struct {
	conn    *nats.Conn
	timeout time.Duration
	logger  *logger.Logger
}

func NewRouter(conn *nats.Conn, timeout time.Duration, logger *logger.Logger) *Router {
	return &Router{
		conn:    conn,
		timeout: timeout,
		logger:  logger,
	}
}

// Handle subscribes fn to pattern.
func (r *Router) Handle(pattern string, fn HandlerFunc) error {
	_, err := r.conn.Subscribe(pattern, func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		result, err := fn(ctx, msg.Data)

		if msg.Reply == "" {
			if err != nil {
				r.logger.Error("event handler failed",
					"pattern", pattern,
					"error", err.Error())
			}
			return
		}

		var env envelope
		if err != nil {
			env.Error = encodeError(err)
		} else if result != nil {
			data, merr := json.Marshal(result)
			if merr != nil {
				r.logger.Error("failed to marshal reply",
					"pattern", pattern,
					"error", merr.Error())
				env.Error = encodeError(merr)
			} else {
				env.Data = data
			}
		}

		body, merr := json.Marshal(env)
		if merr != nil {
			r.logger.Error("failed to marshal envelope",
				"pattern", pattern,
				"error", merr.Error())
			return
		}
		if err := msg.Respond(body); err != nil {
			r.logger.Error("failed to respond",
				"pattern", pattern,
				"error", err.Error())
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", pattern, err)
	}
	return nil
}
