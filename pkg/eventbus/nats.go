// Package eventbus publishes ride events over NATS.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/richxcame/ridemeter/pkg/config"
	"github.com/richxcame/ridemeter/pkg/logger"
	"go.uber.org/zap"
)

// Bus is a thin JSON layer over a NATS connection
type Bus struct {
	conn   *nats.Conn
	prefix string
}

// Connect dials NATS using cfg
func Connect(cfg *config.NATSConfig, clientName string) (*Bus, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name(clientName),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to nats: %w", err)
	}

	return &Bus{conn: conn, prefix: cfg.SubjectPrefix}, nil
}

// Publish marshals payload as JSON and publishes it under the bus prefix
func (b *Bus) Publish(ctx context.Context, subject string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return b.conn.Publish(subjectFor(b.prefix, subject), data)
}

// Subscribe registers handler for subject and returns an unsubscribe func
func (b *Bus) Subscribe(subject string, handler func(data []byte)) (func() error, error) {
	sub, err := b.conn.Subscribe(subjectFor(b.prefix, subject), func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	return sub.Unsubscribe, nil
}

// Ping reports connection health
func (b *Bus) Ping() error {
	if b.conn.Status() != nats.CONNECTED {
		return fmt.Errorf("nats status %v", b.conn.Status())
	}
	return nil
}

// Close drains pending messages and closes the connection
func (b *Bus) Close() {
	if err := b.conn.Drain(); err != nil {
		logger.Warn("nats drain failed", zap.Error(err))
	}
}

func subjectFor(prefix, subject string) string {
	if prefix == "" {
		return subject
	}
	return prefix + "." + subject
}
