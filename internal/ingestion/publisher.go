package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// OutboundPublisher publishes processed operations to NATS for downstream
// consumers (settlement rails, notification services, analytics).
// Outbound messages are published after persistence is confirmed.
// Subjects follow the pattern: fund.events.{op_type}
type OutboundPublisher struct {
	js        jetstream.JetStream
	inputChan <-chan PublishableOp
}

// PublishableOp is a processed operation ready for outbound publishing.
// Status and Code let consumers react to rejections without querying the
// receipt store.
type PublishableOp struct {
	Sequence       int64       `json:"sequence"`
	OpType         string      `json:"op_type"`
	IdempotencyKey string      `json:"idempotency_key"`
	Caller         string      `json:"caller"`
	Height         int64       `json:"height"`
	Status         string      `json:"status"`
	Code           int32       `json:"code,omitempty"`
	Result         int64       `json:"result"`
	Payload        interface{} `json:"payload"`
	StateHash      []byte      `json:"state_hash"`
	Timestamp      time.Time   `json:"timestamp"`
}

func NewOutboundPublisher(js jetstream.JetStream, inputChan <-chan PublishableOp) *OutboundPublisher {
	return &OutboundPublisher{
		js:        js,
		inputChan: inputChan,
	}
}

// Run starts the outbound publisher loop.
func (p *OutboundPublisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case out, ok := <-p.inputChan:
			if !ok {
				return nil
			}

			if err := p.publish(ctx, out); err != nil {
				log.Printf("WARN: outbound publish failed seq=%d: %v", out.Sequence, err)
				// Non-fatal: downstream consumers can query the operation log directly
			}
		}
	}
}

func (p *OutboundPublisher) publish(ctx context.Context, out PublishableOp) error {
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal operation: %w", err)
	}

	subject := fmt.Sprintf("fund.events.%s", out.OpType)
	_, err = p.js.Publish(ctx, subject, data)
	return err
}

// EnsureOutboundStream creates the outbound events stream.
func EnsureOutboundStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      "FUND_EVENTS",
		Subjects:  []string{"fund.events.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create outbound stream: %w", err)
	}
	log.Println("INFO: ensured outbound stream FUND_EVENTS")
	return nil
}
