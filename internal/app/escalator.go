package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/internal/gateway"
	"github.com/eventloom/finance-backend/pkg/logger"
)

const (
	conservationEventType = "finance.conservation_violation"
	escalationTimeout     = 5 * time.Second
)

type publisher interface {
	Publish(ctx context.Context, data []byte, attributes map[string]string) (string, error)
}

// PubSubEscalator pages on-call by publishing conservation violations to the
// finance topic next to the regular domain events.
type PubSubEscalator struct {
	pub  publisher
	logg *logger.Logger
	now  func() time.Time
}

func NewPubSubEscalator(pub publisher, logg *logger.Logger) *PubSubEscalator {
	if logg == nil {
		logg = logger.Nop()
	}
	return &PubSubEscalator{pub: pub, logg: logg, now: func() time.Time { return time.Now().UTC() }}
}

type escalationMessage struct {
	EventID    string    `json:"event_id"`
	Command    string    `json:"command"`
	Resource   string    `json:"resource"`
	ResourceID uuid.UUID `json:"resource_id"`
	OperatorID uuid.UUID `json:"operator_id"`
	Error      string    `json:"error"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Escalate never fails the command that tripped it; publish errors are logged.
func (e *PubSubEscalator) Escalate(ctx context.Context, esc gateway.Escalation) {
	if e == nil || e.pub == nil {
		return
	}
	msg := escalationMessage{
		EventID:    uuid.NewString(),
		Command:    esc.Command,
		Resource:   esc.Resource,
		ResourceID: esc.ResourceID,
		OperatorID: esc.OperatorID,
		OccurredAt: e.now(),
	}
	if esc.Err != nil {
		msg.Error = esc.Err.Error()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		e.logg.Error(ctx, "encode escalation", err)
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), escalationTimeout)
	defer cancel()
	if _, err := e.pub.Publish(pubCtx, data, map[string]string{
		"event_id":       msg.EventID,
		"event_type":     conservationEventType,
		"aggregate_type": esc.Resource,
		"aggregate_id":   esc.ResourceID.String(),
		"occurred_at":    msg.OccurredAt.Format(time.RFC3339Nano),
	}); err != nil {
		e.logg.Error(ctx, "publish escalation", err)
	}
}
