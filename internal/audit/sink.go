package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	"github.com/eventloom/finance-backend/pkg/logger"
)

const writeTimeout = 5 * time.Second

// Entry is one audit record as handed over by the gateway after a commit.
type Entry struct {
	ActorID      uuid.UUID
	Action       enums.AuditAction
	ResourceType enums.AuditResourceType
	ResourceID   uuid.UUID
	OccurredAt   time.Time
	Metadata     map[string]any
}

// Recorder accepts audit entries. Record never fails the caller.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

type failureCounter interface {
	IncAuditFailure()
}

// Sink writes audit rows on a context detached from the request so a
// client disconnect after commit does not drop the record.
type Sink struct {
	repo     Repository
	logg     *logger.Logger
	failures failureCounter
	now      func() time.Time
}

func NewSink(repo Repository, logg *logger.Logger, failures failureCounter) *Sink {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Sink{
		repo:     repo,
		logg:     logg,
		failures: failures,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Sink) Record(ctx context.Context, entry Entry) {
	if s == nil || s.repo == nil {
		return
	}
	row := &models.AuditLog{
		ID:           uuid.New(),
		ActorID:      entry.ActorID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		OccurredAt:   entry.OccurredAt,
	}
	if row.OccurredAt.IsZero() {
		row.OccurredAt = s.now()
	}
	if len(entry.Metadata) > 0 {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			s.fail(ctx, entry, err)
			return
		}
		row.Metadata = raw
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := s.repo.Create(writeCtx, row); err != nil {
		s.fail(ctx, entry, err)
	}
}

func (s *Sink) fail(ctx context.Context, entry Entry, err error) {
	if s.failures != nil {
		s.failures.IncAuditFailure()
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"audit_action":   entry.Action,
		"resource_type":  entry.ResourceType,
		"resource_id":    entry.ResourceID.String(),
		"audit_actor_id": entry.ActorID.String(),
	})
	s.logg.Error(ctx, "audit write failed", err)
}
