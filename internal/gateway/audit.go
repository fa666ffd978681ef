package gateway

import (
	"context"

	"github.com/eventloom/finance-backend/internal/audit"
)

func (g *Gateway) ListAuditLogs(ctx context.Context, params audit.ListParams) (*audit.ListResult, error) {
	return g.auditLog.List(ctx, params)
}
