package services

import (
	"context"
	"log/slog"

	"github.com/harborview/hms/internal/models"
)

type AuditService struct {
	auditRepo models.AuditRepo
	logger    *slog.Logger
}

func NewAuditService(auditRepo models.AuditRepo, logger *slog.Logger) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Log appends an audit entry. Audit failures are logged and swallowed; they
// never fail the mutation that triggered them.
func (as *AuditService) Log(ctx context.Context, action, entity, entityID, actorID string, details map[string]any) {
	entry := &models.AuditLogEntry{
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		ActorID:  actorID,
		Details:  details,
	}
	if err := as.auditRepo.InsertAuditEntry(ctx, entry); err != nil {
		as.logger.Error("failed to write audit entry",
			"action", action,
			"entity", entity,
			"entity_id", entityID,
			"error", err,
		)
	}
}

func (as *AuditService) Recent(ctx context.Context, limit int64) ([]*models.AuditLogEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return as.auditRepo.ListAuditEntries(ctx, limit)
}
