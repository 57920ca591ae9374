package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/campushub/timetable-api/internal/models"
)

type auditLogWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuditService appends audit trail records. Failures are logged and
// swallowed; auditing never fails the action it records.
type AuditService struct {
	writer auditLogWriter
	logger *zap.Logger
}

// NewAuditService instantiates AuditService.
func NewAuditService(writer auditLogWriter, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{writer: writer, logger: logger}
}

// Record persists one audit record.
func (s *AuditService) Record(ctx context.Context, log models.AuditLog) {
	if s.writer == nil {
		return
	}
	if err := s.writer.CreateAuditLog(ctx, &log); err != nil {
		s.logger.Warn("audit record failed",
			zap.String("action", log.Action),
			zap.String("resource", log.Resource),
			zap.Error(err))
	}
}
