package audit

import (
	"context"
	"fmt"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
)

const defaultListLimit = 100

type Service struct {
	repo    repository.AuditRepository
	metrics *metrics.Metrics
}

func NewService(repo repository.AuditRepository, m *metrics.Metrics) *Service {
	return &Service{repo: repo, metrics: m}
}

// In returns a recorder that writes through store, so entries commit or roll
// back with the transaction store belongs to.
func (s *Service) In(store repository.Store) *Service {
	return &Service{repo: store.Audit(), metrics: s.metrics}
}

// Record appends one audit entry stamped with the current time. Callers
// report the entry with Written once the surrounding transaction commits.
func (s *Service) Record(ctx context.Context, actorID int64, action, targetTable string, targetID *int64) (*model.AuditLog, error) {
	entry := &model.AuditLog{
		UserID:      actorID,
		Action:      action,
		TargetTable: targetTable,
		TargetID:    targetID,
		Timestamp:   model.Now(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to write audit entry: %w", err)
	}
	return entry, nil
}

// Written counts a committed entry.
func (s *Service) Written(entry *model.AuditLog) {
	if s.metrics == nil || entry == nil {
		return
	}
	s.metrics.AuditEntriesWritten.WithLabelValues(entry.Action, entry.TargetTable).Inc()
}

// List returns the entries written by filter.UserID, newest first.
func (s *Service) List(ctx context.Context, filter model.ListFilter) ([]*model.AuditLog, error) {
	if filter.Limit <= 0 || filter.Limit > defaultListLimit {
		filter.Limit = defaultListLimit
	}
	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return logs, nil
}
