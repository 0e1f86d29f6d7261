package sqlstore

import (
	"context"

	"github.com/jwalitptl/medrecords-api/internal/model"
)

type auditRepository struct {
	baseRepository
}

const auditColumns = `id, user_id, action, target_table, target_id, "timestamp"`

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	if log.Timestamp.IsZero() {
		log.Timestamp = model.Now()
	}
	id, err := r.insertReturningID(ctx, `
		INSERT INTO audit_logs (user_id, action, target_table, target_id, "timestamp")
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		log.UserID, log.Action, log.TargetTable, log.TargetID, log.Timestamp,
	)
	if err != nil {
		return err
	}
	return r.get(ctx, log, `SELECT `+auditColumns+` FROM audit_logs WHERE id = ?`, id)
}

func (r *auditRepository) List(ctx context.Context, filter model.ListFilter) ([]*model.AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs`
	var args []interface{}
	if filter.UserID > 0 {
		query += ` WHERE user_id = ?`
		args = append(args, filter.UserID)
	}
	query += ` ORDER BY id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	logs := []*model.AuditLog{}
	if err := r.selectAll(ctx, &logs, query, args...); err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *auditRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.get(ctx, &n, `SELECT COUNT(*) FROM audit_logs`); err != nil {
		return 0, err
	}
	return n, nil
}
