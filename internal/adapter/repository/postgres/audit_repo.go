package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/postgres/generated"
	"github.com/iho/gobank/internal/usecase"
)

// AuditRepository implements audit log persistence
type AuditRepository struct {
	db generated.DBTX
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: pool}
}

// CreateTx inserts an audit entry inside the caller's transaction.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return insertAuditLog(ctx, pgxTx(tx), log)
}

func insertAuditLog(ctx context.Context, db generated.DBTX, log *domain.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	var beforeStateJSON, afterStateJSON []byte
	var err error

	if log.BeforeState != nil {
		beforeStateJSON, err = json.Marshal(log.BeforeState)
		if err != nil {
			return err
		}
	}

	if log.AfterState != nil {
		afterStateJSON, err = json.Marshal(log.AfterState)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO audit_logs (
			id, user_id, action, resource_type, resource_id, request_id,
			before_state, after_state, status, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = db.Exec(ctx, query,
		log.ID,
		log.UserID,
		string(log.Action),
		log.ResourceType,
		log.ResourceID,
		log.RequestID,
		beforeStateJSON,
		afterStateJSON,
		string(log.Status),
		log.ErrorMessage,
		log.CreatedAt,
	)

	return translateError(err)
}

const defaultAuditLimit = 50

// List retrieves audit logs with filtering, newest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultAuditLimit
	}

	var (
		conditions []string
		args       []any
	)

	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, column+" = $"+strconv.Itoa(len(args)))
	}

	add("user_id", filter.UserID)
	add("action", string(filter.Action))
	add("resource_type", filter.ResourceType)
	add("resource_id", filter.ResourceID)

	query := `
		SELECT id, user_id, action, resource_type, resource_id, request_id,
		       before_state, after_state, status, error_message, created_at
		FROM audit_logs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, filter.Limit, filter.Offset)
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		var (
			log                     domain.AuditLog
			action, status          string
			beforeState, afterState []byte
		)

		if err := rows.Scan(
			&log.ID,
			&log.UserID,
			&action,
			&log.ResourceType,
			&log.ResourceID,
			&log.RequestID,
			&beforeState,
			&afterState,
			&status,
			&log.ErrorMessage,
			&log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}

		log.Action = domain.AuditAction(action)
		log.Status = domain.AuditStatus(status)

		if len(beforeState) > 0 {
			_ = json.Unmarshal(beforeState, &log.BeforeState)
		}
		if len(afterState) > 0 {
			_ = json.Unmarshal(afterState, &log.AfterState)
		}

		logs = append(logs, &log)
	}

	return logs, rows.Err()
}
