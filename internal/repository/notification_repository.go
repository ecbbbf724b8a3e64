package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/isp-portal/internal/domain"
)

// NotificationRepository persists in-app admin alerts.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.AdminNotification) error
	ListUnreadByCompany(ctx context.Context, companyID string) ([]*domain.AdminNotification, error)
	MarkRead(ctx context.Context, id string) error
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.AdminNotification) error {
	const query = `
        INSERT INTO admin_notifications (company_id, title, message, notif_type, related_id, is_read)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		n.CompanyID,
		n.Title,
		n.Message,
		n.Type,
		n.RelatedID,
		n.IsRead,
	).Scan(&n.ID, &n.CreatedAt)
}

func (r *notificationRepository) ListUnreadByCompany(ctx context.Context, companyID string) ([]*domain.AdminNotification, error) {
	const query = `
        SELECT id, company_id, title, message, notif_type, related_id, is_read, created_at
        FROM admin_notifications
        WHERE company_id=$1 AND is_read=false
        ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*domain.AdminNotification
	for rows.Next() {
		var n domain.AdminNotification
		if err := rows.Scan(
			&n.ID,
			&n.CompanyID,
			&n.Title,
			&n.Message,
			&n.Type,
			&n.RelatedID,
			&n.IsRead,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	const query = `UPDATE admin_notifications SET is_read=true, read_at=$2 WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id, time.Now().UTC())
	return err
}
