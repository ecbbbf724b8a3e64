package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/isp-portal/internal/domain"
)

// TicketReplyRepository persists ticket threads and ratings.
type TicketReplyRepository interface {
	CreateReply(ctx context.Context, reply *domain.TicketReply) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketReply, error)
	CreateRating(ctx context.Context, rating *domain.TicketRating) error
	GetRatingByTicket(ctx context.Context, ticketID string) (*domain.TicketRating, error)
	ListRatingsByEmployee(ctx context.Context, employeeID string) ([]domain.TicketRating, error)
}

type ticketReplyRepository struct {
	pool *pgxpool.Pool
}

// NewTicketReplyRepository instantiates repository.
func NewTicketReplyRepository(pool *pgxpool.Pool) TicketReplyRepository {
	return &ticketReplyRepository{pool: pool}
}

func (r *ticketReplyRepository) CreateReply(ctx context.Context, reply *domain.TicketReply) error {
	const query = `
        INSERT INTO ticket_replies (ticket_id, author_type, author_id, message)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		reply.TicketID,
		reply.AuthorType,
		reply.AuthorID,
		reply.Message,
	).Scan(&reply.ID, &reply.CreatedAt)
}

func (r *ticketReplyRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketReply, error) {
	const query = `
        SELECT id, ticket_id, author_type, author_id, message, created_at
        FROM ticket_replies WHERE ticket_id=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketReply
	for rows.Next() {
		var reply domain.TicketReply
		if err := rows.Scan(&reply.ID, &reply.TicketID, &reply.AuthorType, &reply.AuthorID, &reply.Message, &reply.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, reply)
	}
	return result, rows.Err()
}

func (r *ticketReplyRepository) CreateRating(ctx context.Context, rating *domain.TicketRating) error {
	const query = `
        INSERT INTO ticket_ratings (ticket_id, customer_id, employee_id, rating, comment)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		rating.TicketID,
		rating.CustomerID,
		rating.EmployeeID,
		rating.Rating,
		rating.Comment,
	).Scan(&rating.ID, &rating.CreatedAt)
}

func (r *ticketReplyRepository) GetRatingByTicket(ctx context.Context, ticketID string) (*domain.TicketRating, error) {
	const query = `
        SELECT id, ticket_id, customer_id, employee_id, rating, comment, created_at
        FROM ticket_ratings WHERE ticket_id=$1`
	var rating domain.TicketRating
	err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&rating.ID, &rating.TicketID, &rating.CustomerID, &rating.EmployeeID,
		&rating.Rating, &rating.Comment, &rating.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *ticketReplyRepository) ListRatingsByEmployee(ctx context.Context, employeeID string) ([]domain.TicketRating, error) {
	const query = `
        SELECT id, ticket_id, customer_id, employee_id, rating, comment, created_at
        FROM ticket_ratings WHERE employee_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketRating
	for rows.Next() {
		var rating domain.TicketRating
		if err := rows.Scan(&rating.ID, &rating.TicketID, &rating.CustomerID, &rating.EmployeeID,
			&rating.Rating, &rating.Comment, &rating.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, rating)
	}
	return result, rows.Err()
}
