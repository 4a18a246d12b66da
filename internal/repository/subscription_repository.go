package repository

import (
	"context"
	"errors"
	"fmt"

	"calendar_reminders/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SubscriptionRepository struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *SubscriptionRepository) Create(ctx context.Context, userID int64, req *models.SubscriptionRequest) (*models.Subscription, error) {
	if req == nil {
		return nil, fmt.Errorf("subscription request is nil")
	}
	if req.Subscription.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is empty")
	}
	if req.Subscription.Keys.P256dh == "" || req.Subscription.Keys.Auth == "" {
		return nil, fmt.Errorf("subscription keys are empty")
	}

	sub := &models.Subscription{
		UserID:   userID,
		Title:    req.Title,
		Endpoint: req.Subscription.Endpoint,
		Keys:     req.Subscription.Keys,
	}

	// повторная регистрация того же endpoint обновляет ключи
	q := r.sb.
		Insert("subscriptions").
		Columns("user_id", "title", "endpoint", "p256dh", "auth").
		Values(userID, sub.Title, sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth).
		Suffix(`
ON CONFLICT (endpoint)
DO UPDATE SET
	user_id = EXCLUDED.user_id,
	title = EXCLUDED.title,
	p256dh = EXCLUDED.p256dh,
	auth = EXCLUDED.auth
RETURNING id, created_at
`)

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build subscription insert: %w", err)
	}

	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&sub.ID, &sub.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert subscription: %w", err)
	}

	return sub, nil
}

func (r *SubscriptionRepository) Get(ctx context.Context, userID, id int64) (*models.Subscription, error) {
	q := r.sb.
		Select("id", "user_id", "title", "endpoint", "p256dh", "auth", "created_at").
		From("subscriptions").
		Where(sq.Eq{"user_id": userID, "id": id}).
		Limit(1)

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get subscription sql: %w", err)
	}

	sub, err := scanSubscription(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var s models.Subscription
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Title,
		&s.Endpoint,
		&s.Keys.P256dh,
		&s.Keys.Auth,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// FindSubscriptionsByRecipient — все устройства одного получателя;
// пустой список означает "нет зарегистрированных устройств", это не ошибка.
func (r *SubscriptionRepository) FindSubscriptionsByRecipient(ctx context.Context, userID int64) ([]*models.Subscription, error) {
	q := r.sb.
		Select("id", "user_id", "title", "endpoint", "p256dh", "auth", "created_at").
		From("subscriptions").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("id ASC")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list subscriptions sql: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	res := make([]*models.Subscription, 0)
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription row: %w", err)
		}
		res = append(res, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscription rows: %w", err)
	}
	return res, nil
}

func (r *SubscriptionRepository) Delete(ctx context.Context, userID, id int64) error {
	q := r.sb.
		Delete("subscriptions").
		Where(sq.Eq{"user_id": userID, "id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete subscription sql: %w", err)
	}

	tag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return checkOneRow(tag.RowsAffected())
}
