package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"calendar_reminders/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

var ErrBadCredentials = errors.New("bad credentials")

type UserRepository struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *UserRepository) Create(ctx context.Context, req *models.UserRequest) (*models.User, error) {
	if req == nil {
		return nil, fmt.Errorf("user request is nil")
	}
	if strings.TrimSpace(req.Forename) == "" {
		return nil, fmt.Errorf("forename is empty")
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("email is empty")
	}
	if req.Password == "" {
		return nil, fmt.Errorf("password is empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Forename: req.Forename,
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
	}

	q := r.sb.
		Insert("users").
		Columns("forename", "email", "password_hash").
		Values(user.Forename, user.Email, string(hash)).
		Suffix("RETURNING id, created_at")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user insert: %w", err)
	}

	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&user.ID, &user.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

// Authenticate возвращает id пользователя при совпадении пароля.
// Несуществующий email и неверный пароль неразличимы для вызывающего.
func (r *UserRepository) Authenticate(ctx context.Context, email, password string) (int64, error) {
	q := r.sb.
		Select("id", "password_hash").
		From("users").
		Where(sq.Eq{"email": strings.ToLower(strings.TrimSpace(email))}).
		Limit(1)

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build auth sql: %w", err)
	}

	var (
		id   int64
		hash string
	)
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&id, &hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrBadCredentials
		}
		return 0, fmt.Errorf("query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return 0, ErrBadCredentials
	}
	return id, nil
}

// GetWithGroups — пользователь вместе со всеми его группами.
func (r *UserRepository) GetWithGroups(ctx context.Context, userID int64) (*models.User, error) {
	q := r.sb.
		Select("u.id", "u.forename", "u.email", "u.created_at", "g.id", "g.name").
		From("users u").
		LeftJoin("group_memberships gm ON gm.user_id = u.id").
		LeftJoin("groups g ON g.id = gm.group_id").
		Where(sq.Eq{"u.id": userID})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get user sql: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	defer rows.Close()

	var user *models.User
	for rows.Next() {
		var (
			u         models.User
			groupID   *int64
			groupName *string
		)
		if err := rows.Scan(&u.ID, &u.Forename, &u.Email, &u.CreatedAt, &groupID, &groupName); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		if user == nil {
			user = &u
		}
		if groupID != nil && groupName != nil {
			user.Groups = append(user.Groups, models.Group{ID: *groupID, Name: *groupName})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}
