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
)

type GroupRepository struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewGroupRepository(db *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *GroupRepository) Create(ctx context.Context, req *models.GroupRequest) (*models.Group, error) {
	if req == nil || strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("group name is empty")
	}

	g := &models.Group{Name: req.Name}

	q := r.sb.
		Insert("groups").
		Columns("name").
		Values(g.Name).
		Suffix("RETURNING id")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build group insert: %w", err)
	}

	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&g.ID); err != nil {
		return nil, fmt.Errorf("insert group: %w", err)
	}
	return g, nil
}

func (r *GroupRepository) Get(ctx context.Context, id int64) (*models.Group, error) {
	q := r.sb.
		Select("id", "name").
		From("groups").
		Where(sq.Eq{"id": id}).
		Limit(1)

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get group sql: %w", err)
	}

	var g models.Group
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&g.ID, &g.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return &g, nil
}

func (r *GroupRepository) Members(ctx context.Context, groupID int64) ([]*models.GroupMember, error) {
	q := r.sb.
		Select("u.id", "u.forename").
		From("users u").
		Join("group_memberships gm ON gm.user_id = u.id").
		Where(sq.Eq{"gm.group_id": groupID}).
		OrderBy("u.id ASC")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build group members sql: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query group members: %w", err)
	}
	defer rows.Close()

	res := make([]*models.GroupMember, 0)
	for rows.Next() {
		var m models.GroupMember
		if err := rows.Scan(&m.UserID, &m.Forename); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		res = append(res, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group members: %w", err)
	}
	return res, nil
}

func (r *GroupRepository) AddUser(ctx context.Context, groupID, userID int64) error {
	q := r.sb.
		Insert("group_memberships").
		Columns("user_id", "group_id").
		Values(userID, groupID).
		Suffix("ON CONFLICT DO NOTHING")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build add user sql: %w", err)
	}

	if _, err := r.db.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("add user to group: %w", err)
	}
	return nil
}

func (r *GroupRepository) RemoveUser(ctx context.Context, groupID, userID int64) error {
	q := r.sb.
		Delete("group_memberships").
		Where(sq.Eq{"user_id": userID, "group_id": groupID})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build remove user sql: %w", err)
	}

	tag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("remove user from group: %w", err)
	}
	return checkOneRow(tag.RowsAffected())
}

func (r *GroupRepository) Delete(ctx context.Context, id int64) error {
	q := r.sb.
		Delete("groups").
		Where(sq.Eq{"id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete group sql: %w", err)
	}

	tag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return checkOneRow(tag.RowsAffected())
}
