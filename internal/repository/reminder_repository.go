package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"calendar_reminders/internal/models"
	"calendar_reminders/internal/status"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reminderRecipientsAgg = `COALESCE(array_agg(rr.user_id ORDER BY rr.user_id) FILTER (WHERE rr.user_id IS NOT NULL), '{}')`

type ReminderRepository struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewReminderRepository(db *pgxpool.Pool) *ReminderRepository {
	return &ReminderRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Create — напоминание + получатели в одной транзакции, статус всегда waiting.
func (r *ReminderRepository) Create(ctx context.Context, groupID int64, req *models.ReminderRequest) (*models.Reminder, error) {
	if req == nil {
		return nil, fmt.Errorf("reminder request is nil")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rem := &models.Reminder{
		GroupID:    groupID,
		Action:     req.Action,
		Created:    time.Now().UnixMilli(),
		Due:        req.Due,
		Status:     status.Waiting,
		Recipients: req.Recipients,
	}

	q := r.sb.
		Insert("reminders").
		Columns("group_id", "action", "created", "due", "status").
		Values(groupID, rem.Action, rem.Created, rem.Due, status.Waiting).
		Suffix("RETURNING id")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build reminder insert: %w", err)
	}

	if err := tx.QueryRow(ctx, sqlStr, args...).Scan(&rem.ID); err != nil {
		return nil, fmt.Errorf("insert reminder: %w", err)
	}

	if err := r.insertRecipientsTx(ctx, tx, rem.ID, req.Recipients); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return rem, nil
}

func (r *ReminderRepository) insertRecipientsTx(ctx context.Context, tx pgx.Tx, reminderID int64, recipients []int64) error {
	if len(recipients) == 0 {
		return nil
	}

	q := r.sb.
		Insert("reminder_recipients").
		Columns("reminder_id", "user_id")
	for _, userID := range recipients {
		q = q.Values(reminderID, userID)
	}
	// один пользователь мог быть указан дважды
	q = q.Suffix("ON CONFLICT DO NOTHING")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build recipients insert: %w", err)
	}

	if _, err := tx.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("insert recipients: %w", err)
	}
	return nil
}

func (r *ReminderRepository) selectWithRecipients() sq.SelectBuilder {
	return r.sb.
		Select(
			"r.id",
			"r.group_id",
			"r.action",
			"r.created",
			"r.due",
			"r.status",
			reminderRecipientsAgg,
		).
		From("reminders r").
		LeftJoin("reminder_recipients rr ON rr.reminder_id = r.id").
		GroupBy("r.id")
}

func scanReminder(row pgx.Row) (*models.Reminder, error) {
	var (
		rem models.Reminder
		st  string
	)
	if err := row.Scan(
		&rem.ID,
		&rem.GroupID,
		&rem.Action,
		&rem.Created,
		&rem.Due,
		&st,
		&rem.Recipients,
	); err != nil {
		return nil, err
	}
	rem.Status = status.Status(st)
	return &rem, nil
}

func (r *ReminderRepository) Get(ctx context.Context, groupID, id int64) (*models.Reminder, error) {
	q := r.selectWithRecipients().
		Where(sq.Eq{"r.group_id": groupID, "r.id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get reminder sql: %w", err)
	}

	rem, err := scanReminder(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return rem, nil
}

// ListByStart — напоминания группы с due > start (страница истории).
func (r *ReminderRepository) ListByStart(ctx context.Context, groupID, start int64, limit int) ([]*models.Reminder, error) {
	q := r.selectWithRecipients().
		Where(sq.Eq{"r.group_id": groupID}).
		Where(sq.Gt{"r.due": start}).
		OrderBy("r.due ASC", "r.id ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return r.list(ctx, q)
}

// ListByStatus — напоминания группы в заданном статусе (по умолчанию waiting).
func (r *ReminderRepository) ListByStatus(ctx context.Context, groupID int64, st status.Status, limit int) ([]*models.Reminder, error) {
	if !st.Valid() {
		return nil, fmt.Errorf("invalid status: %s", st)
	}
	q := r.selectWithRecipients().
		Where(sq.Eq{"r.group_id": groupID, "r.status": st}).
		OrderBy("r.due ASC", "r.id ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return r.list(ctx, q)
}

func (r *ReminderRepository) list(ctx context.Context, q sq.SelectBuilder) ([]*models.Reminder, error) {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list reminders sql: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer rows.Close()

	res := make([]*models.Reminder, 0)
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder row: %w", err)
		}
		res = append(res, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminder rows: %w", err)
	}
	return res, nil
}

// Update меняет action/due/получателей и сбрасывает статус в waiting:
// отредактированное напоминание должно сработать заново.
func (r *ReminderRepository) Update(ctx context.Context, groupID, id int64, req *models.ReminderRequest) error {
	if req == nil {
		return fmt.Errorf("reminder request is nil")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	q := r.sb.
		Update("reminders").
		Set("action", req.Action).
		Set("due", req.Due).
		Set("status", status.Waiting).
		Where(sq.Eq{"group_id": groupID, "id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update reminder sql: %w", err)
	}

	tag, err := tx.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}
	if err := checkOneRow(tag.RowsAffected()); err != nil {
		return err
	}

	delQ := r.sb.
		Delete("reminder_recipients").
		Where(sq.Eq{"reminder_id": id})
	sqlStr, args, err = delQ.ToSql()
	if err != nil {
		return fmt.Errorf("build delete recipients sql: %w", err)
	}
	if _, err := tx.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("delete recipients: %w", err)
	}

	if err := r.insertRecipientsTx(ctx, tx, id, req.Recipients); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *ReminderRepository) Delete(ctx context.Context, groupID, id int64) error {
	q := r.sb.
		Delete("reminders").
		Where(sq.Eq{"group_id": groupID, "id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete reminder sql: %w", err)
	}

	tag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return checkOneRow(tag.RowsAffected())
}

// FindDueReminders — единственный механизм обнаружения наступивших
// напоминаний: due <= now и статус waiting, по всем группам.
func (r *ReminderRepository) FindDueReminders(ctx context.Context, now int64) ([]*models.Reminder, error) {
	q := r.selectWithRecipients().
		Where(sq.LtOrEq{"r.due": now}).
		Where(sq.Eq{"r.status": status.Waiting}).
		OrderBy("r.due ASC", "r.id ASC")
	return r.list(ctx, q)
}

func (r *ReminderRepository) SetReminderStatus(ctx context.Context, id int64, st status.Status) error {
	if !st.Valid() {
		return fmt.Errorf("invalid status: %s", st)
	}

	q := r.sb.
		Update("reminders").
		Set("status", st).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set status sql: %w", err)
	}

	tag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("set reminder status: %w", err)
	}
	return checkOneRow(tag.RowsAffected())
}

// SetReminderStatusIfNotError — условная запись статуса: error липкий,
// позднее подтверждение доставки не должно его перекрыть. Ноль затронутых
// строк здесь не ошибка (guard сработал), больше одной — повреждение данных.
func (r *ReminderRepository) SetReminderStatusIfNotError(ctx context.Context, id int64, st status.Status) error {
	if !st.Valid() {
		return fmt.Errorf("invalid status: %s", st)
	}

	q := r.sb.
		Update("reminders").
		Set("status", st).
		Where(sq.Eq{"id": id}).
		Where(sq.NotEq{"status": status.Error})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set status guarded sql: %w", err)
	}

	tag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("set reminder status guarded: %w", err)
	}
	if tag.RowsAffected() > 1 {
		return ErrCorrupted
	}
	return nil
}
