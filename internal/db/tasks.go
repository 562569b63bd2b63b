package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/dori/simplr/internal/model"
	"github.com/jmoiron/sqlx"
)

const taskColumns = `id, title, description, is_completed, completed_at, due_date,
	has_reminder, reminder_date, category_id, created_at, updated_at`

type taskRow struct {
	ID           string         `db:"id"`
	Title        string         `db:"title"`
	Description  string         `db:"description"`
	IsCompleted  bool           `db:"is_completed"`
	CompletedAt  sql.NullTime   `db:"completed_at"`
	DueDate      sql.NullTime   `db:"due_date"`
	HasReminder  bool           `db:"has_reminder"`
	ReminderDate sql.NullTime   `db:"reminder_date"`
	CategoryID   sql.NullString `db:"category_id"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// TaskFilter narrows ListTasks results. Nil fields don't filter.
type TaskFilter struct {
	Completed  *bool
	CategoryID *string
	DueBefore  *time.Time
	Limit      uint64
}

// LoadTasks returns all persisted tasks. Any unreadable row fails the
// whole load; partial recovery is not attempted.
func (db *DB) LoadTasks(ctx context.Context) ([]model.Task, error) {
	var rows []taskRow
	err := db.SelectContext(ctx, &rows, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return toTasks(rows), nil
}

// ListTasks returns tasks matching the filter, pending first then newest
func (db *DB) ListTasks(ctx context.Context, f TaskFilter) ([]model.Task, error) {
	q := sq.Select(taskColumns).
		From("tasks").
		OrderBy("is_completed", "CASE WHEN due_date IS NULL THEN 1 ELSE 0 END", "due_date", "created_at DESC")

	if f.Completed != nil {
		q = q.Where(sq.Eq{"is_completed": *f.Completed})
	}
	if f.CategoryID != nil {
		q = q.Where(sq.Eq{"category_id": *f.CategoryID})
	}
	if f.DueBefore != nil {
		q = q.Where(sq.Lt{"due_date": *f.DueBefore})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []taskRow
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return toTasks(rows), nil
}

// GetTask returns a single task by ID, or nil if it doesn't exist
func (db *DB) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var r taskRow
	err := db.GetContext(ctx, &r, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t := r.toTask()
	return &t, nil
}

// UpsertTasks inserts or fully overwrites the given tasks
func (db *DB) UpsertTasks(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	return db.Transaction(ctx, func(tx *sqlx.Tx) error {
		for _, t := range tasks {
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO tasks (`+taskColumns+`)
				VALUES (:id, :title, :description, :is_completed, :completed_at, :due_date,
				        :has_reminder, :reminder_date, :category_id, :created_at, :updated_at)
				ON CONFLICT(id) DO UPDATE SET
					title = excluded.title,
					description = excluded.description,
					is_completed = excluded.is_completed,
					completed_at = excluded.completed_at,
					due_date = excluded.due_date,
					has_reminder = excluded.has_reminder,
					reminder_date = excluded.reminder_date,
					category_id = excluded.category_id,
					updated_at = excluded.updated_at
			`, fromTask(t))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteTasks removes the given tasks
func (db *DB) DeleteTasks(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM tasks WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, db.Rebind(query), args...)
	return err
}

// Helper functions

func toTasks(rows []taskRow) []model.Task {
	tasks := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toTask())
	}
	return tasks
}

func (r taskRow) toTask() model.Task {
	t := model.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		IsCompleted: r.IsCompleted,
		HasReminder: r.HasReminder,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	t.CompletedAt = nullTime(r.CompletedAt)
	t.DueDate = nullTime(r.DueDate)
	t.ReminderDate = nullTime(r.ReminderDate)
	if r.CategoryID.Valid {
		id := r.CategoryID.String
		t.CategoryID = &id
	}
	return t
}

func fromTask(t model.Task) taskRow {
	r := taskRow{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		IsCompleted:  t.IsCompleted,
		CompletedAt:  toNullTime(t.CompletedAt),
		DueDate:      toNullTime(t.DueDate),
		HasReminder:  t.HasReminder,
		ReminderDate: toNullTime(t.ReminderDate),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	if t.CategoryID != nil {
		r.CategoryID = sql.NullString{String: *t.CategoryID, Valid: true}
	}
	return r
}

func nullTime(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
