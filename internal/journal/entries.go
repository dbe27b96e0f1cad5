package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dwizi/commentctl/internal/consoleerr"
	"github.com/dwizi/commentctl/internal/tasks"
)

var ErrEntryNotFound = errors.New("journal entry not found")

type ListInput struct {
	ActiveOnly bool
	Limit      int
}

// RecordStart stores a task the registry accepted.
func (j *Journal) RecordStart(ctx context.Context, registry, taskID string, cfg tasks.TaskConfig) error {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return consoleerr.ErrTaskIDRequired
	}
	now := j.now().UTC()
	_, err := j.db.ExecContext(
		ctx,
		`INSERT INTO task_journal (
			task_id, registry, post_id, delay_mode, delay, token_ref, comment_ref,
			mention_enabled, started_at_unix, stopped_at_unix, stop_message, updated_at_unix
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			registry = excluded.registry,
			post_id = excluded.post_id,
			delay_mode = excluded.delay_mode,
			delay = excluded.delay,
			token_ref = excluded.token_ref,
			comment_ref = excluded.comment_ref,
			mention_enabled = excluded.mention_enabled,
			started_at_unix = excluded.started_at_unix,
			stopped_at_unix = NULL,
			stop_message = NULL,
			updated_at_unix = excluded.updated_at_unix`,
		taskID,
		strings.TrimSpace(registry),
		cfg.PostID,
		string(cfg.Delay.Mode),
		cfg.Delay.Describe(),
		cfg.TokenRef,
		cfg.CommentRef,
		boolToInt(cfg.Mention != nil),
		now.Unix(),
		now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("record task start: %w", err)
	}
	return nil
}

// RecordStop stamps a stop. Tasks started elsewhere get a stop-only row.
func (j *Journal) RecordStop(ctx context.Context, registry, taskID, message string) error {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return consoleerr.ErrTaskIDRequired
	}
	now := j.now().UTC()
	_, err := j.db.ExecContext(
		ctx,
		`INSERT INTO task_journal (task_id, registry, stopped_at_unix, stop_message, updated_at_unix)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(task_id) DO UPDATE SET
			stopped_at_unix = excluded.stopped_at_unix,
			stop_message = excluded.stop_message,
			updated_at_unix = excluded.updated_at_unix`,
		taskID,
		strings.TrimSpace(registry),
		now.Unix(),
		nullIfEmpty(strings.TrimSpace(message)),
		now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("record task stop: %w", err)
	}
	return nil
}

func (j *Journal) Lookup(ctx context.Context, taskID string) (Entry, error) {
	row := j.db.QueryRowContext(ctx, selectEntry+` WHERE task_id = ?`, strings.TrimSpace(taskID))
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("lookup journal entry: %w", err)
	}
	return entry, nil
}

func (j *Journal) List(ctx context.Context, input ListInput) ([]Entry, error) {
	limit := input.Limit
	if limit < 1 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	query := selectEntry
	if input.ActiveOnly {
		query += ` WHERE started_at_unix IS NOT NULL AND stopped_at_unix IS NULL`
	}
	query += ` ORDER BY updated_at_unix DESC, task_id ASC LIMIT ?`

	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

const selectEntry = `SELECT task_id, registry, post_id, delay_mode, delay, token_ref, comment_ref,
		mention_enabled, COALESCE(started_at_unix, 0), COALESCE(stopped_at_unix, 0),
		COALESCE(stop_message, ''), updated_at_unix
	FROM task_journal`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var entry Entry
	var delayMode string
	var mention int
	var startedUnix, stoppedUnix, updatedUnix int64
	if err := row.Scan(
		&entry.TaskID,
		&entry.Registry,
		&entry.PostID,
		&delayMode,
		&entry.Delay,
		&entry.TokenRef,
		&entry.CommentRef,
		&mention,
		&startedUnix,
		&stoppedUnix,
		&entry.StopMessage,
		&updatedUnix,
	); err != nil {
		return Entry{}, err
	}
	entry.DelayMode = tasks.DelayMode(delayMode)
	entry.MentionEnabled = mention != 0
	entry.StartedAt = timeFromUnix(startedUnix)
	entry.StoppedAt = timeFromUnix(stoppedUnix)
	entry.UpdatedAt = timeFromUnix(updatedUnix)
	return entry, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
