package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dwizi/commentctl/internal/tasks"
)

// Journal is a local record of tasks started or stopped from this machine.
// It holds no form configuration beyond what was submitted.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

type Entry struct {
	TaskID         string
	Registry       string
	PostID         string
	DelayMode      tasks.DelayMode
	Delay          string
	TokenRef       string
	CommentRef     string
	MentionEnabled bool
	StartedAt      time.Time
	StoppedAt      time.Time
	StopMessage    string
	UpdatedAt      time.Time
}

func (e Entry) Active() bool {
	return !e.StartedAt.IsZero() && e.StoppedAt.IsZero()
}

func Open(path string) (*Journal, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite pragmas: %w", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

func (j *Journal) AutoMigrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS task_journal (
			task_id TEXT PRIMARY KEY,
			registry TEXT NOT NULL DEFAULT '',
			post_id TEXT NOT NULL DEFAULT '',
			delay_mode TEXT NOT NULL DEFAULT '',
			delay TEXT NOT NULL DEFAULT '',
			token_ref TEXT NOT NULL DEFAULT '',
			comment_ref TEXT NOT NULL DEFAULT '',
			mention_enabled INTEGER NOT NULL DEFAULT 0,
			started_at_unix INTEGER,
			stopped_at_unix INTEGER,
			stop_message TEXT,
			updated_at_unix INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_task_journal_updated ON task_journal(updated_at_unix DESC);`,
	}
	for _, query := range queries {
		if _, err := j.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("run migration: %w", err)
		}
	}
	return nil
}

func (j *Journal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func timeFromUnix(value int64) time.Time {
	if value <= 0 {
		return time.Time{}
	}
	return time.Unix(value, 0).UTC()
}
