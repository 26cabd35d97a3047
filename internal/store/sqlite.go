package store

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/storyteller/internal/model"
)

// MemoryDSN keeps the transcript in memory for the life of the process.
const MemoryDSN = ":memory:"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
// MemoryDSN (or an empty path) opens a private in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	inMemory := dbPath == "" || dbPath == MemoryDSN

	dsn := MemoryDSN + "?_pragma=foreign_keys(on)"
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = dbPath + "?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if inMemory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id         TEXT PRIMARY KEY,
		session    TEXT NOT NULL,
		seq        INTEGER NOT NULL,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE (session, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session_seq ON messages(session, seq);
	CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Append(ctx context.Context, p AppendParams) (*model.Message, error) {
	if p.Session == "" {
		return nil, fmt.Errorf("%w: session is required", model.ErrInvalidInput)
	}
	if !model.ValidRoles[p.Role] {
		return nil, fmt.Errorf("%w: role %q", model.ErrInvalidInput, p.Role)
	}

	now := time.Now().UTC()
	id := s.newID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var seq int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), -1) + 1 FROM messages WHERE session = ?`, p.Session).Scan(&seq)
	if err != nil {
		return nil, fmt.Errorf("next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, session, seq, role, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, p.Session, seq, p.Role, p.Content, now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &model.Message{
		ID:        id,
		Session:   p.Session,
		Seq:       seq,
		Role:      p.Role,
		Content:   p.Content,
		CreatedAt: now,
	}, nil
}

func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]model.Message, error) {
	query := `SELECT id, session, seq, role, content, created_at FROM messages
	          WHERE session = ? ORDER BY seq`
	args := []interface{}{p.Session}
	if p.Limit > 0 {
		// Last N, still returned oldest first.
		query = `SELECT * FROM (
		           SELECT id, session, seq, role, content, created_at FROM messages
		           WHERE session = ? ORDER BY seq DESC LIMIT ?
		         ) ORDER BY seq`
		args = append(args, p.Limit)
	}
	return s.query(ctx, query, args...)
}

func (s *SQLiteStore) TruncateAfter(ctx context.Context, session string, seq int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session = ? AND seq > ?`, session, seq)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ExportAll returns every message, optionally filtered by session.
func (s *SQLiteStore) ExportAll(ctx context.Context, session string) ([]model.Message, error) {
	where := []string{"1 = 1"}
	args := []interface{}{}
	if session != "" {
		where = append(where, "session = ?")
		args = append(args, session)
	}
	query := `SELECT id, session, seq, role, content, created_at FROM messages
	          WHERE ` + strings.Join(where, " AND ") + ` ORDER BY session, seq`
	return s.query(ctx, query, args...)
}

// Import inserts messages as-is, skipping IDs or (session, seq) pairs that
// already exist. It returns the number inserted.
func (s *SQLiteStore) Import(ctx context.Context, messages []model.Message) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	imported := 0
	for _, m := range messages {
		if m.Session == "" || !model.ValidRoles[m.Role] {
			return 0, fmt.Errorf("%w: message %q", model.ErrInvalidInput, m.ID)
		}
		if m.ID == "" {
			m.ID = s.newID()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now().UTC()
		}
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO messages (id, session, seq, role, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, m.Session, m.Seq, m.Role, m.Content, m.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return 0, fmt.Errorf("import %s: %w", m.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			imported++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return imported, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...interface{}) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row scanner) (model.Message, error) {
	var m model.Message
	var createdAt string

	if err := row.Scan(&m.ID, &m.Session, &m.Seq, &m.Role, &m.Content, &createdAt); err != nil {
		return m, err
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return m, nil
}
