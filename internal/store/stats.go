package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath        string         `json:"db_path"`
	DBSizeBytes   int64          `json:"db_size_bytes"`
	TotalMessages int            `json:"total_messages"`
	Sessions      []SessionStats `json:"sessions"`
}

// SessionStats holds per-session counts.
type SessionStats struct {
	Session   string `json:"session"`
	Messages  int    `json:"messages"`
	Narration int    `json:"narration_chars"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&st.TotalMessages)

	rows, err := s.db.QueryContext(ctx, `
		SELECT session, COUNT(*) AS cnt,
		       COALESCE(SUM(CASE WHEN role = 'assistant' THEN LENGTH(content) ELSE 0 END), 0)
		FROM messages
		GROUP BY session ORDER BY MIN(created_at) DESC`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var ss SessionStats
		rows.Scan(&ss.Session, &ss.Messages, &ss.Narration)
		st.Sessions = append(st.Sessions, ss)
	}

	return st, nil
}
