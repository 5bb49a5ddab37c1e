// Package store keeps privacy-conscious visitor metrics in SQLite. Raw IP
// addresses are never written; only a salted, truncated hash.
package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout keeps timestamps sortable as text.
const timeLayout = "2006-01-02 15:04:05"

type Visitor struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// SectionStat counts how many page views reached a section.
type SectionStat struct {
	Section string `json:"section"`
	Views   int64  `json:"views"`
}

type Stats struct {
	TotalVisitors    int64         `json:"total_visitors"`
	UniqueVisitors   int64         `json:"unique_visitors"`
	VisitorsToday    int64         `json:"visitors_today"`
	VisitorsThisWeek int64         `json:"visitors_this_week"`
	LiveSessions     int64         `json:"live_sessions"`
	TopSections      []SectionStat `json:"top_sections"`
	RecentVisitors   []Visitor     `json:"recent_visitors"`
}

// DB wraps a sql.DB with the visitor schema.
type DB struct {
	*sql.DB
	salt string
	now  func() time.Time
}

// Open creates or opens a SQLite database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return newDB(sqlDB)
}

// OpenMemory creates an in-memory database for tests.
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	return newDB(sqlDB)
}

func newDB(sqlDB *sql.DB) (*DB, error) {
	salt, err := randomHex(32)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	d := &DB{DB: sqlDB, salt: salt, now: time.Now}
	if _, err := d.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return d, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS visitors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	hashed_ip TEXT NOT NULL,
	user_agent TEXT NOT NULL DEFAULT '',
	path TEXT NOT NULL DEFAULT '',
	timestamp TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_visitors_timestamp ON visitors(timestamp);

CREATE TABLE IF NOT EXISTS section_views (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	section TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	UNIQUE(session_id, section)
);
`

// SetClock replaces the time source. Tests use it to age records.
func (d *DB) SetClock(now func() time.Time) {
	d.now = now
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// RandomToken returns a 64 character hex token.
func RandomToken() (string, error) {
	return randomHex(32)
}

// HashIP is consistent per IP for the lifetime of the process.
func (d *DB) HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + d.salt))
	return hex.EncodeToString(sum[:])[:16]
}

func (d *DB) stamp() string {
	return d.now().UTC().Format(timeLayout)
}

// RecordVisit stores a page view with the IP hashed.
func (d *DB) RecordVisit(ctx context.Context, ip, userAgent, path string) error {
	_, err := d.ExecContext(ctx,
		`INSERT INTO visitors (hashed_ip, user_agent, path, timestamp) VALUES (?, ?, ?, ?)`,
		d.HashIP(ip), userAgent, path, d.stamp())
	if err != nil {
		return fmt.Errorf("recording visitor: %w", err)
	}
	return nil
}

// RecordSectionView notes that a live session scrolled to section. Each
// section counts once per session.
func (d *DB) RecordSectionView(ctx context.Context, sessionID, section string) error {
	_, err := d.ExecContext(ctx,
		`INSERT OR IGNORE INTO section_views (session_id, section, timestamp) VALUES (?, ?, ?)`,
		sessionID, section, d.stamp())
	if err != nil {
		return fmt.Errorf("recording section view: %w", err)
	}
	return nil
}

// Visitors returns the most recent visits, newest first.
func (d *DB) Visitors(ctx context.Context, limit int) ([]Visitor, error) {
	rows, err := d.QueryContext(ctx, `
		SELECT id, hashed_ip, user_agent, path, timestamp
		FROM visitors
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying visitors: %w", err)
	}
	defer rows.Close()

	var out []Visitor
	for rows.Next() {
		var v Visitor
		var ts string
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &ts); err != nil {
			return nil, fmt.Errorf("scanning visitor: %w", err)
		}
		v.Timestamp, _ = time.Parse(timeLayout, ts)
		out = append(out, v)
	}
	return out, rows.Err()
}

// Stats gathers the dashboard numbers.
func (d *DB) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	now := d.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Format(timeLayout)
	week := now.Add(-7 * 24 * time.Hour).Format(timeLayout)

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{today}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{week}},
		{&stats.LiveSessions, `SELECT COUNT(DISTINCT session_id) FROM section_views`, nil},
	}
	for _, c := range counts {
		if err := d.QueryRowContext(ctx, c.query, c.args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("counting: %w", err)
		}
	}

	var err error
	stats.TopSections, err = d.topSections(ctx)
	if err != nil {
		return nil, err
	}
	stats.RecentVisitors, err = d.Visitors(ctx, 50)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (d *DB) topSections(ctx context.Context) ([]SectionStat, error) {
	rows, err := d.QueryContext(ctx, `
		SELECT section, COUNT(*) AS views
		FROM section_views
		GROUP BY section
		ORDER BY views DESC, section ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying sections: %w", err)
	}
	defer rows.Close()

	var out []SectionStat
	for rows.Next() {
		var s SectionStat
		if err := rows.Scan(&s.Section, &s.Views); err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Cleanup deletes visitor and section records older than maxAge.
func (d *DB) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := d.now().UTC().Add(-maxAge).Format(timeLayout)
	var total int64
	for _, table := range []string{"visitors", "section_views"} {
		res, err := d.ExecContext(ctx, `DELETE FROM `+table+` WHERE timestamp < ?`, cutoff)
		if err != nil {
			return total, fmt.Errorf("cleaning %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}
