package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"visaHedgeBot/internal/finance"
)

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Close() error
}

type Store struct {
	db  DB
	now func() time.Time
}

// OpenSQLite opens (creating its directory if needed) a sqlite database in
// WAL mode.
func OpenSQLite(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?_fk=1")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}
	return db, nil
}

func InitSchema(ctx context.Context, db DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS hedge_requests(
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		visa_type TEXT NOT NULL,
		exp_date TEXT NOT NULL,
		apps TEXT NOT NULL,
		costs TEXT NOT NULL,
		cash TEXT NOT NULL,
		monthly TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create hedge_requests: %w", err)
	}
	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_hedge_requests_created ON hedge_requests(created_at)`)
	return err
}

func NewStore(db DB) *Store { return &Store{db: db, now: time.Now} }

// SavedRequest is one persisted submission.
type SavedRequest struct {
	ID        string
	CreatedAt time.Time
	Input     finance.InputRecord
}

// SaveRequest writes one row per submission. Amounts are stored as decimal
// strings so they round-trip exactly.
func (s *Store) SaveRequest(ctx context.Context, in finance.InputRecord) error {
	apps, err := json.Marshal(in.PendingApplications)
	if err != nil {
		return fmt.Errorf("encode applications: %w", err)
	}
	if in.PendingApplications == nil {
		apps = []byte("[]")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO hedge_requests(id,created_at,visa_type,exp_date,apps,costs,cash,monthly) VALUES(?,?,?,?,?,?,?,?)`,
		uuid.NewString(),
		s.now().Unix(),
		in.CurrentVisa,
		in.Expiration.Format("2006-01-02"),
		string(apps),
		decimal.NewFromFloat(in.ExpectedCosts).String(),
		decimal.NewFromFloat(in.InvestableCash).String(),
		decimal.NewFromFloat(in.MonthlyContribution).String(),
	)
	if err != nil {
		return fmt.Errorf("insert hedge request: %w", err)
	}
	return nil
}

// RecentRequests returns up to limit submissions, newest first.
func (s *Store) RecentRequests(ctx context.Context, limit int) ([]SavedRequest, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,created_at,visa_type,exp_date,apps,costs,cash,monthly FROM hedge_requests ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SavedRequest
	for rows.Next() {
		var (
			r                    SavedRequest
			ts                   int64
			exp, apps            string
			costs, cash, monthly string
		)
		if err := rows.Scan(&r.ID, &ts, &r.Input.CurrentVisa, &exp, &apps, &costs, &cash, &monthly); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(ts, 0)
		if t, err := time.Parse("2006-01-02", exp); err == nil {
			r.Input.Expiration = t
		}
		_ = json.Unmarshal([]byte(apps), &r.Input.PendingApplications)
		r.Input.ExpectedCosts = decimalFloat(costs)
		r.Input.InvestableCash = decimalFloat(cash)
		r.Input.MonthlyContribution = decimalFloat(monthly)
		out = append(out, r)
	}
	return out, rows.Err()
}

// VisaMix counts submissions per visa type since the given time.
func (s *Store) VisaMix(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT UPPER(visa_type), COUNT(*) FROM hedge_requests WHERE created_at>=? GROUP BY UPPER(visa_type)`,
		since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var visa string
		var n int
		if err := rows.Scan(&visa, &n); err != nil {
			return nil, err
		}
		out[visa] = n
	}
	return out, rows.Err()
}

// DayCount is the number of submissions on one UTC day.
type DayCount struct {
	Day   time.Time
	Count int
}

// DailyCounts returns per-day submission counts since the given time, oldest first.
func (s *Store) DailyCounts(ctx context.Context, since time.Time) ([]DayCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT created_at/86400 AS day, COUNT(*) FROM hedge_requests WHERE created_at>=? GROUP BY day ORDER BY day ASC`,
		since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DayCount
	for rows.Next() {
		var day int64
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		out = append(out, DayCount{Day: time.Unix(day*86400, 0).UTC(), Count: n})
	}
	return out, rows.Err()
}

func decimalFloat(s string) float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}
