package floodprobe

import (
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// InMemoryRunStore implements RunStore with in-memory storage. Results
// are immutable once a run completes, so it holds them directly.
type InMemoryRunStore struct {
	mu   sync.RWMutex
	runs map[string]*RunResult
}

func NewInMemoryRunStore() *InMemoryRunStore {
	return &InMemoryRunStore{runs: make(map[string]*RunResult)}
}

func (s *InMemoryRunStore) SaveRun(result *RunResult) error {
	if result == nil || result.ID == "" {
		return errors.New("run result has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[result.ID] = result
	return nil
}

func (s *InMemoryRunStore) GetRun(id string) (*RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, exists := s.runs[id]
	if !exists {
		return nil, errors.Errorf("run %s not found", id)
	}
	return result, nil
}

func (s *InMemoryRunStore) ListRuns() ([]RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summaries := make([]RunSummary, 0, len(s.runs))
	for _, r := range s.runs {
		summaries = append(summaries, summarize(r))
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func summarize(r *RunResult) RunSummary {
	summary := RunSummary{
		ID:        r.ID,
		Target:    r.Target,
		Endpoint:  r.Endpoint,
		State:     r.State,
		Risk:      RiskNone,
		CreatedAt: r.StartedAt,
	}
	if r.Verdict != nil {
		summary.Risk = r.Verdict.Risk
	}
	return summary
}

const runSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	target     TEXT NOT NULL,
	endpoint   TEXT NOT NULL,
	state      TEXT NOT NULL,
	risk       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	result     BLOB NOT NULL
);`

// SQLiteRunStore persists run results to a SQLite database, one row per
// run with the full result as a JSON blob.
type SQLiteRunStore struct {
	db *sqlx.DB
}

func NewSQLiteRunStore(path string) (*SQLiteRunStore, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open run store %s", path)
	}
	if _, err := db.Exec(runSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create runs table")
	}
	return &SQLiteRunStore{db: db}, nil
}

func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteRunStore) SaveRun(result *RunResult) error {
	if result == nil || result.ID == "" {
		return errors.New("run result has no id")
	}
	blob, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "encode run result")
	}
	risk := RiskNone
	if result.Verdict != nil {
		risk = result.Verdict.Risk
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO runs (id, target, endpoint, state, risk, created_at, result)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.Target, result.Endpoint, string(result.State), string(risk), result.StartedAt, blob,
	)
	return errors.Wrapf(err, "save run %s", result.ID)
}

func (s *SQLiteRunStore) GetRun(id string) (*RunResult, error) {
	var blob []byte
	if err := s.db.Get(&blob, `SELECT result FROM runs WHERE id = ?`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Errorf("run %s not found", id)
		}
		return nil, errors.Wrapf(err, "load run %s", id)
	}
	var result RunResult
	if err := json.Unmarshal(blob, &result); err != nil {
		return nil, errors.Wrapf(err, "decode run %s", id)
	}
	return &result, nil
}

func (s *SQLiteRunStore) ListRuns() ([]RunSummary, error) {
	var rows []struct {
		ID        string    `db:"id"`
		Target    string    `db:"target"`
		Endpoint  string    `db:"endpoint"`
		State     string    `db:"state"`
		Risk      string    `db:"risk"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := s.db.Select(&rows, `SELECT id, target, endpoint, state, risk, created_at FROM runs ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	summaries := make([]RunSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, RunSummary{
			ID:        row.ID,
			Target:    row.Target,
			Endpoint:  row.Endpoint,
			State:     RunState(row.State),
			Risk:      RiskLevel(row.Risk),
			CreatedAt: row.CreatedAt,
		})
	}
	return summaries, nil
}
