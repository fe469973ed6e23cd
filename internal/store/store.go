// Package store keeps a SQLite history of mining runs inside a project.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/KaramelBytes/basketloom-cli/internal/mining"
	"github.com/KaramelBytes/basketloom-cli/internal/pipeline"
)

var (
	// ErrRunNotFound is returned when no run matches an id or id prefix.
	ErrRunNotFound = errors.New("run not found")
	// ErrAmbiguousRun is returned when an id prefix matches several runs.
	ErrAmbiguousRun = errors.New("run id prefix is ambiguous")
)

// Store is a run history backed by one SQLite file.
type Store struct {
	db *sql.DB
}

// RunInfo is the summary row of a stored run.
type RunInfo struct {
	ID           string
	Dataset      string
	Params       pipeline.Params
	Transactions int
	Items        int
	ItemsetCount int
	RuleCount    int
	Duration     time.Duration
	CreatedAt    time.Time
}

// Run is a stored run with its itemsets and rules in result order.
type Run struct {
	RunInfo
	Itemsets []mining.Itemset
	Rules    []mining.Rule
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// SaveRun records res and returns the new run id.
func (s *Store) SaveRun(ctx context.Context, res *pipeline.Result) (string, error) {
	params, err := json.Marshal(res.Params)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	id := uuid.NewString()
	created := res.Started
	if created.IsZero() {
		created = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, dataset, params, transactions, items, itemsets, rules, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, res.Dataset, string(params), res.Matrix.Rows(), res.Matrix.Cols(),
		res.Frequent.Len(), len(res.Rules), res.Duration.Milliseconds(),
		created.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO itemsets (run_id, position, items, size, support, count) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare itemsets: %w", err)
	}
	defer stmt.Close()
	for i, set := range res.Frequent.Itemsets {
		items, err := json.Marshal(set.Items)
		if err != nil {
			return "", fmt.Errorf("marshal itemset: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, id, i, string(items), set.Len(), set.Support, set.Count); err != nil {
			return "", fmt.Errorf("insert itemset: %w", err)
		}
	}

	rstmt, err := tx.PrepareContext(ctx,
		`INSERT INTO rules (run_id, position, antecedent, consequent, antecedent_support, consequent_support,
		 support, confidence, lift, leverage, conviction) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare rules: %w", err)
	}
	defer rstmt.Close()
	for i, r := range res.Rules {
		ante, err := json.Marshal(r.Antecedent)
		if err != nil {
			return "", fmt.Errorf("marshal rule: %w", err)
		}
		cons, err := json.Marshal(r.Consequent)
		if err != nil {
			return "", fmt.Errorf("marshal rule: %w", err)
		}
		// NULL stands for infinite conviction.
		var conviction sql.NullFloat64
		if !math.IsInf(r.Conviction, 0) {
			conviction = sql.NullFloat64{Float64: r.Conviction, Valid: true}
		}
		if _, err := rstmt.ExecContext(ctx, id, i, string(ante), string(cons),
			r.AntecedentSupport, r.ConsequentSupport, r.Support, r.Confidence, r.Lift, r.Leverage, conviction,
		); err != nil {
			return "", fmt.Errorf("insert rule: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return id, nil
}

const runColumns = `id, dataset, params, transactions, items, itemsets, rules, duration_ms, created_at`

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	var out []RunInfo
	for rows.Next() {
		info, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// LoadRun returns the run whose id equals or starts with id.
func (s *Store) LoadRun(ctx context.Context, id string) (*Run, error) {
	if id == "" {
		return nil, ErrRunNotFound
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? || '%' LIMIT 2`, id, id)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	var found []RunInfo
	for rows.Next() {
		info, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		found = append(found, info)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 2:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRun, id)
	}

	run := &Run{RunInfo: found[0]}
	if run.Itemsets, err = s.loadItemsets(ctx, run.ID); err != nil {
		return nil, err
	}
	if run.Rules, err = s.loadRules(ctx, run.ID); err != nil {
		return nil, err
	}
	return run, nil
}

// DeleteRun removes a run and its results.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

func (s *Store) loadItemsets(ctx context.Context, id string) ([]mining.Itemset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT items, support, count FROM itemsets WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query itemsets: %w", err)
	}
	defer rows.Close()
	var out []mining.Itemset
	for rows.Next() {
		var (
			raw string
			set mining.Itemset
		)
		if err := rows.Scan(&raw, &set.Support, &set.Count); err != nil {
			return nil, fmt.Errorf("scan itemset: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &set.Items); err != nil {
			return nil, fmt.Errorf("decode itemset: %w", err)
		}
		out = append(out, set)
	}
	return out, rows.Err()
}

func (s *Store) loadRules(ctx context.Context, id string) ([]mining.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT antecedent, consequent, antecedent_support, consequent_support,
		support, confidence, lift, leverage, conviction FROM rules WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()
	var out []mining.Rule
	for rows.Next() {
		var (
			ante, cons string
			conviction sql.NullFloat64
			r          mining.Rule
		)
		if err := rows.Scan(&ante, &cons, &r.AntecedentSupport, &r.ConsequentSupport,
			&r.Support, &r.Confidence, &r.Lift, &r.Leverage, &conviction); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		if err := json.Unmarshal([]byte(ante), &r.Antecedent); err != nil {
			return nil, fmt.Errorf("decode rule: %w", err)
		}
		if err := json.Unmarshal([]byte(cons), &r.Consequent); err != nil {
			return nil, fmt.Errorf("decode rule: %w", err)
		}
		r.Conviction = math.Inf(1)
		if conviction.Valid {
			r.Conviction = conviction.Float64
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunInfo, error) {
	var (
		info     RunInfo
		params   string
		duration int64
		created  string
	)
	if err := row.Scan(&info.ID, &info.Dataset, &params, &info.Transactions, &info.Items,
		&info.ItemsetCount, &info.RuleCount, &duration, &created); err != nil {
		return info, fmt.Errorf("scan run: %w", err)
	}
	if err := json.Unmarshal([]byte(params), &info.Params); err != nil {
		return info, fmt.Errorf("decode params: %w", err)
	}
	info.Duration = time.Duration(duration) * time.Millisecond
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return info, fmt.Errorf("parse created_at: %w", err)
	}
	info.CreatedAt = t
	return info, nil
}
