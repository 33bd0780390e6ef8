// Package audit persists conversion pass history to a SQLite database.
//
// Recording is best-effort: callers log store failures and continue, so a
// broken audit database never blocks a conversion.
package audit

import (
	"context"
	"database/sql"
	"time"

	"github.com/FocuswithJustin/Redline/core/edits"
	"github.com/FocuswithJustin/Redline/core/errors"
	"github.com/FocuswithJustin/Redline/core/redline"
	"github.com/FocuswithJustin/Redline/core/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS passes (
    pass_id TEXT PRIMARY KEY,
    author TEXT NOT NULL,
    date TEXT NOT NULL,
    input_path TEXT NOT NULL,
    output_path TEXT NOT NULL,
    main_part TEXT NOT NULL,
    input_digest TEXT NOT NULL,
    output_digest TEXT NOT NULL,
    applied INTEGER NOT NULL,
    skipped INTEGER NOT NULL,
    settings_patched INTEGER NOT NULL,
    recorded_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS outcomes (
    pass_id TEXT NOT NULL REFERENCES passes(pass_id),
    op_index INTEGER NOT NULL,
    anchor TEXT NOT NULL,
    kind TEXT NOT NULL,
    applied INTEGER NOT NULL,
    reason TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (pass_id, op_index)
);
CREATE INDEX IF NOT EXISTS idx_passes_recorded ON passes(recorded_at);
`

// Store is an open audit database.
type Store struct {
	db *sql.DB
}

// PassRecord is one recorded pass with its container context.
type PassRecord struct {
	PassID          string
	Author          string
	Date            string
	InputPath       string
	OutputPath      string
	MainPart        string
	InputDigest     string
	OutputDigest    string
	Applied         int
	Skipped         int
	SettingsPatched bool
	RecordedAt      string
}

// Open opens or creates the audit database at path.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open audit store", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIO("init audit schema", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordPass stores one pass and all its operation outcomes in a single
// transaction.
func (s *Store) RecordPass(ctx context.Context, result *redline.Result, inputPath, outputPath, mainPart, inputDigest, outputDigest string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewIO("begin audit transaction", "", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO passes (pass_id, author, date, input_path, output_path, main_part,
    input_digest, output_digest, applied, skipped, settings_patched, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.PassID, result.Author, result.Date, inputPath, outputPath, mainPart,
		inputDigest, outputDigest, result.Applied, result.Skipped,
		boolInt(result.SettingsPatched), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return errors.NewIO("record pass", result.PassID, err)
	}

	for _, o := range result.Outcomes {
		_, err = tx.ExecContext(ctx, `
INSERT INTO outcomes (pass_id, op_index, anchor, kind, applied, reason, detail)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			result.PassID, o.Index, o.Anchor, string(o.Kind),
			boolInt(o.Applied), string(o.Reason), o.Detail)
		if err != nil {
			return errors.NewIO("record outcome", result.PassID, err)
		}
	}
	return tx.Commit()
}

// Pass returns one recorded pass by id.
func (s *Store) Pass(ctx context.Context, passID string) (*PassRecord, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT pass_id, author, date, input_path, output_path, main_part,
    input_digest, output_digest, applied, skipped, settings_patched, recorded_at
FROM passes WHERE pass_id = ?`, passID)

	var rec PassRecord
	var patched int
	err := row.Scan(&rec.PassID, &rec.Author, &rec.Date, &rec.InputPath,
		&rec.OutputPath, &rec.MainPart, &rec.InputDigest, &rec.OutputDigest,
		&rec.Applied, &rec.Skipped, &patched, &rec.RecordedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("pass", passID)
	}
	if err != nil {
		return nil, errors.NewIO("query pass", passID, err)
	}
	rec.SettingsPatched = patched != 0
	return &rec, nil
}

// Outcomes returns a recorded pass's operation outcomes in order.
func (s *Store) Outcomes(ctx context.Context, passID string) ([]redline.Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT op_index, anchor, kind, applied, reason, detail
FROM outcomes WHERE pass_id = ? ORDER BY op_index`, passID)
	if err != nil {
		return nil, errors.NewIO("query outcomes", passID, err)
	}
	defer rows.Close()

	var outcomes []redline.Outcome
	for rows.Next() {
		var o redline.Outcome
		var kind, reason string
		var applied int
		if err := rows.Scan(&o.Index, &o.Anchor, &kind, &applied, &reason, &o.Detail); err != nil {
			return nil, errors.NewIO("scan outcome", passID, err)
		}
		o.Kind = edits.Kind(kind)
		o.Applied = applied != 0
		o.Reason = redline.Reason(reason)
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// RecentPasses returns up to limit passes, newest first.
func (s *Store) RecentPasses(ctx context.Context, limit int) ([]PassRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT pass_id, author, date, input_path, output_path, main_part,
    input_digest, output_digest, applied, skipped, settings_patched, recorded_at
FROM passes ORDER BY recorded_at DESC, pass_id LIMIT ?`, limit)
	if err != nil {
		return nil, errors.NewIO("query passes", "", err)
	}
	defer rows.Close()

	var recs []PassRecord
	for rows.Next() {
		var rec PassRecord
		var patched int
		if err := rows.Scan(&rec.PassID, &rec.Author, &rec.Date, &rec.InputPath,
			&rec.OutputPath, &rec.MainPart, &rec.InputDigest, &rec.OutputDigest,
			&rec.Applied, &rec.Skipped, &patched, &rec.RecordedAt); err != nil {
			return nil, errors.NewIO("scan pass", "", err)
		}
		rec.SettingsPatched = patched != 0
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
