package storage

// sqlite.go: diario de ejecuciones.
//
// Estrategia:
//   - `runs`: una fila por ejecución, abierta en StartRun y cerrada en FinishRun.
//   - `writes`: una fila por escritura remota (perfil, lote de market data,
//     orden, comisión...). Solo auditoría: el sync nunca lee de aquí.
//   - Prune automático al arrancar: ejecuciones de más de 180 días.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const schema = `
-- Una fila por ejecución del sync
CREATE TABLE IF NOT EXISTS runs (
    run_id      TEXT PRIMARY KEY,
    started_at  TEXT NOT NULL,
    finished_at TEXT,
    status      TEXT NOT NULL,
    error       TEXT NOT NULL DEFAULT ''
);

-- Escrituras remotas de cada ejecución
CREATE TABLE IF NOT EXISTS writes (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id   TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    kind     TEXT NOT NULL,
    key      TEXT NOT NULL,
    detail   TEXT NOT NULL DEFAULT '',
    amount   TEXT NOT NULL DEFAULT '0',
    currency TEXT NOT NULL DEFAULT '',
    at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_writes_run   ON writes(run_id);
`

const (
	retentionRuns = 180 * 24 * time.Hour

	// ancho fijo: ORDER BY sobre TEXT debe ser cronológico
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// SQLiteJournal implementa ports.Journal usando SQLite (pure Go, sin CGo).
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia ejecuciones antiguas.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteJournal: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteJournal: apply schema: %w", err)
	}

	j := &SQLiteJournal{db: db}
	j.pruneOld(context.Background())
	return j, nil
}

// StartRun registra una ejecución en curso.
func (j *SQLiteJournal) StartRun(ctx context.Context, s domain.RunSummary) error {
	if _, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, status) VALUES (?, ?, ?)`,
		s.RunID, s.StartedAt.UTC().Format(timeLayout), string(s.Status),
	); err != nil {
		return fmt.Errorf("storage.StartRun %s: %w", s.RunID, err)
	}
	return nil
}

// RecordWrite añade una escritura a la ejecución.
func (j *SQLiteJournal) RecordWrite(ctx context.Context, runID string, w domain.Write) error {
	at := w.At
	if at.IsZero() {
		at = time.Now()
	}
	if _, err := j.db.ExecContext(ctx,
		`INSERT INTO writes (run_id, kind, key, detail, amount, currency, at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, string(w.Kind), w.Key, w.Detail, w.Amount.String(), w.Currency, at.UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("storage.RecordWrite %s: %w", runID, err)
	}
	return nil
}

// FinishRun cierra la ejecución. Si StartRun no llegó a registrarla, la crea.
func (j *SQLiteJournal) FinishRun(ctx context.Context, s domain.RunSummary) error {
	finished := s.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	if _, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, started_at, finished_at, status, error)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			finished_at = excluded.finished_at,
			status      = excluded.status,
			error       = excluded.error
	`,
		s.RunID,
		s.StartedAt.UTC().Format(timeLayout),
		finished.UTC().Format(timeLayout),
		string(s.Status),
		s.Error,
	); err != nil {
		return fmt.Errorf("storage.FinishRun %s: %w", s.RunID, err)
	}
	return nil
}

// Runs devuelve las últimas ejecuciones, más recientes primero, con el
// número de escrituras de cada una.
func (j *SQLiteJournal) Runs(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT r.run_id, r.started_at, r.finished_at, r.status, r.error,
		       (SELECT COUNT(*) FROM writes w WHERE w.run_id = r.run_id)
		FROM runs r
		ORDER BY r.started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.Runs: query: %w", err)
	}
	defer rows.Close()

	var out []domain.RunRecord
	for rows.Next() {
		var rec domain.RunRecord
		var started, status string
		var finished sql.NullString

		if err := rows.Scan(&rec.RunID, &started, &finished, &status, &rec.Error, &rec.Writes); err != nil {
			return nil, fmt.Errorf("storage.Runs: scan row: %w", err)
		}
		rec.Status = domain.RunStatus(status)
		if rec.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("storage.Runs: run %s started_at: %w", rec.RunID, err)
		}
		if finished.Valid {
			t, err := time.Parse(timeLayout, finished.String)
			if err != nil {
				return nil, fmt.Errorf("storage.Runs: run %s finished_at: %w", rec.RunID, err)
			}
			rec.FinishedAt = &t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RunWrites devuelve las escrituras de una ejecución en orden de registro.
func (j *SQLiteJournal) RunWrites(ctx context.Context, runID string) ([]domain.Write, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT kind, key, detail, amount, currency, at FROM writes WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.RunWrites: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Write
	for rows.Next() {
		var w domain.Write
		var kind, amount, at string
		if err := rows.Scan(&kind, &w.Key, &w.Detail, &amount, &w.Currency, &at); err != nil {
			return nil, fmt.Errorf("storage.RunWrites: scan row: %w", err)
		}
		w.Kind = domain.WriteKind(kind)
		if w.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("storage.RunWrites: amount %q: %w", amount, err)
		}
		if w.At, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("storage.RunWrites: at %q: %w", at, err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// pruneOld elimina ejecuciones antiguas y sus escrituras.
func (j *SQLiteJournal) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionRuns).Format(timeLayout)
	j.db.ExecContext(ctx, `DELETE FROM writes WHERE run_id IN (SELECT run_id FROM runs WHERE started_at < ?)`, cutoff)
	j.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff)
}
