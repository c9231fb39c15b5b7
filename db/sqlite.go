package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"studentperf/inference"
	"studentperf/student"
)

// PredictionLog is an append-only audit table of served predictions.
type PredictionLog struct {
	database *sql.DB
	insert   *sql.Stmt
	now      func() time.Time
}

// PredictionRecord is one audited prediction.
type PredictionRecord struct {
	ID        int64
	Features  map[string]int64
	Result    inference.Result
	CreatedAt time.Time
}

func columns() []string {
	cols := make([]string, 0, student.NumFeatures)
	for _, f := range student.Fields {
		cols = append(cols, strings.ToLower(f.Name))
	}
	return cols
}

func schema() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS predictions (\n")
	b.WriteString("    id INTEGER PRIMARY KEY AUTOINCREMENT,\n")
	for _, c := range columns() {
		fmt.Fprintf(&b, "    %s INTEGER NOT NULL,\n", c)
	}
	b.WriteString(`    prediction VARCHAR(8) NOT NULL,
    prediction_label INTEGER NOT NULL,
    confidence REAL NOT NULL,
    probability_pass REAL NOT NULL,
    probability_fail REAL NOT NULL,
    created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);`)
	return b.String()
}

// Open creates the database file and schema if needed.
func Open(path string) (*PredictionLog, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	database, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if _, err := database.Exec(schema()); err != nil {
		database.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	cols := append(columns(), "prediction", "prediction_label", "confidence",
		"probability_pass", "probability_fail", "created_at")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	insert, err := database.Prepare(fmt.Sprintf(
		"INSERT INTO predictions (%s) VALUES (%s)", strings.Join(cols, ", "), placeholders))
	if err != nil {
		database.Close()
		return nil, err
	}
	return &PredictionLog{database: database, insert: insert, now: time.Now}, nil
}

// Record implements inference.Recorder.
func (l *PredictionLog) Record(features student.Features, result inference.Result) error {
	values := features.Values()
	args := make([]any, 0, len(values)+6)
	for _, v := range values {
		args = append(args, v)
	}
	args = append(args, result.Prediction, result.Label, result.Confidence,
		result.ProbabilityPass, result.ProbabilityFail, l.now().UTC())
	_, err := l.insert.Exec(args...)
	return err
}

// Recent returns up to limit records, newest first.
func (l *PredictionLog) Recent(limit int) ([]PredictionRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	cols := columns()
	rows, err := l.database.Query(fmt.Sprintf(`
        SELECT id, %s, prediction, prediction_label, confidence,
               probability_pass, probability_fail, created_at
        FROM predictions
        ORDER BY id DESC
        LIMIT ?`, strings.Join(cols, ", ")), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PredictionRecord
	for rows.Next() {
		var (
			r      PredictionRecord
			values [student.NumFeatures]int64
		)
		dest := []any{&r.ID}
		for i := range values {
			dest = append(dest, &values[i])
		}
		dest = append(dest, &r.Result.Prediction, &r.Result.Label, &r.Result.Confidence,
			&r.Result.ProbabilityPass, &r.Result.ProbabilityFail, &r.CreatedAt)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		r.Features = make(map[string]int64, student.NumFeatures)
		for i, f := range student.Fields {
			r.Features[f.Name] = values[i]
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns the number of audited predictions.
func (l *PredictionLog) Count() (int, error) {
	var n int
	err := l.database.QueryRow("SELECT COUNT(*) FROM predictions").Scan(&n)
	return n, err
}

func (l *PredictionLog) Close() error {
	l.insert.Close()
	return l.database.Close()
}
