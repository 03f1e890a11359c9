package storage

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"stationcsv/internal/etl"
)

// RunStore persists the history of transform runs.
type RunStore struct {
	db *DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// CreateRunLog inserts a run log, assigning an ID when it has none.
func (s *RunStore) CreateRunLog(log *etl.RunLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	_, err := s.db.conn.Exec(
		`INSERT INTO runs (id, job, started_at, finished_at, status, rows_read, rows_written,
		 error, error_kind, failed_line)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.Job, log.StartedAt, log.FinishedAt, log.Status, log.RowsRead, log.RowsWritten,
		log.Error, log.ErrorKind, log.FailedLine,
	)
	return err
}

func (s *RunStore) GetRunLog(id string) (*etl.RunLog, error) {
	l := &etl.RunLog{}
	err := s.db.conn.QueryRow(
		`SELECT id, job, started_at, finished_at, status, rows_read, rows_written,
		 error, error_kind, failed_line
		 FROM runs WHERE id = ?`, id,
	).Scan(&l.ID, &l.Job, &l.StartedAt, &l.FinishedAt, &l.Status, &l.RowsRead, &l.RowsWritten,
		&l.Error, &l.ErrorKind, &l.FailedLine)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// ListRunLogs returns the newest runs of a job first. An empty job lists all jobs.
func (s *RunStore) ListRunLogs(job string, limit int) ([]etl.RunLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.conn.Query(
		`SELECT id, job, started_at, finished_at, status, rows_read, rows_written,
		 error, error_kind, failed_line
		 FROM runs WHERE (? = '' OR job = ?) ORDER BY started_at DESC LIMIT ?`,
		job, job, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []etl.RunLog
	for rows.Next() {
		var l etl.RunLog
		if err := rows.Scan(&l.ID, &l.Job, &l.StartedAt, &l.FinishedAt, &l.Status, &l.RowsRead, &l.RowsWritten,
			&l.Error, &l.ErrorKind, &l.FailedLine); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// DeleteRunLogs removes the history of a job.
func (s *RunStore) DeleteRunLogs(job string) error {
	_, err := s.db.conn.Exec(`DELETE FROM runs WHERE job = ?`, job)
	return err
}
