package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/huangsam/tagchurn/schema"
)

// Table names for churn run tracking.
const (
	runsTable      = "tagchurn_runs"
	churnRowsTable = "tagchurn_churn_rows"
)

// RunStoreImpl records churn runs and the rows they emitted.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore opens the run store for backend and creates its tables when missing.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (*RunStoreImpl, error) {
	store := &RunStoreImpl{backend: backend}
	if backend == schema.NoneBackend {
		return store, nil
	}

	db, err := openDB(backend, connStr, GetRunsDBFilePath())
	if err != nil {
		return nil, err
	}
	for _, table := range []string{runsTable, churnRowsTable} {
		if _, err := db.Exec(getCreateRunTableQuery(table, backend)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	store.db = db
	return store, nil
}

func getCreateRunTableQuery(table string, backend schema.DatabaseBackend) string {
	quoted := quoteTableName(table, backend)
	if table == churnRowsTable {
		hashType, textType := "TEXT", "TEXT"
		if backend == schema.MySQLBackend {
			hashType, textType = "CHAR(40)", "VARCHAR(1024)"
		}
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				seq INTEGER NOT NULL,
				commit_hash %s NOT NULL,
				file_path %s NOT NULL,
				label TEXT NOT NULL,
				churn INTEGER NOT NULL,
				added INTEGER NOT NULL,
				removed INTEGER NOT NULL,
				PRIMARY KEY (run_id, seq)
			);
		`, quoted, hashType, textType)
	}

	var idCol, timeType string
	switch backend {
	case schema.MySQLBackend:
		idCol, timeType = "run_id BIGINT AUTO_INCREMENT PRIMARY KEY", "DATETIME(6)"
	case schema.PostgreSQLBackend:
		idCol, timeType = "run_id BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ"
	default:
		idCol, timeType = "run_id INTEGER PRIMARY KEY AUTOINCREMENT", "TEXT"
	}
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			%s,
			start_time %s NOT NULL,
			end_time %s,
			run_duration_ms INTEGER,
			commits_seen INTEGER NOT NULL DEFAULT 0,
			commits_filtered INTEGER NOT NULL DEFAULT 0,
			commits_emitted INTEGER NOT NULL DEFAULT 0,
			total_rows INTEGER NOT NULL DEFAULT 0,
			config_params TEXT
		);
	`, quoted, idCol, timeType, timeType)
}

// BeginRun creates a new run and returns its ID. The none backend returns 0.
func (rs *RunStoreImpl) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	if rs.db == nil {
		return 0, nil
	}
	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quoted := quoteTableName(runsTable, rs.backend)
	var runID int64
	if rs.backend == schema.PostgreSQLBackend {
		query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES ($1, $2) RETURNING run_id`, quoted)
		err = rs.db.QueryRow(query, startTime, string(configJSON)).Scan(&runID)
	} else {
		query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES (?, ?)`, quoted)
		var result sql.Result
		if result, err = rs.db.Exec(query, formatTime(startTime, rs.backend), string(configJSON)); err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert churn run: %w", err)
	}
	return runID, nil
}

// RecordRows stores rows in one transaction, numbering them from firstSeq.
func (rs *RunStoreImpl) RecordRows(runID int64, firstSeq int, rows []schema.ChurnRow) error {
	if rs.db == nil || len(rows) == 0 {
		return nil
	}

	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (run_id, seq, commit_hash, file_path, label, churn, added, removed) VALUES (%s)`,
		quoteTableName(churnRowsTable, rs.backend), strings.Join(placeholders(rs.backend, 8), ", "))
	stmt, err := tx.Prepare(query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range rows {
		if _, err := stmt.Exec(runID, firstSeq+i, row.Commit, row.Path, row.Label, row.Churn, row.Added, row.Removed); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert churn row %d: %w", firstSeq+i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit churn rows: %w", err)
	}
	return nil
}

// EndRun stores the end time, duration and summary counters of a run.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, summary schema.ChurnSummary) error {
	if rs.db == nil {
		return nil
	}

	quoted := quoteTableName(runsTable, rs.backend)
	p := placeholders(rs.backend, 7)
	start := &timeScanner{backend: rs.backend}
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quoted, p[0])
	if err := rs.db.QueryRow(query, runID).Scan(start.dest()); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	startTime, err := start.get()
	if err != nil {
		return err
	}
	var durationMs int64
	if startTime != nil {
		durationMs = endTime.Sub(*startTime).Milliseconds()
	}

	update := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, commits_seen = %s, commits_filtered = %s,
		commits_emitted = %s, total_rows = %s WHERE run_id = %s`, quoted, p[0], p[1], p[2], p[3], p[4], p[5], p[6])
	_, err = rs.db.Exec(update, formatTime(endTime, rs.backend), durationMs,
		summary.CommitsSeen, summary.CommitsFiltered, summary.CommitsEmitted, summary.Rows, runID)
	if err != nil {
		return fmt.Errorf("failed to update churn run: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns run counts, the run time span and per-table row counts.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.db == nil {
		return status, nil
	}

	for _, table := range []string{runsTable, churnRowsTable} {
		var count int64
		if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalRuns = int(status.TableSizes[runsTable])
	status.TotalRows = int(status.TableSizes[churnRowsTable])
	if status.TotalRuns == 0 {
		return status, nil
	}

	quoted := quoteTableName(runsTable, rs.backend)
	last := &timeScanner{backend: rs.backend}
	if err := rs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quoted)).
		Scan(&status.LastRunID, last.dest()); err != nil {
		return status, fmt.Errorf("failed to get last run: %w", err)
	}
	oldest := &timeScanner{backend: rs.backend}
	if err := rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quoted)).
		Scan(oldest.dest()); err != nil {
		return status, fmt.Errorf("failed to get oldest run: %w", err)
	}
	if t, err := last.get(); err != nil {
		return status, err
	} else if t != nil {
		status.LastRunTime = *t
	}
	if t, err := oldest.get(); err != nil {
		return status, err
	} else if t != nil {
		status.OldestRunTime = *t
	}
	return status, nil
}

// GetAllRuns returns every run ordered by ID.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, start_time, end_time, run_duration_ms, commits_seen, commits_filtered,
		commits_emitted, total_rows, config_params FROM %s ORDER BY run_id`, quoteTableName(runsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query churn runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var (
			rec        schema.RunRecord
			start, end = &timeScanner{backend: rs.backend}, &timeScanner{backend: rs.backend}
		)
		if err := rows.Scan(&rec.RunID, start.dest(), end.dest(), &rec.RunDurationMs, &rec.CommitsSeen,
			&rec.CommitsFiltered, &rec.CommitsEmitted, &rec.TotalRows, &rec.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan churn run: %w", err)
		}
		startTime, err := start.get()
		if err != nil {
			return nil, err
		}
		if startTime != nil {
			rec.StartTime = *startTime
		}
		if rec.EndTime, err = end.get(); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating churn runs: %w", err)
	}
	return results, nil
}

// GetAllRows returns every churn row ordered by run and sequence.
func (rs *RunStoreImpl) GetAllRows() ([]schema.ChurnRowRecord, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, seq, commit_hash, file_path, label, churn, added, removed
		FROM %s ORDER BY run_id, seq`, quoteTableName(churnRowsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query churn rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ChurnRowRecord
	for rows.Next() {
		var rec schema.ChurnRowRecord
		if err := rows.Scan(&rec.RunID, &rec.Seq, &rec.Commit, &rec.Path, &rec.Label,
			&rec.Churn, &rec.Added, &rec.Removed); err != nil {
			return nil, fmt.Errorf("failed to scan churn row: %w", err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating churn rows: %w", err)
	}
	return results, nil
}
