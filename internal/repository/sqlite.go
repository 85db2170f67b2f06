package repository

import (
	"context"
	"database/sql"
	"fmt"

	"devicelab/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{dbPath: path}
}

func (s *SQLiteStore) Init() error {
	var err error

	s.db, err = sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}

	if err = s.db.Ping(); err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS launch_times (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		ip_address TEXT NOT NULL,
		device TEXT NOT NULL,
		android_version TEXT NOT NULL,
		application TEXT NOT NULL,
		startup_state TEXT NOT NULL,
		startup_time INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_launch_times_timestamp ON launch_times(timestamp);

	CREATE TABLE IF NOT EXISTS resource_usage (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		ip_address TEXT NOT NULL,
		device TEXT NOT NULL,
		android_version TEXT NOT NULL,
		application TEXT NOT NULL,
		cpu_percent REAL NOT NULL,
		memory_used_kb REAL NOT NULL,
		memory_percent REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_resource_usage_timestamp ON resource_usage(timestamp);`

	_, err = s.db.Exec(createTableSQL)
	if err != nil {
		return fmt.Errorf("error creating tables: %w", err)
	}

	return nil
}

func (s *SQLiteStore) StoreLaunchTime(ctx context.Context, lt domain.LaunchTime) error {
	stmt, err := s.db.PrepareContext(ctx,
		`INSERT INTO launch_times(timestamp, ip_address, device, android_version, application, startup_state, startup_time)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, lt.Timestamp, lt.IPAddress, lt.Device,
		lt.AndroidVersion, lt.Application, string(lt.StartupState), lt.StartupTimeMs)
	if err != nil {
		return fmt.Errorf("error inserting launch time: %w", err)
	}
	return nil
}

// LaunchTimes returns records ascending by timestamp; the id column breaks
// ties in insertion order. An empty application matches all rows.
func (s *SQLiteStore) LaunchTimes(ctx context.Context, application string) ([]domain.LaunchTime, error) {
	query := `SELECT id, timestamp, ip_address, device, android_version, application, startup_state, startup_time
		FROM launch_times`
	args := []interface{}{}

	if application != "" {
		query += " WHERE application = ?"
		args = append(args, application)
	}
	query += " ORDER BY timestamp ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying launch times: %w", err)
	}
	defer rows.Close()

	var fetched []domain.LaunchTime

	for rows.Next() {
		var (
			lt    domain.LaunchTime
			state string
		)
		if err := rows.Scan(&lt.ID, &lt.Timestamp, &lt.IPAddress, &lt.Device,
			&lt.AndroidVersion, &lt.Application, &state, &lt.StartupTimeMs); err != nil {
			return nil, fmt.Errorf("error scanning launch time row: %w", err)
		}
		lt.StartupState, err = domain.ParseStartupState(state)
		if err != nil {
			return nil, fmt.Errorf("corrupt launch time row %d: %w", lt.ID, err)
		}
		fetched = append(fetched, lt)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return fetched, nil
}

func (s *SQLiteStore) StoreResourceUsage(ctx context.Context, ru domain.ResourceUsage) error {
	stmt, err := s.db.PrepareContext(ctx,
		`INSERT INTO resource_usage(timestamp, ip_address, device, android_version, application, cpu_percent, memory_used_kb, memory_percent)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, ru.Timestamp, ru.IPAddress, ru.Device,
		ru.AndroidVersion, ru.Application, ru.CPUPercent, ru.MemoryUsedKB, ru.MemoryPercent)
	if err != nil {
		return fmt.Errorf("error inserting resource usage: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ResourceUsages(ctx context.Context, application string) ([]domain.ResourceUsage, error) {
	query := `SELECT id, timestamp, ip_address, device, android_version, application, cpu_percent, memory_used_kb, memory_percent
		FROM resource_usage`
	args := []interface{}{}

	if application != "" {
		query += " WHERE application = ?"
		args = append(args, application)
	}
	query += " ORDER BY timestamp ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying resource usage: %w", err)
	}
	defer rows.Close()

	var fetched []domain.ResourceUsage

	for rows.Next() {
		var ru domain.ResourceUsage
		if err := rows.Scan(&ru.ID, &ru.Timestamp, &ru.IPAddress, &ru.Device,
			&ru.AndroidVersion, &ru.Application, &ru.CPUPercent, &ru.MemoryUsedKB, &ru.MemoryPercent); err != nil {
			return nil, fmt.Errorf("error scanning resource usage row: %w", err)
		}
		fetched = append(fetched, ru)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return fetched, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
