package store

import (
	"database/sql"
	"log/slog"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

type Store struct {
	DB *sql.DB
}

func NewStore(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &Store{DB: db}, nil
}

func (s *Store) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS reservations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		external_reference TEXT NOT NULL UNIQUE,
		customer_name TEXT,
		customer_email TEXT,
		customer_phone TEXT,
		items TEXT,
		pickup_date TEXT,
		pickup_time TEXT,
		message TEXT,
		total REAL DEFAULT 0,
		deposit REAL DEFAULT 0,
		balance REAL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		confirmation_sent INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.DB.Exec(query)
	if err != nil {
		slog.Error("Error creating schema", "error", err)
		return err
	}
	return nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}
