// Пакет repository реализует работу с PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Storage - обёртка над подключением к базе данных.
type Storage struct {
	DB *sql.DB
}

// New открывает подключение к PostgreSQL по строке соединения.
func New(storagePath string) (*Storage, error) {
	const op = "storage.repository.New"

	db, err := sql.Open("pgx", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db}, nil
}

// CheckDatabaseReady проверяет доступность базы данных.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	const op = "storage.repository.CheckDatabaseReady"

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает подключение к базе данных.
func (s *Storage) Close() error {
	return s.DB.Close()
}
