package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// PostgresStore implements Store on a postgres transactions table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn, migrationsDir string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)

	s := &PostgresStore{db: db}
	if err := s.runMigrations(migrationsDir); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) runMigrations(dir string) error {
	driver, err := postgres.WithInstance(s.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", dir),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Record(ctx context.Context, tx *Transaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (transaction_id, card_id, amount, currency, description, approved, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tx.TransactionID, tx.CardID, tx.Amount, tx.Currency, tx.Description, tx.Approved, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT transaction_id, card_id, amount, currency, description, approved, created_at
		 FROM transactions ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var result []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(&tx.TransactionID, &tx.CardID, &tx.Amount, &tx.Currency,
			&tx.Description, &tx.Approved, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		result = append(result, tx)
	}
	return result, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
