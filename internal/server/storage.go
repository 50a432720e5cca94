package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/consentvault/internal/vault"
	"github.com/dmitrijs2005/consentvault/internal/vault/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// StorageManager owns the vault repository and its backing resources.
type StorageManager interface {
	Vault() vault.Repository
	Close() error
}

type PostgresStorageManager struct {
	db   *sql.DB
	repo *vault.PostgresRepository
}

func (m *PostgresStorageManager) Vault() vault.Repository {
	return m.repo
}

func (m *PostgresStorageManager) Close() error {
	return m.db.Close()
}

func (m *PostgresStorageManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return err
	}

	return nil
}

func NewPostgresStorageManager(dsn string) (*PostgresStorageManager, error) {

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := &PostgresStorageManager{
		db:   db,
		repo: vault.NewPostgresRepository(db),
	}

	err = m.RunMigrations(context.Background())
	if err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}

// InMemoryStorageManager backs the vault with the in-memory repository,
// used for development and tests.
type InMemoryStorageManager struct {
	repo *vault.InMemoryRepository
}

func NewInMemoryStorageManager() *InMemoryStorageManager {
	return &InMemoryStorageManager{repo: vault.NewInMemoryRepository()}
}

func (m *InMemoryStorageManager) Vault() vault.Repository {
	return m.repo
}

func (m *InMemoryStorageManager) Close() error {
	return nil
}
