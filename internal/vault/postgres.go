package vault

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/consentvault/internal/dbx"
)

// PostgresRepository implements record storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO vault_records (id, user_id, category, ciphertext, nonce, tag, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	var expiresAt sql.NullTime
	if !record.ExpiresAt.IsZero() {
		expiresAt = sql.NullTime{Time: record.ExpiresAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.UserID, string(record.Category),
		record.Ciphertext, record.Nonce, record.Tag,
		record.CreatedAt, expiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SelectByUserCategory(ctx context.Context, userID string, category Category) ([]*Record, error) {
	query := `
		SELECT id, user_id, category, ciphertext, nonce, tag, created_at, expires_at
		FROM vault_records
		WHERE user_id = $1 AND category = $2
		ORDER BY created_at;
	`
	rows, err := r.db.QueryContext(ctx, query, userID, string(category))
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		var item Record
		var cat string
		var expiresAt sql.NullTime
		if err := rows.Scan(
			&item.ID, &item.UserID, &cat, &item.Ciphertext, &item.Nonce, &item.Tag,
			&item.CreatedAt, &expiresAt,
		); err != nil {
			return nil, err
		}
		item.Category = Category(cat)
		if expiresAt.Valid {
			item.ExpiresAt = expiresAt.Time
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) SelectExpiredIDs(ctx context.Context, now time.Time) ([]string, error) {
	query := `SELECT id FROM vault_records WHERE expires_at IS NOT NULL AND expires_at <= $1;`
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to select expired ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PostgresRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `DELETE FROM vault_records WHERE id = ANY($1);`
	res, err := r.db.ExecContext(ctx, query, ids)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) DeleteByUserCategories(ctx context.Context, userID string, categories []Category) (int64, error) {
	if len(categories) == 0 {
		return 0, nil
	}
	cats := make([]string, len(categories))
	for i, c := range categories {
		cats[i] = string(c)
	}
	query := `DELETE FROM vault_records WHERE user_id = $1 AND category = ANY($2);`
	res, err := r.db.ExecContext(ctx, query, userID, cats)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) CountByUser(ctx context.Context, userID string) (map[Category]int, error) {
	query := `SELECT category, COUNT(*) FROM vault_records WHERE user_id = $1 GROUP BY category;`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	defer rows.Close()

	counts := make(map[Category]int)
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		counts[Category(cat)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
