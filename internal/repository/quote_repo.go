package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"premium-estimator/internal/domain"
)

var ErrQuoteNotFound = errors.New("quote not found")

// QuoteRepository define el contrato de persistencia del registro de cotizaciones.
// Solo guarda la prima y el digest del registro, nunca los atributos.
type QuoteRepository interface {
	Create(ctx context.Context, quote domain.Quote) error
	GetByID(ctx context.Context, id string) (domain.Quote, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Quote, error)
}

// PgQuoteRepository implementa QuoteRepository usando pgxpool.
type PgQuoteRepository struct {
	pool *pgxpool.Pool
}

func NewPgQuoteRepository(pool *pgxpool.Pool) *PgQuoteRepository {
	return &PgQuoteRepository{pool: pool}
}

func (r *PgQuoteRepository) Create(ctx context.Context, quote domain.Quote) error {
	const query = `
		INSERT INTO quotes (id, premium, model_name, model_version, profile, feature_digest, client_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		quote.ID,
		quote.Premium,
		quote.ModelName,
		quote.ModelVersion,
		quote.Profile,
		quote.FeatureDigest,
		quote.ClientKey,
		quote.CreatedAt,
	)
	return err
}

func (r *PgQuoteRepository) GetByID(ctx context.Context, id string) (domain.Quote, error) {
	const query = `
		SELECT id, premium, model_name, model_version, profile, feature_digest, client_key, created_at
		FROM quotes
		WHERE id = $1
	`
	q, err := scanQuote(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quote{}, ErrQuoteNotFound
	}
	return q, err
}

func (r *PgQuoteRepository) ListRecent(ctx context.Context, limit int) ([]domain.Quote, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
		SELECT id, premium, model_name, model_version, profile, feature_digest, client_key, created_at
		FROM quotes
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []domain.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

func scanQuote(row pgx.Row) (domain.Quote, error) {
	var q domain.Quote
	err := row.Scan(
		&q.ID,
		&q.Premium,
		&q.ModelName,
		&q.ModelVersion,
		&q.Profile,
		&q.FeatureDigest,
		&q.ClientKey,
		&q.CreatedAt,
	)
	return q, err
}
