package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/arhebs/payout-service/internal/core/domain"
	"github.com/arhebs/payout-service/internal/core/payout"
)

const uniqueViolation = "23505"

// payoutColumns is the select list every payout query shares. Amount comes
// back as text so it round-trips through decimal without a float detour.
const payoutColumns = "id, amount::text, currency, recipient_details, status, description, created_at, updated_at"

// PayoutRepository implements payout.Store on Postgres.
type PayoutRepository struct {
	db *pgxpool.Pool
}

func NewPayoutRepository(db *pgxpool.Pool) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) Insert(ctx context.Context, p *domain.Payout) (*domain.Payout, error) {
	details, err := json.Marshal(p.RecipientDetails)
	if err != nil {
		return nil, fmt.Errorf("encode recipient details: %w", err)
	}

	query := `
		INSERT INTO payouts (id, amount, currency, recipient_details, status, description)
		VALUES ($1, $2::numeric, $3, $4, $5, $6)
		RETURNING ` + payoutColumns

	row := r.db.QueryRow(ctx, query,
		p.ID, p.Amount.StringFixed(2), p.Currency, details, p.Status, nullableText(p.Description))

	created, err := scanPayout(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, payout.ErrConflict
		}

		return nil, fmt.Errorf("insert payout: %w", err)
	}

	return created, nil
}

func (r *PayoutRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Payout, error) {
	row := r.db.QueryRow(ctx, "SELECT "+payoutColumns+" FROM payouts WHERE id = $1", id)

	p, err := scanPayout(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, payout.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("get payout: %w", err)
	}

	return p, nil
}

func (r *PayoutRepository) List(ctx context.Context, filter payout.ListFilter) ([]*domain.Payout, error) {
	query, args := buildListQuery(filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	defer rows.Close()

	var payouts []*domain.Payout

	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payout: %w", err)
		}

		payouts = append(payouts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}

	return payouts, nil
}

// buildListQuery assembles the filtered SELECT; kept separate from List so the
// predicate construction is testable without a database.
func buildListQuery(filter payout.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)

		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		conds = append(conds, "status = "+arg(filter.Status))
	}

	if filter.Currency != "" {
		conds = append(conds, "UPPER(currency) = UPPER("+arg(filter.Currency)+")")
	}

	if !filter.CreatedAfter.IsZero() {
		conds = append(conds, "created_at >= "+arg(filter.CreatedAfter))
	}

	if !filter.CreatedBefore.IsZero() {
		conds = append(conds, "created_at <= "+arg(filter.CreatedBefore))
	}

	if filter.MinAmount != nil {
		conds = append(conds, "amount >= "+arg(filter.MinAmount.StringFixed(2))+"::numeric")
	}

	if filter.MaxAmount != nil {
		conds = append(conds, "amount <= "+arg(filter.MaxAmount.StringFixed(2))+"::numeric")
	}

	query := "SELECT " + payoutColumns + " FROM payouts"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	return query, args
}

func (r *PayoutRepository) UpdateFields(ctx context.Context, p *domain.Payout) (*domain.Payout, error) {
	details, err := json.Marshal(p.RecipientDetails)
	if err != nil {
		return nil, fmt.Errorf("encode recipient details: %w", err)
	}

	query := `
		UPDATE payouts
		SET amount = $2::numeric, currency = $3, recipient_details = $4, description = $5, updated_at = now()
		WHERE id = $1
		RETURNING ` + payoutColumns

	row := r.db.QueryRow(ctx, query,
		p.ID, p.Amount.StringFixed(2), p.Currency, details, nullableText(p.Description))

	updated, err := scanPayout(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, payout.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("update payout: %w", err)
	}

	return updated, nil
}

func (r *PayoutRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM payouts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete payout: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return payout.ErrNotFound
	}

	return nil
}

// WithLock reads the payout under SELECT ... FOR UPDATE, runs fn, and commits
// a status change made by fn before releasing the lock. Concurrent WithLock
// calls for the same id block until the holder's transaction ends.
func (r *PayoutRepository) WithLock(ctx context.Context, id uuid.UUID, fn func(p *domain.Payout) error) (*domain.Payout, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, "SELECT "+payoutColumns+" FROM payouts WHERE id = $1 FOR UPDATE", id)

	p, err := scanPayout(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, payout.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("lock payout: %w", err)
	}

	before := p.Status

	if err := fn(p); err != nil {
		return nil, err
	}

	if p.Status != before {
		if _, err := tx.Exec(ctx,
			"UPDATE payouts SET status = $2, updated_at = now() WHERE id = $1", id, p.Status); err != nil {
			return nil, fmt.Errorf("update payout status: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return p, nil
}

// SetStatus writes the status in a single atomic statement without taking the
// row lock first. Used by the failure handler's clobbering write.
func (r *PayoutRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	tag, err := r.db.Exec(ctx,
		"UPDATE payouts SET status = $2, updated_at = now() WHERE id = $1", id, status)
	if err != nil {
		return fmt.Errorf("set payout status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return payout.ErrNotFound
	}

	return nil
}

func scanPayout(row pgx.Row) (*domain.Payout, error) {
	var (
		p          domain.Payout
		amountText string
		detailsRaw []byte
		desc       *string
	)

	if err := row.Scan(&p.ID, &amountText, &p.Currency, &detailsRaw, &p.Status, &desc, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(amountText)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amountText, err)
	}

	p.Amount = amount

	if err := json.Unmarshal(detailsRaw, &p.RecipientDetails); err != nil {
		return nil, fmt.Errorf("decode recipient details: %w", err)
	}

	if desc != nil {
		p.Description = *desc
	}

	return &p, nil
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
