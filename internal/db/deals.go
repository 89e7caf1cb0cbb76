package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/dealbrief/internal/types"
)

const dealColumns = `id, content_hash, raw_text, status, last_error,
	company_name, founders, sector, geography, stage, round_size,
	metrics, investment_brief, tags, created_at, updated_at`

// scanDeal scans one deals row into a types.Deal.
func scanDeal(row pgx.Row) (*types.Deal, error) {
	var deal types.Deal
	err := row.Scan(
		&deal.ID, &deal.ContentHash, &deal.RawText, &deal.Status, &deal.LastError,
		&deal.CompanyName, &deal.Founders, &deal.Sector, &deal.Geography, &deal.Stage, &deal.RoundSize,
		&deal.Metrics, &deal.InvestmentBrief, &deal.Tags, &deal.CreatedAt, &deal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// CreateDeal inserts a new deal in pending status and returns the record.
// The raw text and content hash are immutable after this point.
func (db *DB) CreateDeal(ctx context.Context, id uuid.UUID, contentHash, rawText string) (*types.Deal, error) {
	deal, err := scanDeal(db.pool.QueryRow(ctx,
		`INSERT INTO deals (id, content_hash, raw_text, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+dealColumns,
		id, contentHash, rawText, types.StatusPending,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create deal: %w", err)
	}
	return deal, nil
}

// GetDealByHash retrieves a deal by its content hash for the dedup check.
// Returns nil when no deal with that hash exists.
func (db *DB) GetDealByHash(ctx context.Context, contentHash string) (*types.Deal, error) {
	deal, err := scanDeal(db.pool.QueryRow(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE content_hash = $1`,
		contentHash,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get deal by hash: %w", err)
	}
	return deal, nil
}

// GetDealByID retrieves a deal by ID. Returns nil when the id is unknown.
func (db *DB) GetDealByID(ctx context.Context, id uuid.UUID) (*types.Deal, error) {
	deal, err := scanDeal(db.pool.QueryRow(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE id = $1`,
		id,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}
	return deal, nil
}

// ListDeals retrieves the most recently created deals.
func (db *DB) ListDeals(ctx context.Context, limit int) ([]types.Deal, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+dealColumns+` FROM deals ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	defer rows.Close()

	var deals []types.Deal
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, *deal)
	}
	return deals, nil
}

// UpdateDealStatus persists a status transition. lastError is only ever
// non-nil for the failed status. Returns nil when the id is unknown.
func (db *DB) UpdateDealStatus(ctx context.Context, id uuid.UUID, status types.DealStatus, lastError *string) (*types.Deal, error) {
	deal, err := scanDeal(db.pool.QueryRow(ctx,
		`UPDATE deals SET status = $2, last_error = $3, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+dealColumns,
		id, status, lastError,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update deal status: %w", err)
	}
	return deal, nil
}

// UpdateDealExtracted merges validated extraction output into the deal and
// marks it completed in one statement, so structured fields and the terminal
// status are never observable apart. Returns nil when the id is unknown.
func (db *DB) UpdateDealExtracted(ctx context.Context, id uuid.UUID, extracted *types.ExtractedDeal) (*types.Deal, error) {
	deal, err := scanDeal(db.pool.QueryRow(ctx,
		`UPDATE deals SET
			status = $2,
			last_error = NULL,
			company_name = $3,
			founders = $4,
			sector = $5,
			geography = $6,
			stage = $7,
			round_size = $8,
			metrics = $9,
			investment_brief = $10,
			tags = $11,
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+dealColumns,
		id, types.StatusCompleted,
		extracted.CompanyName, extracted.Founders, extracted.Sector,
		extracted.Geography, extracted.Stage, extracted.RoundSize,
		extracted.Metrics, extracted.InvestmentBrief, extracted.Tags,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update extracted deal: %w", err)
	}
	return deal, nil
}
