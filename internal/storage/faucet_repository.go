package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/faucet-analytics/internal/models"
	"github.com/jackc/pgx/v5"
)

// FaucetRepository persists the crawl outputs: compact listing rows in
// network_faucets and full state rows in faucet_details, both keyed by
// lowercase faucet address.
type FaucetRepository struct {
	db *PostgresDB
}

// NewFaucetRepository creates a new faucet repository.
func NewFaucetRepository(db *PostgresDB) *FaucetRepository {
	return &FaucetRepository{db: db}
}

// UpsertFaucets writes the listing and detail rows produced by one network
// crawl, in chunks.
func (r *FaucetRepository) UpsertFaucets(ctx context.Context, metas []*models.FaucetMeta, details []*models.FaucetDetail) error {
	metaQuery := `
		INSERT INTO network_faucets (
			faucet_address, chain_id, network_name, factory_address, factory_type,
			faucet_name, slug, token_symbol, is_ether, is_claim_active, owner_address, start_time
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (faucet_address)
		DO UPDATE SET
			chain_id = EXCLUDED.chain_id,
			network_name = EXCLUDED.network_name,
			factory_address = EXCLUDED.factory_address,
			factory_type = EXCLUDED.factory_type,
			faucet_name = EXCLUDED.faucet_name,
			slug = EXCLUDED.slug,
			token_symbol = EXCLUDED.token_symbol,
			is_ether = EXCLUDED.is_ether,
			is_claim_active = EXCLUDED.is_claim_active,
			owner_address = EXCLUDED.owner_address,
			start_time = EXCLUDED.start_time
	`
	batch := &pgx.Batch{}
	for _, meta := range metas {
		batch.Queue(metaQuery,
			meta.FaucetAddress,
			meta.ChainID,
			meta.NetworkName,
			meta.FactoryAddress,
			meta.FactoryType,
			meta.FaucetName,
			meta.Slug,
			meta.TokenSymbol,
			meta.IsEther,
			meta.IsClaimActive,
			meta.OwnerAddress,
			meta.StartTime,
		)
	}
	if err := sendChunked(ctx, r.db, batch); err != nil {
		return fmt.Errorf("failed to upsert faucet listings: %w", err)
	}

	detailQuery := `
		INSERT INTO faucet_details (
			faucet_address, chain_id, network_name, factory_address, factory_type,
			faucet_name, token_address, token_symbol, token_decimals, is_ether,
			balance, claim_amount, start_time, end_time, is_claim_active,
			is_paused, owner_address, use_backend, slug, image_url, description, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		ON CONFLICT (faucet_address)
		DO UPDATE SET
			chain_id = EXCLUDED.chain_id,
			network_name = EXCLUDED.network_name,
			factory_address = EXCLUDED.factory_address,
			factory_type = EXCLUDED.factory_type,
			faucet_name = EXCLUDED.faucet_name,
			token_address = EXCLUDED.token_address,
			token_symbol = EXCLUDED.token_symbol,
			token_decimals = EXCLUDED.token_decimals,
			is_ether = EXCLUDED.is_ether,
			balance = EXCLUDED.balance,
			claim_amount = EXCLUDED.claim_amount,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			is_claim_active = EXCLUDED.is_claim_active,
			is_paused = EXCLUDED.is_paused,
			owner_address = EXCLUDED.owner_address,
			use_backend = EXCLUDED.use_backend,
			slug = EXCLUDED.slug,
			image_url = EXCLUDED.image_url,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at
	`
	batch = &pgx.Batch{}
	for _, detail := range details {
		batch.Queue(detailQuery,
			detail.FaucetAddress,
			detail.ChainID,
			detail.NetworkName,
			detail.FactoryAddress,
			detail.FactoryType,
			detail.FaucetName,
			detail.TokenAddress,
			detail.TokenSymbol,
			detail.TokenDecimals,
			detail.IsEther,
			detail.Balance,
			detail.ClaimAmount,
			detail.StartTime,
			detail.EndTime,
			detail.IsClaimActive,
			detail.IsPaused,
			detail.OwnerAddress,
			detail.UseBackend,
			detail.Slug,
			detail.ImageURL,
			detail.Description,
			detail.UpdatedAt,
		)
	}
	if err := sendChunked(ctx, r.db, batch); err != nil {
		return fmt.Errorf("failed to upsert faucet details: %w", err)
	}
	return nil
}

// EvictDeleted removes listing and detail rows for the given lowercase
// addresses. Per-address best-effort: every address is attempted and the
// first error is returned.
func (r *FaucetRepository) EvictDeleted(ctx context.Context, addresses []string) error {
	var firstErr error
	for _, addr := range addresses {
		if _, err := r.db.Pool().Exec(ctx, `DELETE FROM network_faucets WHERE faucet_address = $1`, addr); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to evict faucet listing %s: %w", addr, err)
		}
		if _, err := r.db.Pool().Exec(ctx, `DELETE FROM faucet_details WHERE faucet_address = $1`, addr); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to evict faucet detail %s: %w", addr, err)
		}
	}
	return firstErr
}

// GetDetail retrieves one faucet's full state by address, or nil when the
// faucet is unknown.
func (r *FaucetRepository) GetDetail(ctx context.Context, address string) (*models.FaucetDetail, error) {
	query := `
		SELECT faucet_address, chain_id, network_name, factory_address, factory_type,
			   faucet_name, token_address, token_symbol, token_decimals, is_ether,
			   balance, claim_amount, start_time, end_time, is_claim_active,
			   is_paused, owner_address, use_backend, slug, image_url, description, updated_at
		FROM faucet_details
		WHERE faucet_address = $1
	`
	var detail models.FaucetDetail
	err := r.db.Pool().QueryRow(ctx, query, strings.ToLower(address)).Scan(
		&detail.FaucetAddress,
		&detail.ChainID,
		&detail.NetworkName,
		&detail.FactoryAddress,
		&detail.FactoryType,
		&detail.FaucetName,
		&detail.TokenAddress,
		&detail.TokenSymbol,
		&detail.TokenDecimals,
		&detail.IsEther,
		&detail.Balance,
		&detail.ClaimAmount,
		&detail.StartTime,
		&detail.EndTime,
		&detail.IsClaimActive,
		&detail.IsPaused,
		&detail.OwnerAddress,
		&detail.UseBackend,
		&detail.Slug,
		&detail.ImageURL,
		&detail.Description,
		&detail.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get faucet detail: %w", err)
	}
	return &detail, nil
}

// FaucetFilters defines the listing query filters. A nil ChainID means all
// chains; Search matches name, token symbol and address case-insensitively.
type FaucetFilters struct {
	ChainID     *int64
	ActiveOnly  bool
	FactoryType string
	Search      string
	Page        int
	PerPage     int
}

// List retrieves listing rows ordered by start time descending, newest
// first, and returns the page plus the total match count.
func (r *FaucetRepository) List(ctx context.Context, filters *FaucetFilters) ([]*models.FaucetMeta, int64, error) {
	where := " WHERE 1=1"
	args := []any{}
	argPos := 1

	if filters != nil {
		if filters.ChainID != nil {
			where += fmt.Sprintf(" AND chain_id = $%d", argPos)
			args = append(args, *filters.ChainID)
			argPos++
		}
		if filters.ActiveOnly {
			where += " AND is_claim_active = true"
		}
		if filters.FactoryType != "" {
			where += fmt.Sprintf(" AND factory_type = $%d", argPos)
			args = append(args, filters.FactoryType)
			argPos++
		}
		if filters.Search != "" {
			pattern := "%" + strings.ToLower(strings.TrimSpace(filters.Search)) + "%"
			where += fmt.Sprintf(" AND (LOWER(faucet_name) LIKE $%d OR LOWER(token_symbol) LIKE $%d OR faucet_address LIKE $%d)", argPos, argPos, argPos)
			args = append(args, pattern)
			argPos++
		}
	}

	var total int64
	if err := r.db.Pool().QueryRow(ctx, "SELECT COUNT(*) FROM network_faucets"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count faucets: %w", err)
	}

	query := `
		SELECT faucet_address, chain_id, network_name, factory_address, factory_type,
			   faucet_name, slug, token_symbol, is_ether, is_claim_active, owner_address, start_time
		FROM network_faucets
	` + where + " ORDER BY start_time DESC"

	if filters != nil && filters.PerPage > 0 {
		page := filters.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
		args = append(args, filters.PerPage, (page-1)*filters.PerPage)
	}

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list faucets: %w", err)
	}
	defer rows.Close()

	var faucets []*models.FaucetMeta
	for rows.Next() {
		var meta models.FaucetMeta
		if err := rows.Scan(
			&meta.FaucetAddress,
			&meta.ChainID,
			&meta.NetworkName,
			&meta.FactoryAddress,
			&meta.FactoryType,
			&meta.FaucetName,
			&meta.Slug,
			&meta.TokenSymbol,
			&meta.IsEther,
			&meta.IsClaimActive,
			&meta.OwnerAddress,
			&meta.StartTime,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan faucet listing: %w", err)
		}
		faucets = append(faucets, &meta)
	}
	return faucets, total, rows.Err()
}
