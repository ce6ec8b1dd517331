package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/faucet-analytics/internal/chains"
	"github.com/faucet-analytics/internal/models"
	"github.com/jackc/pgx/v5"
)

// upsertChunkSize bounds the number of rows written per batch.
const upsertChunkSize = 100

// DashboardRepository persists the denormalized dashboard snapshot across
// the five dashboard tables and rebuilds it on load. Each accumulation run
// replaces rows wholesale by primary key.
type DashboardRepository struct {
	db *PostgresDB
}

// NewDashboardRepository creates a new dashboard repository.
func NewDashboardRepository(db *PostgresDB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// SaveSnapshot writes every section of the snapshot: per-network faucet
// counts, the user series, per-faucet claim stats, per-network transaction
// totals, and the scalar meta row. Rows are upserted in chunks.
func (r *DashboardRepository) SaveSnapshot(ctx context.Context, snapshot *models.DashboardSnapshot) error {
	now := snapshot.LastUpdated
	if now == "" {
		now = time.Now().UTC().Format(time.RFC3339)
	}

	faucetQuery := `
		INSERT INTO faucet_data (network, faucets, chain_id, color)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (network)
		DO UPDATE SET faucets = EXCLUDED.faucets, chain_id = EXCLUDED.chain_id, color = EXCLUDED.color
	`
	batch := &pgx.Batch{}
	for _, nf := range snapshot.NetworkFaucets {
		batch.Queue(faucetQuery, nf.Network, nf.Faucets, chains.ChainIDByName(nf.Network), chains.ColorByName(nf.Network))
	}
	if err := sendChunked(ctx, r.db, batch); err != nil {
		return fmt.Errorf("failed to save faucet counts: %w", err)
	}

	userQuery := `
		INSERT INTO user_data (date, new_users, cumulative_users)
		VALUES ($1, $2, $3)
		ON CONFLICT (date)
		DO UPDATE SET new_users = EXCLUDED.new_users, cumulative_users = EXCLUDED.cumulative_users
	`
	batch = &pgx.Batch{}
	for _, point := range snapshot.UsersChart {
		batch.Queue(userQuery, point.Date, point.NewUsers, point.CumulativeUsers)
	}
	if err := sendChunked(ctx, r.db, batch); err != nil {
		return fmt.Errorf("failed to save user series: %w", err)
	}

	// total_transactions mirrors claims until per-faucet tx attribution
	// exists; total_amount is reserved the same way.
	claimQuery := `
		INSERT INTO claim_data (
			faucet_address, faucet_name, network, chain_id, rank,
			claims, total_transactions, total_amount, latest_claim_time, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (faucet_address)
		DO UPDATE SET
			faucet_name = EXCLUDED.faucet_name,
			network = EXCLUDED.network,
			chain_id = EXCLUDED.chain_id,
			rank = EXCLUDED.rank,
			claims = EXCLUDED.claims,
			total_transactions = EXCLUDED.total_transactions,
			total_amount = EXCLUDED.total_amount,
			latest_claim_time = EXCLUDED.latest_claim_time,
			updated_at = EXCLUDED.updated_at
	`
	batch = &pgx.Batch{}
	for _, ranking := range snapshot.FaucetRankings {
		batch.Queue(claimQuery,
			ranking.FaucetAddress,
			ranking.FaucetName,
			ranking.Network,
			ranking.ChainID,
			ranking.Rank,
			ranking.TotalClaims,
			ranking.TotalClaims,
			"0",
			ranking.LatestClaimTime,
			now,
		)
	}
	if err := sendChunked(ctx, r.db, batch); err != nil {
		return fmt.Errorf("failed to save claim stats: %w", err)
	}

	netTxQuery := `
		INSERT INTO network_tx_data (network, total_transactions, chain_id, color, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (network)
		DO UPDATE SET
			total_transactions = EXCLUDED.total_transactions,
			chain_id = EXCLUDED.chain_id,
			color = EXCLUDED.color,
			updated_at = EXCLUDED.updated_at
	`
	batch = &pgx.Batch{}
	for _, nt := range snapshot.NetworkTransactions {
		batch.Queue(netTxQuery, nt.Name, nt.TotalTransactions, nt.ChainID, nt.Color, now)
	}
	if err := sendChunked(ctx, r.db, batch); err != nil {
		return fmt.Errorf("failed to save network transaction totals: %w", err)
	}

	metaQuery := `
		INSERT INTO dashboard_meta (
			id, total_claims, total_unique_users, total_faucets, total_transactions, last_updated
		)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id)
		DO UPDATE SET
			total_claims = EXCLUDED.total_claims,
			total_unique_users = EXCLUDED.total_unique_users,
			total_faucets = EXCLUDED.total_faucets,
			total_transactions = EXCLUDED.total_transactions,
			last_updated = EXCLUDED.last_updated
	`
	_, err := r.db.Pool().Exec(ctx, metaQuery,
		snapshot.TotalClaims,
		snapshot.TotalUniqueUsers,
		snapshot.TotalFaucets,
		snapshot.TotalTransactions,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save dashboard meta: %w", err)
	}
	return nil
}

// EvictClaims removes claim rows for the given lowercase addresses. Failures
// are per-address best-effort: the first error is returned after every
// address has been attempted.
func (r *DashboardRepository) EvictClaims(ctx context.Context, addresses []string) error {
	var firstErr error
	for _, addr := range addresses {
		if _, err := r.db.Pool().Exec(ctx, `DELETE FROM claim_data WHERE faucet_address = $1`, addr); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to evict claim row %s: %w", addr, err)
		}
	}
	return firstErr
}

// LoadSnapshot rebuilds the dashboard from the five tables. The meta row's
// scalars win when present and non-zero; otherwise totals are derived by
// summation. (nil, nil) means the store holds no dashboard yet.
func (r *DashboardRepository) LoadSnapshot(ctx context.Context) (*models.DashboardSnapshot, error) {
	var (
		metaFound                                       bool
		totalClaims, totalUsers, totalFaucets, totalTxs int64
		lastUpdated                                     string
	)
	err := r.db.Pool().QueryRow(ctx, `
		SELECT total_claims, total_unique_users, total_faucets, total_transactions, last_updated
		FROM dashboard_meta WHERE id = 1
	`).Scan(&totalClaims, &totalUsers, &totalFaucets, &totalTxs, &lastUpdated)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to load dashboard meta: %w", err)
		}
	} else {
		metaFound = true
	}

	networkFaucets, err := r.loadNetworkFaucets(ctx)
	if err != nil {
		return nil, err
	}
	usersChart, err := r.loadUserSeries(ctx)
	if err != nil {
		return nil, err
	}
	claimRows, err := r.loadClaimRows(ctx)
	if err != nil {
		return nil, err
	}

	if len(claimRows) == 0 && !metaFound {
		return nil, nil
	}

	if totalFaucets == 0 {
		for _, nf := range networkFaucets {
			totalFaucets += nf.Faucets
		}
	}
	if totalUsers == 0 && len(usersChart) > 0 {
		totalUsers = usersChart[len(usersChart)-1].CumulativeUsers
	}
	if totalClaims == 0 {
		for _, row := range claimRows {
			totalClaims += row.TotalClaims
		}
	}

	rankings := make([]models.FaucetRanking, len(claimRows))
	for i, row := range claimRows {
		if row.Rank == 0 {
			row.Rank = i + 1
		}
		rankings[i] = row
	}

	networkTxs, derivedTotal, err := r.loadNetworkTransactions(ctx, claimRows, networkFaucets)
	if err != nil {
		return nil, err
	}
	if totalTxs == 0 {
		totalTxs = derivedTotal
	}

	if lastUpdated == "" {
		lastUpdated = time.Now().UTC().Format(time.RFC3339)
	}

	return &models.DashboardSnapshot{
		TotalClaims:         totalClaims,
		TotalUniqueUsers:    totalUsers,
		TotalFaucets:        totalFaucets,
		TotalTransactions:   totalTxs,
		ClaimsPieData:       buildPie(claimRows),
		FaucetRankings:      rankings,
		UsersChart:          usersChart,
		NetworkTransactions: networkTxs,
		NetworkFaucets:      networkFaucets,
		LastUpdated:         lastUpdated,
	}, nil
}

func (r *DashboardRepository) loadNetworkFaucets(ctx context.Context) ([]models.NetworkFaucets, error) {
	rows, err := r.db.Pool().Query(ctx, `SELECT network, faucets FROM faucet_data ORDER BY network`)
	if err != nil {
		return nil, fmt.Errorf("failed to load faucet counts: %w", err)
	}
	defer rows.Close()

	var out []models.NetworkFaucets
	for rows.Next() {
		var nf models.NetworkFaucets
		if err := rows.Scan(&nf.Network, &nf.Faucets); err != nil {
			return nil, fmt.Errorf("failed to scan faucet count: %w", err)
		}
		out = append(out, nf)
	}
	return out, rows.Err()
}

func (r *DashboardRepository) loadUserSeries(ctx context.Context) ([]models.UserPoint, error) {
	rows, err := r.db.Pool().Query(ctx, `SELECT date, new_users, cumulative_users FROM user_data ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to load user series: %w", err)
	}
	defer rows.Close()

	var out []models.UserPoint
	for rows.Next() {
		var point models.UserPoint
		if err := rows.Scan(&point.Date, &point.NewUsers, &point.CumulativeUsers); err != nil {
			return nil, fmt.Errorf("failed to scan user point: %w", err)
		}
		out = append(out, point)
	}
	return out, rows.Err()
}

func (r *DashboardRepository) loadClaimRows(ctx context.Context) ([]models.FaucetRanking, error) {
	rows, err := r.db.Pool().Query(ctx, `
		SELECT faucet_address, faucet_name, network, chain_id, rank, claims, latest_claim_time
		FROM claim_data
		ORDER BY latest_claim_time DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load claim stats: %w", err)
	}
	defer rows.Close()

	var out []models.FaucetRanking
	for rows.Next() {
		var row models.FaucetRanking
		if err := rows.Scan(
			&row.FaucetAddress,
			&row.FaucetName,
			&row.Network,
			&row.ChainID,
			&row.Rank,
			&row.TotalClaims,
			&row.LatestClaimTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan claim stats: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// loadNetworkTransactions prefers network_tx_data rows and falls back to
// aggregating claim rows per network, zero-filling networks that only appear
// in the faucet counts.
func (r *DashboardRepository) loadNetworkTransactions(ctx context.Context, claimRows []models.FaucetRanking, networkFaucets []models.NetworkFaucets) ([]models.NetworkTransactions, int64, error) {
	rows, err := r.db.Pool().Query(ctx, `SELECT network, total_transactions, chain_id, color FROM network_tx_data ORDER BY network`)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load network transaction totals: %w", err)
	}
	defer rows.Close()

	var (
		out   []models.NetworkTransactions
		total int64
	)
	for rows.Next() {
		var nt models.NetworkTransactions
		if err := rows.Scan(&nt.Name, &nt.TotalTransactions, &nt.ChainID, &nt.Color); err != nil {
			return nil, 0, fmt.Errorf("failed to scan network transaction total: %w", err)
		}
		if nt.Color == "" {
			nt.Color = chains.ColorByName(nt.Name)
		}
		out = append(out, nt)
		total += nt.TotalTransactions
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(out) > 0 {
		return out, total, nil
	}

	byNetwork := make(map[string]int64)
	var order []string
	for _, row := range claimRows {
		if _, ok := byNetwork[row.Network]; !ok {
			order = append(order, row.Network)
		}
		byNetwork[row.Network] += row.TotalClaims
	}
	for _, nf := range networkFaucets {
		if _, ok := byNetwork[nf.Network]; !ok {
			byNetwork[nf.Network] = 0
			order = append(order, nf.Network)
		}
	}
	for _, network := range order {
		out = append(out, models.NetworkTransactions{
			Name:              network,
			ChainID:           chains.ChainIDByName(network),
			TotalTransactions: byNetwork[network],
			Color:             chains.ColorByName(network),
		})
		total += byNetwork[network]
	}
	return out, total, nil
}

// buildPie rebuilds the top-10-plus-Others breakdown from persisted claim
// rows.
func buildPie(claimRows []models.FaucetRanking) []models.PieSlice {
	byClaims := make([]models.FaucetRanking, len(claimRows))
	copy(byClaims, claimRows)
	sort.SliceStable(byClaims, func(i, j int) bool {
		return byClaims[i].TotalClaims > byClaims[j].TotalClaims
	})

	pie := make([]models.PieSlice, 0, 11)
	var othersTotal int64
	for i, row := range byClaims {
		if i < 10 {
			pie = append(pie, models.PieSlice{
				Name:          row.FaucetName,
				Value:         row.TotalClaims,
				FaucetAddress: row.FaucetAddress,
				Network:       row.Network,
			})
			continue
		}
		othersTotal += row.TotalClaims
	}
	if othersTotal > 0 {
		pie = append(pie, models.PieSlice{
			Name:          fmt.Sprintf("Others (%d)", len(byClaims)-10),
			Value:         othersTotal,
			FaucetAddress: "others",
			Network:       "",
		})
	}
	return pie
}

// sendChunked executes the queued batch in chunks so one oversized run never
// produces an unbounded statement burst.
func sendChunked(ctx context.Context, db *PostgresDB, batch *pgx.Batch) error {
	queued := batch.QueuedQueries
	for start := 0; start < len(queued); start += upsertChunkSize {
		end := start + upsertChunkSize
		if end > len(queued) {
			end = len(queued)
		}
		chunk := &pgx.Batch{QueuedQueries: queued[start:end]}
		results := db.Pool().SendBatch(ctx, chunk)
		for i := start; i < end; i++ {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return err
			}
		}
		if err := results.Close(); err != nil {
			return err
		}
	}
	return nil
}
