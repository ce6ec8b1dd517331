package models

// PieSlice is one entry of the top-10-plus-Others claims breakdown.
// The Others bucket uses FaucetAddress "others" and an empty network.
type PieSlice struct {
	Name          string `json:"name"`
	Value         int64  `json:"value"`
	FaucetAddress string `json:"faucetAddress"`
	Network       string `json:"network"`
}

// FaucetRanking is one row of the full faucet ranking, ordered by most
// recent claim time descending.
type FaucetRanking struct {
	Rank            int    `json:"rank"`
	FaucetAddress   string `json:"faucetAddress"`
	FaucetName      string `json:"faucetName"`
	Network         string `json:"network"`
	ChainID         int64  `json:"chainId"`
	TotalClaims     int64  `json:"totalClaims"`
	LatestClaimTime int64  `json:"latestClaimTime"`
}

// UserPoint is one day of the new/cumulative user series.
type UserPoint struct {
	Date            string `json:"date"`
	NewUsers        int64  `json:"newUsers"`
	CumulativeUsers int64  `json:"cumulativeUsers"`
}

// NetworkTransactions is the per-network transaction total. It includes
// transactions attributable to since-deleted faucets.
type NetworkTransactions struct {
	Name              string `json:"name"`
	ChainID           int64  `json:"chainId"`
	TotalTransactions int64  `json:"totalTransactions"`
	Color             string `json:"color"`
}

// NetworkFaucets is the per-network count of non-deleted faucets.
type NetworkFaucets struct {
	Network string `json:"network"`
	Faucets int64  `json:"faucets"`
}

// DashboardSnapshot is the complete denormalized dashboard produced by one
// accumulator run. It is the sole unit persisted as the dashboard read model
// and the sole unit held by the in-memory fallback cache.
type DashboardSnapshot struct {
	TotalClaims         int64                 `json:"total_claims"`
	TotalUniqueUsers    int64                 `json:"total_unique_users"`
	TotalFaucets        int64                 `json:"total_faucets"`
	TotalTransactions   int64                 `json:"total_transactions"`
	ClaimsPieData       []PieSlice            `json:"claims_pie_data"`
	FaucetRankings      []FaucetRanking       `json:"faucet_rankings"`
	UsersChart          []UserPoint           `json:"users_chart"`
	NetworkTransactions []NetworkTransactions `json:"network_transactions"`
	NetworkFaucets      []NetworkFaucets      `json:"network_faucets"`
	LastUpdated         string                `json:"last_updated"`
}

// EmptySnapshot returns a zero-valued snapshot with non-nil slices so the
// JSON payload always carries arrays rather than nulls.
func EmptySnapshot() *DashboardSnapshot {
	return &DashboardSnapshot{
		ClaimsPieData:       []PieSlice{},
		FaucetRankings:      []FaucetRanking{},
		UsersChart:          []UserPoint{},
		NetworkTransactions: []NetworkTransactions{},
		NetworkFaucets:      []NetworkFaucets{},
	}
}
