// Package stats folds per-chain, per-factory and per-faucet observations
// into the denormalized dashboard snapshot. Networks are processed
// sequentially in configuration order; all accumulation happens in
// run-local maps, so one run never shares state with another.
package stats

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/faucet-analytics/internal/chains"
	"github.com/faucet-analytics/internal/connector"
	"github.com/faucet-analytics/internal/detail"
	"github.com/faucet-analytics/internal/logging"
	"github.com/faucet-analytics/internal/models"
	"github.com/faucet-analytics/internal/probe"
)

// EndpointResolver resolves a candidate URL list to a live RPC caller.
// *connector.Resolver satisfies it through resolverAdapter in cmd wiring;
// tests substitute fakes.
type EndpointResolver interface {
	Resolve(ctx context.Context, urls []string) (probe.Caller, error)
}

// DeletedSetProvider fetches the external deleted-address set.
// *backend.Client satisfies it.
type DeletedSetProvider interface {
	DeletedFaucets(ctx context.Context) map[string]struct{}
}

// Accumulator runs the statistics pipeline over the configured networks.
type Accumulator struct {
	networks []chains.Network
	rpcURLs  func(chains.Network) []string
	resolver EndpointResolver
	deleted  DeletedSetProvider
}

// NewAccumulator creates an accumulator over the given networks. rpcURLs
// maps a network to its candidate endpoint list (usually config.RPCURLs).
func NewAccumulator(networks []chains.Network, rpcURLs func(chains.Network) []string, resolver EndpointResolver, deleted DeletedSetProvider) *Accumulator {
	return &Accumulator{
		networks: networks,
		rpcURLs:  rpcURLs,
		resolver: resolver,
		deleted:  deleted,
	}
}

// faucetStat accumulates one faucet's observations for a single run. The
// caller handle is retained for the same-run follow-up name and check-in
// reads.
type faucetStat struct {
	claims     int64
	latest     int64
	checkinTxs int64
	name       string
	network    string
	chainID    int64
	caller     probe.Caller
	checksum   common.Address
}

// claimRecord is the slice of a claim transaction the post-loop aggregation
// needs.
type claimRecord struct {
	claimer   string
	timestamp int64
}

// Run executes one full accumulation pass and returns the snapshot. It never
// fails outright: unreachable networks are recorded as zero activity.
func (a *Accumulator) Run(ctx context.Context) *models.DashboardSnapshot {
	logger := logging.FromContext(ctx)

	// Deleted faucets are excluded from faucet counts and claim stats, but
	// their historical transactions still count toward the tx totals.
	deleted := a.deleted.DeletedFaucets(ctx)
	logger.WithField("deleted", len(deleted)).Info("Fetched deleted faucet set")

	var (
		allClaims      []claimRecord
		totalTxs       int64
		networkTxs     []models.NetworkTransactions
		networkFaucets []models.NetworkFaucets
		uniqueUsers    = make(map[string]struct{})
		faucetStats    = make(map[string]*faucetStat)
		order          []string // encounter order keeps sorts deterministic
	)

	register := func(lower string, checksum common.Address, network chains.Network, caller probe.Caller) *faucetStat {
		if st, ok := faucetStats[lower]; ok {
			return st
		}
		st := &faucetStat{
			network:  network.Name,
			chainID:  network.ChainID,
			caller:   caller,
			checksum: checksum,
		}
		faucetStats[lower] = st
		order = append(order, lower)
		return st
	}

	for _, network := range a.networks {
		netLogger := logger.WithField("network", network.Name)

		client, err := a.resolver.Resolve(ctx, a.rpcURLs(network))
		if err != nil {
			netLogger.WithError(err).Warn("All RPC endpoints failed, recording zero activity")
			networkTxs = append(networkTxs, models.NetworkTransactions{
				Name: network.Name, ChainID: network.ChainID, TotalTransactions: 0, Color: network.Color,
			})
			networkFaucets = append(networkFaucets, models.NetworkFaucets{Network: network.Name, Faucets: 0})
			continue
		}

		var (
			chainTxs         int64
			chainFaucetCount int64
			chainClaims      []probe.FactoryTransaction
		)

		for _, factory := range network.Factories {
			if connector.IsPlaceholder(factory.Address) {
				continue
			}
			factoryAddr, ok := connector.SafeChecksum(factory.Address)
			if !ok {
				continue
			}

			cls := probe.Classify(ctx, client, factoryAddr)
			switch cls.Kind {
			case probe.KindFactory, probe.KindQuest:
				// All transactions count, including those of deleted faucets.
				chainTxs += int64(len(cls.Transactions))
				for i := range cls.Transactions {
					if cls.Transactions[i].IsClaim() {
						chainClaims = append(chainClaims, cls.Transactions[i])
					}
				}
				for _, faucet := range cls.Faucets {
					lower := strings.ToLower(faucet.Hex())
					if _, del := deleted[lower]; del {
						continue
					}
					chainFaucetCount++
					register(lower, faucet, network, client)
				}

			case probe.KindCheckin:
				// Check-in transactions always count toward the network total;
				// the contract registers as a faucet only when not deleted.
				chainTxs += cls.CheckinTxs
				lower := strings.ToLower(factoryAddr.Hex())
				if _, del := deleted[lower]; !del {
					chainFaucetCount++
					for _, p := range cls.Participants {
						uniqueUsers[p] = struct{}{}
					}
					st := register(lower, factoryAddr, network, client)
					st.checkinTxs = cls.CheckinTxs
				}

			default:
				netLogger.WithField("address", factoryAddr.Hex()).Warn("Contract implements no known interface, skipping")
			}
		}

		// Claim pass: deleted faucets keep their tx counts (added above) but
		// contribute no claims and no users.
		for i := range chainClaims {
			tx := &chainClaims[i]
			lower := strings.ToLower(tx.FaucetAddress.Hex())
			if _, del := deleted[lower]; del {
				continue
			}
			claimer := strings.ToLower(tx.Initiator.Hex())
			uniqueUsers[claimer] = struct{}{}

			ts := tx.Timestamp.Int64()
			allClaims = append(allClaims, claimRecord{claimer: claimer, timestamp: ts})

			st := register(lower, tx.FaucetAddress, network, client)
			st.claims++
			if ts > st.latest {
				st.latest = ts
			}
		}

		// Check-in fallback: a faucet discovered via a factory listing may
		// itself be a check-in contract with no claims yet.
		for _, lower := range order {
			st := faucetStats[lower]
			if st.chainID != network.ChainID || st.claims > 0 || st.checkinTxs > 0 {
				continue
			}
			count, participants := probe.TryCheckin(ctx, st.caller, st.checksum)
			if count > 0 {
				st.checkinTxs = count
				chainTxs += count
				for _, p := range participants {
					uniqueUsers[p] = struct{}{}
				}
			}
		}

		totalTxs += chainTxs
		networkTxs = append(networkTxs, models.NetworkTransactions{
			Name: network.Name, ChainID: network.ChainID, TotalTransactions: chainTxs, Color: network.Color,
		})
		networkFaucets = append(networkFaucets, models.NetworkFaucets{Network: network.Name, Faucets: chainFaucetCount})
		netLogger.WithFields(map[string]interface{}{
			"transactions": chainTxs,
			"faucets":      chainFaucetCount,
		}).Info("Network accumulated")
	}

	for _, lower := range order {
		st := faucetStats[lower]
		st.name = detail.FetchName(ctx, st.caller, st.checksum)
	}

	snapshot := assemble(allClaims, uniqueUsers, faucetStats, order, networkTxs, networkFaucets, totalTxs)
	logger.WithFields(map[string]interface{}{
		"claims":       snapshot.TotalClaims,
		"users":        snapshot.TotalUniqueUsers,
		"faucets":      snapshot.TotalFaucets,
		"transactions": snapshot.TotalTransactions,
	}).Info("Accumulation complete")
	return snapshot
}

// assemble builds the final snapshot from the run-local accumulators.
func assemble(
	allClaims []claimRecord,
	uniqueUsers map[string]struct{},
	faucetStats map[string]*faucetStat,
	order []string,
	networkTxs []models.NetworkTransactions,
	networkFaucets []models.NetworkFaucets,
	totalTxs int64,
) *models.DashboardSnapshot {
	// New-user series: a user's first-claim date is the earliest day they
	// appear in the claims list.
	firstClaim := make(map[string]string)
	for _, claim := range allClaims {
		date := time.Unix(claim.timestamp, 0).UTC().Format("2006-01-02")
		if prev, ok := firstClaim[claim.claimer]; !ok || date < prev {
			firstClaim[claim.claimer] = date
		}
	}
	newUsersByDate := make(map[string]int64)
	for _, date := range firstClaim {
		newUsersByDate[date]++
	}
	dates := make([]string, 0, len(newUsersByDate))
	for date := range newUsersByDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	usersChart := make([]models.UserPoint, 0, len(dates))
	var cumulative int64
	for _, date := range dates {
		cumulative += newUsersByDate[date]
		usersChart = append(usersChart, models.UserPoint{
			Date:            date,
			NewUsers:        newUsersByDate[date],
			CumulativeUsers: cumulative,
		})
	}

	// Rankings: most recent claim first; ties keep encounter order.
	byLatest := make([]string, len(order))
	copy(byLatest, order)
	sort.SliceStable(byLatest, func(i, j int) bool {
		return faucetStats[byLatest[i]].latest > faucetStats[byLatest[j]].latest
	})
	rankings := make([]models.FaucetRanking, 0, len(byLatest))
	for i, lower := range byLatest {
		st := faucetStats[lower]
		rankings = append(rankings, models.FaucetRanking{
			Rank:            i + 1,
			FaucetAddress:   lower,
			FaucetName:      st.name,
			Network:         st.network,
			ChainID:         st.chainID,
			TotalClaims:     st.claims,
			LatestClaimTime: st.latest,
		})
	}

	// Pie: top 10 by claim count plus a folded Others bucket, omitted when
	// the remainder has no claims.
	byClaims := make([]string, len(order))
	copy(byClaims, order)
	sort.SliceStable(byClaims, func(i, j int) bool {
		return faucetStats[byClaims[i]].claims > faucetStats[byClaims[j]].claims
	})
	pie := make([]models.PieSlice, 0, 11)
	var othersTotal int64
	for i, lower := range byClaims {
		st := faucetStats[lower]
		if i < 10 {
			pie = append(pie, models.PieSlice{
				Name:          st.name,
				Value:         st.claims,
				FaucetAddress: lower,
				Network:       st.network,
			})
			continue
		}
		othersTotal += st.claims
	}
	if othersTotal > 0 {
		pie = append(pie, models.PieSlice{
			Name:          "Others (" + strconv.Itoa(len(byClaims)-10) + ")",
			Value:         othersTotal,
			FaucetAddress: "others",
			Network:       "",
		})
	}

	var totalFaucets int64
	for _, nf := range networkFaucets {
		totalFaucets += nf.Faucets
	}

	return &models.DashboardSnapshot{
		TotalClaims:         int64(len(allClaims)),
		TotalUniqueUsers:    int64(len(uniqueUsers)),
		TotalFaucets:        totalFaucets,
		TotalTransactions:   totalTxs,
		ClaimsPieData:       pie,
		FaucetRankings:      rankings,
		UsersChart:          usersChart,
		NetworkTransactions: networkTxs,
		NetworkFaucets:      networkFaucets,
		LastUpdated:         time.Now().UTC().Format(time.RFC3339),
	}
}
