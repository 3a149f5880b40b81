package analytics

import "sort"

// LeaderboardEntry is the pre-aggregated input for one trader.
type LeaderboardEntry struct {
	Owner         int64
	Username      string
	Level         int
	TotalTrades   int // Completed trades
	WinningTrades int // Completed trades with strictly positive P&L
}

// LeaderboardRow is one ranked trader.
type LeaderboardRow struct {
	Rank          int     `json:"rank"`
	Owner         int64   `json:"userId"`
	Username      string  `json:"username"`
	Level         int     `json:"level"`
	WinRate       float64 `json:"winRate"`
	TotalTrades   int     `json:"totalTrades"`
	WinningTrades int     `json:"winningTrades"`
}

// RankTraders orders traders by win rate descending and returns at most topN rows (topN <= 0 means all).
// Traders without completed trades, or with more wins than trades, are not ranked.
// Ties are broken by completed-trade count descending, then by owner ID ascending.
func RankTraders(entries []LeaderboardEntry, topN int) []LeaderboardRow {
	ranked := make([]LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		if e.TotalTrades <= 0 || e.WinningTrades < 0 || e.WinningTrades > e.TotalTrades {
			continue
		}
		ranked = append(ranked, e)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		// a.win/a.total vs b.win/b.total without floating point ties
		left := int64(a.WinningTrades) * int64(b.TotalTrades)
		right := int64(b.WinningTrades) * int64(a.TotalTrades)
		if left != right {
			return left > right
		}
		if a.TotalTrades != b.TotalTrades {
			return a.TotalTrades > b.TotalTrades
		}
		return a.Owner < b.Owner
	})

	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}

	rows := make([]LeaderboardRow, 0, len(ranked))
	for i, e := range ranked {
		rows = append(rows, LeaderboardRow{
			Rank:          i + 1,
			Owner:         e.Owner,
			Username:      e.Username,
			Level:         e.Level,
			WinRate:       float64(e.WinningTrades) / float64(e.TotalTrades),
			TotalTrades:   e.TotalTrades,
			WinningTrades: e.WinningTrades,
		})
	}
	return rows
}
