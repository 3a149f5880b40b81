package analytics

const (
	// MaxLevel is the highest experience level a trader can reach.
	MaxLevel = 10
	// TradesPerLevel is the number of completed trades needed per level.
	TradesPerLevel = 10
)

// ComputeLevel maps a completed-trade count to an experience level: min(10, n/10 + 1).
func ComputeLevel(completedTrades int) int {
	if completedTrades < 0 {
		completedTrades = 0
	}
	level := completedTrades/TradesPerLevel + 1
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// TradesToNextLevel returns how many more completed trades are needed to level up; 0 at MaxLevel.
func TradesToNextLevel(completedTrades int) int {
	level := ComputeLevel(completedTrades)
	if level >= MaxLevel {
		return 0
	}
	if completedTrades < 0 {
		completedTrades = 0
	}
	return level*TradesPerLevel - completedTrades
}
