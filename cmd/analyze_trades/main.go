package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"cryptoJournal/internal/analytics"
	"cryptoJournal/internal/domain"
	"cryptoJournal/internal/utils"
)

func main() {
	app := cli.NewApp()
	app.Name = "analyze_trades"
	app.Usage = "Compare performance across exported trade CSV files"
	app.ArgsUsage = "[file.csv ...]"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "dir", Value: "data", Usage: "directory scanned when no files are given"},
		cli.StringFlag{Name: "prefix", Value: "trades", Usage: "file name prefix used with --dir"},
		cli.Float64Flag{Name: "risk", Value: analytics.DefaultRiskPercent, Usage: "risk percent for risk/reward"},
	}
	app.Action = analyzeAction

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Error("Analysis failed")
		os.Exit(1)
	}
}

func analyzeAction(c *cli.Context) error {
	files := []string(c.Args())
	if len(files) == 0 {
		var err error
		files, err = findTradeFiles(c.String("dir"), c.String("prefix"))
		if err != nil {
			return fmt.Errorf("error finding trade files: %w", err)
		}
	}
	if len(files) == 0 {
		logrus.Info("No trade files found. Export some with `cryptoJournal export` first.")
		return nil
	}

	evaluator, err := analytics.NewEvaluator(c.Float64("risk"))
	if err != nil {
		return err
	}

	loaded := make(map[string][]*domain.Trade, len(files))
	for _, file := range files {
		trades, err := utils.ReadTradesFromCSV(file)
		if err != nil {
			logrus.WithError(err).WithField("file", file).Warn("Some rows could not be read")
		}
		loaded[file] = trades
	}

	if err := writeSummary(os.Stdout, evaluator, files, loaded); err != nil {
		return err
	}

	fmt.Println("\n## Strategy Breakdown")
	for _, file := range files {
		if err := writeBreakdown(os.Stdout, evaluator, file, loaded[file]); err != nil {
			return err
		}
	}
	return nil
}

// writeSummary prints one row of portfolio metrics per file.
func writeSummary(out io.Writer, evaluator *analytics.Evaluator, files []string, loaded map[string][]*domain.Trade) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "File\tTrades\tWinRate\tAvgWin\tAvgLoss\tTotalPnL\tMaxDD\tSharpe\tSkipped\t")

	for _, file := range files {
		trades := loaded[file]
		// Invalid rows are counted in Skipped; the metrics are still usable.
		stats, _ := evaluator.Aggregate(trades)
		maxDD, _ := evaluator.MaxDrawdown(sortByCloseTime(trades))

		fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.3f\t%d\t\n",
			filepath.Base(file),
			stats.CompletedTrades,
			stats.WinRate*100,
			stats.AverageWin,
			stats.AverageLoss,
			stats.TotalPNL,
			maxDD,
			stats.SharpeRatio,
			stats.Skipped,
		)
	}
	return w.Flush()
}

func writeBreakdown(out io.Writer, evaluator *analytics.Evaluator, file string, trades []*domain.Trade) error {
	breakdown, _ := evaluator.Breakdown(trades)
	fmt.Fprintf(out, "\nFile: %s\n", filepath.Base(file))
	if breakdown == nil || len(breakdown.ByStrategy) == 0 {
		fmt.Fprintln(out, "No trades")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Strategy\tCount\tCompleted\tWinRate\tTotal PnL\tAvg PnL")
	for _, g := range breakdown.ByStrategy {
		avg := 0.0
		if g.CompletedTrades > 0 {
			avg = g.TotalPNL / float64(g.CompletedTrades)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\t%.2f\t%.2f\n", g.Key, g.Trades, g.CompletedTrades, g.WinRate*100, g.TotalPNL, avg)
	}
	return w.Flush()
}

// findTradeFiles finds all CSV files in dir starting with prefix, sorted by name.
func findTradeFiles(dir, prefix string) ([]string, error) {
	var files []string

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) && strings.HasSuffix(entry.Name(), ".csv") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	return files, nil
}

// sortByCloseTime orders completed trades by exit time so the drawdown follows realized P&L.
func sortByCloseTime(trades []*domain.Trade) []*domain.Trade {
	out := make([]*domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t.CloseTime != nil {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CloseTime.Before(*out[j].CloseTime) })
	return out
}
