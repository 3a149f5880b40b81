package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"cryptoJournal/config"
	"cryptoJournal/internal/adapters/binanceclient"
	"cryptoJournal/internal/adapters/logger"
	"cryptoJournal/internal/indicators"
	"cryptoJournal/internal/utils"
)

func main() {
	app := cli.NewApp()
	app.Name = "fetch_klines"
	app.Usage = "Download candles for a pair, save them as CSV and print the technical analysis"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "symbol, s", Value: "BTC/USDT"},
		cli.StringFlag{Name: "interval, i", Value: "1d"},
		cli.IntFlag{Name: "limit, n", Value: 200, Usage: "number of candles (max 1000)"},
		cli.StringFlag{Name: "out, o", Usage: "CSV path (default data/<symbol>_<interval>_<date>.csv)"},
	}
	app.Action = fetchAction

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Error("Fetch failed")
		os.Exit(1)
	}
}

func fetchAction(c *cli.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	// 3. Initialize Market Data Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Binance client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	symbol := binanceclient.NormalizeSymbol(c.String("symbol"))
	interval := c.String("interval")
	klines, err := binanceClient.GetKlines(ctx, symbol, interval, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("error fetching klines: %w", err)
	}
	appLogger.Info(ctx, "Fetched klines", map[string]interface{}{"symbol": symbol, "interval": interval, "count": len(klines)})

	filename := c.String("out")
	if filename == "" {
		filename = fmt.Sprintf("data/%s_%s_%s.csv", symbol, interval, time.Now().Format("20060102"))
	}
	if err := utils.WriteKlinesToCSV(klines, filename); err != nil {
		return fmt.Errorf("error writing CSV: %w", err)
	}
	appLogger.Info(ctx, "Saved to", map[string]interface{}{"filename": filename})

	analysis, err := indicators.Analyze(ctx, klines)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s close %.4f trend %s\n", symbol, interval, analysis.LastClose, analysis.Trend)
	printOptional("SMA20", analysis.SMA20)
	printOptional("SMA50", analysis.SMA50)
	printOptional("EMA20", analysis.EMA20)
	printOptional("RSI14", analysis.RSI14)
	printOptional("ATR14", analysis.ATR14)
	if b := analysis.Bollinger; b != nil {
		fmt.Printf("  %-6s %.4f / %.4f / %.4f\n", "BB20", b.Lower, b.Middle, b.Upper)
	}
	if m := analysis.MACD; m != nil {
		fmt.Printf("  %-6s %.4f signal %.4f hist %.4f\n", "MACD", m.MACD, m.Signal, m.Histogram)
	}
	return nil
}

func printOptional(name string, v *float64) {
	if v == nil {
		fmt.Printf("  %-6s n/a (not enough candles)\n", name)
		return
	}
	fmt.Printf("  %-6s %.4f\n", name, *v)
}
