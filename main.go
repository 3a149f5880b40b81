package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"cryptoJournal/internal/domain"
	"cryptoJournal/internal/httpapi"
	"cryptoJournal/internal/utils"
)

func main() {
	app := cli.NewApp()
	app.Name = "cryptoJournal"
	app.Usage = "Crypto trading journal with performance analytics"

	app.Commands = []cli.Command{
		serveCMD,
		backupCMD,
		createAdminCMD,
		registrationCodeCMD,
		importCMD,
		exportCMD,
		reportCMD,
		leaderboardCMD,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

var userFlag = cli.StringFlag{Name: "user, u", Usage: "username of the trader"}

var (
	serveCMD = cli.Command{
		Name:        "serve",
		Usage:       "run the HTTP API",
		Action:      serveAction,
		Description: `Serve the journal API, the websocket price stream and the daily backup job`,
	}
	backupCMD = cli.Command{
		Name:   "backup",
		Usage:  "write a database backup now",
		Action: backupAction,
	}
	createAdminCMD = cli.Command{
		Name:   "create-admin",
		Usage:  "create an administrator account",
		Action: createAdminAction,
		Flags: []cli.Flag{
			userFlag,
			cli.StringFlag{Name: "password, p", Usage: "password (min 6 characters)"},
		},
	}
	registrationCodeCMD = cli.Command{
		Name:   "registration-code",
		Usage:  "print today's registration code",
		Action: registrationCodeAction,
		Flags: []cli.Flag{
			cli.BoolFlag{Name: "new", Usage: "generate a fresh code, replacing today's"},
		},
	}
	importCMD = cli.Command{
		Name:      "import",
		Usage:     "import trades for a user from CSV",
		ArgsUsage: "<file.csv>",
		Action:    importAction,
		Flags:     []cli.Flag{userFlag},
	}
	exportCMD = cli.Command{
		Name:      "export",
		Usage:     "export the trades of a user to CSV",
		ArgsUsage: "<file.csv>",
		Action:    exportAction,
		Flags:     []cli.Flag{userFlag},
	}
	reportCMD = cli.Command{
		Name:   "report",
		Usage:  "print the performance report of a user",
		Action: reportAction,
		Flags:  []cli.Flag{userFlag},
	}
	leaderboardCMD = cli.Command{
		Name:   "leaderboard",
		Usage:  "print the trader leaderboard",
		Action: leaderboardAction,
		Flags: []cli.Flag{
			cli.IntFlag{Name: "limit, n", Usage: "number of rows (0 uses LEADERBOARD_SIZE)"},
		},
	}
)

func serveAction(_ *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := buildRuntime(ctx, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	metrics, err := httpapi.NewMetrics("journal")
	if err != nil {
		return err
	}
	cfg := httpapi.Config{
		Port:           rt.cfg.ServerPort,
		StreamInterval: rt.cfg.StreamInterval,
		Journal:        rt.journal,
		Auth:           rt.auth,
		Catalog:        rt.catalog,
		Market:         rt.market,
		Metrics:        metrics,
		Logger:         rt.logger,
	}
	if rt.backups != nil {
		cfg.Backups = rt.backups
	}
	server, err := httpapi.NewServer(cfg)
	if err != nil {
		return err
	}

	if rt.backups != nil && rt.cfg.BackupEnabled {
		go func() {
			if err := rt.backups.Run(ctx); err != nil {
				rt.logger.Error(ctx, err, "Backup scheduler exited")
			}
		}()
	} else {
		rt.logger.Info(ctx, "Scheduled backups disabled", map[string]interface{}{"driver": rt.cfg.StorageDriver})
	}

	if err := rt.market.Ping(ctx); err != nil {
		rt.logger.Warn(ctx, "Market data provider unreachable, quotes will fail until it recovers", map[string]interface{}{"error": err.Error()})
	}

	return server.Run(ctx)
}

func backupAction(_ *cli.Context) error {
	ctx := context.Background()
	rt, err := buildRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.backups == nil {
		return fmt.Errorf("backups are only supported with the %q storage driver", "sqlite")
	}
	path, err := rt.backups.CreateBackup(ctx)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func createAdminAction(c *cli.Context) error {
	username, password := c.String("user"), c.String("password")
	if username == "" || password == "" {
		return cli.NewExitError("--user and --password are required", 2)
	}
	ctx := context.Background()
	rt, err := buildRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	user, err := rt.auth.CreateAdmin(ctx, username, password)
	if err != nil {
		return err
	}
	fmt.Printf("Admin %q created (id %d)\n", user.Username, user.ID)
	return nil
}

func registrationCodeAction(c *cli.Context) error {
	ctx := context.Background()
	rt, err := buildRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	var code string
	if c.Bool("new") {
		code, err = rt.auth.GenerateRegistrationCode(ctx)
	} else {
		code, err = rt.auth.CurrentRegistrationCode(ctx)
	}
	if err != nil {
		return err
	}
	fmt.Println(code)
	return nil
}

// lookupUser resolves --user into an account.
func (rt *runtime) lookupUser(ctx context.Context, username string) (*domain.User, error) {
	if username == "" {
		return nil, cli.NewExitError("--user is required", 2)
	}
	user, err := rt.store.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %q does not exist", username)
	}
	return user, nil
}

func importAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("expected exactly one CSV file", 2)
	}
	ctx := context.Background()
	rt, err := buildRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	user, err := rt.lookupUser(ctx, c.String("user"))
	if err != nil {
		return err
	}
	trades, parseErr := utils.ReadTradesFromCSV(c.Args().First())
	if parseErr != nil && len(trades) == 0 {
		return parseErr
	}
	imported, err := rt.journal.ImportTrades(ctx, user, trades)
	fmt.Printf("Imported %d of %d trades for %s\n", imported, len(trades), user.Username)
	if joined := errors.Join(parseErr, err); joined != nil {
		for _, line := range strings.Split(joined.Error(), "\n") {
			fmt.Fprintln(os.Stderr, "  skipped:", line)
		}
	}
	return nil
}

func exportAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("expected exactly one CSV file", 2)
	}
	ctx := context.Background()
	rt, err := buildRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	user, err := rt.lookupUser(ctx, c.String("user"))
	if err != nil {
		return err
	}
	trades, err := rt.journal.ListTrades(ctx, user.ID)
	if err != nil {
		return err
	}
	if err := utils.WriteTradesToCSV(trades, c.Args().First()); err != nil {
		return err
	}
	fmt.Printf("Exported %d trades to %s\n", len(trades), c.Args().First())
	return nil
}

func reportAction(c *cli.Context) error {
	ctx := context.Background()
	rt, err := buildRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	user, err := rt.lookupUser(ctx, c.String("user"))
	if err != nil {
		return err
	}
	dash, err := rt.journal.Dashboard(ctx, user.ID)
	if err != nil {
		return err
	}
	m := dash.Metrics

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Trader\t%s (level %d, %d trades to next)\n", user.Username, dash.Level, dash.TradesToNextLevel)
	fmt.Fprintf(w, "Trades\t%d completed, %d active, %d skipped\n", m.CompletedTrades, m.ActiveTrades, m.Skipped)
	fmt.Fprintf(w, "Total P&L\t%.2f\n", m.TotalPNL)
	fmt.Fprintf(w, "Win rate\t%.2f%%\n", m.WinRate*100)
	fmt.Fprintf(w, "Average P&L\t%.2f\n", m.AveragePNL)
	fmt.Fprintf(w, "Avg win / loss\t%.2f / %.2f\n", m.AverageWin, m.AverageLoss)
	fmt.Fprintf(w, "Profit factor\t%.2f\n", m.ProfitFactor)
	fmt.Fprintf(w, "Sharpe (per trade)\t%.3f\n", m.SharpeRatio)
	fmt.Fprintf(w, "Max drawdown\t%.2f\n", dash.MaxDrawdown)
	fmt.Fprintf(w, "Avg duration\t%s\n", m.AverageTradeDuration.Round(time.Minute))
	if err := w.Flush(); err != nil {
		return err
	}

	if len(dash.Breakdown.ByStrategy) > 0 {
		fmt.Println("\n## By strategy")
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "Strategy\tTrades\tWinRate\tP&L\t")
		for _, g := range dash.Breakdown.ByStrategy {
			fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t\n", g.Key, g.Trades, g.WinRate*100, g.TotalPNL)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func leaderboardAction(c *cli.Context) error {
	ctx := context.Background()
	rt, err := buildRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	rows, err := rt.journal.Leaderboard(ctx, c.Int("limit"))
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Rank\tTrader\tLevel\tTrades\tWinRate\t")
	for _, row := range rows {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%.2f\t\n", row.Rank, row.Username, row.Level, row.TotalTrades, row.WinRate*100)
	}
	return w.Flush()
}
