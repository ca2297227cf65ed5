package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RonShih/onchainfund-platform/internal/config"
	"github.com/RonShih/onchainfund-platform/internal/model"
	"github.com/RonShih/onchainfund-platform/internal/storage"
	"github.com/RonShih/onchainfund-platform/internal/storage/postgres"
	"github.com/RonShih/onchainfund-platform/internal/vault"
)

func newFundsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "funds",
		Short: "Work with the fund registry",
	}

	discoverCmd := &cobra.Command{
		Use:   "discover",
		Short: "Scan recent factory events and record the funds found",
		RunE:  runFundsDiscover,
	}
	discoverCmd.Flags().Uint64("discover-window", 10000, "trailing block window to scan (0 scans from genesis)")
	discoverCmd.Flags().String("funds-out", "./data/funds.jsonl", "output JSONL path")
	discoverCmd.Flags().String("pg-dsn", "", "Postgres DSN for the fund registry")
	cmd.AddCommand(discoverCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List funds recorded in the Postgres registry",
		RunE:  runFundsList,
	}
	listCmd.Flags().String("pg-dsn", "", "Postgres DSN for the fund registry")
	listCmd.Flags().Int("limit", 100, "maximum number of funds to list")
	cmd.AddCommand(listCmd)

	return cmd
}

func runFundsDiscover(cmd *cobra.Command, _ []string) error {
	ctx, stop := rootContext()
	defer stop()

	a, err := bootstrap(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	factory, err := config.Address(a.cfg.FactoryAddress, "factory")
	if err != nil {
		return err
	}

	backend := a.manager.Backend()
	discoverer := vault.NewDiscoverer(backend, backend, factory, a.cfg.ChainID, a.logger)

	records, err := discoverer.Discover(ctx, a.cfg.DiscoverWindow)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No funds created in the scanned window.")
		return nil
	}

	sinks := []storage.Storage{storage.NewJsonlStorage(a.cfg.FundsOut)}
	if a.cfg.PostgresDSN != "" {
		store, err := postgres.NewStore(ctx, a.cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store)
	}
	for _, sink := range sinks {
		if err := sink.PutFundBatch(records); err != nil {
			return err
		}
	}

	fmt.Printf("Found %d fund(s):\n", len(records))
	fmt.Print(formatFundRecords(records))
	a.logger.Info("fund registry updated",
		zap.Int("funds", len(records)),
		zap.String("out", a.cfg.FundsOut),
		zap.Bool("postgres", a.cfg.PostgresDSN != ""))
	return nil
}

// runFundsList reads the registry only; it needs neither the RPC
// backend nor an unlocked wallet.
func runFundsList(cmd *cobra.Command, _ []string) error {
	ctx, stop := rootContext()
	defer stop()

	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("pg-dsn is required to read the fund registry")
	}

	store, err := postgres.NewStore(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	records, err := store.ListFunds(ctx, cfg.ChainID, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("The registry holds no funds for this chain.")
		return nil
	}
	fmt.Printf("%d registered fund(s):\n", len(records))
	fmt.Print(formatFundRecords(records))
	return nil
}

func formatFundRecords(records []model.FundRecord) string {
	var b strings.Builder
	for _, record := range records {
		name := record.Name
		if name == "" {
			name = "(unreadable)"
		}
		fmt.Fprintf(&b, "  %-24s %-8s %s  block %s\n",
			name, record.Symbol, record.VaultAddress, humanize.Comma(int64(record.BlockNumber)))
	}
	return b.String()
}
