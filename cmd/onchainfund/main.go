package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/RonShih/onchainfund-platform/internal/config"
	"github.com/RonShih/onchainfund-platform/internal/contracts"
	"github.com/RonShih/onchainfund-platform/internal/model"
	"github.com/RonShih/onchainfund-platform/internal/wallet"
)

func main() {
	root := &cobra.Command{
		Use:          "onchainfund",
		Short:        "On-chain fund platform CLI",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("rpc", "", "Ethereum RPC URL")
	root.PersistentFlags().Uint64("chain-id", contracts.SepoliaChainID, "expected chain id")
	root.PersistentFlags().String("keystore", "./keystore", "keystore directory")
	root.PersistentFlags().String("passphrase", "", "keystore passphrase")
	root.PersistentFlags().String("passphrase-file", "", "file holding the keystore passphrase")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newConnectCmd())
	root.AddCommand(newCreateCmd())
	root.AddCommand(newVaultCmd())
	root.AddCommand(newSwapCmd())
	root.AddCommand(newFundsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles everything a subcommand needs after bootstrap.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	manager *wallet.Manager
	session *model.Session
}

func (a *app) close() {
	if a.manager != nil {
		a.manager.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// bootstrap loads config, builds the logger, opens the keystore wallet,
// and establishes the session. When connect is false the session is
// resumed silently and may be nil.
func bootstrap(ctx context.Context, cmd *cobra.Command, connect bool) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}

	provider, err := wallet.NewKeystoreProvider(ctx, cfg.KeystoreDir, cfg.Passphrase, cfg.Network(), logger)
	if err != nil {
		return nil, fmt.Errorf("open keystore: %w", err)
	}
	manager := wallet.NewManager(provider, cfg.Network(), logger)

	a := &app{cfg: cfg, logger: logger, manager: manager}
	if connect {
		a.session, err = manager.Connect(ctx)
		if err != nil {
			manager.Close()
			return nil, err
		}
	} else {
		a.session, err = manager.Resume(ctx)
		if err != nil {
			manager.Close()
			return nil, err
		}
	}
	return a, nil
}

func rootContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// parseUnits converts a human amount like "1.5" into the asset's
// smallest unit.
func parseUnits(amount string, decimals int32) (*big.Int, error) {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("malformed amount %q: %w", amount, err)
	}
	if value.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be greater than zero")
	}
	return value.Shift(decimals).Truncate(0).BigInt(), nil
}

// formatUnits renders a smallest-unit amount as a human figure.
func formatUnits(raw *big.Int, decimals int32) string {
	if raw == nil {
		return "0"
	}
	return decimal.NewFromBigInt(raw, -decimals).String()
}
