package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RonShih/onchainfund-platform/internal/config"
	"github.com/RonShih/onchainfund-platform/internal/contracts"
	"github.com/RonShih/onchainfund-platform/internal/model"
	"github.com/RonShih/onchainfund-platform/internal/swap"
	"github.com/RonShih/onchainfund-platform/internal/vault"
)

func newVaultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Inspect and transact with a vault",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "info <vault-address>",
		Short: "Show a vault snapshot and your position in it",
		Args:  cobra.ExactArgs(1),
		RunE:  runVaultInfo,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "approve <vault-address> <amount>",
		Short: "Grant the vault an allowance of the denomination asset",
		Args:  cobra.ExactArgs(2),
		RunE:  runVaultApprove,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "deposit <vault-address> <amount>",
		Short: "Buy vault shares with the denomination asset",
		Args:  cobra.ExactArgs(2),
		RunE:  runVaultDeposit,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "redeem <vault-address> <shares>",
		Short: "Redeem vault shares in kind",
		Args:  cobra.ExactArgs(2),
		RunE:  runVaultRedeem,
	})

	return cmd
}

func newVaultAggregator(a *app) (*vault.Aggregator, error) {
	backend := a.manager.Backend()
	pool, err := config.Address(a.cfg.PoolAddress, "pool")
	if err != nil {
		return nil, err
	}
	quoter := swap.NewQuoter(backend, pool, contracts.ASVTAddress, 18, 18, a.logger)
	enricher := vault.NewPoolEnricher(backend, quoter, contracts.ASVTAddress, contracts.WETHAddress, a.logger)
	return vault.NewAggregator(backend, enricher, a.logger), nil
}

func (a *app) fetchVault(ctx context.Context, vaultHex string) (*model.VaultInfo, error) {
	agg, err := newVaultAggregator(a)
	if err != nil {
		return nil, err
	}
	info, err := agg.Fetch(ctx, vaultHex, a.session.Account)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("malformed vault address %q", vaultHex)
	}
	return info, nil
}

// refreshVaultView re-fetches and reprints the snapshot after a
// mutating transaction so the displayed balances and allowances never
// go stale. A failed refresh only warns; the transaction already
// succeeded.
func refreshVaultView(ctx context.Context, fetch func(context.Context, string) (*model.VaultInfo, error), logger *zap.Logger, vaultHex string) {
	if logger == nil {
		logger = zap.NewNop()
	}
	updated, err := fetch(ctx, vaultHex)
	if err != nil {
		logger.Warn("post-transaction refresh failed", zap.Error(err))
		return
	}
	printVaultInfo(updated)
}

func runVaultInfo(cmd *cobra.Command, args []string) error {
	ctx, stop := rootContext()
	defer stop()

	a, err := bootstrap(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	info, err := a.fetchVault(ctx, args[0])
	if err != nil {
		return err
	}
	printVaultInfo(info)
	return nil
}

func printVaultInfo(info *model.VaultInfo) {
	denomDecimals := int32(info.DenominationAsset.Decimals)

	fmt.Printf("%s (%s)\n", info.Name, info.Symbol)
	fmt.Printf("  Vault:        %s\n", contracts.ExplorerAddressURL(info.VaultAddress))
	fmt.Printf("  Comptroller:  %s\n", info.ComptrollerAddress.Hex())
	fmt.Printf("  Denomination: %s (%s)\n", info.DenominationAsset.Symbol, info.DenominationAsset.Address.Hex())
	fmt.Printf("  Total supply: %s shares\n", humanize.BigComma(info.TotalSupply))

	degraded := ""
	if info.Degraded {
		degraded = "  (estimated; valuation unavailable on-chain)"
	}
	fmt.Printf("  GAV:          %s %s%s\n",
		formatUnits(info.GrossAssetValue, denomDecimals), info.DenominationAsset.Symbol, degraded)
	fmt.Printf("  Share value:  %s %s%s\n",
		formatUnits(info.ShareValue, contracts.SharesDecimals), info.DenominationAsset.Symbol, degraded)

	if info.CustomGAV.Usable() {
		note := ""
		if info.CustomGAV.Status == model.FigureDegraded {
			note = fmt.Sprintf("  (%s)", info.CustomGAV.Reason)
		}
		fmt.Printf("  Pool-priced GAV:   %s %s%s\n",
			info.CustomGAV.Value.StringFixed(6), info.DenominationAsset.Symbol, note)
	}
	if info.CustomShareValue.Usable() {
		fmt.Printf("  Pool-priced share: %s %s\n",
			info.CustomShareValue.Value.StringFixed(6), info.DenominationAsset.Symbol)
	}

	fmt.Println("  Your position:")
	fmt.Printf("    Shares:    %s\n", formatUnits(info.CallerShareBalance, contracts.SharesDecimals))
	fmt.Printf("    Balance:   %s %s\n",
		formatUnits(info.CallerDenomBalance, denomDecimals), info.DenominationAsset.Symbol)
	fmt.Printf("    Allowance: %s %s\n",
		formatUnits(info.CallerAllowance, denomDecimals), info.DenominationAsset.Symbol)
}

func runVaultApprove(cmd *cobra.Command, args []string) error {
	ctx, stop := rootContext()
	defer stop()

	a, err := bootstrap(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	info, err := a.fetchVault(ctx, args[0])
	if err != nil {
		return err
	}
	amount, err := parseUnits(args[1], int32(info.DenominationAsset.Decimals))
	if err != nil {
		return err
	}

	trader, err := newVaultTrader(a)
	if err != nil {
		return err
	}
	receipt, err := trader.Approve(ctx, info, amount)
	if err != nil {
		return err
	}
	if receipt == nil {
		fmt.Println("Existing allowance already covers this amount; nothing to do.")
		return nil
	}
	fmt.Printf("Approved: %s\n", contracts.ExplorerTxURL(receipt.TxHash))

	refreshVaultView(ctx, a.fetchVault, a.logger, args[0])
	return nil
}

func runVaultDeposit(cmd *cobra.Command, args []string) error {
	ctx, stop := rootContext()
	defer stop()

	a, err := bootstrap(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	info, err := a.fetchVault(ctx, args[0])
	if err != nil {
		return err
	}
	amount, err := parseUnits(args[1], int32(info.DenominationAsset.Decimals))
	if err != nil {
		return err
	}

	trader, err := newVaultTrader(a)
	if err != nil {
		return err
	}
	receipt, err := trader.Deposit(ctx, info, amount)
	if err != nil {
		return err
	}
	fmt.Printf("Deposited %s %s: %s\n",
		args[1], info.DenominationAsset.Symbol, contracts.ExplorerTxURL(receipt.TxHash))

	refreshVaultView(ctx, a.fetchVault, a.logger, args[0])
	return nil
}

func runVaultRedeem(cmd *cobra.Command, args []string) error {
	ctx, stop := rootContext()
	defer stop()

	a, err := bootstrap(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	info, err := a.fetchVault(ctx, args[0])
	if err != nil {
		return err
	}
	shares, err := parseUnits(args[1], contracts.SharesDecimals)
	if err != nil {
		return err
	}

	trader, err := newVaultTrader(a)
	if err != nil {
		return err
	}
	receipt, err := trader.Redeem(ctx, info, shares)
	if err != nil {
		return err
	}
	fmt.Printf("Redeemed %s shares: %s\n", args[1], contracts.ExplorerTxURL(receipt.TxHash))

	refreshVaultView(ctx, a.fetchVault, a.logger, args[0])
	return nil
}

func newVaultTrader(a *app) (*vault.Trader, error) {
	submitter, err := a.manager.Submitter()
	if err != nil {
		return nil, err
	}
	return vault.NewTrader(submitter, a.logger), nil
}
