package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/RonShih/onchainfund-platform/internal/chainerr"
	"github.com/RonShih/onchainfund-platform/internal/config"
	"github.com/RonShih/onchainfund-platform/internal/contracts"
	"github.com/RonShih/onchainfund-platform/internal/swap"
)

func newSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Trade vault holdings through the liquidity pool",
	}

	quoteCmd := &cobra.Command{
		Use:   "quote <amount>",
		Short: "Price a swap against the pool without sending anything",
		Args:  cobra.ExactArgs(1),
		RunE:  runSwapQuote,
	}
	quoteCmd.Flags().Bool("reverse", false, "sell WETH for ASVT instead of ASVT for WETH")
	cmd.AddCommand(quoteCmd)

	executeCmd := &cobra.Command{
		Use:   "execute <vault-address> <amount>",
		Short: "Execute a swap from the vault's holdings",
		Args:  cobra.ExactArgs(2),
		RunE:  runSwapExecute,
	}
	executeCmd.Flags().Bool("reverse", false, "sell WETH for ASVT instead of ASVT for WETH")
	executeCmd.Flags().String("min-out", "", "minimum output amount, overriding the quoted 98% floor")
	cmd.AddCommand(executeCmd)

	return cmd
}

func swapPair(reverse bool) (direction swap.Direction, path []common.Address, inSym, outSym string) {
	if reverse {
		return swap.QuoteToBase,
			[]common.Address{contracts.WETHAddress, contracts.ASVTAddress},
			"WETH", "ASVT"
	}
	return swap.BaseToQuote,
		[]common.Address{contracts.ASVTAddress, contracts.WETHAddress},
		"ASVT", "WETH"
}

func runSwapQuote(cmd *cobra.Command, args []string) error {
	ctx, stop := rootContext()
	defer stop()

	a, err := bootstrap(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	amount, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("malformed amount %q: %w", args[0], err)
	}

	reverse, _ := cmd.Flags().GetBool("reverse")
	direction, _, inSym, outSym := swapPair(reverse)

	quoter, err := newQuoter(a)
	if err != nil {
		return err
	}
	quote, err := quoter.QuoteSwap(ctx, direction, amount)
	if err != nil {
		return err
	}

	fmt.Printf("Sell %s %s -> receive ~%s %s\n",
		quote.AmountIn.String(), inSym, quote.AmountOut.StringFixed(8), outSym)
	fmt.Printf("Minimum after slippage: %s %s\n", quote.MinOut.StringFixed(8), outSym)
	fmt.Printf("Pool reserves: %s ASVT / %s WETH\n",
		quote.Reserves.ReserveBase.String(), quote.Reserves.ReserveQuote.String())
	if quote.Reserves.Degraded {
		fmt.Printf("Note: %s; this quote is an estimate.\n", quote.Reserves.Reason)
	}
	return nil
}

func runSwapExecute(cmd *cobra.Command, args []string) error {
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
	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("malformed amount %q: %w", args[1], err)
	}

	reverse, _ := cmd.Flags().GetBool("reverse")
	direction, path, inSym, outSym := swapPair(reverse)

	quoter, err := newQuoter(a)
	if err != nil {
		return err
	}
	quote, err := quoter.QuoteSwap(ctx, direction, amount)
	if err != nil {
		return err
	}

	minOutRaw, _ := cmd.Flags().GetString("min-out")
	minOut, err := resolveMinOut(quote.MinOut, minOutRaw)
	if err != nil {
		return err
	}

	submitter, err := a.manager.Submitter()
	if err != nil {
		return err
	}
	integrationManager, err := config.Address(a.cfg.IntegrationManager, "integration-manager")
	if err != nil {
		return err
	}
	adapter, err := config.Address(a.cfg.SwapAdapterAddress, "swap-adapter")
	if err != nil {
		return err
	}
	trader := swap.NewTrader(submitter, integrationManager, adapter, a.logger)

	// ASVT and WETH both carry 18 decimals.
	order := swap.Order{
		Comptroller: info.ComptrollerAddress,
		Path:        path,
		AmountIn:    quote.AmountIn.Shift(18).Truncate(0).BigInt(),
		MinOut:      minOut.Shift(18).Truncate(0).BigInt(),
	}
	receipt, err := trader.Execute(ctx, order)
	if err != nil {
		return err
	}
	fmt.Printf("Swapped %s %s for at least %s %s: %s\n",
		quote.AmountIn.String(), inSym, minOut.StringFixed(8), outSym,
		contracts.ExplorerTxURL(receipt.TxHash))
	return nil
}

// resolveMinOut keeps the quoted slippage floor unless the user
// supplied an explicit minimum output amount.
func resolveMinOut(quoted decimal.Decimal, override string) (decimal.Decimal, error) {
	if override == "" {
		return quoted, nil
	}
	value, err := decimal.NewFromString(override)
	if err != nil {
		return decimal.Decimal{}, chainerr.NewValidation("min-out", "malformed amount %q", override)
	}
	if value.Sign() <= 0 {
		return decimal.Decimal{}, chainerr.NewValidation("min-out", "must be greater than zero")
	}
	return value, nil
}

func newQuoter(a *app) (*swap.Quoter, error) {
	pool, err := config.Address(a.cfg.PoolAddress, "pool")
	if err != nil {
		return nil, err
	}
	return swap.NewQuoter(a.manager.Backend(), pool, contracts.ASVTAddress, 18, 18, a.logger), nil
}
