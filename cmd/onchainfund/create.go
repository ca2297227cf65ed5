package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RonShih/onchainfund-platform/internal/config"
	"github.com/RonShih/onchainfund-platform/internal/contracts"
	"github.com/RonShih/onchainfund-platform/internal/fund"
)

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new vault",
		RunE:  runCreate,
	}

	cmd.Flags().Bool("interactive", false, "walk through the setup wizard")
	cmd.Flags().String("name", "", "vault name")
	cmd.Flags().String("symbol", "", "share token symbol")
	cmd.Flags().String("denomination", "", "denomination asset address")
	cmd.Flags().Uint64("lockup-hours", 24, "shares lock-up period in hours")
	cmd.Flags().Float64("management-fee", 0, "management fee rate percent (0 disables)")
	cmd.Flags().Float64("performance-fee", 0, "performance fee rate percent (0 disables)")
	cmd.Flags().Float64("entrance-fee", 0, "entrance fee rate percent (0 disables)")
	cmd.Flags().String("entrance-recipient", "", "entrance fee recipient (default: vault owner)")
	cmd.Flags().StringSlice("allow-depositor", nil, "restrict deposits to these addresses")

	return cmd
}

func runCreate(cmd *cobra.Command, _ []string) error {
	ctx, stop := rootContext()
	defer stop()

	a, err := bootstrap(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	var form *fund.Form
	interactive, _ := cmd.Flags().GetBool("interactive")
	if interactive {
		form, err = fund.RunWizard(a.session.Account)
	} else {
		form, err = formFromFlags(cmd, a.session.Account)
	}
	if err != nil {
		return err
	}

	submitter, err := a.manager.Submitter()
	if err != nil {
		return err
	}
	addrs, err := creatorAddresses(a.cfg)
	if err != nil {
		return err
	}
	creator := fund.NewCreator(submitter, addrs, a.logger)

	result, err := creator.Create(ctx, form)
	if err != nil {
		return err
	}

	fmt.Printf("Creation transaction: %s\n", contracts.ExplorerTxURL(result.TxHash))
	if result.Derived {
		fmt.Printf("Vault:       %s\n", result.Vault.Hex())
		fmt.Printf("Comptroller: %s\n", result.Comptroller.Hex())
	} else {
		fmt.Println("Vault created, but the addresses could not be derived from the receipt.")
		fmt.Println("Look up the transaction on the explorer to find them.")
	}
	a.logger.Info("vault created",
		zap.String("tx", result.TxHash.Hex()),
		zap.Bool("derived", result.Derived))
	return nil
}

func formFromFlags(cmd *cobra.Command, account common.Address) (*fund.Form, error) {
	form := fund.DefaultForm(account)

	form.Name, _ = cmd.Flags().GetString("name")
	form.Symbol, _ = cmd.Flags().GetString("symbol")
	form.ShareLockupHours, _ = cmd.Flags().GetUint64("lockup-hours")

	if denom, _ := cmd.Flags().GetString("denomination"); denom != "" {
		addr, err := config.Address(denom, "denomination")
		if err != nil {
			return nil, err
		}
		form.DenominationAsset = addr
	}

	mgmt, _ := cmd.Flags().GetFloat64("management-fee")
	form.ManagementFee.Enabled = mgmt > 0
	form.ManagementFee.Rate = mgmt

	perf, _ := cmd.Flags().GetFloat64("performance-fee")
	form.PerformanceFee.Enabled = perf > 0
	form.PerformanceFee.Rate = perf

	entrance, _ := cmd.Flags().GetFloat64("entrance-fee")
	form.EntranceFee.Enabled = entrance > 0
	form.EntranceFee.Rate = entrance
	if recipient, _ := cmd.Flags().GetString("entrance-recipient"); recipient != "" {
		addr, err := config.Address(recipient, "entrance-recipient")
		if err != nil {
			return nil, err
		}
		form.EntranceFee.Recipient = addr
	}

	depositors, _ := cmd.Flags().GetStringSlice("allow-depositor")
	if len(depositors) > 0 {
		form.Whitelist.Enabled = true
		for _, raw := range depositors {
			if err := form.Whitelist.Add(raw); err != nil {
				return nil, err
			}
		}
	}

	if err := form.Validate(); err != nil {
		return nil, err
	}
	return &form, nil
}

func creatorAddresses(cfg config.Config) (fund.Addresses, error) {
	factory, err := config.Address(cfg.FactoryAddress, "factory")
	if err != nil {
		return fund.Addresses{}, err
	}
	entranceFee, err := config.Address(cfg.EntranceFeeAddress, "entrance-fee")
	if err != nil {
		return fund.Addresses{}, err
	}
	depositPolicy, err := config.Address(cfg.DepositPolicyAddr, "deposit-policy")
	if err != nil {
		return fund.Addresses{}, err
	}
	listRegistry, err := config.Address(cfg.ListRegistryAddress, "list-registry")
	if err != nil {
		return fund.Addresses{}, err
	}
	return fund.Addresses{
		Factory:       factory,
		EntranceFee:   entranceFee,
		DepositPolicy: depositPolicy,
		ListRegistry:  listRegistry,
	}, nil
}
