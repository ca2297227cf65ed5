package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newConnectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Unlock the wallet and verify the target network",
		RunE:  runConnect,
	}
	return cmd
}

func runConnect(cmd *cobra.Command, _ []string) error {
	ctx, stop := rootContext()
	defer stop()

	a, err := bootstrap(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	a.logger.Info("wallet connected",
		zap.String("account", a.session.Account.Hex()),
		zap.String("chain_id", a.session.ChainID.String()))

	fmt.Printf("Connected: %s (chain %s)\n", a.session.Account.Hex(), a.session.ChainID.String())
	return nil
}
