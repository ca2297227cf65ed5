package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/RonShih/onchainfund-platform/internal/contracts"
	"github.com/RonShih/onchainfund-platform/internal/wallet"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL         string
	ChainID        uint64
	KeystoreDir    string
	Passphrase     string
	PassphraseFile string

	FactoryAddress      string
	EntranceFeeAddress  string
	DepositPolicyAddr   string
	ListRegistryAddress string
	IntegrationManager  string
	SwapAdapterAddress  string
	PoolAddress         string

	FundsOut       string
	PostgresDSN    string
	DiscoverWindow uint64

	LogLevel string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ONCHAINFUND")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("chain-id", uint64(contracts.SepoliaChainID))
	v.SetDefault("keystore", "./keystore")
	v.SetDefault("factory", contracts.FundFactoryAddress.Hex())
	v.SetDefault("entrance-fee", contracts.EntranceRateDirectFeeAddress.Hex())
	v.SetDefault("deposit-policy", contracts.AllowedDepositRecipientsAddr.Hex())
	v.SetDefault("list-registry", contracts.AddressListRegistryAddress.Hex())
	v.SetDefault("integration-manager", contracts.IntegrationManagerAddress.Hex())
	v.SetDefault("swap-adapter", contracts.UniswapV2ExchangeAdapterAddr.Hex())
	v.SetDefault("pool", contracts.ASVTWETHPoolAddress.Hex())
	v.SetDefault("funds-out", "./data/funds.jsonl")
	v.SetDefault("discover-window", uint64(10000))
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:              v.GetString("rpc"),
		ChainID:             v.GetUint64("chain-id"),
		KeystoreDir:         v.GetString("keystore"),
		Passphrase:          v.GetString("passphrase"),
		PassphraseFile:      v.GetString("passphrase-file"),
		FactoryAddress:      v.GetString("factory"),
		EntranceFeeAddress:  v.GetString("entrance-fee"),
		DepositPolicyAddr:   v.GetString("deposit-policy"),
		ListRegistryAddress: v.GetString("list-registry"),
		IntegrationManager:  v.GetString("integration-manager"),
		SwapAdapterAddress:  v.GetString("swap-adapter"),
		PoolAddress:         v.GetString("pool"),
		FundsOut:            v.GetString("funds-out"),
		PostgresDSN:         v.GetString("pg-dsn"),
		DiscoverWindow:      v.GetUint64("discover-window"),
		LogLevel:            v.GetString("log-level"),
	}

	if cfg.Passphrase == "" && cfg.PassphraseFile != "" {
		raw, err := os.ReadFile(cfg.PassphraseFile)
		if err != nil {
			return Config{}, fmt.Errorf("read passphrase file: %w", err)
		}
		cfg.Passphrase = strings.TrimSpace(string(raw))
	}

	return cfg, nil
}

// Network returns the target network parameters for the configured
// chain.
func (c Config) Network() wallet.NetworkParams {
	name := contracts.SepoliaChainName
	explorer := contracts.SepoliaExplorerURL
	if c.ChainID != contracts.SepoliaChainID {
		name = fmt.Sprintf("chain-%d", c.ChainID)
		explorer = ""
	}
	return wallet.NetworkParams{
		ChainID:        new(big.Int).SetUint64(c.ChainID),
		Name:           name,
		RPCURL:         c.RPCURL,
		ExplorerURL:    explorer,
		CurrencyName:   "Sepolia ETH",
		CurrencySymbol: "SEP",
	}
}

// Address parses a configured address value.
func Address(value, key string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s: malformed address %q", key, value)
	}
	return common.HexToAddress(value), nil
}
