package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// ChainConfiguration defines the network, contracts and signer used for KYC submissions
type ChainConfiguration struct {
	ChainID             int64
	NetworkName         string
	RequiredNetworkName string

	RPCEndpoint          string
	FallbackRPCEndpoints []string

	StablecoinAddress  common.Address
	KYCContractAddress common.Address
	TokenSymbol        string

	ChargeAmount         decimal.Decimal
	DefaultTokenDecimals int8

	ExplorerTxURL   string
	MetadataBaseURL string

	// Wallet / signer
	WalletRPCEndpoint      string
	ExternalSignerEndpoint string
	SignerAddress          string
	SignerPrivateKey       string
	HDWalletMnemonic       string
	HDWalletAccountIndex   int
	WalletConnectProjectID string

	ReceiptTimeout     time.Duration
	BalanceSettleDelay time.Duration
	WithdrawTolerance  decimal.Decimal
	FeeToleranceLow    decimal.Decimal
	FeeToleranceHigh   decimal.Decimal
}

var chainDefaultsOnce sync.Once

func initChainDefaults() {
	chainDefaultsOnce.Do(func() {
		viper.SetDefault("CHAIN_ID", 97)
		viper.SetDefault("NETWORK_NAME", "Binance Smart Chain Testnet")
		viper.SetDefault("REQUIRED_NETWORK_NAME", "Binance Smart Chain Testnet (BSC Testnet)")
		viper.SetDefault("RPC_ENDPOINT", "https://data-seed-prebsc-1-s1.binance.org:8545/")
		viper.SetDefault("FALLBACK_RPC_ENDPOINTS", "https://bsc-testnet.publicnode.com")
		viper.SetDefault("STABLECOIN_ADDRESS", "0x08DB56aB63cB3ac8921bcb1e9bE57a0A0fD91F1a")
		viper.SetDefault("KYC_CONTRACT_ADDRESS", "0x927f6773D3B777F1d04f22893cbf9Fe69F624EB9")
		viper.SetDefault("TOKEN_SYMBOL", "USDT")
		viper.SetDefault("CHARGE_AMOUNT", "2")
		viper.SetDefault("DEFAULT_TOKEN_DECIMALS", 18)
		viper.SetDefault("EXPLORER_TX_URL", "https://testnet.bscscan.com/tx/")
		viper.SetDefault("METADATA_BASE_URL", "https://kyx-platform.com/kyc/")
		viper.SetDefault("HD_WALLET_ACCOUNT_INDEX", 0)
		viper.SetDefault("WALLETCONNECT_PROJECT_ID", "dac575710eb8362c0d28c55d2dcf73dc")
		viper.SetDefault("RECEIPT_TIMEOUT", 120)
		viper.SetDefault("BALANCE_SETTLE_DELAY", 3000)
		viper.SetDefault("WITHDRAW_TOLERANCE", "0.99")
		viper.SetDefault("FEE_TOLERANCE_LOW", "1.9")
		viper.SetDefault("FEE_TOLERANCE_HIGH", "2.1")
	})
}

// ChainConfig returns the chain configuration
func ChainConfig() *ChainConfiguration {
	initChainDefaults()

	return &ChainConfiguration{
		ChainID:                viper.GetInt64("CHAIN_ID"),
		NetworkName:            viper.GetString("NETWORK_NAME"),
		RequiredNetworkName:    viper.GetString("REQUIRED_NETWORK_NAME"),
		RPCEndpoint:            viper.GetString("RPC_ENDPOINT"),
		FallbackRPCEndpoints:   splitList(viper.GetString("FALLBACK_RPC_ENDPOINTS")),
		StablecoinAddress:      common.HexToAddress(viper.GetString("STABLECOIN_ADDRESS")),
		KYCContractAddress:     common.HexToAddress(viper.GetString("KYC_CONTRACT_ADDRESS")),
		TokenSymbol:            viper.GetString("TOKEN_SYMBOL"),
		ChargeAmount:           decimalOrZero(viper.GetString("CHARGE_AMOUNT")),
		DefaultTokenDecimals:   int8(viper.GetInt("DEFAULT_TOKEN_DECIMALS")),
		ExplorerTxURL:          viper.GetString("EXPLORER_TX_URL"),
		MetadataBaseURL:        viper.GetString("METADATA_BASE_URL"),
		WalletRPCEndpoint:      viper.GetString("WALLET_RPC_ENDPOINT"),
		ExternalSignerEndpoint: viper.GetString("EXTERNAL_SIGNER_ENDPOINT"),
		SignerAddress:          viper.GetString("SIGNER_ADDRESS"),
		SignerPrivateKey:       viper.GetString("SIGNER_PRIVATE_KEY"),
		HDWalletMnemonic:       viper.GetString("HD_WALLET_MNEMONIC"),
		HDWalletAccountIndex:   viper.GetInt("HD_WALLET_ACCOUNT_INDEX"),
		WalletConnectProjectID: viper.GetString("WALLETCONNECT_PROJECT_ID"),
		ReceiptTimeout:         time.Duration(viper.GetInt("RECEIPT_TIMEOUT")) * time.Second,
		BalanceSettleDelay:     time.Duration(viper.GetInt("BALANCE_SETTLE_DELAY")) * time.Millisecond,
		WithdrawTolerance:      decimalOrZero(viper.GetString("WITHDRAW_TOLERANCE")),
		FeeToleranceLow:        decimalOrZero(viper.GetString("FEE_TOLERANCE_LOW")),
		FeeToleranceHigh:       decimalOrZero(viper.GetString("FEE_TOLERANCE_HIGH")),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func decimalOrZero(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func init() {
	initChainDefaults()

	if err := SetupConfig(); err != nil {
		panic(fmt.Sprintf("config SetupConfig() error: %s", err))
	}
}
