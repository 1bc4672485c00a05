// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type Config struct {
	RPCList             []string `mapstructure:"rpc_list"`
	QuoteAPIURL         string   `mapstructure:"quote_api_url"`
	MarketAPIURL        string   `mapstructure:"market_api_url"`
	WalletsFile         string   `mapstructure:"wallets_file"`
	DebugLogging        bool     `mapstructure:"debug_logging"`
	SendRetries         int      `mapstructure:"send_retries"`
	ConfirmTimeoutSec   int      `mapstructure:"confirm_timeout_sec"`
	SlippageLadderBps   []int    `mapstructure:"slippage_ladder_bps"`
	PriorityFeeBase     uint64   `mapstructure:"priority_fee_base"`
	PriorityFeeCeiling  uint64   `mapstructure:"priority_fee_ceiling"`
	PriorityPercentile  int      `mapstructure:"priority_percentile"`
	ScamLiquidityRatio  float64  `mapstructure:"scam_liquidity_ratio"`
	DeadVolumeThreshold float64  `mapstructure:"dead_volume_threshold"`
	LowVolumeThreshold  float64  `mapstructure:"low_volume_threshold"`
}

const (
	DefaultQuoteAPIURL        = "https://quote-api.jup.ag"
	DefaultMarketAPIURL       = "https://api.dexscreener.com"
	DefaultSendRetries        = 3
	DefaultConfirmTimeoutSec  = 60
	DefaultPriorityFeeBase    = 1_000
	DefaultPriorityFeeCeiling = 1_000_000
	DefaultPriorityPercentile = 90
	DefaultScamRatio          = 0.001
	DefaultDeadVolume         = 1_000
	DefaultLowVolume          = 10_000
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"quote_api_url":         DefaultQuoteAPIURL,
		"market_api_url":        DefaultMarketAPIURL,
		"send_retries":          DefaultSendRetries,
		"confirm_timeout_sec":   DefaultConfirmTimeoutSec,
		"slippage_ladder_bps":   []int{100, 200, 300},
		"priority_fee_base":     DefaultPriorityFeeBase,
		"priority_fee_ceiling":  DefaultPriorityFeeCeiling,
		"priority_percentile":   DefaultPriorityPercentile,
		"scam_liquidity_ratio":  DefaultScamRatio,
		"dead_volume_threshold": DefaultDeadVolume,
		"low_volume_threshold":  DefaultLowVolume,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURLWithCache(rpcURL, "http"); err != nil {
			return errors.New("invalid RPC URL protocol")
		}
	}
	if err := validateURLWithCache(cfg.QuoteAPIURL, "http"); err != nil {
		return errors.New("invalid quote API URL")
	}
	if err := validateURLWithCache(cfg.MarketAPIURL, "http"); err != nil {
		return errors.New("invalid market API URL")
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.SendRetries < 0 {
		return errors.New("invalid send_retries count")
	}
	if cfg.ConfirmTimeoutSec <= 0 {
		return errors.New("invalid confirm_timeout_sec")
	}
	if cfg.PriorityPercentile <= 0 || cfg.PriorityPercentile > 100 {
		return errors.New("invalid priority_percentile")
	}
	if cfg.PriorityFeeCeiling < cfg.PriorityFeeBase {
		return errors.New("priority_fee_ceiling below priority_fee_base")
	}
	if cfg.ScamLiquidityRatio <= 0 || cfg.ScamLiquidityRatio >= 1 {
		return errors.New("invalid scam_liquidity_ratio")
	}
	for _, bps := range cfg.SlippageLadderBps {
		if bps <= 0 || bps > 10_000 {
			return errors.New("invalid slippage_ladder_bps entry")
		}
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("DEXTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envRPCList := v.GetString("RPC_LIST")
	if envRPCList != "" {
		rpcs := strings.Split(envRPCList, ",")
		var cleanRPCs []string
		for _, rpc := range rpcs {
			clean := strings.TrimSpace(rpc)
			if clean != "" {
				cleanRPCs = append(cleanRPCs, clean)
			}
		}
		if len(cleanRPCs) > 0 {
			cfg.RPCList = cleanRPCs
		}
	}

	envWallets := v.GetString("WALLETS_FILE")
	if envWallets != "" {
		cfg.WalletsFile = envWallets
	}
	return nil
}
