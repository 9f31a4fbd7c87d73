package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App       App       `mapstructure:",squash"`
	Enrich    Enrich    `mapstructure:",squash"`
	Cleaning  Cleaning  `mapstructure:",squash"`
	Reconcile Reconcile `mapstructure:",squash"`
	Report    Report    `mapstructure:",squash"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Enrich struct {
	// AverageOrderValue is the flat per-conversion value used to seed the
	// revenue columns before reconciliation replaces them.
	AverageOrderValue float64 `mapstructure:"enrich_average_order_value"`
	MinRows           int     `mapstructure:"enrich_min_rows"`
}

type Cleaning struct {
	ROASMin        float64 `mapstructure:"cleaning_roas_min"`
	ROASMax        float64 `mapstructure:"cleaning_roas_max"`
	CPAMin         float64 `mapstructure:"cleaning_cpa_min"`
	CPAMax         float64 `mapstructure:"cleaning_cpa_max"`
	CPCMin         float64 `mapstructure:"cleaning_cpc_min"`
	CPCMax         float64 `mapstructure:"cleaning_cpc_max"`
	CPMMin         float64 `mapstructure:"cleaning_cpm_min"`
	CPMMax         float64 `mapstructure:"cleaning_cpm_max"`
	MinSpend       float64 `mapstructure:"cleaning_min_spend"`
	MinConversions int     `mapstructure:"cleaning_min_conversions"`
	MinRows        int     `mapstructure:"cleaning_min_rows"`
	LogPath        string  `mapstructure:"cleaning_log_path"`
}

type Reconcile struct {
	Seed int64 `mapstructure:"reconcile_seed"`

	// Empirical constants carried over from the historical repair runs;
	// tunable but not re-derived.
	MinCVR              float64 `mapstructure:"reconcile_min_cvr"`
	SmallExpectation    float64 `mapstructure:"reconcile_small_expectation_threshold"`
	CTRBoostThreshold   float64 `mapstructure:"reconcile_ctr_boost_threshold"`
	CTRPenaltyThreshold float64 `mapstructure:"reconcile_ctr_penalty_threshold"`
	QualityBoost        float64 `mapstructure:"reconcile_quality_boost"`
	QualityPenalty      float64 `mapstructure:"reconcile_quality_penalty"`
	ApprovalRateMin     float64 `mapstructure:"reconcile_approval_rate_min"`
	ApprovalRateMax     float64 `mapstructure:"reconcile_approval_rate_max"`
	BasicSpendBelow     float64 `mapstructure:"reconcile_basic_spend_below"`
	BasicClicksBelow    int     `mapstructure:"reconcile_basic_clicks_below"`
	PremiumSpendAbove   float64 `mapstructure:"reconcile_premium_spend_above"`
	PremiumClicksAbove  int     `mapstructure:"reconcile_premium_clicks_above"`
}

type Report struct {
	HighROAS    float64 `mapstructure:"report_high_roas"`
	ExtremeROAS float64 `mapstructure:"report_extreme_roas"`
	HighCVR     float64 `mapstructure:"report_high_cvr"`
	ExtremeCVR  float64 `mapstructure:"report_extreme_cvr"`
	SuspectROAS float64 `mapstructure:"report_suspect_roas"`
	JSONPath    string  `mapstructure:"report_json_path"`
}

func SetDefaults() {
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("ENRICH_AVERAGE_ORDER_VALUE", 50.0)
	viper.SetDefault("ENRICH_MIN_ROWS", 500)

	viper.SetDefault("CLEANING_ROAS_MIN", 0.01)
	viper.SetDefault("CLEANING_ROAS_MAX", 100.0)
	viper.SetDefault("CLEANING_CPA_MIN", 0.1)
	viper.SetDefault("CLEANING_CPA_MAX", 1000.0)
	viper.SetDefault("CLEANING_CPC_MIN", 0.01)
	viper.SetDefault("CLEANING_CPC_MAX", 50.0)
	viper.SetDefault("CLEANING_CPM_MIN", 0.01)
	viper.SetDefault("CLEANING_CPM_MAX", 200.0)
	viper.SetDefault("CLEANING_MIN_SPEND", 0.01)
	viper.SetDefault("CLEANING_MIN_CONVERSIONS", 0)
	viper.SetDefault("CLEANING_MIN_ROWS", 50)
	viper.SetDefault("CLEANING_LOG_PATH", "outlier_cleaning_log.txt")

	viper.SetDefault("RECONCILE_SEED", 42)
	viper.SetDefault("RECONCILE_MIN_CVR", 0.005)
	viper.SetDefault("RECONCILE_SMALL_EXPECTATION_THRESHOLD", 0.15)
	viper.SetDefault("RECONCILE_CTR_BOOST_THRESHOLD", 0.0003)
	viper.SetDefault("RECONCILE_CTR_PENALTY_THRESHOLD", 0.0001)
	viper.SetDefault("RECONCILE_QUALITY_BOOST", 1.2)
	viper.SetDefault("RECONCILE_QUALITY_PENALTY", 0.8)
	viper.SetDefault("RECONCILE_APPROVAL_RATE_MIN", 0.70)
	viper.SetDefault("RECONCILE_APPROVAL_RATE_MAX", 0.88)
	viper.SetDefault("RECONCILE_BASIC_SPEND_BELOW", 10.0)
	viper.SetDefault("RECONCILE_BASIC_CLICKS_BELOW", 5)
	viper.SetDefault("RECONCILE_PREMIUM_SPEND_ABOVE", 50.0)
	viper.SetDefault("RECONCILE_PREMIUM_CLICKS_ABOVE", 30)

	viper.SetDefault("REPORT_HIGH_ROAS", 15.0)
	viper.SetDefault("REPORT_EXTREME_ROAS", 30.0)
	viper.SetDefault("REPORT_HIGH_CVR", 0.15)
	viper.SetDefault("REPORT_EXTREME_CVR", 0.30)
	viper.SetDefault("REPORT_SUSPECT_ROAS", 5.0)
	viper.SetDefault("REPORT_JSON_PATH", "")
}

func NewConfig() (*Config, error) {
	loadEnvFile()

	config := &Config{}

	SetDefaults()

	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Debug("no .env file read by viper, relying on environment: ", err)
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("could not determine working directory: ", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(filepath.Dir(cwd), ".env"),
	}

	for _, location := range locations {
		if err := godotenv.Load(location); err == nil {
			logrus.Debug("loaded environment from ", location)
			return
		}
	}
}
