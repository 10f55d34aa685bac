package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Paths configuration
	Paths struct {
		// Root of the static site
		DocsDir string `env:"DOCS_DIR" envDefault:"docs"`

		// Directory holding partitions, history artifacts and the generated documents
		DataDir string `env:"DATA_DIR" envDefault:"docs/data/apt_trade"`

		// Prefix used for partition paths inside index.json, relative to DocsDir
		PublicPrefix string `env:"DATA_PUBLIC_PREFIX" envDefault:"data/apt_trade"`

		// Partition backend: "json" (files under DataDir) or "sqlite"
		StoreBackend string `env:"STORE_BACKEND" envDefault:"json"`

		// SQLite file used when StoreBackend is "sqlite"
		DatabasePath string `env:"DATABASE_PATH" envDefault:"apt_trade.db"`

		// SQLite file holding the run log; empty disables it
		RunLogPath string `env:"RUN_LOG_PATH" envDefault:"apt_trade_runs.db"`
	}

	// Retention configuration
	Retention struct {
		// Number of months kept on disk, including the current one
		MonthsKept int `env:"MONTHS_KEPT" envDefault:"84"`

		// Number of trailing months re-fetched on every run
		RefreshMonths int `env:"REFRESH_MONTHS" envDefault:"3"`

		// Years of price history written per apartment
		HistoryYears int `env:"HISTORY_YEARS" envDefault:"7"`
	}

	// Reports configuration
	Reports struct {
		MinTrades      int `env:"MIN_TRADES" envDefault:"20"`
		TopN           int `env:"TOP_N" envDefault:"3"`
		TrailingMonths int `env:"TRAILING_MONTHS" envDefault:"3"`
		LookbackYears  int `env:"LOOKBACK_YEARS" envDefault:"5"`

		// Maximum entries of the recent report, 0 keeps all
		RecentLimit int `env:"RECENT_LIMIT" envDefault:"0"`

		// Today's movers without new arrivals: "latest" or "month"
		TodayFallback string `env:"TODAY_FALLBACK" envDefault:"latest"`
	}

	// Upstream API configuration
	API struct {
		ServiceKey    string `env:"MOLIT_SERVICE_KEY"`
		BaseURL       string `env:"APT_TRADE_BASE_URL" envDefault:"https://apis.data.go.kr/1613000/RTMSDataSvcAptTrade"`
		OperationPath string `env:"APT_TRADE_OPERATION_PATH" envDefault:"getRTMSDataSvcAptTrade"`
		PageSize      int    `env:"APT_TRADE_PAGE_SIZE" envDefault:"1000"`

		// Attempts per page before giving up
		MaxAttempts int `env:"APT_TRADE_MAX_ATTEMPTS" envDefault:"8"`

		// Minimum delay between two page requests
		PageInterval time.Duration `env:"APT_TRADE_PAGE_INTERVAL" envDefault:"2s"`

		Timeout time.Duration `env:"APT_TRADE_TIMEOUT" envDefault:"30s"`

		// API calls stop for the rest of the run after this many failures in a row
		MaxConsecutiveErrors int `env:"APT_TRADE_MAX_CONSECUTIVE_ERRORS" envDefault:"3"`

		// Comma separated LAWD codes; empty means every known region
		LawdList []string `env:"LAWD_LIST" envSeparator:","`
	}

	Telegram struct {
		BotToken   string `env:"TELEGRAM_BOT_TOKEN"`
		ChatID     string `env:"TELEGRAM_CHAT_ID"`
		APIBaseURL string `env:"TELEGRAM_API_BASE_URL" envDefault:"https://api.telegram.org"`
	}

	Metrics struct {
		// Pushgateway receiving the metrics of a batch run; empty disables pushing
		PushgatewayURL string `env:"PUSHGATEWAY_URL"`
		JobName        string `env:"METRICS_JOB_NAME" envDefault:"apt_trade"`
	}

	Server struct {
		Port         int      `env:"PORT" envDefault:"5250"`
		AllowOrigins []string `env:"ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LawdCodes returns the configured region codes, or every known code when none are set.
func (c *Config) LawdCodes() []string {
	var codes []string
	for _, code := range c.API.LawdList {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	if len(codes) == 0 {
		return AllLawdList()
	}
	return codes
}
