package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"MarketPulse/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Watchlist []model.Instrument `yaml:"watchlist" validate:"min=1,dive"`
	Providers struct {
		Brapi struct {
			BaseURL string `yaml:"base_url" validate:"required,url"`
			Token   string `yaml:"token"`
		} `yaml:"brapi"`
		AwesomeAPI struct {
			BaseURL string `yaml:"base_url" validate:"required,url"`
		} `yaml:"awesomeapi"`
		Yahoo struct {
			BaseURL string `yaml:"base_url" validate:"required,url"`
		} `yaml:"yahoo"`
		RateLimit int           `yaml:"rate_limit" validate:"gte=1"`
		Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`
	} `yaml:"providers"`
	News struct {
		Enabled    bool   `yaml:"enabled"`
		NewsAPIKey string `yaml:"newsapi_key"`
		NewsAPIURL string `yaml:"newsapi_url" validate:"omitempty,url"`
		RSSURL     string `yaml:"rss_url" validate:"omitempty,url"`
		Limit      int    `yaml:"limit" validate:"gte=1,lte=50"`
	} `yaml:"news"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
		DigestCron  string `yaml:"digest_cron"`
		NewsCron    string `yaml:"news_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token" validate:"required_with=ChatID"`
		ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
	} `yaml:"telegram"`
	Server struct {
		Addr string `yaml:"addr" validate:"required"`
	} `yaml:"server"`
	State struct {
		BoardFile string `yaml:"board_file"`
	} `yaml:"state"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy" validate:"omitempty,url"`
}

// envOverrides lists the variables read with the MARKETPULSE_ prefix. Tagged
// names also match without the prefix.
type envOverrides struct {
	BrapiToken       string `envconfig:"BRAPI_TOKEN"`
	NewsAPIKey       string `envconfig:"NEWSAPI_KEY"`
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `envconfig:"TELEGRAM_CHAT_ID"`
	SQLitePath       string `envconfig:"SQLITE_PATH"`
	BoardFile        string `envconfig:"BOARD_FILE"`
	HTTPAddr         string `envconfig:"HTTP_ADDR"`
	RefreshCron      string `envconfig:"REFRESH_CRON"`
	Proxy            string `envconfig:"HTTPS_PROXY"`
	RateLimit        int    `envconfig:"RATE_LIMIT"`
}

// Load reads config from a YAML file, then applies .env and environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// News is on unless the file turns it off.
	cfg.News.Enabled = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	var env envOverrides
	if err := envconfig.Process("marketpulse", &env); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	env.apply(cfg)

	applyDefaults(cfg)
	return cfg, nil
}

func (e envOverrides) apply(cfg *Config) {
	if e.BrapiToken != "" {
		cfg.Providers.Brapi.Token = e.BrapiToken
	}
	if e.NewsAPIKey != "" {
		cfg.News.NewsAPIKey = e.NewsAPIKey
	}
	if e.TelegramBotToken != "" {
		cfg.Telegram.BotToken = e.TelegramBotToken
	}
	if e.TelegramChatID != "" {
		cfg.Telegram.ChatID = e.TelegramChatID
	}
	if e.SQLitePath != "" {
		cfg.Database.SQLitePath = e.SQLitePath
	}
	if e.BoardFile != "" {
		cfg.State.BoardFile = e.BoardFile
	}
	if e.HTTPAddr != "" {
		cfg.Server.Addr = e.HTTPAddr
	}
	if e.RefreshCron != "" {
		cfg.Schedule.RefreshCron = e.RefreshCron
	}
	if e.Proxy != "" {
		cfg.Proxy = e.Proxy
	}
	if e.RateLimit > 0 {
		cfg.Providers.RateLimit = e.RateLimit
	}
}

func applyDefaults(cfg *Config) {
	if len(cfg.Watchlist) == 0 {
		cfg.Watchlist = DefaultWatchlist()
	}
	for i := range cfg.Watchlist {
		inst := &cfg.Watchlist[i]
		if inst.Name == "" {
			inst.Name = inst.Symbol
		}
		if inst.Kind == "" {
			inst.Kind = model.KindEquity
		}
		if len(inst.Providers) == 0 {
			inst.Providers = defaultProviders(inst.Kind)
		}
		if inst.Precision == 0 && inst.Kind != model.KindIndex {
			inst.Precision = 2
		}
	}

	if cfg.Providers.Brapi.BaseURL == "" {
		cfg.Providers.Brapi.BaseURL = "https://brapi.dev"
	}
	if cfg.Providers.AwesomeAPI.BaseURL == "" {
		cfg.Providers.AwesomeAPI.BaseURL = "https://economia.awesomeapi.com.br"
	}
	if cfg.Providers.Yahoo.BaseURL == "" {
		cfg.Providers.Yahoo.BaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.Providers.RateLimit == 0 {
		cfg.Providers.RateLimit = 5
	}
	if cfg.Providers.Timeout == 0 {
		cfg.Providers.Timeout = 30 * time.Second
	}
	if cfg.News.NewsAPIURL == "" {
		cfg.News.NewsAPIURL = "https://newsapi.org"
	}
	if cfg.News.RSSURL == "" {
		cfg.News.RSSURL = "https://api.rss2json.com/v1/api.json?rss_url=https://valor.globo.com/rss/ultimas/"
	}
	if cfg.News.Limit == 0 {
		cfg.News.Limit = 5
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 * * * * *"
	}
	if cfg.Schedule.DigestCron == "" {
		cfg.Schedule.DigestCron = "0 0 18 * * 1-5"
	}
	if cfg.Schedule.NewsCron == "" {
		cfg.Schedule.NewsCron = "0 */15 * * * *"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.State.BoardFile == "" {
		cfg.State.BoardFile = "data/board_state.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/marketpulse.db"
	}
}

func defaultProviders(kind model.InstrumentKind) []string {
	if kind == model.KindFX {
		return []string{"awesomeapi", "yahoo"}
	}
	return []string{"brapi", "yahoo"}
}

// DefaultWatchlist is the index, the dollar and ten liquid B3 equities.
func DefaultWatchlist() []model.Instrument {
	eq := func(symbol, name, sector string, base float64) model.Instrument {
		return model.Instrument{
			Symbol: symbol, Name: name, Kind: model.KindEquity, Sector: sector,
			Precision: 2, Providers: []string{"brapi", "yahoo"}, BasePrice: base,
		}
	}
	return []model.Instrument{
		{Symbol: "^BVSP", Name: "Ibovespa", Kind: model.KindIndex, Precision: 0,
			Providers: []string{"brapi", "yahoo"}, BasePrice: 128000},
		{Symbol: "USD-BRL", Name: "Dólar", Kind: model.KindFX, Precision: 3,
			Providers: []string{"awesomeapi", "yahoo"}, BasePrice: 5.20},
		eq("PETR4", "Petrobras PN", "Petróleo e Gás", 38.50),
		eq("VALE3", "Vale ON", "Mineração", 62.30),
		eq("ITUB4", "Itaú Unibanco PN", "Financeiro", 28.90),
		eq("BBDC4", "Bradesco PN", "Financeiro", 13.20),
		eq("MGLU3", "Magazine Luiza ON", "Varejo", 9.80),
		eq("WEGE3", "WEG ON", "Industrial", 51.40),
		eq("RENT3", "Localiza ON", "Locação", 44.60),
		eq("ELET3", "Eletrobras ON", "Energia", 37.20),
		eq("SUZB3", "Suzano ON", "Papel e Celulose", 56.80),
		eq("ABEV3", "Ambev ON", "Bebidas", 12.30),
	}
}

// Validate checks struct constraints and that every cron expression parses.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	seen := make(map[string]bool, len(c.Watchlist))
	for _, inst := range c.Watchlist {
		if seen[inst.Symbol] {
			return fmt.Errorf("watchlist: duplicate symbol %q", inst.Symbol)
		}
		seen[inst.Symbol] = true
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{
		"schedule.refresh_cron": c.Schedule.RefreshCron,
		"schedule.digest_cron":  c.Schedule.DigestCron,
		"schedule.news_cron":    c.Schedule.NewsCron,
	} {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// TelegramEnabled reports whether both bot token and chat id are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
