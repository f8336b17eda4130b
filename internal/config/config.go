package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"visaHedgeBot/internal/finance"
)

// Config is loaded once at startup and passed explicitly to every component.
type Config struct {
	PrimaryAdvisor   string
	ValidatorAdvisor string
	PriceAdvisor     string

	GeminiKey     string
	GeminiModel   string
	OpenAIKey     string
	OpenAIModel   string
	DeepSeekKey   string
	DeepSeekModel string

	AdvisorTimeout time.Duration
	QuoteTimeout   time.Duration
	QuoteSources   []string
	AlpacaKeyID    string
	AlpacaSecret   string
	RedisAddr      string
	QuoteCacheTTL  time.Duration

	DBPath string
	Port   string

	TelegramToken    string
	WebhookPublicURL string

	ReferenceFile string
	Reference     finance.Reference

	LogFile    string
	LogMaxMB   int64
	LogBackups int
}

var secretVars = map[string]bool{
	"GEMINI_API_KEY":      true,
	"OPENAI_API_KEY":      true,
	"DEEPSEEK_API_KEY":    true,
	"APCA_API_KEY_ID":     true,
	"APCA_API_SECRET_KEY": true,
	"TELEGRAM_BOT_TOKEN":  true,
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing env %s", k)
	}
	return v
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Printf("config: %s=%q is not an integer, using %d", k, v, def)
		return def
	}
	return n
}

func envSeconds(k string, def int) time.Duration {
	n := envInt(k, def)
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}

func envList(k, def string) []string {
	var out []string
	for _, p := range strings.Split(envOr(k, def), ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads .env (if present) and the process environment. No variable is
// required; missing advisor keys surface later as unconfigured advisors.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using process environment")
	}

	cfg := Config{
		PrimaryAdvisor:   strings.ToLower(envOr("PRIMARY_ADVISOR", "gemini")),
		ValidatorAdvisor: strings.ToLower(envOr("VALIDATOR_ADVISOR", "openai")),
		PriceAdvisor:     strings.ToLower(envOr("PRICE_ADVISOR", "gemini")),

		GeminiKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   envOr("GEMINI_MODEL", "gemini-2.0-flash"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   envOr("OPENAI_MODEL", "gpt-4o-mini"),
		DeepSeekKey:   os.Getenv("DEEPSEEK_API_KEY"),
		DeepSeekModel: envOr("DEEPSEEK_MODEL", "deepseek-chat"),

		AdvisorTimeout: envSeconds("ADVISOR_TIMEOUT_SEC", 45),
		QuoteTimeout:   envSeconds("QUOTE_TIMEOUT_SEC", 10),
		QuoteSources:   envList("QUOTE_SOURCES", "yahoo,chart"),
		AlpacaKeyID:    os.Getenv("APCA_API_KEY_ID"),
		AlpacaSecret:   os.Getenv("APCA_API_SECRET_KEY"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		QuoteCacheTTL:  envSeconds("QUOTE_CACHE_TTL_SEC", 900),

		DBPath: envOr("DB_PATH", "/app/data/hedge.db"),
		Port:   envOr("PORT", "9095"),

		TelegramToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		WebhookPublicURL: os.Getenv("WEBHOOK_PUBLIC_URL"),

		ReferenceFile: os.Getenv("REFERENCE_FILE"),
		Reference:     finance.DefaultReference(),

		LogFile:    os.Getenv("LOG_FILE"),
		LogMaxMB:   int64(envInt("LOG_MAX_MB", 10)),
		LogBackups: envInt("LOG_BACKUPS", 3),
	}

	if cfg.ReferenceFile != "" {
		ref, err := LoadReference(cfg.ReferenceFile, cfg.Reference)
		if err != nil {
			log.Printf("config: %v, keeping built-in reference tables", err)
		} else {
			cfg.Reference = ref
		}
	}

	logEnv()
	return cfg
}

// LoadBot is Load plus the variables the telegram bot cannot run without.
func LoadBot() Config {
	cfg := Load()
	cfg.TelegramToken = mustEnv("TELEGRAM_BOT_TOKEN")
	cfg.WebhookPublicURL = mustEnv("WEBHOOK_PUBLIC_URL")
	return cfg
}

type referenceFile struct {
	Prices      map[string]float64      `json:"prices"`
	Returns     map[string]float64      `json:"returns"`
	DefaultPlan *finance.AllocationPlan `json:"default_plan"`
}

// LoadReference overlays a JSON reference file on base.
func LoadReference(path string, base finance.Reference) (finance.Reference, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read reference file: %w", err)
	}
	var rf referenceFile
	if err := json.Unmarshal(b, &rf); err != nil {
		return base, fmt.Errorf("parse reference file %s: %w", path, err)
	}
	o := finance.Reference{Prices: upperKeys(rf.Prices), Returns: upperKeys(rf.Returns)}
	if rf.DefaultPlan != nil {
		o.DefaultPlan = *rf.DefaultPlan
	}
	return base.Merge(o), nil
}

func upperKeys(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return out
}

func logEnv() {
	keys := make([]string, 0, len(secretVars))
	for k := range secretVars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			log.Printf("config: %s=%s", k, Mask(v))
		}
	}
}

// Mask hides all but the last four characters of a secret.
func Mask(v string) string {
	if len(v) > 4 {
		return "***" + v[len(v)-4:]
	}
	return "***"
}
