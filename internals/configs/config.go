package configs

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// =======================
// ENV LOADER
// =======================

// LoadEnv memuat .env bila ada. Di container (RAILWAY_ENVIRONMENT / APP_ENV=production)
// ENV sistem dipakai apa adanya.
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") != "" || os.Getenv("APP_ENV") == "production" {
		log.Println("🚀 Running in container, menggunakan ENV dari sistem")
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Tidak menemukan .env file, menggunakan ENV dari sistem")
		return
	}
	log.Println("✅ .env file berhasil dimuat!")
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if (!exists || strings.TrimSpace(value) == "") && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return strings.TrimSpace(value)
}

// =======================
// CONFIG OBJECT
// =======================

type Config struct {
	AppEnv  string `toml:"app_env"`
	Port    string `toml:"port"`
	BaseURL string `toml:"public_base_url"`

	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Upload   UploadConfig   `toml:"upload"`
	OSS      OSSConfig      `toml:"oss"`
	S3       S3Config       `toml:"s3"`
	HTTP     HTTPConfig     `toml:"http"`
	Grading  GradingConfig  `toml:"grading"`
	Redis    RedisConfig    `toml:"redis"`
	Midtrans MidtransConfig `toml:"midtrans"`
	CORS     CORSConfig     `toml:"cors"`
}

type DatabaseConfig struct {
	URL          string `toml:"url"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	LogSQL       bool   `toml:"log_sql"`
}

type AuthConfig struct {
	JWTSecret           string        `toml:"jwt_secret"`
	AccessTTL           time.Duration `toml:"-"`
	GoogleClientID      string        `toml:"google_client_id"`
	BlacklistRetainDays int           `toml:"blacklist_retain_days"`
	SecureCookie        bool          `toml:"secure_cookie"`
}

type UploadConfig struct {
	Dir      string `toml:"dir"`
	MaxBytes int64  `toml:"max_bytes"`
}

type OSSConfig struct {
	Endpoint      string `toml:"endpoint"`
	AccessKey     string `toml:"access_key"`
	SecretKey     string `toml:"secret_key"`
	SecurityToken string `toml:"security_token"`
	Bucket        string `toml:"bucket"`
	Prefix        string `toml:"prefix"`
	PublicBase    string `toml:"public_base"`
}

func (o OSSConfig) Enabled() bool {
	return o.Endpoint != "" && o.AccessKey != "" && o.SecretKey != "" && o.Bucket != ""
}

type S3Config struct {
	Bucket     string `toml:"bucket"`
	Region     string `toml:"region"`
	Prefix     string `toml:"prefix"`
	PublicBase string `toml:"public_base"`
}

func (s S3Config) Enabled() bool { return s.Bucket != "" }

// HTTPConfig mengatur retry untuk panggilan keluar (download artefak, upload SDK, model AI).
type HTTPConfig struct {
	RetryAttempts int           `toml:"retry_attempts"`
	RetryBase     time.Duration `toml:"-"`
	RetryMax      time.Duration `toml:"-"`
	Timeout       time.Duration `toml:"-"`
}

type GradingConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
	Mode    string `toml:"mode"`
}

type RedisConfig struct {
	URL string `toml:"url"`
}

type MidtransConfig struct {
	ServerKey     string `toml:"server_key"`
	UseProduction bool   `toml:"use_production"`
	PriceBasic    int64  `toml:"price_basic"`
	PricePremium  int64  `toml:"price_premium"`
	FreeExamLimit int    `toml:"free_exam_limit"`
	PeriodDays    int    `toml:"period_days"`
}

type CORSConfig struct {
	Origins []string `toml:"origins"`
}

const (
	GradingModeInline    = "inline"
	GradingModeExtracted = "extracted"
)

// Default mengembalikan konfigurasi dasar.
func Default() Config {
	return Config{
		AppEnv:  "development",
		Port:    "3000",
		BaseURL: "http://localhost:3000",
		Database: DatabaseConfig{
			URL:          "sqlite://automark.db",
			MaxOpenConns: 20,
			MaxIdleConns: 10,
		},
		Auth: AuthConfig{
			AccessTTL:           24 * time.Hour,
			BlacklistRetainDays: 7,
		},
		Upload: UploadConfig{
			Dir:      "uploads",
			MaxBytes: 16 * 1024 * 1024,
		},
		HTTP: HTTPConfig{
			RetryAttempts: 3,
			RetryBase:     time.Second,
			RetryMax:      10 * time.Second,
			Timeout:       30 * time.Second,
		},
		Grading: GradingConfig{
			Model:   "gemini-2.0-flash",
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Mode:    GradingModeInline,
		},
		Midtrans: MidtransConfig{
			PriceBasic:    99000,
			PricePremium:  249000,
			FreeExamLimit: 5,
			PeriodDays:    30,
		},
		CORS: CORSConfig{
			Origins: []string{"http://localhost:5173", "http://localhost:3001"},
		},
	}
}

// Load: default -> CONFIG_FILE (toml, opsional) -> ENV.
func Load() (*Config, error) {
	cfg := Default()

	if path := GetEnv("CONFIG_FILE"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return nil, err
		}
	}
	applyEnv(&cfg)
	normalize(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	// durasi ditulis sebagai string ("30s") di file
	var durations struct {
		Auth struct {
			AccessTTL string `toml:"access_ttl"`
		} `toml:"auth"`
		HTTP struct {
			RetryBase string `toml:"retry_base"`
			RetryMax  string `toml:"retry_max"`
			Timeout   string `toml:"timeout"`
		} `toml:"http"`
	}
	if err := toml.Unmarshal(raw, &durations); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	for _, d := range []struct {
		raw string
		dst *time.Duration
	}{
		{durations.Auth.AccessTTL, &cfg.Auth.AccessTTL},
		{durations.HTTP.RetryBase, &cfg.HTTP.RetryBase},
		{durations.HTTP.RetryMax, &cfg.HTTP.RetryMax},
		{durations.HTTP.Timeout, &cfg.HTTP.Timeout},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config file %s: durasi %q: %w", path, d.raw, err)
		}
		*d.dst = parsed
	}
	log.Printf("[INFO] config file %s dimuat", path)
	return nil
}

func applyEnv(cfg *Config) {
	cfg.AppEnv = GetEnv("APP_ENV", cfg.AppEnv)
	cfg.Port = GetEnv("PORT", cfg.Port)
	cfg.BaseURL = GetEnv("PUBLIC_BASE_URL", cfg.BaseURL)

	cfg.Database.URL = GetEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Database.MaxOpenConns = envInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = envInt("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.LogSQL = envBool("DB_LOG_SQL", cfg.Database.LogSQL)

	cfg.Auth.JWTSecret = GetEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.AccessTTL = envDuration("ACCESS_TTL", cfg.Auth.AccessTTL)
	cfg.Auth.GoogleClientID = GetEnv("GOOGLE_CLIENT_ID", cfg.Auth.GoogleClientID)
	cfg.Auth.BlacklistRetainDays = envInt("TOKEN_BLACKLIST_TTL_DAYS", cfg.Auth.BlacklistRetainDays)
	cfg.Auth.SecureCookie = envBool("SECURE_COOKIE", cfg.Auth.SecureCookie)

	cfg.Upload.Dir = GetEnv("UPLOAD_DIR", cfg.Upload.Dir)
	if mb := envInt("MAX_UPLOAD_MB", 0); mb > 0 {
		cfg.Upload.MaxBytes = int64(mb) * 1024 * 1024
	}

	cfg.OSS.Endpoint = GetEnv("ALI_OSS_ENDPOINT", cfg.OSS.Endpoint)
	cfg.OSS.AccessKey = GetEnv("ALI_OSS_ACCESS_KEY", cfg.OSS.AccessKey)
	cfg.OSS.SecretKey = GetEnv("ALI_OSS_SECRET_KEY", cfg.OSS.SecretKey)
	cfg.OSS.SecurityToken = GetEnv("ALI_OSS_SECURITY_TOKEN", cfg.OSS.SecurityToken)
	cfg.OSS.Bucket = GetEnv("ALI_OSS_BUCKET", cfg.OSS.Bucket)
	cfg.OSS.Prefix = GetEnv("ALI_OSS_PREFIX", cfg.OSS.Prefix)
	cfg.OSS.PublicBase = GetEnv("ALI_OSS_PUBLIC_BASE", cfg.OSS.PublicBase)

	cfg.S3.Bucket = GetEnv("S3_BUCKET", cfg.S3.Bucket)
	cfg.S3.Region = GetEnv("S3_REGION", cfg.S3.Region)
	cfg.S3.Prefix = GetEnv("S3_PREFIX", cfg.S3.Prefix)
	cfg.S3.PublicBase = GetEnv("S3_PUBLIC_BASE", cfg.S3.PublicBase)

	cfg.HTTP.RetryAttempts = envInt("HTTP_RETRY_ATTEMPTS", cfg.HTTP.RetryAttempts)
	cfg.HTTP.RetryBase = envDuration("HTTP_RETRY_BASE", cfg.HTTP.RetryBase)
	cfg.HTTP.RetryMax = envDuration("HTTP_RETRY_MAX", cfg.HTTP.RetryMax)
	cfg.HTTP.Timeout = envDuration("HTTP_TIMEOUT", cfg.HTTP.Timeout)

	cfg.Grading.APIKey = GetEnv("GEMINI_API_KEY", GetEnv("GOOGLE_API_KEY", cfg.Grading.APIKey))
	cfg.Grading.Model = GetEnv("GEMINI_MODEL", cfg.Grading.Model)
	cfg.Grading.BaseURL = GetEnv("GEMINI_BASE_URL", cfg.Grading.BaseURL)
	cfg.Grading.Mode = GetEnv("GRADING_MODE", cfg.Grading.Mode)

	cfg.Redis.URL = GetEnv("REDIS_URL", cfg.Redis.URL)

	cfg.Midtrans.ServerKey = GetEnv("MIDTRANS_SERVER_KEY", cfg.Midtrans.ServerKey)
	cfg.Midtrans.UseProduction = envBool("MIDTRANS_USE_PROD", cfg.Midtrans.UseProduction)
	cfg.Midtrans.PriceBasic = int64(envInt("PLAN_PRICE_BASIC", int(cfg.Midtrans.PriceBasic)))
	cfg.Midtrans.PricePremium = int64(envInt("PLAN_PRICE_PREMIUM", int(cfg.Midtrans.PricePremium)))
	cfg.Midtrans.FreeExamLimit = envInt("FREE_EXAM_LIMIT", cfg.Midtrans.FreeExamLimit)

	if raw := GetEnv("CORS_ORIGINS"); raw != "" {
		cfg.CORS.Origins = splitList(raw)
	}
}

func normalize(cfg *Config) {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.Grading.BaseURL = strings.TrimRight(cfg.Grading.BaseURL, "/")
	cfg.Grading.Mode = strings.ToLower(strings.TrimSpace(cfg.Grading.Mode))
	cfg.OSS.Prefix = strings.Trim(cfg.OSS.Prefix, "/")
	cfg.S3.Prefix = strings.Trim(cfg.S3.Prefix, "/")
	if cfg.HTTP.RetryAttempts < 1 {
		cfg.HTTP.RetryAttempts = 1
	}
}

func (c *Config) IsTest() bool { return c.AppEnv == "test" }

func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" && !c.IsTest() {
		errs = append(errs, errors.New("JWT_SECRET belum diset"))
	}
	switch c.Grading.Mode {
	case GradingModeInline, GradingModeExtracted:
	default:
		errs = append(errs, fmt.Errorf("GRADING_MODE tidak dikenal: %q", c.Grading.Mode))
	}
	if c.Upload.Dir == "" {
		errs = append(errs, errors.New("UPLOAD_DIR kosong"))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("batas upload harus > 0"))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT harus > 0"))
	}
	return errors.Join(errs...)
}

/* ===== env parsing ===== */

func envInt(key string, def int) int {
	if v := GetEnv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[WARN] %s bukan angka: %q", key, v)
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := GetEnv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("[WARN] %s bukan boolean: %q", key, v)
	}
	return def
}

// envDuration menerima "30s", "1m" atau angka polos (detik).
func envDuration(key string, def time.Duration) time.Duration {
	v := GetEnv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	log.Printf("[WARN] %s bukan durasi: %q", key, v)
	return def
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
