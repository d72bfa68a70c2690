package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート

	DatabaseURL      string // 接続文字列（あれば個別項目より優先）
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	JWTSecret       string // アクセストークンの署名シークレット
	MagicLinkSecret string // マジックリンク専用の署名シークレット（JWTSecretとは別鍵）

	AccessTokenTTL  time.Duration // 短命（分単位）
	RefreshTokenTTL time.Duration // 既定7日
	MagicTokenTTL   time.Duration

	SMTPHost string
	SMTPPort int
	SMTPFrom string
	SMTPUser string
	SMTPPass string

	GoEnv string // dev/prod
}

// Loadは環境変数から設定を組み立てる
func Load() (Config, error) {
	cfg := Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "school"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		MagicLinkSecret: os.Getenv("MAGIC_LINK_SECRET"),

		SMTPHost: getenv("SMTP_HOST", "localhost"),
		SMTPFrom: getenv("SMTP_FROM", "no-reply@school.local"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),

		GoEnv: getenv("GO_ENV", "dev"),
	}

	pgPort, err := atoiEnv("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	cfg.PostgresPort = pgPort

	smtpPort, err := atoiEnv("SMTP_PORT", 587)
	if err != nil {
		return Config{}, err
	}
	cfg.SMTPPort = smtpPort

	accessMin, err := atoiEnv("ACCESS_TOKEN_TTL_MINUTES", 15)
	if err != nil {
		return Config{}, err
	}
	cfg.AccessTokenTTL = time.Duration(accessMin) * time.Minute

	refreshDays, err := atoiEnv("REFRESH_TOKEN_TTL_DAYS", 7)
	if err != nil {
		return Config{}, err
	}
	cfg.RefreshTokenTTL = time.Duration(refreshDays) * 24 * time.Hour

	magicMin, err := atoiEnv("MAGIC_TOKEN_TTL_MINUTES", 15)
	if err != nil {
		return Config{}, err
	}
	cfg.MagicTokenTTL = time.Duration(magicMin) * time.Minute

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.MagicLinkSecret == "" {
		return Config{}, fmt.Errorf("MAGIC_LINK_SECRET is required")
	}
	if cfg.JWTSecret == cfg.MagicLinkSecret {
		// 別鍵であることが前提。同じだとアクセストークンがマジックリンクとして通ってしまう
		return Config{}, fmt.Errorf("MAGIC_LINK_SECRET must differ from JWT_SECRET")
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}
