package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（8080）
	GoEnv string // development/production

	FEURL         string // フロントURL（CORS・テーブル画面へのリダイレクト先）
	PublicBaseURL string // APIの外部URL（QRコードに埋め込む）

	DatabaseURL      string // あれば最優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string
	AutoMigrate      bool // 起動時にマイグレーションを流す

	JWTSecret    string        // JWT署名シークレット
	JWTAccessTTL time.Duration // アクセストークンの有効期限

	RedisAddr       string // 空ならキャッシュ無し
	RedisPassword   string
	RedisDB         int
	CartSnapshotTTL time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string          // cad
	TaxRate             decimal.Decimal // 0.15

	AMQPURL          string // 空ならイベント送信しない
	TelegramBotToken string // 空なら通知しない

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	LogLevel  string // debug/info/warn/error
	LogFormat string // json/console
}

func (c Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// Postgres接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// Loadは .env → config.yaml → 環境変数 の順で読む（後勝ち）
func Load() (Config, error) {
	// .envは無くてもよい
	_ = godotenv.Load(".env", "../.env")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GO_ENV", "development")
	v.SetDefault("FE_URL", "http://localhost:3000")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "postgres")
	v.SetDefault("POSTGRES_DB", "tableorder")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("AUTO_MIGRATE", true)

	v.SetDefault("JWT_ACCESS_TTL", "12h")

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CART_SNAPSHOT_TTL", "24h")

	v.SetDefault("CURRENCY", "cad")
	v.SetDefault("TAX_RATE", "0.15")

	v.SetDefault("MINIO_BUCKET", "menu-images")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

func fromViper(v *viper.Viper) (Config, error) {
	taxRate, err := decimal.NewFromString(v.GetString("TAX_RATE"))
	if err != nil {
		return Config{}, fmt.Errorf("TAX_RATE must be decimal: %w", err)
	}

	cfg := Config{
		Port:  v.GetString("PORT"),
		GoEnv: v.GetString("GO_ENV"),

		FEURL:         strings.TrimRight(v.GetString("FE_URL"), "/"),
		PublicBaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),

		DatabaseURL:      v.GetString("DATABASE_URL"),
		PostgresUser:     v.GetString("POSTGRES_USER"),
		PostgresPassword: v.GetString("POSTGRES_PASSWORD"),
		PostgresDB:       v.GetString("POSTGRES_DB"),
		PostgresHost:     v.GetString("POSTGRES_HOST"),
		PostgresPort:     v.GetInt("POSTGRES_PORT"),
		PostgresSSLMode:  v.GetString("POSTGRES_SSLMODE"),
		AutoMigrate:      v.GetBool("AUTO_MIGRATE"),

		JWTSecret:    v.GetString("JWT_SECRET"),
		JWTAccessTTL: v.GetDuration("JWT_ACCESS_TTL"),

		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		RedisDB:         v.GetInt("REDIS_DB"),
		CartSnapshotTTL: v.GetDuration("CART_SNAPSHOT_TTL"),

		StripeSecretKey:     v.GetString("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
		Currency:            strings.ToLower(v.GetString("CURRENCY")),
		TaxRate:             taxRate,

		AMQPURL:          v.GetString("AMQP_URL"),
		TelegramBotToken: v.GetString("TELEGRAM_BOT_TOKEN"),

		MinioEndpoint:  v.GetString("MINIO_ENDPOINT"),
		MinioAccessKey: v.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey: v.GetString("MINIO_SECRET_KEY"),
		MinioBucket:    v.GetString("MINIO_BUCKET"),
		MinioUseSSL:    v.GetBool("MINIO_USE_SSL"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	//必須チェック
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.DatabaseURL == "" && (c.PostgresHost == "" || c.PostgresDB == "") {
		return fmt.Errorf("DATABASE_URL or POSTGRES_HOST/POSTGRES_DB is required")
	}
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required")
		}
		c.JWTSecret = "dev_secret_change_me"
	}
	if c.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be positive")
	}
	if c.TaxRate.IsNegative() || c.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("TAX_RATE must be in [0, 1)")
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("CURRENCY must be a 3-letter code")
	}
	return nil
}
