package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Admin        AdminConfig
	Password     PasswordConfig
	Payments     PaymentsConfig
	Inventory    InventoryConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Payments.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BLOOMSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"BLOOMSHOP_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"BLOOMSHOP_APP_BASE_URL" default:"http://localhost:3000"`
	LogLevel     string `envconfig:"BLOOMSHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BLOOMSHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BLOOMSHOP_DB_DSN"`
	Driver string `envconfig:"BLOOMSHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BLOOMSHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"BLOOMSHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BLOOMSHOP_DB_USER"`
	LegacyPassword string `envconfig:"BLOOMSHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"BLOOMSHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"BLOOMSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BLOOMSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BLOOMSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BLOOMSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BLOOMSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BLOOMSHOP_REDIS_URL"`
	Address      string        `envconfig:"BLOOMSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"BLOOMSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"BLOOMSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BLOOMSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BLOOMSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BLOOMSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BLOOMSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BLOOMSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BLOOMSHOP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BLOOMSHOP_JWT_ISSUER" default:"bloomshop"`
	ExpirationMinutes int    `envconfig:"BLOOMSHOP_JWT_EXPIRATION_MINUTES" default:"720"`
}

// AdminConfig carries the back-office credentials. The password is stored as
// an argon2id hash, never plaintext.
type AdminConfig struct {
	Username     string        `envconfig:"BLOOMSHOP_ADMIN_USERNAME" required:"true"`
	PasswordHash string        `envconfig:"BLOOMSHOP_ADMIN_PASSWORD_HASH" required:"true"`
	SessionTTL   time.Duration `envconfig:"BLOOMSHOP_ADMIN_SESSION_TTL" default:"12h"`

	LoginWindow  time.Duration `envconfig:"BLOOMSHOP_ADMIN_LOGIN_WINDOW" default:"5m"`
	LoginIPLimit int           `envconfig:"BLOOMSHOP_ADMIN_LOGIN_IP_LIMIT" default:"10"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BLOOMSHOP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BLOOMSHOP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BLOOMSHOP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BLOOMSHOP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BLOOMSHOP_ARGON_KEY_LEN" default:"32"`
}

// PaymentsConfig configures the hosted payment processor. Secrets are
// validated at startup so a misconfigured process fails fast instead of
// surfacing as checkout-time dependency errors.
type PaymentsConfig struct {
	AccessToken    string        `envconfig:"BLOOMSHOP_SQUARE_ACCESS_TOKEN"`
	Environment    string        `envconfig:"BLOOMSHOP_SQUARE_ENV" default:"sandbox"`
	LocationID     string        `envconfig:"BLOOMSHOP_SQUARE_LOCATION_ID"`
	WebhookSecret  string        `envconfig:"BLOOMSHOP_PAYMENT_WEBHOOK_SECRET"`
	SuccessPath    string        `envconfig:"BLOOMSHOP_PAYMENT_SUCCESS_PATH" default:"/order/success"`
	CancelPath     string        `envconfig:"BLOOMSHOP_PAYMENT_CANCEL_PATH" default:"/checkout"`
	EventGuardTTL  time.Duration `envconfig:"BLOOMSHOP_PAYMENT_EVENT_GUARD_TTL" default:"720h"`
}

func (p PaymentsConfig) validate() error {
	missing := []string{}
	if strings.TrimSpace(p.AccessToken) == "" {
		missing = append(missing, EnvSquareAccessToken)
	}
	if strings.TrimSpace(p.LocationID) == "" {
		missing = append(missing, EnvSquareLocationID)
	}
	if strings.TrimSpace(p.WebhookSecret) == "" {
		missing = append(missing, EnvPaymentWebhookSecret)
	}
	if len(missing) > 0 {
		return fmt.Errorf("payment configuration incomplete: %s required", strings.Join(missing, ", "))
	}
	return nil
}

type InventoryConfig struct {
	LowStockThreshold int `envconfig:"BLOOMSHOP_LOW_STOCK_THRESHOLD" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BLOOMSHOP_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
