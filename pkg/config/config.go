package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración del proceso. Se lee una sola vez al arrancar y no cambia después.
type Config struct {
	App          AppConfig
	Storage      StorageConfig
	DB           DBConfig
	JWT          JWTConfig
	HTTP         HTTPConfig
	Redis        RedisConfig
	Session      SessionConfig
	Subscription SubscriptionConfig
	Bootstrap    BootstrapConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// StorageConfig elige el adaptador de persistencia: "postgres" o "memory".
type StorageConfig struct {
	Driver string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve DATABASE_URL si está definido, si no el DSN construido.
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN arma el connection string con la contraseña escapada.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// JWTConfig firma de los secretos de sesión. La expiración vive en SessionConfig.
type JWTConfig struct {
	Secret string
	Issuer string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig destino de las notificaciones de inicio de sesión. Addr vacío = solo log.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// SessionConfig política de sesiones concurrentes.
type SessionConfig struct {
	AllowMultipleSessions  bool
	MaxDevices             *int           // nil = sin límite
	RevokeOldestOnLimit    bool
	TokenExpiration        *time.Duration // nil = los tokens no expiran
	RevokeOnPasswordChange bool
	NotifyNewLogin         bool
}

// SubscriptionConfig catálogo de estados y barrido periódico.
type SubscriptionConfig struct {
	CatalogPath   string // vacío = catálogo por defecto
	SweepInterval time.Duration
}

// BootstrapConfig administrador inicial para STORAGE_DRIVER=memory y cmd/seed. Password vacío = no se crea.
type BootstrapConfig struct {
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde .env / config.env).
// Las env vars tienen prioridad. Valores inválidos de sesión o barrido devuelven error.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // opcional

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.MergeInConfig() // opcional

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	maxDevices, err := getOptionalPositiveInt(v, "SESSION_MAX_DEVICES")
	if err != nil {
		return nil, err
	}
	expMinutes, err := getOptionalPositiveInt(v, "SESSION_TOKEN_EXPIRATION_MINUTES")
	if err != nil {
		return nil, err
	}
	var tokenExp *time.Duration
	if expMinutes != nil {
		d := time.Duration(*expMinutes) * time.Minute
		tokenExp = &d
	}
	sweep, err := getDuration(v, "SUBSCRIPTION_SWEEP_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "facturacion-core"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			Driver: getString(v, "STORAGE_DRIVER", "postgres"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "facturacion"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret: getString(v, "JWT_SECRET", ""),
			Issuer: getString(v, "JWT_ISSUER", "facturacion-core"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
			Channel:  getString(v, "NOTIFY_CHANNEL", "auth:new-login"),
		},
		Session: SessionConfig{
			AllowMultipleSessions:  getBool(v, "SESSION_ALLOW_MULTIPLE", true),
			MaxDevices:             maxDevices,
			RevokeOldestOnLimit:    getBool(v, "SESSION_REVOKE_OLDEST_ON_LIMIT", true),
			TokenExpiration:        tokenExp,
			RevokeOnPasswordChange: getBool(v, "SESSION_REVOKE_ON_PASSWORD_CHANGE", true),
			NotifyNewLogin:         getBool(v, "SESSION_NOTIFY_NEW_LOGIN", false),
		},
		Subscription: SubscriptionConfig{
			CatalogPath:   getString(v, "SUBSCRIPTION_CATALOG_PATH", ""),
			SweepInterval: sweep,
		},
		Bootstrap: BootstrapConfig{
			AdminUsername: getString(v, "BOOTSTRAP_ADMIN_USERNAME", "admin"),
			AdminEmail:    getString(v, "BOOTSTRAP_ADMIN_EMAIL", "admin@localhost.local"),
			AdminPassword: getString(v, "BOOTSTRAP_ADMIN_PASSWORD", ""),
		},
	}

	switch cfg.Storage.Driver {
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("config: STORAGE_DRIVER %q no soportado", cfg.Storage.Driver)
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) || strings.TrimSpace(v.GetString(key)) == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return def
	}
	return b
}

// getOptionalPositiveInt devuelve nil si la clave no está definida o está vacía.
func getOptionalPositiveInt(v *viper.Viper, key string) (*int, error) {
	if !v.IsSet(key) {
		return nil, nil
	}
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("config: %s debe ser un entero: %w", key, err)
	}
	if n <= 0 {
		return nil, fmt.Errorf("config: %s debe ser positivo, recibido %d", key, n)
	}
	return &n, nil
}

func getDuration(v *viper.Viper, key string, def time.Duration) (time.Duration, error) {
	if !v.IsSet(key) || strings.TrimSpace(v.GetString(key)) == "" {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("config: %s inválido: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s debe ser positivo", key)
	}
	return d, nil
}
