package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App        AppConfig
	DB         DBConfig
	JWT        JWTConfig
	HTTP       HTTPConfig
	Gateway    GatewayConfig
	Webhook    WebhookConfig
	Commission CommissionConfig
	Redis      RedisConfig
	RabbitMQ   RabbitMQConfig
	Kafka      KafkaConfig
	Worker     WorkerConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
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

	MaxConns         int32
	MinConns         int32
	StatementTimeout time.Duration // 0 = sin límite
	ApplicationName  string        // visible en pg_stat_activity
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de los tokens de operador que protegen /api.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
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

// GatewayConfig parámetros del cliente del gateway de pagos.
// Las credenciales NO viven aquí: se leen de integration_configs en cada request.
type GatewayConfig struct {
	ServiceName string        // fila de integration_configs (ej: "asaas")
	Timeout     time.Duration // límite por llamada; timeout = estado desconocido
}

// WebhookConfig parámetros del endpoint público de eventos.
type WebhookConfig struct {
	Token          string // si no está vacío se exige en el header asaas-access-token
	StrictOrdering bool   // true: rechaza pago → atrasado; false: último evento gana
}

// CommissionConfig valores por defecto para el cálculo de comisiones.
type CommissionConfig struct {
	DefaultTariff string // R$/kWh, decimal en texto
}

// RedisConfig conexión para el lease de emisión consolidada. Addr vacío = lock en memoria.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RabbitMQConfig cola de notificaciones salientes. URL vacía = notificaciones solo en log.
type RabbitMQConfig struct {
	URL               string
	NotificationQueue string
}

// KafkaConfig tópico de eventos de facturación. Brokers vacío = publicador no-op.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// WorkerConfig cola de efectos secundarios y job de reconciliación.
type WorkerConfig struct {
	SideEffectWorkers     int
	SideEffectMaxAttempts int
	SideEffectQueueSize   int
	ReconcileInterval     time.Duration
	ReconcileStaleAfter   time.Duration
	ReconcileConcurrency  int
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, GATEWAY_SERVICE_NAME, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "cobranca-api"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "cobranca"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),

			MaxConns:         int32(getInt(v, "DB_MAX_CONNS", 10)),
			MinConns:         int32(getInt(v, "DB_MIN_CONNS", 1)),
			StatementTimeout: time.Duration(getInt(v, "DB_STATEMENT_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "cobranca-api"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Gateway: GatewayConfig{
			ServiceName: getString(v, "GATEWAY_SERVICE_NAME", "asaas"),
			Timeout:     time.Duration(getInt(v, "GATEWAY_TIMEOUT_SECONDS", 8)) * time.Second,
		},
		Webhook: WebhookConfig{
			Token:          getString(v, "WEBHOOK_TOKEN", ""),
			StrictOrdering: getBool(v, "WEBHOOK_STRICT_ORDERING", true),
		},
		Commission: CommissionConfig{
			DefaultTariff: getString(v, "COMMISSION_DEFAULT_TARIFF", "0.85"),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		RabbitMQ: RabbitMQConfig{
			URL:               getString(v, "RABBITMQ_URL", ""),
			NotificationQueue: getString(v, "NOTIFICATION_QUEUE", "notifications.outbound"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getString(v, "KAFKA_BROKERS", "")),
			Topic:   getString(v, "KAFKA_TOPIC", "billing.events"),
		},
		Worker: WorkerConfig{
			SideEffectWorkers:     getInt(v, "SIDE_EFFECT_WORKERS", 4),
			SideEffectMaxAttempts: getInt(v, "SIDE_EFFECT_MAX_ATTEMPTS", 5),
			SideEffectQueueSize:   getInt(v, "SIDE_EFFECT_QUEUE_SIZE", 256),
			ReconcileInterval:     time.Duration(getInt(v, "RECONCILE_INTERVAL_MINUTES", 5)) * time.Minute,
			ReconcileStaleAfter:   time.Duration(getInt(v, "RECONCILE_STALE_AFTER_MINUTES", 5)) * time.Minute,
			ReconcileConcurrency:  getInt(v, "RECONCILE_CONCURRENCY", 5),
		},
	}

	cfg.DB.ApplicationName = cfg.App.Name

	if cfg.Gateway.Timeout <= 0 {
		return nil, fmt.Errorf("GATEWAY_TIMEOUT_SECONDS debe ser mayor que cero")
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
	if !v.IsSet(key) {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return def
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
