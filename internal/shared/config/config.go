package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	ctopics "github.com/radieske/election-odds-ingest/pkg/contracts/topics"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DefaultFeedURL       = "https://www.electionbettingodds.com/President2020_api"
	DefaultFeedContainer = "BettingData"
)

// Config centraliza variáveis de ambiente e parâmetros de execução do serviço
// Inclui feed, banco, Redis, Kafka, agendamento e portas
type Config struct {
	Env         string `mapstructure:"env"` // "local", "dev", "prod"
	ServiceName string `mapstructure:"service_name"`
	LogLevel    string `mapstructure:"log_level"`

	// Feed de odds
	FeedURL       string        `mapstructure:"feed_url"`
	FeedContainer string        `mapstructure:"feed_container"`
	FeedTimeout   time.Duration `mapstructure:"feed_timeout"` // 0 = sem timeout além do transporte

	// Banco
	DBDriver               string        `mapstructure:"db_driver"`
	PostgresDSN            string        `mapstructure:"postgres_dsn"` // se vazio, montado a partir de DB_*
	DBHost                 string        `mapstructure:"db_host"`      // "host:port"
	DBUser                 string        `mapstructure:"db_user"`
	DBPass                 string        `mapstructure:"db_pass"`
	DBName                 string        `mapstructure:"db_database"`
	DBSocketPath           string        `mapstructure:"db_socket_path"`
	InstanceConnectionName string        `mapstructure:"instance_connection_name"`
	DBMaxConns             int           `mapstructure:"db_max_conns"`
	DBConnectTimeout       time.Duration `mapstructure:"db_connect_timeout"`
	SQLitePath             string        `mapstructure:"sqlite_path"`

	// Opcionais: vazio desabilita
	RedisAddr    string `mapstructure:"redis_addr"`
	KafkaBrokers string `mapstructure:"kafka_brokers"` // "a:9092,b:9092"

	// Tópicos/canais
	TopicCandidateOdds string `mapstructure:"kafka_topic_candidate_odds"`
	TopicIngestionRuns string `mapstructure:"kafka_topic_ingestion_runs"`
	RedisPubSubChannel string `mapstructure:"redis_pubsub_channel"`

	PollInterval time.Duration `mapstructure:"poll_interval"` // 0 = só via HTTP
	RunLockTTL   time.Duration `mapstructure:"run_lock_ttl"`
	RunCacheTTL  time.Duration `mapstructure:"run_cache_ttl"`

	HTTPPort    string `mapstructure:"port"`
	MetricsPort string `mapstructure:"metrics_port"` // Porta exclusiva para /metrics e /healthz
}

// Load carrega variáveis de ambiente e define defaults
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("env", "local")
	v.SetDefault("service_name", "odds-ingest-service")
	v.SetDefault("log_level", "info")

	v.SetDefault("feed_url", DefaultFeedURL)
	v.SetDefault("feed_container", DefaultFeedContainer)
	v.SetDefault("feed_timeout", time.Duration(0))

	v.SetDefault("db_driver", DriverPostgres)
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("db_host", "")
	v.SetDefault("db_user", "")
	v.SetDefault("db_pass", "")
	v.SetDefault("db_database", "election")
	v.SetDefault("db_socket_path", "/cloudsql")
	v.SetDefault("instance_connection_name", "")
	v.SetDefault("db_max_conns", 5)
	v.SetDefault("db_connect_timeout", 10*time.Second)
	v.SetDefault("sqlite_path", "election.db")

	v.SetDefault("redis_addr", "")
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_topic_candidate_odds", ctopics.CandidateOdds)
	v.SetDefault("kafka_topic_ingestion_runs", ctopics.IngestionRuns)
	v.SetDefault("redis_pubsub_channel", ctopics.CandidateBroadcast)

	v.SetDefault("poll_interval", time.Duration(0))
	v.SetDefault("run_lock_ttl", 2*time.Minute)
	v.SetDefault("run_cache_ttl", 24*time.Hour)

	v.SetDefault("port", "8080")
	v.SetDefault("metrics_port", "9096")

	// chaves já estão no formato das variáveis (FEED_URL -> feed_url)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate verifica combinações inválidas de configuração
func (c Config) Validate() error {
	if c.FeedURL == "" {
		return errors.New("feed_url is required")
	}
	if _, err := url.ParseRequestURI(c.FeedURL); err != nil {
		return fmt.Errorf("feed_url is invalid: %w", err)
	}
	if c.FeedContainer == "" {
		return errors.New("feed_container is required")
	}
	switch c.DBDriver {
	case DriverPostgres:
		if c.PostgresDSN == "" && c.DBHost == "" && c.InstanceConnectionName == "" {
			return errors.New("postgres requires POSTGRES_DSN, DB_HOST or INSTANCE_CONNECTION_NAME")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported db_driver %q", c.DBDriver)
	}
	if c.DBMaxConns <= 0 {
		return errors.New("db_max_conns must be greater than 0")
	}
	if c.PollInterval < 0 {
		return errors.New("poll_interval must not be negative")
	}
	if c.RunLockTTL <= 0 {
		return errors.New("run_lock_ttl must be greater than 0")
	}
	if c.HTTPPort == "" {
		return errors.New("port is required")
	}
	return nil
}

// DSN retorna a string de conexão do Postgres.
// DB_HOST ("host:port") tem prioridade sobre o socket unix do Cloud SQL.
func (c Config) DSN() string {
	if c.PostgresDSN != "" {
		return c.PostgresDSN
	}

	q := url.Values{}
	q.Set("sslmode", "disable")
	q.Set("connect_timeout", fmt.Sprintf("%d", int(c.DBConnectTimeout.Seconds())))

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPass),
		Path:   "/" + c.DBName,
	}

	if c.DBHost != "" {
		host, port, err := net.SplitHostPort(c.DBHost)
		if err != nil {
			host, port = c.DBHost, "5432"
		}
		u.Host = net.JoinHostPort(host, port)
	} else {
		q.Set("host", strings.TrimRight(c.DBSocketPath, "/")+"/"+c.InstanceConnectionName)
	}

	u.RawQuery = q.Encode()
	return u.String()
}

// Brokers devolve a lista de brokers Kafka (vazia quando desabilitado)
func (c Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
