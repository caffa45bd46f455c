package config

import "time"

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"agenda"`
	Password string `env:"PASSWORD"                envDefault:"agenda"`
	Name     string `env:"NAME"                    envDefault:"agenda"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
	// MaxOpenConns bounds the connection pool.
	MaxOpenConns int `env:"MAX_OPEN_CONNS" envDefault:"25"`
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
	// Disabled runs without Redis; agenda snapshots are then never cached.
	Disabled bool `env:"DISABLED" envDefault:"false"`
}

// CacheConfig contains agenda snapshot cache configuration (Redis-based).
type CacheConfig struct {
	// AgendaTTL is how long a prefetched job window stays cached.
	AgendaTTL time.Duration `env:"AGENDA_CACHE_TTL" envDefault:"60s"`

	// KeyPrefix namespaces cache keys so several deployments can share a Redis.
	KeyPrefix string `env:"AGENDA_CACHE_PREFIX" envDefault:"agenda"`
}

// Sanitize applies guardrails to cache configuration values.
func (c *CacheConfig) Sanitize() {
	if c.AgendaTTL < 0 {
		c.AgendaTTL = 0
	}
	if c.AgendaTTL > time.Hour {
		c.AgendaTTL = time.Hour
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "agenda"
	}
}
