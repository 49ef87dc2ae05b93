package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"REGISTRAR_ADDR", "STORE_BACKEND", "DATABASE_URL", "DATABASE_DRIVER",
		"REDIS_URL", "KAFKA_BROKERS", "KAFKA_TOPIC", "BCRYPT_COST", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "voter.events", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, bcrypt.DefaultCost, cfg.Security.BcryptCost)
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("REGISTRAR_ADDR", ":9090")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/voters")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_AUTO_MIGRATE", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("REDIS_DIAL_TIMEOUT", "750ms")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 12, cfg.Security.BcryptCost)
	assert.Equal(t, 750*time.Millisecond, cfg.Redis.DialTimeout)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Store:    Store{Backend: BackendMemory},
			Database: DatabaseConfig{Driver: "pgx"},
			Kafka:    KafkaConfig{Topic: "voter.events"},
			Security: Security{BcryptCost: bcrypt.MinCost},
		}
	}

	t.Run("postgres backend requires url", func(t *testing.T) {
		cfg := base()
		cfg.Store.Backend = BackendPostgres
		assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL")
	})

	t.Run("unknown driver is rejected", func(t *testing.T) {
		cfg := base()
		cfg.Store.Backend = BackendPostgres
		cfg.Database.URL = "postgres://x"
		cfg.Database.Driver = "mysql"
		assert.ErrorContains(t, cfg.Validate(), "DATABASE_DRIVER")
	})

	t.Run("redis backend requires url", func(t *testing.T) {
		cfg := base()
		cfg.Store.Backend = BackendRedis
		assert.ErrorContains(t, cfg.Validate(), "REDIS_URL")
	})

	t.Run("unknown backend is rejected", func(t *testing.T) {
		cfg := base()
		cfg.Store.Backend = "sqlite"
		assert.ErrorContains(t, cfg.Validate(), "STORE_BACKEND")
	})

	t.Run("bcrypt cost must be in range", func(t *testing.T) {
		cfg := base()
		cfg.Security.BcryptCost = 2
		assert.ErrorContains(t, cfg.Validate(), "BCRYPT_COST")
	})

	t.Run("brokers without topic is rejected", func(t *testing.T) {
		cfg := base()
		cfg.Kafka = KafkaConfig{Brokers: []string{"k:9092"}}
		assert.ErrorContains(t, cfg.Validate(), "KAFKA_TOPIC")
	})
}
