// Package config loads process configuration from the environment,
// applying the defaults enumerated in the external interfaces of the
// account/settlement core.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"account-settlement-core/internal/models"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	shardIndex, err := getEnvOptionalInt("SETTLEMENT_SHARD_INDEX")
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "account_settlement.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Settlement: models.SettlementConfig{
			ShardIndex:   shardIndex,
			ShardCount:   getEnvInt("SETTLEMENT_SHARD_COUNT", 1),
			CronSchedule: getEnvString("SETTLEMENT_CRON", "*/30 * * * * *"),
			Concurrency:  getEnvInt("SETTLEMENT_CONCURRENCY", 8),
		},
		Credential: models.CredentialConfig{
			MinUsernameLength: getEnvInt("MIN_USERNAME_LENGTH", 3),
			MaxUsernameLength: getEnvInt("MAX_USERNAME_LENGTH", 30),
			MinPasswordLength: getEnvInt("MIN_PASSWORD_LENGTH", 7),
			MaxPasswordLength: getEnvInt("MAX_PASSWORD_LENGTH", 50),
			SaltSize:          getEnvInt("SALT_SIZE", 32),
			MaxWalletAttempts: getEnvInt("MAX_WALLET_CREATE_ATTEMPTS", 10),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvOptionalInt returns nil when key is unset, so an unset
// SETTLEMENT_SHARD_INDEX can disable settlement for this process.
func getEnvOptionalInt(key string) (*int, error) {
	value := os.Getenv(key)
	if value == "" {
		return nil, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid integer for %s: %q (%w)", key, value, err)
	}
	return &intValue, nil
}
