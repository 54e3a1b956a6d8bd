package store

import "github.com/sweetpotato0/docqa/config"

// PostgresConfigFromEnv adds POSTGRES_TURN_TABLE to the shared connection
// settings.
func PostgresConfigFromEnv() *PostgresConfig {
	return &PostgresConfig{
		Postgres: config.PostgresFromEnv(),
		Table:    config.String("POSTGRES_TURN_TABLE", defaultTurnTable),
	}
}

// RedisConfigFromEnv reads REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, REDIS_PREFIX
// and REDIS_TTL.
func RedisConfigFromEnv() *RedisConfig {
	return &RedisConfig{
		Addr:     config.String("REDIS_ADDR", "localhost:6379"),
		Password: config.String("REDIS_PASSWORD", ""),
		DB:       config.Int("REDIS_DB", 0),
		Prefix:   config.String("REDIS_PREFIX", "docqa:turns:"),
		TTL:      config.Duration("REDIS_TTL", 0),
	}
}

func MongoConfigFromEnv() *MongoConfig {
	return &MongoConfig{
		URI:        config.String("MONGODB_URI", "mongodb://localhost:27017"),
		Database:   config.String("MONGODB_DB", "docqa"),
		Collection: config.String("MONGODB_COLLECTION", "turns"),
	}
}
