package config

import "fmt"

// Postgres is the connection block shared by the pgvector passage index and
// the turn store.
type Postgres struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

var sslModes = []string{"disable", "require", "verify-ca", "verify-full"}

// PostgresFromEnv reads POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER,
// POSTGRES_PASSWORD, POSTGRES_DB and POSTGRES_SSLMODE.
func PostgresFromEnv() Postgres {
	return Postgres{
		Host:     String("POSTGRES_HOST", "localhost"),
		Port:     Int("POSTGRES_PORT", 5432),
		User:     String("POSTGRES_USER", "postgres"),
		Password: String("POSTGRES_PASSWORD", ""),
		DBName:   String("POSTGRES_DB", "docqa"),
		SSLMode:  String("POSTGRES_SSLMODE", "disable"),
	}
}

// DSN renders the lib/pq keyword form.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Check adds the connection checks to v, for callers validating a larger
// struct that embeds Postgres.
func (p Postgres) Check(v *Validator) *Validator {
	return v.RequireNonEmpty("host", p.Host).
		ValidatePort("port", p.Port).
		RequireNonEmpty("user", p.User).
		RequireNonEmpty("dbName", p.DBName).
		ValidateOneOf("sslMode", p.SSLMode, sslModes...)
}

func (p Postgres) Validate() error {
	return p.Check(NewValidator()).Error()
}
