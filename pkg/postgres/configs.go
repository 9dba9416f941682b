package postgres

import (
	"fmt"
	"time"
)

// Config holds the connection settings for the ingest run ledger database.
type Config struct {
	Connection        Connection        `yaml:"connection"`
	ConnectionDetails ConnectionDetails `yaml:"connection_details"`
}

type Connection struct {
	Host     string `yaml:"host" envconfig:"POSTGRES_HOST"`
	Port     string `yaml:"port" envconfig:"POSTGRES_PORT"`
	User     string `yaml:"user" envconfig:"POSTGRES_USER"`
	Password string `yaml:"password" envconfig:"POSTGRES_PASSWORD"`
	DbName   string `yaml:"db_name" envconfig:"POSTGRES_DB"`
	SSLMode  string `yaml:"ssl_mode" envconfig:"POSTGRES_SSL_MODE"`
}

type ConnectionDetails struct {
	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"POSTGRES_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" envconfig:"POSTGRES_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"POSTGRES_CONN_MAX_LIFETIME"`
}

// DefaultConfig returns settings for a local development database.
func DefaultConfig() Config {
	return Config{
		Connection: Connection{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			DbName:  "bookrag",
			SSLMode: "disable",
		},
		ConnectionDetails: ConnectionDetails{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Minute,
		},
	}
}

// DSN renders the connection as a libpq keyword/value string.
func (c Connection) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DbName, sslMode)
}
