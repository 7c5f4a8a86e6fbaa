package pgstore

import (
	"flag"
	"fmt"
	"strings"

	"github.com/peterbourgon/ff"
)

// Config holds the PostgreSQL connection settings.
type Config struct {
	Host         string
	Port         int
	User         string
	Password     string
	DatabaseName string
	SSLMode      string
}

// DSN renders the config as a lib/pq connection string.
func (c *Config) DSN() string {
	parts := []string{
		fmt.Sprintf("host=%s", c.Host),
		fmt.Sprintf("port=%d", c.Port),
		fmt.Sprintf("user=%s", c.User),
		fmt.Sprintf("dbname=%s", c.DatabaseName),
		fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	if c.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", c.Password))
	}
	return strings.Join(parts, " ")
}

// ParseConfig parses connection flags from args, falling back to environment
// variables. Flags get priority.
//
// Example .env file
//
//	POSTGRES_HOST=localhost
//	POSTGRES_PORT=5432
//	POSTGRES_USER=alice
//	POSTGRES_DB_NAME=finora_dev
func ParseConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("postgres", flag.ContinueOnError)
	var (
		host     = fs.String("host", "localhost", "host to connect to")
		port     = fs.Int("port", 5432, "port to bind to")
		user     = fs.String("user", "", "user to sign in as")
		password = fs.String("password", "", "password for user")
		dbName   = fs.String("db_name", "finora", "name of the database")
		sslMode  = fs.String("sslmode", "disable", "lib/pq sslmode")
	)

	err := ff.Parse(fs, args,
		ff.WithIgnoreUndefined(true),
		ff.WithEnvVarPrefix("POSTGRES"),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres config: %w", err)
	}

	return &Config{
		Host:         *host,
		Port:         *port,
		User:         *user,
		Password:     *password,
		DatabaseName: *dbName,
		SSLMode:      *sslMode,
	}, nil
}
