// Package config loads runtime settings from environment variables, with an
// optional YAML file (CONFIG_FILE) supplying values the environment leaves unset.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type Config struct {
	AppPort string

	DBDriver  string
	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	SQLitePath string

	// RedisAddr empty disables the idempotency middleware and the distributed lock.
	RedisAddr string
	RedisDB   int

	IdempTTLSecs int
	LockTTLSecs  int

	// KafkaBrokers empty logs events instead of publishing them.
	KafkaBrokers []string
	KafkaTopic   string

	LogLevel  string
	LogFormat string

	OverdueSweepCron      string
	DefaultAfterOverdue   int
	EnforceInvestorLimits bool
	QuestionnaireFile     string
}

type source struct{ file map[string]string }

func (s source) getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	if v := s.file[k]; v != "" {
		return v
	}
	return d
}

func (s source) getint(k string, d int) (int, error) {
	v := s.getenv(k, "")
	if v == "" {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", k, v)
	}
	return n, nil
}

func (s source) getbool(k string, d bool) (bool, error) {
	v := s.getenv(k, "")
	if v == "" {
		return d, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %q is not a boolean", k, v)
	}
	return b, nil
}

// readFile flattens a YAML mapping of KEY: value into strings.
func readFile(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case nil:
		case []any:
			parts := make([]string, 0, len(t))
			for _, p := range t {
				parts = append(parts, fmt.Sprint(p))
			}
			out[strings.ToUpper(k)] = strings.Join(parts, ",")
		default:
			out[strings.ToUpper(k)] = fmt.Sprint(t)
		}
	}
	return out, nil
}

func Load() (*Config, error) {
	s := source{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		f, err := readFile(path)
		if err != nil {
			return nil, err
		}
		s.file = f
	}

	c := &Config{
		AppPort:   s.getenv("APP_PORT", "8080"),
		DBDriver:  strings.ToLower(s.getenv("DB_DRIVER", DriverMySQL)),
		MySQLHost: s.getenv("MYSQL_HOST", "mysql"),
		MySQLPort: s.getenv("MYSQL_PORT", "3306"),
		MySQLDB:   s.getenv("MYSQL_DB", "lending"),
		MySQLUser: s.getenv("MYSQL_USER", "lending"),
		MySQLPass: s.getenv("MYSQL_PASS", "lending"),

		SQLitePath: s.getenv("SQLITE_PATH", "lending.db"),

		RedisAddr: s.getenv("REDIS_ADDR", ""),

		KafkaTopic: s.getenv("KAFKA_TOPIC", "lending.events"),

		LogLevel:  s.getenv("LOG_LEVEL", "info"),
		LogFormat: s.getenv("LOG_FORMAT", "json"),

		OverdueSweepCron:  s.getenv("OVERDUE_SWEEP_CRON", "0 * * * *"),
		QuestionnaireFile: s.getenv("QUESTIONNAIRE_FILE", ""),
	}
	if v := s.getenv("KAFKA_BROKERS", ""); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.KafkaBrokers = append(c.KafkaBrokers, b)
			}
		}
	}

	var errs []error
	var err error
	if c.RedisDB, err = s.getint("REDIS_DB", 0); err != nil {
		errs = append(errs, err)
	}
	if c.IdempTTLSecs, err = s.getint("IDEMPOTENCY_TTL_SECONDS", 300); err != nil {
		errs = append(errs, err)
	}
	if c.LockTTLSecs, err = s.getint("LOCK_TTL_SECONDS", 10); err != nil {
		errs = append(errs, err)
	}
	if c.DefaultAfterOverdue, err = s.getint("DEFAULT_AFTER_OVERDUE", 3); err != nil {
		errs = append(errs, err)
	}
	if c.EnforceInvestorLimits, err = s.getbool("ENFORCE_INVESTOR_LIMITS", false); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case DriverMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("DB_DRIVER must be mysql, sqlite or memory, got %q", c.DBDriver)
	}
	if c.IdempTTLSecs <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL_SECONDS must be positive, got %d", c.IdempTTLSecs)
	}
	if c.LockTTLSecs <= 0 {
		return fmt.Errorf("LOCK_TTL_SECONDS must be positive, got %d", c.LockTTLSecs)
	}
	if c.DefaultAfterOverdue < 0 {
		return fmt.Errorf("DEFAULT_AFTER_OVERDUE must not be negative, got %d", c.DefaultAfterOverdue)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	if c.OverdueSweepCron != "" {
		if _, err := cron.ParseStandard(c.OverdueSweepCron); err != nil {
			return fmt.Errorf("invalid OVERDUE_SWEEP_CRON %q: %w", c.OverdueSweepCron, err)
		}
	}
	return nil
}

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }
func (c *Config) LockTTL() time.Duration        { return time.Duration(c.LockTTLSecs) * time.Second }

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

// DSN returns the data source for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == DriverSQLite {
		return c.SQLitePath
	}
	return c.MySQLDSN()
}

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
