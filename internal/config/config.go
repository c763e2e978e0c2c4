package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values for configuration fields.
const (
	DefaultPath             = "tiger.yml"
	DefaultEnvFile          = ".env"
	DefaultWorkspace        = "./tiger"
	DefaultDriver           = "postgres"
	DefaultLockTimeout      = 5 * time.Second
	DefaultStatementTimeout = 30 * time.Second
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TIGER_"

// ErrMissingField indicates a setting a command needs was not provided.
var ErrMissingField = errors.New("missing configuration field")

// SQLConfig selects the database that change scripts run against.
type SQLConfig struct {
	Driver           string
	Host             string
	LockTimeout      time.Duration
	StatementTimeout time.Duration
}

// S3Config locates the bucket holding packaged artifacts.
type S3Config struct {
	Key      string
	Secret   string
	Bucket   string
	Region   string
	Endpoint string
}

// Config holds the application configuration loaded from file, environment, and flags.
type Config struct {
	Workspace string
	SQL       SQLConfig
	S3        S3Config
}

// yamlConfig is the raw YAML file representation with string durations.
type yamlConfig struct {
	Workspace string `yaml:"workspace"`
	SQL       struct {
		Driver           string `yaml:"driver"`
		Host             string `yaml:"host"`
		LockTimeout      string `yaml:"lock_timeout"`
		StatementTimeout string `yaml:"statement_timeout"`
	} `yaml:"sql"`
	S3 struct {
		Key      string `yaml:"key"`
		Secret   string `yaml:"secret"`
		Bucket   string `yaml:"bucket"`
		Region   string `yaml:"region"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"s3"`
}

// envConfig mirrors Config for TIGER_* overrides. Zero values mean unset.
type envConfig struct {
	Workspace string `env:"WORKSPACE"`
	SQL       struct {
		Driver           string        `env:"DRIVER"`
		Host             string        `env:"HOST"`
		LockTimeout      time.Duration `env:"LOCK_TIMEOUT"`
		StatementTimeout time.Duration `env:"STATEMENT_TIMEOUT"`
	} `envPrefix:"SQL_"`
	S3 struct {
		Key      string `env:"KEY"`
		Secret   string `env:"SECRET"`
		Bucket   string `env:"BUCKET"`
		Region   string `env:"REGION"`
		Endpoint string `env:"ENDPOINT"`
	} `envPrefix:"S3_"`
}

// New returns a Config populated with default values.
func New() *Config {
	return &Config{
		Workspace: DefaultWorkspace,
		SQL: SQLConfig{
			Driver:           DefaultDriver,
			LockTimeout:      DefaultLockTimeout,
			StatementTimeout: DefaultStatementTimeout,
		},
	}
}

// Load reads a YAML configuration file and returns a Config.
// If allowMissing is true and the file does not exist, defaults are returned.
func Load(path string, allowMissing bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return New(), nil
		}

		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return fromYAML(&raw)
}

// fromYAML converts the raw YAML representation to a Config with defaults applied.
func fromYAML(raw *yamlConfig) (*Config, error) {
	cfg := New()

	setString(&cfg.Workspace, raw.Workspace)
	setString(&cfg.SQL.Driver, raw.SQL.Driver)
	setString(&cfg.SQL.Host, raw.SQL.Host)
	setString(&cfg.S3.Key, raw.S3.Key)
	setString(&cfg.S3.Secret, raw.S3.Secret)
	setString(&cfg.S3.Bucket, raw.S3.Bucket)
	setString(&cfg.S3.Region, raw.S3.Region)
	setString(&cfg.S3.Endpoint, raw.S3.Endpoint)

	if err := setDuration(&cfg.SQL.LockTimeout, "sql.lock_timeout", raw.SQL.LockTimeout); err != nil {
		return nil, err
	}

	if err := setDuration(&cfg.SQL.StatementTimeout, "sql.statement_timeout", raw.SQL.StatementTimeout); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MergeEnv overrides config fields from TIGER_* environment variables, for
// example TIGER_SQL_HOST or TIGER_S3_BUCKET. Variables may also come from
// dotenv files; missing files are skipped and the process environment wins
// over file values.
func MergeEnv(cfg *Config, dotenvFiles ...string) error {
	environ, err := environment(dotenvFiles)
	if err != nil {
		return err
	}

	raw, err := env.ParseAsWithOptions[envConfig](env.Options{Prefix: EnvPrefix, Environment: environ})
	if err != nil {
		return fmt.Errorf("parsing %s environment: %w", EnvPrefix, err)
	}

	setString(&cfg.Workspace, raw.Workspace)
	setString(&cfg.SQL.Driver, raw.SQL.Driver)
	setString(&cfg.SQL.Host, raw.SQL.Host)
	setString(&cfg.S3.Key, raw.S3.Key)
	setString(&cfg.S3.Secret, raw.S3.Secret)
	setString(&cfg.S3.Bucket, raw.S3.Bucket)
	setString(&cfg.S3.Region, raw.S3.Region)
	setString(&cfg.S3.Endpoint, raw.S3.Endpoint)

	if raw.SQL.LockTimeout != 0 {
		cfg.SQL.LockTimeout = raw.SQL.LockTimeout
	}

	if raw.SQL.StatementTimeout != 0 {
		cfg.SQL.StatementTimeout = raw.SQL.StatementTimeout
	}

	return nil
}

func environment(dotenvFiles []string) (map[string]string, error) {
	environ := make(map[string]string)

	for _, path := range dotenvFiles {
		vars, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return nil, fmt.Errorf("reading env file %s: %w", path, err)
		}

		maps.Copy(environ, vars)
	}

	maps.Copy(environ, env.ToMap(os.Environ()))

	return environ, nil
}

// RequireSQL checks the settings needed to execute scripts.
func (c *Config) RequireSQL() error {
	return requireFields(map[string]string{
		"sql.driver": c.SQL.Driver,
		"sql.host":   c.SQL.Host,
	})
}

// RequireObjectStore checks the settings needed to read or write artifacts.
func (c *Config) RequireObjectStore() error {
	return requireFields(map[string]string{
		"s3.key":    c.S3.Key,
		"s3.secret": c.S3.Secret,
		"s3.bucket": c.S3.Bucket,
		"s3.region": c.S3.Region,
	})
}

func requireFields(fields map[string]string) error {
	var missing []error

	for _, name := range slices.Sorted(maps.Keys(fields)) {
		if fields[name] == "" {
			missing = append(missing, fmt.Errorf("%w: %s", ErrMissingField, name))
		}
	}

	return errors.Join(missing...)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, field, v string) error {
	if v == "" {
		return nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parsing %s %q: %w", field, v, err)
	}

	*dst = d

	return nil
}
