package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "./config.yml"
	DefaultEnvFile    = "./config.env"
	EnvPrefix         = "DSAP"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit          string         `yaml:"git_commit" envconfig:"DSAP_GIT_COMMIT"`
	GitTag             string         `yaml:"git_tag" envconfig:"DSAP_GIT_TAG"`
	BuildTime          string         `yaml:"build_time" envconfig:"DSAP_BUILD_TIME"`
	IsProduction       bool           `yaml:"is_production" envconfig:"DSAP_IS_PRODUCTION"`
	LogLevel           zapcore.Level  `yaml:"log_level" envconfig:"DSAP_LOG_LEVEL"`
	LogFolder          string         `yaml:"log_folder" envconfig:"DSAP_LOG_FOLDER"`
	LogMaxSize         int            `yaml:"log_max_size" envconfig:"DSAP_LOG_MAX_SIZE"` // in megabytes
	ProfilerEnable     bool           `yaml:"profiler_enable" envconfig:"DSAP_PROFILER_ENABLE"`
	OpsEndpointsEnable bool           `yaml:"ops_endpoints_enable" envconfig:"DSAP_OPS_ENDPOINTS_ENABLE"`
	Server             ServerConfig   `yaml:"server"`
	Database           DatabaseConfig `yaml:"database"`
	Redis              RedisConfig    `yaml:"redis"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"DSAP_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"DSAP_SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"DSAP_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"DSAP_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"DSAP_SERVER_REQUEST_TIMEOUT"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"DSAP_SERVER_SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig holds the relational store settings. The DSN may
// embed credentials so it is never exposed by the ops endpoints.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver" envconfig:"DSAP_DATABASE_DRIVER"`
	DSN             string        `yaml:"dsn" envconfig:"DSAP_DATABASE_DSN" json:"-"`
	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"DSAP_DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" envconfig:"DSAP_DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"DSAP_DATABASE_CONN_MAX_LIFETIME"`
	PingTimeout     time.Duration `yaml:"ping_timeout" envconfig:"DSAP_DATABASE_PING_TIMEOUT"`
	Bootstrap       bool          `yaml:"bootstrap" envconfig:"DSAP_DATABASE_BOOTSTRAP"`
}

type RedisConfig struct {
	Enabled       bool          `yaml:"enabled" envconfig:"DSAP_REDIS_ENABLED"`
	Host          string        `yaml:"host" envconfig:"DSAP_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"DSAP_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"DSAP_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"DSAP_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"DSAP_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"DSAP_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"DSAP_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"DSAP_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"DSAP_REDIS_PASSWORD" json:"-"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"DSAP_REDIS_DATABASE_INDEX"`
	EventsPrefix  string        `yaml:"events_prefix" envconfig:"DSAP_REDIS_EVENTS_PREFIX"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and overrides the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if _, err := DialectFor(config.Database.Driver); err != nil {
		return fmt.Errorf("make sure to set a valid database driver: %w", err)
	}

	if len(config.Database.DSN) == 0 {
		return errors.New("make sure to set the database dsn in configuration file or environment")
	}

	if config.Redis.Enabled && (len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0) {
		return errors.New("make sure to set valid redis address and port in configuration file")
	}

	if len(config.LogFolder) == 0 {
		config.LogFolder = "./logs"
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 10
	}

	if config.Server.RequestTimeout <= 0 {
		config.Server.RequestTimeout = 30 * time.Second
	}

	if config.Server.ShutdownTimeout <= 0 {
		config.Server.ShutdownTimeout = 30 * time.Second
	}

	if config.Database.PingTimeout <= 0 {
		config.Database.PingTimeout = 10 * time.Second
	}

	if len(config.Redis.EventsPrefix) == 0 {
		config.Redis.EventsPrefix = "books:events"
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data. The environment file is optional.
func LoadAndInitConfigs(configFile, envFile, gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile(configFile)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration.
	err = godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `DSAP`.
	err = LoadConfigEnvs(EnvPrefix, config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
