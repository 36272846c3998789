package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Supported storage backends.
const (
	MongoBackend = "mongo"
	BoltBackend  = "bolt"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit          string        `yaml:"git_commit" envconfig:"DMAP_GIT_COMMIT"`
	GitTag             string        `yaml:"git_tag" envconfig:"DMAP_GIT_TAG"`
	BuildTime          string        `yaml:"build_time" envconfig:"DMAP_BUILD_TIME"`
	IsProduction       bool          `yaml:"is_production" envconfig:"DMAP_IS_PRODUCTION"`
	LogLevel           zapcore.Level `yaml:"log_level" envconfig:"DMAP_LOG_LEVEL"`
	LogFolder          string        `yaml:"log_folder" envconfig:"DMAP_LOG_FOLDER"`
	LogMaxSize         int           `yaml:"log_max_size" envconfig:"DMAP_LOG_MAX_SIZE"`
	StorageBackend     string        `yaml:"storage_backend" envconfig:"DMAP_STORAGE_BACKEND"`
	ProfilerEnable     bool          `yaml:"profiler_enable" envconfig:"DMAP_PROFILER_ENABLE"`
	OpsEndpointsEnable bool          `yaml:"ops_endpoints_enable" envconfig:"DMAP_OPS_ENDPOINTS_ENABLE"`
	Server             ServerConfig  `yaml:"server"`
	Mongo              MongoConfig   `yaml:"mongo"`
	BoltDB             BoltDBConfig  `yaml:"boltdb"`
	Library            LibraryConfig `yaml:"library"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"DMAP_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"DMAP_SERVER_PORT"`
	CertsFile       string        `yaml:"certs_file" envconfig:"DMAP_SERVER_CERTS_FILE"`
	KeyFile         string        `yaml:"key_file" envconfig:"DMAP_SERVER_KEY_FILE"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"DMAP_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"DMAP_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"DMAP_SERVER_REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"DMAP_SERVER_SHUTDOWN_TIMEOUT"`
}

type MongoConfig struct {
	URI            string        `yaml:"uri" envconfig:"DMAP_MONGO_URI"`
	Database       string        `yaml:"database" envconfig:"DMAP_MONGO_DATABASE"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" envconfig:"DMAP_MONGO_CONNECT_TIMEOUT"`
	PingTimeout    time.Duration `yaml:"ping_timeout" envconfig:"DMAP_MONGO_PING_TIMEOUT"`
	MaxPoolSize    uint64        `yaml:"max_pool_size" envconfig:"DMAP_MONGO_MAX_POOL_SIZE"`
}

type BoltDBConfig struct {
	FilePath string        `yaml:"filepath" envconfig:"DMAP_BOLTDB_FILE_PATH"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"DMAP_BOLTDB_TIMEOUT"`
}

type LibraryConfig struct {
	LoanPeriod time.Duration `yaml:"loan_period" envconfig:"DMAP_LIBRARY_LOAN_PERIOD"`
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

// LoadConfigEnvs reads the environments variables and provides an instance of the App config.
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

	switch config.StorageBackend {
	case MongoBackend:
		if len(config.Mongo.URI) == 0 || len(config.Mongo.Database) == 0 {
			return errors.New("make sure to set valid mongo uri and database name in configuration file")
		}
	case BoltBackend:
		if len(config.BoltDB.FilePath) == 0 {
			return errors.New("make sure to set valid boltdb file path in configuration file")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %q", config.StorageBackend)
	}

	if config.Library.LoanPeriod <= 0 {
		config.Library.LoanPeriod = 14 * 24 * time.Hour
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 50
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile("./config.yml")
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration.
	err = godotenv.Load("./config.env")
	if err != nil {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `DMAP`.
	err = LoadConfigEnvs("DMAP", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
