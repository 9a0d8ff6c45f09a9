// Package config loads mongo-init settings from defaults, an optional config file
// and MONGO_INIT_* environment variables, in increasing order of precedence.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/madkins23/mongo-init/bootstrap"
	"github.com/madkins23/mongo-init/mdb"
)

// EnvPrefix is prepended to environment variable names,
// e.g. mongodb.uri is read from MONGO_INIT_MONGODB_URI.
const EnvPrefix = "MONGO_INIT"

// Config holds all configuration for mongo-init.
type Config struct {
	MongoDB struct {
		URI string `mapstructure:"uri"`
		// Database to bootstrap, taken from the URI path if empty,
		// then bootstrap.DefaultDatabase if the URI has no path.
		Database string `mapstructure:"database"`
		// Direct connects to the host in the URI without replica set discovery.
		Direct  bool        `mapstructure:"direct"`
		Timeout mdb.Timeout `mapstructure:"timeout"`
	} `mapstructure:"mongodb"`

	User struct {
		Name     string `mapstructure:"name"`
		Password string `mapstructure:"password"`
		Role     string `mapstructure:"role"`
		// RoleDB defaults to the bootstrapped database.
		RoleDB string `mapstructure:"role_db"`
	} `mapstructure:"user"`

	Collections []string `mapstructure:"collections"`

	Metadata struct {
		Collection string `mapstructure:"collection"`
		Name       string `mapstructure:"name"`
		Version    string `mapstructure:"version"`
	} `mapstructure:"metadata"`

	Bootstrap struct {
		IgnoreExisting bool `mapstructure:"ignore_existing"`
		UpsertMetadata bool `mapstructure:"upsert_metadata"`
	} `mapstructure:"bootstrap"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// New returns a viper instance with defaults set and environment lookup enabled.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mongodb.uri", mdb.DefaultURI)
	v.SetDefault("mongodb.database", "") // Empty = URI path, then bootstrap.DefaultDatabase
	v.SetDefault("mongodb.direct", false)
	v.SetDefault("mongodb.timeout.connect", mdb.DefaultConnectTimeout)
	v.SetDefault("mongodb.timeout.disconnect", mdb.DefaultDisconnectTimeout)
	v.SetDefault("mongodb.timeout.ping", mdb.DefaultPingTimeout)
	v.SetDefault("mongodb.timeout.collection", mdb.DefaultCollectionTimeout)
	v.SetDefault("mongodb.timeout.index", mdb.DefaultIndexTimeout)
	v.SetDefault("mongodb.timeout.command", mdb.DefaultCommandTimeout)
	v.SetDefault("user.name", bootstrap.DefaultUserName)
	v.SetDefault("user.password", bootstrap.DefaultUserPassword)
	v.SetDefault("user.role", bootstrap.DefaultRole)
	v.SetDefault("user.role_db", "") // Empty = the bootstrapped database
	v.SetDefault("collections", bootstrap.DefaultCollections)
	v.SetDefault("metadata.collection", bootstrap.DefaultMetadataCollection)
	v.SetDefault("metadata.name", bootstrap.DefaultMetadataName)
	v.SetDefault("metadata.version", bootstrap.DefaultMetadataVersion)
	v.SetDefault("bootstrap.ignore_existing", false)
	v.SetDefault("bootstrap.upsert_metadata", false)
	v.SetDefault("log.level", "info")
}

// Load reads the optional config file and unmarshals the configuration.
// Without a file name config.yaml is looked for in the working directory and /etc/mongo-init,
// it is not an error if there is none.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/mongo-init")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.MongoDB.Database == "" {
		name, err := mdb.DatabaseNameFromURI(cfg.MongoDB.URI)
		if err != nil {
			return nil, err
		}
		cfg.MongoDB.Database = name
	}
	if cfg.MongoDB.Database == "" {
		cfg.MongoDB.Database = bootstrap.DefaultDatabase
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var (
	ErrNoURI      = errors.New("no mongodb.uri")
	ErrNoDatabase = errors.New("no mongodb.database")
)

// Validate checks the connection settings and the resulting plan.
func (c *Config) Validate() error {
	if c.MongoDB.URI == "" {
		return ErrNoURI
	}
	if c.MongoDB.Database == "" {
		return ErrNoDatabase
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if err := c.Plan().Validate(); err != nil {
		return fmt.Errorf("plan: %w", err)
	}
	return nil
}

// Plan returns the bootstrap plan described by the configuration.
func (c *Config) Plan() *bootstrap.Plan {
	roleDB := c.User.RoleDB
	if roleDB == "" {
		roleDB = c.MongoDB.Database
	}
	return &bootstrap.Plan{
		Database:           c.MongoDB.Database,
		User:               c.User.Name,
		Password:           c.User.Password,
		Roles:              []mdb.Role{{Role: c.User.Role, DB: roleDB}},
		Collections:        append([]string(nil), c.Collections...),
		MetadataCollection: c.Metadata.Collection,
		MetadataName:       c.Metadata.Name,
		MetadataVersion:    c.Metadata.Version,
	}
}

// MDBConfig returns the connection configuration.
func (c *Config) MDBConfig(ctx context.Context, logger *zap.SugaredLogger) *mdb.Config {
	opts := options.Client().ApplyURI(c.MongoDB.URI)
	if c.MongoDB.Direct {
		opts.SetDirect(true)
	}
	return &mdb.Config{
		Ctx:     ctx,
		Options: opts,
		Logger:  logger,
		Timeout: c.MongoDB.Timeout,
	}
}

// BootstrapOptions returns the options for bootstrap.Run.
func (c *Config) BootstrapOptions(logger *zap.SugaredLogger) *bootstrap.Options {
	return &bootstrap.Options{
		IgnoreExisting: c.Bootstrap.IgnoreExisting,
		UpsertMetadata: c.Bootstrap.UpsertMetadata,
		Clock:          time.Now,
		Logger:         logger,
	}
}
