package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/madkins23/mongo-init/config"
	"github.com/madkins23/mongo-init/mdb"
)

// app holds state shared by the subcommands.
type app struct {
	v          *viper.Viper
	configFile string
	noColor    bool
	cfg        *config.Config
	logger     *zap.Logger
	sugar      *zap.SugaredLogger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "mongo-init",
		Short: "Bootstrap the application database on a fresh MongoDB instance",
		Long: `mongo-init creates the application user, the empty collections
and the metadata document for one database.

Settings come from defaults, an optional YAML config file,
MONGO_INIT_* environment variables and flags, in increasing order of precedence.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: ./config.yaml or /etc/mongo-init/config.yaml if present)")
	flags.String("uri", "", "MongoDB connection URI")
	flags.String("database", "", "database to bootstrap")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	a.bind("mongodb.uri", flags.Lookup("uri"))
	a.bind("mongodb.database", flags.Lookup("database"))
	a.bind("log.level", flags.Lookup("log-level"))

	root.AddCommand(newRunCmd(a), newVerifyCmd(a), newPingCmd(a))
	return root
}

// bind a flag to a config key, panics on programming errors.
func (a *app) bind(key string, flag *pflag.Flag) {
	if err := a.v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var err error
	if a.cfg, err = config.Load(a.v, a.configFile); err != nil {
		return err
	}
	if a.logger, err = newLogger(a.cfg.Log.Level, cmd.ErrOrStderr()); err != nil {
		return err
	}
	a.sugar = a.logger.Sugar()
	setNoColor(a.noColor)

	if a.v.ConfigFileUsed() == "" {
		a.sugar.Debug("No config file found, using defaults, env vars and flags")
	}
	a.sugar.Debugw("Config loaded",
		"database", a.cfg.MongoDB.Database,
		"direct", a.cfg.MongoDB.Direct,
		"collections", a.cfg.Collections)
	return nil
}

func (a *app) teardown(_ *cobra.Command, _ []string) {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// connect to the named database, the configured database if empty.
func (a *app) connect(ctx context.Context, dbName string) (*mdb.Access, error) {
	if dbName == "" {
		dbName = a.cfg.MongoDB.Database
	}
	access, err := mdb.Connect(dbName, a.cfg.MDBConfig(ctx, a.sugar.Named("mdb")))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", dbName, err)
	}
	return access, nil
}

func (a *app) disconnect(access *mdb.Access) {
	if err := access.Disconnect(); err != nil {
		a.sugar.Warnw("Disconnect failed", "error", err)
	}
}
