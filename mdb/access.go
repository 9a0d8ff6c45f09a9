package mdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/zap"
)

// Access encapsulates database connection.
type Access struct {
	client   *mongo.Client
	database *mongo.Database
	config   Config
}

var (
	// DefaultURI is the default connection URI if not provided in Config.Options.
	DefaultURI = "mongodb://localhost:27017"

	// DefaultLogger is the default logger, which discards everything.
	DefaultLogger = zap.NewNop().Sugar()

	// DefaultConnectTimeout is the default timeout for the initial connect.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultDisconnectTimeout is the default timeout for the disconnect.
	DefaultDisconnectTimeout = 10 * time.Second

	// DefaultPingTimeout is the default timeout for the ping to make sure the connection is up.
	DefaultPingTimeout = 2 * time.Second

	// DefaultCollectionTimeout is the default timeout for collection access.
	DefaultCollectionTimeout = time.Second

	// DefaultIndexTimeout is the default timeout for index access.
	DefaultIndexTimeout = 5 * time.Second

	// DefaultCommandTimeout is the default timeout for administrative commands.
	DefaultCommandTimeout = 5 * time.Second
)

// Config items for Mongo DB connection.
type Config struct {
	// Base context for use in calls to Mongo.
	Ctx context.Context

	// Mongo options.
	Options *options.ClientOptions

	// Logger for information messages.
	// Errors should bubble up and be handled by client code.
	Logger *zap.SugaredLogger

	Timeout
}

// Timeout settings for Mongo DB access.
type Timeout struct {
	// Timeout for the initial connect.
	Connect time.Duration `mapstructure:"connect"`

	// Timeout for the disconnect.
	Disconnect time.Duration `mapstructure:"disconnect"`

	// Timeout for the ping to make sure the connection is up.
	Ping time.Duration `mapstructure:"ping"`

	// Timeout for collection access.
	Collection time.Duration `mapstructure:"collection"`

	// Timeout for indexes.
	Index time.Duration `mapstructure:"index"`

	// Timeout for administrative commands such as user creation.
	Command time.Duration `mapstructure:"command"`
}

var ErrNoDbName = errors.New("no database name")

// Connect to Mongo DB and return Access object.
// The named database is not created on the server until something is written to it.
// If config.Ctx is nil it will be provided as context.Background().
// If config.Options is nil the URI will be set to mdb.DefaultURI.
func Connect(dbName string, config *Config) (*Access, error) {
	if dbName == "" {
		return nil, ErrNoDbName
	}

	config = fixConfig(config)
	ctx, cancel := context.WithTimeout(config.Ctx, config.Timeout.Connect)
	defer cancel()

	client, err := mongo.Connect(ctx, config.Options)
	if err != nil {
		return nil, fmt.Errorf("unable to connect mongo server: %w", err)
	}

	access := &Access{
		client:   client,
		database: client.Database(dbName),
		config:   *config,
	}

	if err = access.Ping(); err != nil {
		_ = client.Disconnect(config.Ctx)
		return nil, err
	}

	access.Info("Connected to MongoDB", "database", access.database.Name())

	return access, nil
}

// ConnectOrPanic connects to Mongo DB and returns Access object or panics on error.
func ConnectOrPanic(dbName string, config *Config) *Access {
	access, err := Connect(dbName, config)
	if err != nil {
		panic(err)
	}

	return access
}

// Disconnect Mongo DB client.
// Provided for use in defer statements.
func (a *Access) Disconnect() error {
	ctx, cancel := a.ContextWithTimeout(a.config.Timeout.Disconnect)
	defer cancel()
	if err := a.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("unable to disconnect mongo server: %w", err)
	}

	return nil
}

// DisconnectOrPanic disconnects the Mongo DB client or panics on error.
// Provided for use in defer statements.
func (a *Access) DisconnectOrPanic() {
	if err := a.Disconnect(); err != nil {
		panic(err)
	}
}

// Client returns the Mongo client object.
func (a *Access) Client() *mongo.Client {
	return a.client
}

// Context returns the base context for the object.
func (a *Access) Context() context.Context {
	return a.config.Ctx
}

// ContextWithTimeout returns the base context for the object with the specified timeout.
func (a *Access) ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(a.config.Ctx, timeout)
}

// Database returns the Mongo database object.
func (a *Access) Database() *mongo.Database {
	return a.database
}

// Name returns the name of the database.
func (a *Access) Name() string {
	return a.database.Name()
}

// Logger returns the logger used by this object.
func (a *Access) Logger() *zap.SugaredLogger {
	return a.config.Logger
}

// Ping executes a ping against the Mongo server.
// This is separated from Connect() so that it can be overridden if necessary.
func (a *Access) Ping() error {
	ctx, cancel := a.ContextWithTimeout(a.config.Timeout.Ping)
	defer cancel()
	err := a.client.Ping(ctx, readpref.Primary())
	if err != nil {
		return fmt.Errorf("unable to ping mongo server: %w", err)
	}

	return nil
}

// Info logs an information message with optional key/value pairs.
func (a *Access) Info(msg string, keysAndValues ...interface{}) {
	a.config.Logger.Infow(msg, keysAndValues...)
}

func fixConfig(config *Config) *Config {
	if config == nil {
		config = &Config{}
	}

	if config.Ctx == nil {
		config.Ctx = context.Background()
	}

	if config.Options == nil {
		config.Options = options.Client()
	}
	if config.Options.GetURI() == "" && len(config.Options.Hosts) == 0 {
		config.Options.ApplyURI(DefaultURI)
	}

	if config.Logger == nil {
		config.Logger = DefaultLogger
	}

	if config.Timeout.Connect == 0 {
		config.Timeout.Connect = DefaultConnectTimeout
	}

	if config.Timeout.Disconnect == 0 {
		config.Timeout.Disconnect = DefaultDisconnectTimeout
	}

	if config.Timeout.Ping == 0 {
		config.Timeout.Ping = DefaultPingTimeout
	}

	if config.Timeout.Collection == 0 {
		config.Timeout.Collection = DefaultCollectionTimeout
	}

	if config.Timeout.Index == 0 {
		config.Timeout.Index = DefaultIndexTimeout
	}

	if config.Timeout.Command == 0 {
		config.Timeout.Command = DefaultCommandTimeout
	}

	return config
}

// DatabaseNameFromURI returns the database named in the path of a connection string.
// An empty string is returned if the URI has no database path.
func DatabaseNameFromURI(uri string) (string, error) {
	cs, err := connstring.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse connection string: %w", err)
	}

	return strings.TrimSpace(cs.Database), nil
}

////////////////////////////////////////////////////////////////////////////////

var errMissingCollectionName = errors.New("no collection name argument")

// CollectionNames returns the names of all collections in the database.
func (a *Access) CollectionNames() ([]string, error) {
	ctx, cancel := a.ContextWithTimeout(a.config.Timeout.Collection)
	defer cancel()
	names, err := a.database.ListCollectionNames(ctx, NoFilter())
	if err != nil {
		return nil, fmt.Errorf("getting collection names: %w", err)
	}

	return names, nil
}

// CollectionExists checks to see if a specific collection already exists.
func (a *Access) CollectionExists(name string) (bool, error) {
	if name == "" {
		return false, errMissingCollectionName
	}

	ctx, cancel := a.ContextWithTimeout(a.config.Timeout.Collection)
	defer cancel()
	names, err := a.database.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, fmt.Errorf("getting collection names: %w", err)
	}

	for _, collName := range names {
		if collName == name {
			return true, nil
		}
	}

	return false, nil
}

// CollectionFinisher provides a way to add special processing when creating a collection.
type CollectionFinisher func(access *Access, collection *Collection) error

// CreateCollection creates the named collection.
// Unlike Collection() this fails if the collection already exists,
// the error can be checked with IsNamespaceExists().
func (a *Access) CreateCollection(collectionName string, validatorJSON string) (*Collection, error) {
	if collectionName == "" {
		return nil, errMissingCollectionName
	}

	opts := make([]*options.CreateCollectionOptions, 0, 1)
	if validatorJSON != "" {
		var validator interface{}
		if err := bson.UnmarshalExtJSON([]byte(validatorJSON), false, &validator); err != nil {
			return nil, fmt.Errorf("unmarshal validator for collection: %w", err)
		}
		opts = append(opts, options.CreateCollection().SetValidator(validator))
	}

	ctx, cancel := a.ContextWithTimeout(a.config.Timeout.Collection)
	defer cancel()
	if err := a.database.CreateCollection(ctx, collectionName, opts...); err != nil {
		return nil, fmt.Errorf("create collection '%s': %w", collectionName, err)
	}

	a.Info("Created collection", "collection", collectionName)

	return a.CollectionFor(collectionName), nil
}

// CollectionFor returns a Collection for the name without touching the server.
// The collection is created by the server on the first write.
func (a *Access) CollectionFor(collectionName string) *Collection {
	return &Collection{
		Access:     a,
		Collection: a.database.Collection(collectionName),
		ctx:        a.Context(),
	}
}

// Collection acquires the named collection, creating it if necessary.
// Finishers are only run when the collection is created.
func (a *Access) Collection(collectionName string, validatorJSON string, finishers ...CollectionFinisher) (*Collection, error) {
	if collectionName == "" {
		return nil, errMissingCollectionName
	}

	if exists, err := a.CollectionExists(collectionName); err != nil {
		return nil, fmt.Errorf("does collection '%s' exist: %w", collectionName, err)
	} else if exists {
		return a.CollectionFor(collectionName), nil
	}

	collection, err := a.CreateCollection(collectionName, validatorJSON)
	if err != nil {
		if !IsNamespaceExists(err) {
			return nil, err
		}
		// Created by someone else since the existence check.
		collection = a.CollectionFor(collectionName)
	}

	for i, finisher := range finishers {
		if err = finisher(a, collection); err != nil {
			return nil, fmt.Errorf("collection finisher #%d: %w", i, err)
		}
	}

	return collection, nil
}
