// Package mdbtest provides test infrastructure for code that hits a Mongo server.
//
// By default a disposable MongoDB container is started for each suite.
// Set MONGO_INIT_TEST_URI to run against an existing server instead.
package mdbtest

import (
	"context"
	"os"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/madkins23/mongo-init/mdb"
)

const (
	AccessTestDBname = "db-test"

	// TestURIEnv names the environment variable for an existing test server.
	TestURIEnv = "MONGO_INIT_TEST_URI"

	// TestImage is the container image used when no test server is provided.
	TestImage = "mongo:7"
)

type AccessTestSuite struct {
	suite.Suite
	access    *mdb.Access
	container *mongodb.MongoDBContainer
	uri       string
}

func (suite *AccessTestSuite) Access() *mdb.Access {
	return suite.access
}

// URI returns the connection string of the test server.
func (suite *AccessTestSuite) URI() string {
	return suite.uri
}

func (suite *AccessTestSuite) SetupSuite() {
	suite.SetupSuiteConfig(nil)
}

func (suite *AccessTestSuite) SetupSuiteConfig(config *mdb.Config) {
	ctx := context.Background()
	suite.uri = os.Getenv(TestURIEnv)
	if suite.uri == "" {
		var err error
		suite.container, err = mongodb.Run(ctx, TestImage)
		suite.Require().NoError(err, "start mongo container")
		suite.uri, err = suite.container.ConnectionString(ctx)
		suite.Require().NoError(err, "container connection string")
	}

	if config == nil {
		config = &mdb.Config{}
	}
	config.Options = options.Client().ApplyURI(suite.uri)

	var err error
	suite.access, err = mdb.Connect(AccessTestDBname, config)
	suite.Require().NoError(err, "connect to mongo")
	suite.access.Info("Suite setup")
}

func (suite *AccessTestSuite) TearDownSuite() {
	if suite.access != nil {
		suite.access.Info("Suite teardown")
		suite.NoError(suite.access.Database().Drop(suite.access.Context()), "drop test database")
		suite.NoError(suite.access.Disconnect(), "disconnect from mongo")
	}
	if suite.container != nil {
		suite.NoError(suite.container.Terminate(context.Background()), "terminate mongo container")
	}
}

// ConnectCollection connects to the specified collection and adds any provided indexes
// as necessary in a SetupSuite() with test checks so that any errors blow up the test.
func (suite *AccessTestSuite) ConnectCollection(
	name string, validatorJSON string, indexDescriptions ...*mdb.IndexDescription) *mdb.Collection {
	collection, err := suite.access.Collection(name, validatorJSON)
	suite.Require().NoError(err)
	suite.NotNil(collection)
	suite.Require().NoError(collection.DeleteAll())
	for _, indexDescription := range indexDescriptions {
		suite.Require().NoError(suite.access.Index(collection, indexDescription))
	}
	return collection
}

// ConnectTypedCollectionHelper is similar to AccessTestSuite.ConnectCollection().
// Go doesn't support generic methods so this can't be a method on AccessTestSuite.
func ConnectTypedCollectionHelper[T any](
	suite *AccessTestSuite, name string, validatorJSON string,
	indexDescriptions ...*mdb.IndexDescription) *mdb.TypedCollection[T] {
	return mdb.NewTypedCollection[T](suite.ConnectCollection(name, validatorJSON, indexDescriptions...))
}
