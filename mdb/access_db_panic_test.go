//go:build database

package mdb_test

import (
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/madkins23/mongo-init/mdb"
	"github.com/madkins23/mongo-init/mdbtest"
)

// A client that is already disconnected fails to disconnect again.
func (suite *accessTestSuite) TestDisconnectOrPanic() {
	access := mdb.ConnectOrPanic(mdbtest.AccessTestDBname, &mdb.Config{
		Options: options.Client().ApplyURI(suite.URI()),
	})
	suite.Require().NotNil(access)
	suite.NotPanics(func() {
		access.DisconnectOrPanic()
	})
	suite.Panics(func() {
		access.DisconnectOrPanic()
	}, "second DisconnectOrPanic did not panic")
}
