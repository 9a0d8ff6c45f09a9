package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/madkins23/mongo-init/mdb"
)

var testTime = time.Date(2026, time.October, 16, 12, 30, 45, 123456789, time.UTC)

func testClock() time.Time {
	return testTime
}

type runTestSuite struct {
	suite.Suite
	ctx  context.Context
	db   *fakeDatabase
	plan *Plan
}

func TestRunSuite(t *testing.T) {
	suite.Run(t, new(runTestSuite))
}

func (suite *runTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.db = newFakeDatabase(DefaultDatabase)
	suite.plan = DefaultPlan()
}

func (suite *runTestSuite) TestRunOrder() {
	result, err := Run(suite.ctx, suite.db, suite.plan, &Options{Clock: testClock})
	suite.Require().NoError(err)
	suite.Equal([]string{
		"createUser mongo_user",
		"createCollection profiles",
		"createCollection logs",
		"insertMetadata metadata",
	}, suite.db.calls)
	suite.Require().Len(result.Steps, 5)
	suite.Equal("select database iTech", result.Steps[0].Name)
	for _, step := range result.Steps {
		suite.Equal(StepApplied, step.Status, step.Name)
	}
	suite.Empty(result.Skipped())
}

func (suite *runTestSuite) TestRunState() {
	result, err := Run(suite.ctx, suite.db, suite.plan, &Options{Clock: testClock})
	suite.Require().NoError(err)

	user := suite.db.users["mongo_user"]
	suite.Require().NotNil(user)
	suite.Equal([]mdb.Role{{Role: "readWrite", DB: "iTech"}}, user.Roles)

	suite.Equal([]string{"profiles", "logs", "metadata"}, suite.db.order)
	suite.Zero(suite.db.collections["profiles"])
	suite.Zero(suite.db.collections["logs"])

	docs := suite.db.metadata["metadata"]
	suite.Require().Len(docs, 1)
	suite.Equal("iTech Database", docs[0].Name)
	suite.Equal("1.0", docs[0].Version)
	suite.Equal(testTime.Truncate(time.Millisecond), docs[0].CreatedAt)
	suite.Equal(docs[0].ObjectID, result.MetadataID)
	suite.Equal(docs[0].CreatedAt, result.CreatedAt)
}

func (suite *runTestSuite) TestRunUsesClockAtCallTime() {
	before := time.Now().UTC().Truncate(time.Millisecond)
	result, err := Run(suite.ctx, suite.db, suite.plan, nil)
	after := time.Now().UTC()
	suite.Require().NoError(err)
	suite.False(result.CreatedAt.Before(before))
	suite.False(result.CreatedAt.After(after))
}

func (suite *runTestSuite) TestRunLeavesOptionsAlone() {
	opts := &Options{IgnoreExisting: true}
	_, err := Run(suite.ctx, suite.db, suite.plan, opts)
	suite.Require().NoError(err)
	suite.Equal(&Options{IgnoreExisting: true}, opts)
}

func (suite *runTestSuite) TestRunDatabaseMismatch() {
	result, err := Run(suite.ctx, newFakeDatabase("other"), suite.plan, nil)
	suite.Require().Error(err)
	suite.ErrorIs(err, ErrDatabaseMismatch)
	suite.Require().NotNil(result)
	suite.Empty(result.Steps)
}

func (suite *runTestSuite) TestRunInvalidPlan() {
	suite.plan.User = ""
	result, err := Run(suite.ctx, suite.db, suite.plan, nil)
	suite.ErrorIs(err, ErrNoUser)
	suite.Nil(result)
	suite.Empty(suite.db.calls)
}

func (suite *runTestSuite) TestRunFailFast() {
	suite.db.failOn = "createCollection profiles"
	suite.db.failWith = errors.New("unreachable")
	result, err := Run(suite.ctx, suite.db, suite.plan, nil)
	suite.Require().Error(err)
	suite.Contains(err.Error(), `create collection "profiles"`)
	suite.ErrorIs(err, suite.db.failWith)
	suite.Equal([]string{"createUser mongo_user", "createCollection profiles"}, suite.db.calls)
	suite.Len(result.Steps, 2)
	suite.Empty(suite.db.metadata)
}

func (suite *runTestSuite) TestRunFailFastIgnoresOnlyExisting() {
	suite.db.failOn = "createUser mongo_user"
	suite.db.failWith = mongo.CommandError{Code: 18, Name: "AuthenticationFailed"}
	_, err := Run(suite.ctx, suite.db, suite.plan, &Options{IgnoreExisting: true})
	suite.Require().Error(err)
	suite.Equal([]string{"createUser mongo_user"}, suite.db.calls)
}

func (suite *runTestSuite) TestRunCanceled() {
	ctx, cancel := context.WithCancel(suite.ctx)
	cancel()
	_, err := Run(ctx, suite.db, suite.plan, nil)
	suite.ErrorIs(err, context.Canceled)
	suite.Empty(suite.db.calls)
}

func (suite *runTestSuite) TestRunTwiceFailsOnUser() {
	_, err := Run(suite.ctx, suite.db, suite.plan, nil)
	suite.Require().NoError(err)
	_, err = Run(suite.ctx, suite.db, suite.plan, nil)
	suite.Require().Error(err)
	suite.True(mdb.IsUserExists(err))
	suite.Len(suite.db.metadata["metadata"], 1)
}

func (suite *runTestSuite) TestRunTwiceIgnoreExistingDuplicatesMetadata() {
	_, err := Run(suite.ctx, suite.db, suite.plan, nil)
	suite.Require().NoError(err)
	result, err := Run(suite.ctx, suite.db, suite.plan, &Options{IgnoreExisting: true})
	suite.Require().NoError(err)
	suite.Equal([]string{
		`create user "mongo_user"`,
		`create collection "profiles"`,
		`create collection "logs"`,
	}, result.Skipped())
	// The metadata insert is not idempotent.
	suite.Len(suite.db.metadata["metadata"], 2)
}

func (suite *runTestSuite) TestRunTwiceUpsertMetadata() {
	opts := &Options{IgnoreExisting: true, UpsertMetadata: true, Clock: testClock}
	first, err := Run(suite.ctx, suite.db, suite.plan, opts)
	suite.Require().NoError(err)
	suite.NotNil(first.MetadataID)
	later := testTime.Add(time.Hour)
	opts.Clock = func() time.Time { return later }
	second, err := Run(suite.ctx, suite.db, suite.plan, opts)
	suite.Require().NoError(err)
	suite.Nil(second.MetadataID)
	docs := suite.db.metadata["metadata"]
	suite.Require().Len(docs, 1)
	suite.Equal(first.MetadataID, docs[0].ObjectID)
	suite.Equal(later.Truncate(time.Millisecond), docs[0].CreatedAt)
}

func (suite *runTestSuite) TestRunCollectionOrderIrrelevant() {
	suite.plan.Collections = []string{"logs", "profiles"}
	_, err := Run(suite.ctx, suite.db, suite.plan, nil)
	suite.Require().NoError(err)
	report, err := Verify(suite.ctx, suite.db, DefaultPlan(), nil)
	suite.Require().NoError(err)
	suite.True(report.OK())
}

////////////////////////////////////////////////////////////////////////////////

func TestApply(t *testing.T) {
	status, err := apply(nil, &Options{})
	require.NoError(t, err)
	assert.Equal(t, StepApplied, status)

	exists := mongo.CommandError{Code: 48}
	_, err = apply(exists, &Options{})
	assert.Equal(t, exists, err)
	status, err = apply(exists, &Options{IgnoreExisting: true})
	require.NoError(t, err)
	assert.Equal(t, StepSkipped, status)
}

func TestFixOptions(t *testing.T) {
	opts := fixOptions(nil)
	require.NotNil(t, opts)
	assert.NotNil(t, opts.Clock)
	assert.NotNil(t, opts.Logger)
	assert.False(t, opts.IgnoreExisting)
	assert.False(t, opts.UpsertMetadata)

	caller := &Options{IgnoreExisting: true}
	opts = fixOptions(caller)
	assert.NotSame(t, caller, opts)
	assert.True(t, opts.IgnoreExisting)
	assert.NotNil(t, opts.Clock)
	assert.Nil(t, caller.Clock)
	assert.Nil(t, caller.Logger)
}

func TestMetadataFilter(t *testing.T) {
	assert.Equal(t, "name", metadataFilter("iTech Database")[0].Key)
	assert.Equal(t, "iTech Database", metadataFilter("iTech Database")[0].Value)
	assert.True(t, metadataNameIndex.Unique())
	assert.Equal(t, []string{"name"}, metadataNameIndex.Keys())
}

func TestMetadataID(t *testing.T) {
	metadata := DefaultPlan().NewMetadata(testTime)
	assert.False(t, metadata.HasID())
	metadata.ObjectID = primitive.NewObjectID()
	assert.True(t, metadata.HasID())
}
