package bootstrap

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/madkins23/mongo-init/mdb"
)

// Target is the database handle that Run writes to.
type Target interface {
	// Name of the selected database.
	Name() string
	CreateUser(user *mdb.User) error
	CreateCollection(name string) error
	InsertMetadata(collection string, metadata *Metadata) (interface{}, error)
	UpsertMetadata(collection string, metadata *Metadata) (interface{}, error)
}

// Inspector is the database handle that Verify reads from.
type Inspector interface {
	Name() string
	CollectionNames() ([]string, error)
	UserInfo(name string) (*mdb.User, error)
	Count(collection string) (int64, error)
	Metadata(collection string) ([]*Metadata, error)
}

var (
	_ Target    = &Mongo{}
	_ Inspector = &Mongo{}
)

// Mongo adapts an mdb.Access connection to the Target and Inspector interfaces.
type Mongo struct {
	access *mdb.Access
}

// NewMongo returns a handle on the database selected by the connection.
func NewMongo(access *mdb.Access) *Mongo {
	return &Mongo{access: access}
}

func (m *Mongo) Name() string {
	return m.access.Name()
}

func (m *Mongo) CreateUser(user *mdb.User) error {
	return m.access.CreateUser(user)
}

func (m *Mongo) CreateCollection(name string) error {
	_, err := m.access.CreateCollection(name, "")
	return err
}

// InsertMetadata always appends a new document, the server assigns its ID.
func (m *Mongo) InsertMetadata(collection string, metadata *Metadata) (interface{}, error) {
	return m.access.CollectionFor(collection).Create(metadata)
}

// UpsertMetadata replaces the document with the same name or creates it.
// A collection created here gets a unique index on the name.
func (m *Mongo) UpsertMetadata(collection string, metadata *Metadata) (interface{}, error) {
	coll, err := m.access.Collection(collection, "", metadataNameIndex.Finisher())
	if err != nil {
		return nil, fmt.Errorf("metadata collection: %w", err)
	}

	return mdb.NewTypedCollection[Metadata](coll).Upsert(metadataFilter(metadata.Name), metadata)
}

func (m *Mongo) CollectionNames() ([]string, error) {
	return m.access.CollectionNames()
}

func (m *Mongo) UserInfo(name string) (*mdb.User, error) {
	return m.access.UserInfo(name)
}

func (m *Mongo) Count(collection string) (int64, error) {
	return m.access.CollectionFor(collection).Count(mdb.NoFilter())
}

func (m *Mongo) Metadata(collection string) ([]*Metadata, error) {
	return mdb.NewTypedCollection[Metadata](m.access.CollectionFor(collection)).FindAll(mdb.NoFilter())
}

var metadataNameIndex = mdb.NewIndexDescription(true, "name")

func metadataFilter(name string) bson.D {
	return bson.D{{Key: "name", Value: name}}
}
