package bootstrap

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/madkins23/mongo-init/mdb"
)

// fakeDatabase records calls and keeps just enough state to behave like a server.
type fakeDatabase struct {
	name        string
	calls       []string
	users       map[string]*mdb.User
	collections map[string]int64
	order       []string
	metadata    map[string][]*Metadata
	failOn      string
	failWith    error
}

func newFakeDatabase(name string) *fakeDatabase {
	return &fakeDatabase{
		name:        name,
		users:       make(map[string]*mdb.User),
		collections: make(map[string]int64),
		metadata:    make(map[string][]*Metadata),
	}
}

var (
	_ Target    = &fakeDatabase{}
	_ Inspector = &fakeDatabase{}
)

func (f *fakeDatabase) fail(call string) error {
	f.calls = append(f.calls, call)
	if f.failOn == call {
		return f.failWith
	}
	return nil
}

func (f *fakeDatabase) Name() string {
	return f.name
}

func (f *fakeDatabase) CreateUser(user *mdb.User) error {
	if err := f.fail("createUser " + user.Name); err != nil {
		return err
	}
	if _, found := f.users[user.Name]; found {
		return mongo.CommandError{Code: 51003, Message: "User already exists"}
	}
	stored := *user
	stored.Password = ""
	stored.DB = f.name
	f.users[user.Name] = &stored
	return nil
}

func (f *fakeDatabase) CreateCollection(name string) error {
	if err := f.fail("createCollection " + name); err != nil {
		return err
	}
	if _, found := f.collections[name]; found {
		return mongo.CommandError{Code: 48, Name: "NamespaceExists"}
	}
	f.createCollection(name)
	return nil
}

func (f *fakeDatabase) createCollection(name string) {
	if _, found := f.collections[name]; !found {
		f.collections[name] = 0
		f.order = append(f.order, name)
	}
}

func (f *fakeDatabase) InsertMetadata(collection string, metadata *Metadata) (interface{}, error) {
	if err := f.fail("insertMetadata " + collection); err != nil {
		return nil, err
	}
	f.createCollection(collection)
	stored := *metadata
	stored.ObjectID = primitive.NewObjectID()
	f.metadata[collection] = append(f.metadata[collection], &stored)
	f.collections[collection]++
	return stored.ObjectID, nil
}

func (f *fakeDatabase) UpsertMetadata(collection string, metadata *Metadata) (interface{}, error) {
	if err := f.fail("upsertMetadata " + collection); err != nil {
		return nil, err
	}
	for _, doc := range f.metadata[collection] {
		if doc.Name == metadata.Name {
			id := doc.ObjectID
			*doc = *metadata
			doc.ObjectID = id
			return nil, nil
		}
	}
	f.createCollection(collection)
	stored := *metadata
	stored.ObjectID = primitive.NewObjectID()
	f.metadata[collection] = append(f.metadata[collection], &stored)
	f.collections[collection]++
	return stored.ObjectID, nil
}

func (f *fakeDatabase) CollectionNames() ([]string, error) {
	return f.order, nil
}

func (f *fakeDatabase) UserInfo(name string) (*mdb.User, error) {
	if user, found := f.users[name]; found {
		return user, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeDatabase) Count(collection string) (int64, error) {
	return f.collections[collection], nil
}

func (f *fakeDatabase) Metadata(collection string) ([]*Metadata, error) {
	return f.metadata[collection], nil
}
