package mdbtest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madkins23/mongo-init/mdb"
)

// IndexTester provides a utility for verifying index creation.
type IndexTester []indexDatum

type indexDatum struct {
	Name   string           `bson:"name"`
	Key    map[string]int32 `bson:"key"`
	Unique bool             `bson:"unique"`
}

func NewIndexTester() IndexTester {
	return make(IndexTester, 0, 2)
}

// TestIndexes checks that the collection has exactly the described indexes plus the _id index.
func (it IndexTester) TestIndexes(t *testing.T, collection *mdb.Collection, descriptions ...*mdb.IndexDescription) {
	ctx := context.Background()
	cursor, err := collection.Indexes().List(ctx)
	require.NoError(t, err)
	err = cursor.All(ctx, &it)
	require.NoError(t, err)
	assert.Len(t, it, len(descriptions)+1)
	it.hasIndexNamed(t, "_id_", mdb.NewIndexDescription(false, "_id"))
	for _, description := range descriptions {
		nameMap := make([]string, 0, len(description.Keys()))
		for _, key := range description.Keys() {
			nameMap = append(nameMap, key+"_1")
		}
		it.hasIndexNamed(t, strings.Join(nameMap, "_"), description)
	}
}

func (it IndexTester) hasIndexNamed(t *testing.T, name string, description *mdb.IndexDescription) {
	for _, data := range it {
		if data.Name == name {
			assert.Equal(t, description.Unique(), data.Unique, "check unique for index %s", name)
			keyMap := make(map[string]int32, len(description.Keys()))
			for _, key := range description.Keys() {
				keyMap[key] = 1
			}
			assert.Equal(t, keyMap, data.Key, "check keys for index %s", name)
			return
		}
	}

	names := make([]string, 0, len(it))
	for _, data := range it {
		names = append(names, data.Name)
	}
	assert.Fail(t, "missing index", "no index %s (%s)", name, strings.Join(names, ", "))
}
