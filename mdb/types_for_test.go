package mdb_test

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/madkins23/mongo-init/mdb"
)

var testValidatorJSON = `{
	"$jsonSchema": {
		"bsonType": "object",
		"required": ["alpha", "bravo", "charlie"],
		"properties": {
			"alpha": {
				"bsonType": "string"
			},
			"bravo": {
				"bsonType": "int"
			},
			"charlie": {
				"bsonType": "string"
			}
		}
	}
}`

////////////////////////////////////////////////////////////////////////////////

var _ mdb.Identifier = &simpleItem{}

type simpleItem struct {
	mdb.Identity `bson:"inline"`
	Alpha        string `bson:"alpha,omitempty"`
	Bravo        int    `bson:"bravo,omitempty"`
	Charlie      string `bson:"charlie,omitempty"`
}

// Filter returns a filter for the alpha/bravo of this item.
func (si *simpleItem) Filter() bson.D {
	return bson.D{
		{Key: "alpha", Value: si.Alpha},
		{Key: "bravo", Value: si.Bravo},
	}
}
