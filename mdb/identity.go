package mdb

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identifier provides an interface to items that use the primitive Mongo ObjectID.
type Identifier interface {
	ID() primitive.ObjectID
	IDFilter() bson.D
}

// Identity instantiates the Identifier interface.
// Embed it inline so the server assigns the ID when the item is created.
type Identity struct {
	ObjectID primitive.ObjectID `bson:"_id,omitempty"`
}

// ID returns the primitive Mongo ObjectID for an item.
func (idm *Identity) ID() primitive.ObjectID {
	return idm.ObjectID
}

// HasID is false until the item has been read back from the server.
func (idm *Identity) HasID() bool {
	return !idm.ObjectID.IsZero()
}

// IDFilter returns a Mongo filter object for the item's ID.
func (idm *Identity) IDFilter() bson.D {
	return bson.D{{Key: "_id", Value: idm.ObjectID}}
}
