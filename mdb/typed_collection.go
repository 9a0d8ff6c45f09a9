package mdb

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// TypedCollection decodes items returned from Mongo into a specific type.
type TypedCollection[T any] struct {
	Collection
}

func NewTypedCollection[T any](collection *Collection) *TypedCollection[T] {
	return &TypedCollection[T]{
		Collection: *collection,
	}
}

// Find an item in the database.
func (c *TypedCollection[T]) Find(filter bson.D) (*T, error) {
	item := new(T)
	err := c.FindOne(c.ctx, filter).Decode(item)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("no item '%v': %w", filter, err)
		}
		return nil, fmt.Errorf("find item '%v': %w", filter, err)
	}

	return item, nil
}

// FindAll returns all items matching the filter.
func (c *TypedCollection[T]) FindAll(filter bson.D) ([]*T, error) {
	items := make([]*T, 0)
	err := c.Iterate(filter, func(item *T) error {
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// FindOrCreate returns an existing object or creates it if it does not already exist.
func (c *TypedCollection[T]) FindOrCreate(filter bson.D, item *T) (*T, error) {
	// Must redo the Collection algorithm due to typing.
	found, err := c.Find(filter)
	if err != nil {
		if !IsNotFound(err) {
			return found, err
		}

		if _, err = c.Create(item); err != nil {
			return found, err
		}

		found, err = c.Find(filter)
		if err != nil {
			return found, fmt.Errorf("find just created item: %w", err)
		}
	}

	return found, nil
}

// Iterate over a set of items, applying the specified function to each one.
// Each item is decoded into a new object.
func (c *TypedCollection[T]) Iterate(filter bson.D, fn func(item *T) error) error {
	cursor, err := c.Collection.Collection.Find(c.ctx, filter)
	if err != nil {
		return fmt.Errorf("find items: %w", err)
	}
	defer func() { _ = cursor.Close(c.ctx) }()

	for cursor.Next(c.ctx) {
		item := new(T)
		if err := cursor.Decode(item); err != nil {
			return fmt.Errorf("decode item: %w", err)
		}

		if err := fn(item); err != nil {
			return fmt.Errorf("apply function: %w", err)
		}
	}

	return cursor.Err()
}

// Upsert replaces the item matching the filter or creates it if there is none.
// Returns the ID of the created item or nil if an existing item was replaced.
func (c *TypedCollection[T]) Upsert(filter bson.D, item *T) (interface{}, error) {
	result, err := c.Replace(filter, item, true)
	if err != nil {
		return nil, fmt.Errorf("upsert: %w", err)
	}

	return result.UpsertedID, nil
}
