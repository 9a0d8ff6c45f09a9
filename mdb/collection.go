package mdb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Collection struct {
	*Access
	*mongo.Collection
	ctx context.Context
}

// Name returns the collection name.
// Both embedded types have a Name() method.
func (c *Collection) Name() string {
	return c.Collection.Name()
}

func (c *Collection) ContextWithTimeout() (context.Context, context.CancelFunc) {
	return c.Access.ContextWithTimeout(c.Access.config.Timeout.Collection)
}

// Count documents in collection matching filter.
func (c *Collection) Count(filter bson.D) (int64, error) {
	if filter == nil {
		filter = NoFilter()
	}
	ctx, cancel := c.ContextWithTimeout()
	defer cancel()
	count, err := c.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}

	return count, nil
}

// Create item in DB, returning the ID assigned to it.
func (c *Collection) Create(item interface{}) (interface{}, error) {
	ctx, cancel := c.ContextWithTimeout()
	defer cancel()
	result, err := c.InsertOne(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	return result.InsertedID, nil
}

// Delete item from DB.
// Set idempotent to true to avoid errors if the item does not exist.
func (c *Collection) Delete(filter bson.D, idempotent bool) error {
	result, err := c.DeleteOne(c.ctx, filter)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if result.DeletedCount > 1 || (result.DeletedCount == 0 && !idempotent) {
		// Should have deleted a single item or none if idempotent flag set.
		return fmt.Errorf("deleted %d items", result.DeletedCount)
	}

	return nil
}

// DeleteAll items from this collection.
func (c *Collection) DeleteAll() error {
	_, err := c.DeleteMany(c.ctx, NoFilter())
	if err != nil {
		return fmt.Errorf("delete all: %w", err)
	}
	return nil
}

// Drop collection.
func (c *Collection) Drop() error {
	ctx, cancelFn := c.ContextWithTimeout()
	defer cancelFn()
	return c.Collection.Drop(ctx)
}

// Find an item in the database and return it as a blank interface.
// The result will likely contain bson objects.
func (c *Collection) Find(filter bson.D) (interface{}, error) {
	var item interface{}
	if err := c.FindOne(c.ctx, filter).Decode(&item); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("no item '%v': %w", filter, err)
		}
		return nil, fmt.Errorf("find item '%v': %w", filter, err)
	}

	return item, nil
}

// Iterate over a set of items, applying the specified function to each one.
// The items passed to the function will likely contain bson objects.
func (c *Collection) Iterate(filter bson.D, fn func(item interface{}) error) error {
	cursor, err := c.Collection.Find(c.ctx, filter)
	if err != nil {
		return fmt.Errorf("find items: %w", err)
	}
	defer func() { _ = cursor.Close(c.ctx) }()

	for cursor.Next(c.ctx) {
		var item interface{}
		if err := cursor.Decode(&item); err != nil {
			return fmt.Errorf("decode item: %w", err)
		} else if err := fn(item); err != nil {
			return fmt.Errorf("apply function: %w", err)
		}
	}

	return cursor.Err()
}

var errNoItemMatch = errors.New("no matching item")

// Replace entire item referenced by filter with specified item.
// Set upsert to create the item when nothing matches the filter.
func (c *Collection) Replace(filter, item interface{}, upsert bool) (*mongo.UpdateResult, error) {
	ctx, cancel := c.ContextWithTimeout()
	defer cancel()
	result, err := c.ReplaceOne(ctx, filter, item, options.Replace().SetUpsert(upsert))
	if err != nil {
		return nil, fmt.Errorf("replace item: %w", err)
	} else if result.MatchedCount < 1 && result.UpsertedCount < 1 {
		return nil, errNoItemMatch
	}

	return result, nil
}

// Update item referenced by filter by applying update operator expressions.
// If the filter matches more than one document Mongo will choose one to update.
func (c *Collection) Update(filter, operators interface{}, opts ...*options.UpdateOptions) error {
	ctx, cancel := c.ContextWithTimeout()
	defer cancel()
	result, err := c.UpdateOne(ctx, filter, operators, opts...)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	} else if result.MatchedCount < 1 && result.UpsertedCount < 1 {
		return errNoItemMatch
	}

	return nil
}

////////////////////////////////////////////////////////////////////////////////

// NoFilter returns an empty bson.D object for use as an empty filter.
func NoFilter() bson.D {
	return bson.D{}
}
