package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/madkins23/mongo-init/mdb"
)

// Options control how Run treats a database that is not fresh.
// The zero value reproduces the literal behavior:
// fail on existing objects and always append the metadata document.
type Options struct {
	// IgnoreExisting treats an existing user or collection as success.
	IgnoreExisting bool

	// UpsertMetadata replaces the metadata document with the same name instead of appending.
	UpsertMetadata bool

	// Clock provides the metadata creation time, defaults to time.Now.
	Clock func() time.Time

	Logger *zap.SugaredLogger
}

// fixOptions returns a copy of opts with defaults filled in.
func fixOptions(opts *Options) *Options {
	fixed := &Options{}
	if opts != nil {
		*fixed = *opts
	}
	if fixed.Clock == nil {
		fixed.Clock = time.Now
	}
	if fixed.Logger == nil {
		fixed.Logger = zap.NewNop().Sugar()
	}
	return fixed
}

// StepStatus records what a step did.
type StepStatus string

const (
	StepApplied StepStatus = "applied"
	StepSkipped StepStatus = "skipped"
)

type Step struct {
	Name   string
	Status StepStatus
}

// Result of a bootstrap run, possibly partial if Run returned an error.
type Result struct {
	Steps []Step

	// MetadataID is the ID of the inserted metadata document.
	// It is nil when an upsert replaced an existing document.
	MetadataID interface{}

	// CreatedAt is the time written to the metadata document.
	CreatedAt time.Time
}

func (r *Result) add(name string, status StepStatus) {
	r.Steps = append(r.Steps, Step{Name: name, Status: status})
}

// Skipped returns the names of the steps that found their object already present.
func (r *Result) Skipped() []string {
	skipped := make([]string, 0)
	for _, step := range r.Steps {
		if step.Status == StepSkipped {
			skipped = append(skipped, step.Name)
		}
	}
	return skipped
}

var ErrDatabaseMismatch = errors.New("target database does not match plan")

// Run establishes the plan on the target database.
// The steps are run in order and the first failure aborts the rest:
//
//  1. select the database (the target must already be on the plan database)
//  2. create the user with the plan roles
//  3. create each plan collection
//  4. insert the metadata document into the metadata collection
//
// Nothing is retried.
func Run(ctx context.Context, target Target, plan *Plan, opts *Options) (*Result, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}
	opts = fixOptions(opts)
	log := opts.Logger.With("database", plan.Database)
	result := &Result{}

	step := "select database " + plan.Database
	if target.Name() != plan.Database {
		return result, fmt.Errorf("%s: %w: %q", step, ErrDatabaseMismatch, target.Name())
	}
	result.add(step, StepApplied)
	log.Infow("Selected database")

	step = fmt.Sprintf("create user %q", plan.User)
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("%s: %w", step, err)
	}
	if status, err := apply(target.CreateUser(plan.UserDefinition()), opts); err != nil {
		return result, fmt.Errorf("%s: %w", step, err)
	} else {
		result.add(step, status)
		log.Infow("User", "user", plan.User, "roles", plan.Roles, "status", status)
	}

	for _, name := range plan.Collections {
		step = fmt.Sprintf("create collection %q", name)
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("%s: %w", step, err)
		}
		if status, err := apply(target.CreateCollection(name), opts); err != nil {
			return result, fmt.Errorf("%s: %w", step, err)
		} else {
			result.add(step, status)
			log.Infow("Collection", "collection", name, "status", status)
		}
	}

	step = fmt.Sprintf("insert metadata into %q", plan.MetadataCollection)
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("%s: %w", step, err)
	}
	// BSON datetimes only keep milliseconds.
	result.CreatedAt = opts.Clock().UTC().Truncate(time.Millisecond)
	metadata := plan.NewMetadata(result.CreatedAt)
	var err error
	if opts.UpsertMetadata {
		result.MetadataID, err = target.UpsertMetadata(plan.MetadataCollection, metadata)
	} else {
		result.MetadataID, err = target.InsertMetadata(plan.MetadataCollection, metadata)
	}
	if err != nil {
		return result, fmt.Errorf("%s: %w", step, err)
	}
	result.add(step, StepApplied)
	log.Infow("Metadata",
		"collection", plan.MetadataCollection, "name", metadata.Name,
		"version", metadata.Version, "id", result.MetadataID)

	return result, nil
}

func apply(err error, opts *Options) (StepStatus, error) {
	if err == nil {
		return StepApplied, nil
	}
	if opts.IgnoreExisting && mdb.IsAlreadyExists(err) {
		return StepSkipped, nil
	}
	return "", err
}
