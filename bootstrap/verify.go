package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/madkins23/mongo-init/mdb"
)

type CheckStatus string

const (
	CheckPass CheckStatus = "pass"
	CheckWarn CheckStatus = "warn"
	CheckFail CheckStatus = "fail"
)

// Check is the outcome of verifying one part of the plan.
type Check struct {
	Name   string
	Status CheckStatus
	Detail string
}

// Report lists the checks made by Verify.
type Report struct {
	Database string
	Checks   []Check
}

// OK is true if no check failed. Warnings do not count as failures.
func (r *Report) OK() bool {
	for _, check := range r.Checks {
		if check.Status == CheckFail {
			return false
		}
	}
	return true
}

func (r *Report) add(name string, status CheckStatus, format string, args ...interface{}) {
	r.Checks = append(r.Checks, Check{Name: name, Status: status, Detail: fmt.Sprintf(format, args...)})
}

// Verify checks that the inspected database matches the plan as a single Run leaves it.
// Errors are only returned when the database cannot be read,
// differences from the plan are reported as failed checks.
//
// More than one matching metadata document is a warning rather than a failure:
// the metadata insert is not idempotent, so every run that got past the
// user step (see Options.IgnoreExisting) appends another document.
// Any document with another name fails the check.
//
// created_at is only checked to be set and not later than now.
// The time window of the run that wrote it is not recorded anywhere,
// so a tighter bound can only be asserted by the caller of Run (see Result.CreatedAt).
func Verify(ctx context.Context, inspector Inspector, plan *Plan, now func() time.Time) (*Report, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	report := &Report{Database: plan.Database}

	if inspector.Name() != plan.Database {
		return nil, fmt.Errorf("%w: %q", ErrDatabaseMismatch, inspector.Name())
	}

	names, err := inspector.CollectionNames()
	if err != nil {
		return nil, fmt.Errorf("collection names: %w", err)
	}
	existing := make(map[string]bool, len(names))
	for _, name := range names {
		existing[name] = true
	}
	if len(names) > 0 {
		report.add("database", CheckPass, "%s has %d collections", plan.Database, len(names))
	} else {
		report.add("database", CheckFail, "%s does not exist", plan.Database)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := verifyUser(inspector, plan, report); err != nil {
		return nil, err
	}

	for _, name := range plan.Collections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		check := "collection " + name
		if !existing[name] {
			report.add(check, CheckFail, "missing")
			continue
		}
		count, err := inspector.Count(name)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		if count == 0 {
			report.add(check, CheckPass, "exists and is empty")
		} else {
			report.add(check, CheckFail, "has %d documents", count)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := verifyMetadata(inspector, plan, now(), report); err != nil {
		return nil, err
	}

	return report, nil
}

func verifyUser(inspector Inspector, plan *Plan, report *Report) error {
	check := "user " + plan.User
	user, err := inspector.UserInfo(plan.User)
	if err != nil {
		if mdb.IsNotFound(err) {
			report.add(check, CheckFail, "missing")
			return nil
		}
		return fmt.Errorf("user info: %w", err)
	}

	if len(user.Roles) != len(plan.Roles) {
		report.add(check, CheckFail, "has roles %v, expected %v", user.Roles, plan.Roles)
		return nil
	}
	for _, role := range plan.Roles {
		if !user.HasRole(role) {
			report.add(check, CheckFail, "has roles %v, expected %v", user.Roles, plan.Roles)
			return nil
		}
	}

	report.add(check, CheckPass, "has roles %v", user.Roles)
	return nil
}

func verifyMetadata(inspector Inspector, plan *Plan, now time.Time, report *Report) error {
	check := "metadata " + plan.MetadataCollection
	documents, err := inspector.Metadata(plan.MetadataCollection)
	if err != nil {
		return fmt.Errorf("metadata: %w", err)
	}

	matching := 0
	for _, doc := range documents {
		if doc.Name != plan.MetadataName {
			continue
		}
		if doc.Version != plan.MetadataVersion {
			report.add(check, CheckFail, "%q has version %q, expected %q", doc.Name, doc.Version, plan.MetadataVersion)
			return nil
		}
		if doc.CreatedAt.IsZero() || doc.CreatedAt.After(now) {
			report.add(check, CheckFail, "%q has bad created_at %s", doc.Name, doc.CreatedAt)
			return nil
		}
		matching++
	}

	switch {
	case matching == 0:
		report.add(check, CheckFail, "no document named %q", plan.MetadataName)
	case len(documents) > matching:
		report.add(check, CheckFail,
			"%d documents not named %q", len(documents)-matching, plan.MetadataName)
	case matching == 1:
		report.add(check, CheckPass, "%q version %s", plan.MetadataName, plan.MetadataVersion)
	default:
		report.add(check, CheckWarn,
			"%d documents named %q, expected duplication from repeated runs", matching, plan.MetadataName)
	}

	return nil
}
