// Package bootstrap establishes the baseline schema and access control
// for one application database on a fresh Mongo instance.
//
// Run performs, in order: select the database, create the application user
// with a read-write role on it, create the empty collections and insert a
// metadata document naming the database and its version.
// The database handle is passed in explicitly, normally NewMongo() wrapping
// an mdb.Access connected to the plan database.
//
// Verify reads the database back and reports whether it matches the plan.
package bootstrap
