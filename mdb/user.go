package mdb

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Role grants a named set of privileges on a database.
type Role struct {
	Role string `bson:"role"`
	DB   string `bson:"db"`
}

// User is a database credential.
// Users are defined on a specific database which is also their authentication database.
type User struct {
	Name     string `bson:"user"`
	Password string `bson:"-"`
	DB       string `bson:"db,omitempty"`
	Roles    []Role `bson:"roles"`
}

// HasRole checks whether the user has been granted the role.
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

var (
	ErrNoUserName = errors.New("no user name")
	ErrNoPassword = errors.New("no password")
)

func (u *User) createCommand() (bson.D, error) {
	if u.Name == "" {
		return nil, ErrNoUserName
	}
	if u.Password == "" {
		return nil, ErrNoPassword
	}

	roles := bson.A{}
	for _, role := range u.Roles {
		roles = append(roles, bson.D{{Key: "role", Value: role.Role}, {Key: "db", Value: role.DB}})
	}

	return bson.D{
		{Key: "createUser", Value: u.Name},
		{Key: "pwd", Value: u.Password},
		{Key: "roles", Value: roles},
	}, nil
}

// CreateUser creates the user on this database.
// If the user already exists the error can be checked with IsUserExists().
func (a *Access) CreateUser(user *User) error {
	command, err := user.createCommand()
	if err != nil {
		return fmt.Errorf("create user command: %w", err)
	}

	ctx, cancel := a.ContextWithTimeout(a.config.Timeout.Command)
	defer cancel()
	if err := a.database.RunCommand(ctx, command).Err(); err != nil {
		return fmt.Errorf("create user '%s': %w", user.Name, err)
	}

	a.Info("Created user", "user", user.Name, "roles", user.Roles)

	return nil
}

// UserInfo returns the named user defined on this database.
// The password is never returned.
// An error matching IsNotFound() is returned if there is no such user.
func (a *Access) UserInfo(name string) (*User, error) {
	if name == "" {
		return nil, ErrNoUserName
	}

	ctx, cancel := a.ContextWithTimeout(a.config.Timeout.Command)
	defer cancel()
	var result struct {
		Users []User `bson:"users"`
	}
	command := bson.D{{Key: "usersInfo", Value: bson.D{{Key: "user", Value: name}, {Key: "db", Value: a.Name()}}}}
	if err := a.database.RunCommand(ctx, command).Decode(&result); err != nil {
		return nil, fmt.Errorf("user info '%s': %w", name, err)
	}

	for i := range result.Users {
		if result.Users[i].Name == name {
			return &result.Users[i], nil
		}
	}

	// Wrap the driver's not found error so IsNotFound() works for users too.
	return nil, fmt.Errorf("no user '%s': %w", name, mongo.ErrNoDocuments)
}

// DropUser removes the user from this database.
// Set idempotent to true to avoid errors if the user does not exist.
func (a *Access) DropUser(name string, idempotent bool) error {
	if name == "" {
		return ErrNoUserName
	}

	ctx, cancel := a.ContextWithTimeout(a.config.Timeout.Command)
	defer cancel()
	if err := a.database.RunCommand(ctx, bson.D{{Key: "dropUser", Value: name}}).Err(); err != nil {
		if idempotent && IsUserNotFound(err) {
			return nil
		}
		return fmt.Errorf("drop user '%s': %w", name, err)
	}

	a.Info("Dropped user", "user", name)

	return nil
}
