package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/madkins23/mongo-init/mdb"
)

// Literal values for the application database.
const (
	DefaultDatabase           = "iTech"
	DefaultUserName           = "mongo_user"
	DefaultUserPassword       = "mongo_password"
	DefaultRole               = "readWrite"
	DefaultMetadataCollection = "metadata"
	DefaultMetadataName       = "iTech Database"
	DefaultMetadataVersion    = "1.0"
)

// DefaultCollections are created empty, in this order.
var DefaultCollections = []string{"profiles", "logs"}

// Plan describes the baseline state of one application database.
type Plan struct {
	Database           string
	User               string
	Password           string
	Roles              []mdb.Role
	Collections        []string
	MetadataCollection string
	MetadataName       string
	MetadataVersion    string
}

// DefaultPlan returns the plan for the iTech database.
func DefaultPlan() *Plan {
	return &Plan{
		Database:           DefaultDatabase,
		User:               DefaultUserName,
		Password:           DefaultUserPassword,
		Roles:              []mdb.Role{{Role: DefaultRole, DB: DefaultDatabase}},
		Collections:        append([]string(nil), DefaultCollections...),
		MetadataCollection: DefaultMetadataCollection,
		MetadataName:       DefaultMetadataName,
		MetadataVersion:    DefaultMetadataVersion,
	}
}

var (
	ErrNoDatabase = errors.New("no database name")
	ErrNoUser     = errors.New("no user name")
	ErrNoPassword = errors.New("no user password")
	ErrNoRoles    = errors.New("no user roles")
	ErrNoMetadata = errors.New("no metadata collection or name")
)

// Validate checks that the plan has everything Run needs.
func (p *Plan) Validate() error {
	switch {
	case p.Database == "":
		return ErrNoDatabase
	case p.User == "":
		return ErrNoUser
	case p.Password == "":
		return ErrNoPassword
	case len(p.Roles) == 0:
		return ErrNoRoles
	case p.MetadataCollection == "" || p.MetadataName == "":
		return ErrNoMetadata
	}

	for i, role := range p.Roles {
		if role.Role == "" || role.DB == "" {
			return fmt.Errorf("role #%d: incomplete %+v", i, role)
		}
	}
	for i, name := range p.Collections {
		if name == "" {
			return fmt.Errorf("collection #%d: no name", i)
		}
	}

	return nil
}

// UserDefinition returns the credential to be created.
func (p *Plan) UserDefinition() *mdb.User {
	return &mdb.User{
		Name:     p.User,
		Password: p.Password,
		Roles:    append([]mdb.Role(nil), p.Roles...),
	}
}

// NewMetadata returns the metadata document stamped with the time.
func (p *Plan) NewMetadata(createdAt time.Time) *Metadata {
	return &Metadata{
		Name:      p.MetadataName,
		Version:   p.MetadataVersion,
		CreatedAt: createdAt,
	}
}

// Metadata records descriptive information about the database itself.
type Metadata struct {
	mdb.Identity `bson:",inline"`
	Name         string    `bson:"name"`
	Version      string    `bson:"version"`
	CreatedAt    time.Time `bson:"created_at"`
}
