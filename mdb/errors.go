package mdb

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// Server error codes checked by the functions below.
const (
	codeUserNotFound       = 11
	codeNamespaceExists    = 48
	codeDocumentValidation = 121
	codeDuplicateKey       = 11000
	codeUserAlreadyExists  = 51003
)

////////////////////////////////////////////////////////////////////////////////
// Functions to check for specific, known errors.

// IsDuplicate checks to see if the specified error is for attempting to create a duplicate document.
func IsDuplicate(err error) bool {
	return hasWriteErrorCode(err, codeDuplicateKey)
}

// IsNotFound checks an error condition to see if it matches the underlying database "not found" error.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, mongo.ErrNoDocuments)
}

// IsValidationFailure checks to see if the specified error is for a validation failure.
func IsValidationFailure(err error) bool {
	return hasWriteErrorCode(err, codeDocumentValidation)
}

// IsNamespaceExists checks to see if the specified error is from creating a collection that already exists.
func IsNamespaceExists(err error) bool {
	return hasCommandErrorCode(err, codeNamespaceExists)
}

// IsUserExists checks to see if the specified error is from creating a user that already exists.
// Older servers report this as a duplicate key on the users collection.
func IsUserExists(err error) bool {
	return hasCommandErrorCode(err, codeUserAlreadyExists) || hasCommandErrorCode(err, codeDuplicateKey)
}

// IsUserNotFound checks to see if the specified error is from referencing a user that does not exist.
func IsUserNotFound(err error) bool {
	return hasCommandErrorCode(err, codeUserNotFound)
}

// IsAlreadyExists is true for any error meaning that the created object already exists.
func IsAlreadyExists(err error) bool {
	return IsNamespaceExists(err) || IsUserExists(err)
}

func hasCommandErrorCode(err error, code int32) bool {
	if err == nil {
		return false
	}

	var e mongo.CommandError
	if errors.As(err, &e) {
		return e.Code == code
	}

	return false
}

func hasWriteErrorCode(err error, code int) bool {
	if err == nil {
		return false
	}

	var e mongo.WriteException
	if errors.As(err, &e) {
		for _, we := range e.WriteErrors {
			if we.Code == code {
				return true
			}
		}
	}

	return false
}
