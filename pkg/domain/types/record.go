package types

import (
	"strconv"

	"github.com/m-mizutani/goerr/v2"
)

// RecordID is a monotonically allocated identifier for a memory record.
// Allocation is owned by the repository backend.
type RecordID int64

// String returns the decimal representation of the RecordID
func (r RecordID) String() string {
	return strconv.FormatInt(int64(r), 10)
}

// ParseRecordID parses a decimal string into a RecordID
func ParseRecordID(s string) (RecordID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, goerr.Wrap(ErrInvalidInput, "invalid record ID", goerr.V("id", s))
	}
	return RecordID(v), nil
}

// UserID is an opaque partition key supplied by the identity provider.
// All memory data is partitioned by UserID; the store never interprets it.
type UserID string

// Validate checks if the UserID is usable as a partition key
func (u UserID) Validate() error {
	if u == "" {
		return goerr.Wrap(ErrInvalidInput, "user ID cannot be empty")
	}
	return nil
}

// String returns the string representation of the UserID
func (u UserID) String() string {
	return string(u)
}

// Category is a free-form secondary label for memory records
type Category string

// DefaultCategory is applied when the caller does not specify one
const DefaultCategory Category = "general"

// Normalize returns the category, treating empty as DefaultCategory
func (c Category) Normalize() Category {
	if c == "" {
		return DefaultCategory
	}
	return c
}

// String returns the string representation of the Category
func (c Category) String() string {
	return string(c)
}
