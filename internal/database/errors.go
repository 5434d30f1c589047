package database

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned when a record or its unique key already exists
	ErrAlreadyExists = errors.New("record already exists")
)

const (
	recordTypeServer     = "server"
	recordTypeConnection = "connection"
	recordTypeUnique     = "unique"
)

// conditionFailed reports whether err is a failed condition check, either on
// a single write or on any item of a transaction
func conditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}

	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, reason := range tce.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	return false
}
