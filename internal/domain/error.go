package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Payment flow errors
	ErrPaymentNotSuccessful = errors.New("payment failed or pending")
	ErrUpstream             = errors.New("payment provider call failed")
	ErrPersistence          = errors.New("store write failed")

	// Store plumbing errors
	ErrInvalidExecContext = errors.New("invalid exec context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrOperationFailed    = errors.New("database operation failed")
)
