package domain

import (
	"errors"
	"fmt"
)

// Validation failures. Always returned wrapped in a *ValidationError.
var (
	ErrMissingPrice        = errors.New("price is required and must be positive")
	ErrMissingStopPrice    = errors.New("stop price is required and must be positive")
	ErrUnknownOrderType    = errors.New("unknown order type")
	ErrNonPositiveQuantity = errors.New("quantity must be positive")
	ErrEmptySymbol         = errors.New("symbol is required")
	ErrUnknownSide         = errors.New("side must be BUY or SELL")
	ErrUnknownSymbol       = errors.New("symbol is not trading on the exchange")
	ErrInvalidNumber       = errors.New("not a decimal number")
)

var (
	ErrNotConnected       = errors.New("not connected")
	ErrMissingCredentials = errors.New("api key and secret are required")
)

// ValidationError is a local input error. It never reaches the exchange.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TimeSyncError means the venue clock could not be read.
type TimeSyncError struct {
	Err error
}

func (e *TimeSyncError) Error() string {
	return fmt.Sprintf("time sync failed: %v", e.Err)
}

func (e *TimeSyncError) Unwrap() error { return e.Err }

// ConnectionError covers bad credentials and transport failures while connecting.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error (%s): %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// SubmissionError is an order the venue did not accept, or could not be sent.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("order rejected: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// APIError is an error payload returned by the exchange.
type APIError struct {
	Status int    `json:"-"` // HTTP status
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("code=%d msg=%s", e.Code, e.Msg)
}

// ErrorKind classifies errors for rendering.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindTimeSync   ErrorKind = "time_sync"
	KindConnection ErrorKind = "connection"
	KindSubmission ErrorKind = "submission"
	KindInternal   ErrorKind = "internal"
)

// Describe returns the error kind of err and a message fit for the operator.
func Describe(err error) (ErrorKind, string) {
	var (
		ve *ValidationError
		te *TimeSyncError
		ce *ConnectionError
		se *SubmissionError
	)
	switch {
	case err == nil:
		return "", ""
	case errors.As(err, &ve):
		return KindValidation, ve.Error()
	case errors.As(err, &te):
		return KindTimeSync, te.Error()
	case errors.As(err, &ce):
		return KindConnection, ce.Error()
	case errors.As(err, &se):
		return KindSubmission, se.Error()
	default:
		return KindInternal, err.Error()
	}
}
