package services

import (
	"errors"
	"fmt"
)

// ErrEmptyUniverse is wrapped in a ProviderFatalError when no ranked asset
// survives exclusion and the catalog intersection.
var ErrEmptyUniverse = errors.New("no ranked asset is tradable on the exchange")

// ProviderFatalError marks a failure of a run-level collaborator (ranking or
// catalog). It aborts the scan.
type ProviderFatalError struct {
	Provider string
	Err      error
}

func (e *ProviderFatalError) Error() string {
	return fmt.Sprintf("%s provider failed: %v", e.Provider, e.Err)
}

func (e *ProviderFatalError) Unwrap() error {
	return e.Err
}

// NewProviderFatalError wraps err as a fatal failure of provider.
func NewProviderFatalError(provider string, err error) error {
	return &ProviderFatalError{Provider: provider, Err: err}
}

// IsProviderFatal reports whether err aborts the run.
func IsProviderFatal(err error) bool {
	var target *ProviderFatalError
	return errors.As(err, &target)
}

// ErrorKind classifies candle fetch failures.
type ErrorKind int

const (
	// KindTransient covers network failures, timeouts and throttling. Worth retrying.
	KindTransient ErrorKind = iota
	// KindPermanent covers unknown pairs, unsupported timeframes and malformed responses.
	KindPermanent
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// CandleError is a classified candle provider failure.
type CandleError struct {
	Kind ErrorKind
	Err  error
}

func (e *CandleError) Error() string {
	return fmt.Sprintf("%s candle error: %v", e.Kind, e.Err)
}

func (e *CandleError) Unwrap() error {
	return e.Err
}

// NewTransientError classifies err as retryable.
func NewTransientError(err error) error {
	return &CandleError{Kind: KindTransient, Err: err}
}

// NewPermanentError classifies err as not retryable.
func NewPermanentError(err error) error {
	return &CandleError{Kind: KindPermanent, Err: err}
}

// IsTransient reports whether err is a transient candle error.
func IsTransient(err error) bool {
	var target *CandleError
	return errors.As(err, &target) && target.Kind == KindTransient
}

// IsPermanent reports whether err is a permanent candle error. Unclassified
// errors are not permanent; the fetcher treats them as transient.
func IsPermanent(err error) bool {
	var target *CandleError
	return errors.As(err, &target) && target.Kind == KindPermanent
}
