package domain

import "errors"

var (
	// ErrHoldingExists: create was called for a code that is already tracked.
	ErrHoldingExists = errors.New("holding already exists")
	// ErrHoldingNotFound: no holding row for the given code.
	ErrHoldingNotFound = errors.New("holding not found")
	// ErrInvalidNav: a settled NAV is non-positive or unparseable, so shares
	// cannot be derived safely.
	ErrInvalidNav = errors.New("invalid settled NAV")
	// ErrNameResolutionFailed: upstream had no name and the caller supplied none.
	ErrNameResolutionFailed = errors.New("fund name could not be resolved")
	// ErrUpstreamUnavailable: the market data source returned nothing usable.
	// Always non-fatal in batch jobs; callers degrade to a skip.
	ErrUpstreamUnavailable = errors.New("market data upstream unavailable")
)
