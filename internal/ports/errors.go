package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Auth Errors
	ErrUnauthorized            = errors.New("authentication required")
	ErrInvalidCredentials      = errors.New("invalid username or password")
	ErrAccountExpired          = errors.New("account has expired")
	ErrInvalidRegistrationCode = errors.New("invalid registration code")

	// Market Data Errors
	ErrMarketDataUnavailable = errors.New("market data provider is unavailable")
	ErrConnectionFailed      = errors.New("failed to connect to the provider")
	ErrRateLimited           = errors.New("API rate limit exceeded")
	ErrUnknownSymbol         = errors.New("unknown market symbol")
	ErrNewsUnavailable       = errors.New("news provider is unavailable")

	// Database Specific Errors
	ErrDuplicateEntry = errors.New("database record already exists")
	ErrDBConnection   = errors.New("database connection error")
	ErrQueryFailed    = errors.New("database query failed")
	ErrUpdateFailed   = errors.New("database update failed")
	ErrDeleteFailed   = errors.New("database delete failed")
)
