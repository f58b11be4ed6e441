// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// File upload constants
const (
	// MaxUploadSize is the maximum accepted size of an uploaded image in bytes
	MaxUploadSize = 32 << 20
)

// Gallery constants
const (
	// DefaultNearestLimit is the default number of neighbors returned by a nearest query
	DefaultNearestLimit = 5

	// MaxNearestLimit caps the number of neighbors a single query may request
	MaxNearestLimit = 100
)

// Rate limiting constants
const (
	// DefaultRateLimit is the default number of requests per second per client
	DefaultRateLimit = 10

	// DefaultRateBurst is the default burst capacity of the request limiter
	DefaultRateBurst = 20

	// MaxTrackedClients bounds the per-client limiter table
	MaxTrackedClients = 1024
)

// Batch evaluation constants
const (
	// WorkerPoolSize is the default number of parallel workers for batch evaluation
	WorkerPoolSize = 8
)
