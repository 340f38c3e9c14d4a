package domain

import "errors"

var (
	// ErrSourceRejected is reported when a retailer table lacks a required column
	ErrSourceRejected = errors.New("source rejected")

	// ErrCategorySkipped is reported when fewer than two usable sources remain for a category
	ErrCategorySkipped = errors.New("category skipped")

	// ErrRecordDropped is reported when a row cannot take part in matching
	ErrRecordDropped = errors.New("record dropped")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInputNotFound is returned when the catalog input location does not exist
	ErrInputNotFound = errors.New("catalog input not found")

	// ErrUnsupportedFormat is returned for catalog or output files of unknown type
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
