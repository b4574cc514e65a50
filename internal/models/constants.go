package models

// Common constants used across the application
const (
	// UnknownValue is the fallback value when data is unavailable
	UnknownValue = "UNKNOWN"

	Accessible    = "ACCESSIBLE"
	NotAccessible = "NOT_ACCESSIBLE"

	// Section types
	SectionPublicTransport = "public_transport"
	SectionTransfer        = "transfer"
)
