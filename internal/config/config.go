package config

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultDatabaseURL is empty; must be provided via flag or environment.
	DefaultDatabaseURL = ""

	// DefaultEventBufferSize is the per-subscriber buffer on the event feed.
	DefaultEventBufferSize = 64
)
