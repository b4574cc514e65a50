package appconf

// Config holds the settings of the HTTP server and of the searches it runs.
type Config struct {
	Port    int
	Env     Environment
	ApiKeys []string
	// RateLimit is the number of requests per second allowed per API key.
	RateLimit int
	// MaxTransfers is used when a request does not give one;
	// MaxTransfersLimit caps what a request may ask for.
	MaxTransfers      int
	MaxTransfersLimit int
	// Parallelism bounds the start instants of one request scanned at once.
	Parallelism int
}

// Defaults for settings left unset by flags and config file.
const (
	DefaultPort              = 4000
	DefaultRateLimit         = 100
	DefaultMaxTransfers      = 10
	DefaultMaxTransfersLimit = 20
)
