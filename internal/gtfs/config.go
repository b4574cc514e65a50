package gtfs

import (
	"time"

	"planner.onebusaway.org/internal/appconf"
)

type Config struct {
	// GtfsURL is an http(s) URL or a local path to a static GTFS zip.
	GtfsURL string
	// GTFSDataPath is the SQLite snapshot database; empty disables snapshots.
	GTFSDataPath string
	Env          appconf.Environment
	Verbose      bool

	// RefreshInterval is how often a remote feed is fetched again.
	RefreshInterval time.Duration
	// MinChangeDuration is the transfer time between two points of one stop, in seconds.
	MinChangeDuration int32
	// WalkingSpeed in meters per second prices transfers without a minimum time.
	WalkingSpeed float64
	// MaxTransferWalk bounds, in meters, the walks generated between the
	// platforms of one station.
	MaxTransferWalk float64
	// MaxStayInWait bounds, in seconds, the layover between two trips of a
	// block that are chained for stay-in.
	MaxStayInWait int32
	// Parallelism bounds the start instants of one search scanned at once.
	Parallelism int
}

const (
	DefaultRefreshInterval   = 24 * time.Hour
	DefaultMinChangeDuration = 120
	DefaultWalkingSpeed      = 1.2
	DefaultMaxTransferWalk   = 500
	DefaultMaxStayInWait     = 3600
)

func (config Config) withDefaults() Config {
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = DefaultRefreshInterval
	}
	if config.MinChangeDuration <= 0 {
		config.MinChangeDuration = DefaultMinChangeDuration
	}
	if config.WalkingSpeed <= 0 {
		config.WalkingSpeed = DefaultWalkingSpeed
	}
	if config.MaxTransferWalk <= 0 {
		config.MaxTransferWalk = DefaultMaxTransferWalk
	}
	if config.MaxStayInWait <= 0 {
		config.MaxStayInWait = DefaultMaxStayInWait
	}
	return config
}
