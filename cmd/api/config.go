package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"planner.onebusaway.org/internal/appconf"
	"planner.onebusaway.org/internal/gtfs"
)

// settings is everything the process needs to start.
type settings struct {
	app      appconf.Config
	gtfs     gtfs.Config
	logLevel string
}

// parseSettings reads flags from args. Flag defaults come from the
// environment, which may have been filled from a .env file; a YAML file
// given with -config overrides both.
func parseSettings(args []string, getenv func(string) string) (settings, error) {
	var (
		s          settings
		apiKeys    string
		env        string
		configPath string
	)
	fs := flag.NewFlagSet("api", flag.ContinueOnError)

	fs.IntVar(&s.app.Port, "port", envInt(getenv, "PORT", appconf.DefaultPort), "API server port")
	fs.StringVar(&env, "env", envString(getenv, "PLANNER_ENV", "development"), "Environment (development|test|production)")
	fs.StringVar(&apiKeys, "api-keys", envString(getenv, "PLANNER_API_KEYS", "test"), "Comma Separated API Keys (test, etc)")
	fs.IntVar(&s.app.RateLimit, "rate-limit", envInt(getenv, "PLANNER_RATE_LIMIT", appconf.DefaultRateLimit), "Requests per second per API key, 0 disables limiting")
	fs.IntVar(&s.app.MaxTransfers, "max-transfers", appconf.DefaultMaxTransfers, "Default number of vehicles a journey may board")
	fs.IntVar(&s.app.MaxTransfersLimit, "max-transfers-limit", appconf.DefaultMaxTransfersLimit, "Largest maxTransfers a request may ask for")
	fs.IntVar(&s.app.Parallelism, "parallelism", 0, "Start instants of one request searched at once, 0 for GOMAXPROCS")

	fs.StringVar(&s.gtfs.GtfsURL, "gtfs-url", envString(getenv, "PLANNER_GTFS_URL", "https://www.soundtransit.org/GTFS-rail/40_gtfs.zip"), "URL or path of a static GTFS zip file")
	fs.StringVar(&s.gtfs.GTFSDataPath, "data-path", envString(getenv, "PLANNER_DATA_PATH", "./gtfs.db"), "SQLite timetable snapshot, empty to disable")
	fs.DurationVar(&s.gtfs.RefreshInterval, "refresh-interval", gtfs.DefaultRefreshInterval, "How often a remote feed is fetched again")
	minChange := fs.Int("min-change", gtfs.DefaultMinChangeDuration, "Seconds to change vehicles at one stop")
	fs.Float64Var(&s.gtfs.WalkingSpeed, "walking-speed", gtfs.DefaultWalkingSpeed, "Walking speed in meters per second")
	fs.BoolVar(&s.gtfs.Verbose, "verbose", false, "Log every feed check")

	fs.StringVar(&s.logLevel, "log-level", envString(getenv, "PLANNER_LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")
	fs.StringVar(&configPath, "config", envString(getenv, "PLANNER_CONFIG", ""), "Optional YAML configuration file")

	if err := fs.Parse(args); err != nil {
		return settings{}, err
	}

	s.app.Env = appconf.EnvFlagToEnvironment(env)
	s.app.ApiKeys = splitKeys(apiKeys)
	s.gtfs.MinChangeDuration = int32(*minChange)

	if configPath != "" {
		fc, err := appconf.LoadFile(configPath)
		if err != nil {
			return settings{}, err
		}
		fc.Apply(&s.app)
		applyGTFSFile(fc.GTFS, &s.gtfs)
	}

	s.gtfs.Env = s.app.Env
	s.gtfs.Parallelism = s.app.Parallelism
	if len(s.app.ApiKeys) == 0 {
		return settings{}, fmt.Errorf("at least one API key is required")
	}
	if s.app.MaxTransfersLimit < s.app.MaxTransfers {
		return settings{}, fmt.Errorf("max-transfers-limit %d is below max-transfers %d", s.app.MaxTransfersLimit, s.app.MaxTransfers)
	}
	return s, nil
}

func applyGTFSFile(fc appconf.GTFSFileConfig, config *gtfs.Config) {
	if fc.URL != "" {
		config.GtfsURL = fc.URL
	}
	if fc.DataPath != "" {
		config.GTFSDataPath = fc.DataPath
	}
	if fc.RefreshInterval != 0 {
		config.RefreshInterval = fc.RefreshInterval
	}
	if fc.MinChange != 0 {
		config.MinChangeDuration = fc.MinChange
	}
	if fc.WalkingSpeed != 0 {
		config.WalkingSpeed = fc.WalkingSpeed
	}
	if fc.MaxTransferWalk != 0 {
		config.MaxTransferWalk = fc.MaxTransferWalk
	}
}

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func envString(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(getenv func(string) string, key string, def int) int {
	if n, err := strconv.Atoi(getenv(key)); err == nil {
		return n
	}
	return def
}
