package gtfs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jamespfennell/gtfs"

	"planner.onebusaway.org/gtfsdb"
	"planner.onebusaway.org/internal/logging"
	"planner.onebusaway.org/internal/raptor"
	"planner.onebusaway.org/internal/timetable"
)

// RegionBounds is the bounding box of the stops of a timetable.
type RegionBounds struct {
	Lat     float64
	Lon     float64
	LatSpan float64
	LonSpan float64
}

// published is one generation of the timetable. It is immutable: a reload
// builds a new one and swaps it in whole.
type published struct {
	tt          *timetable.Timetable
	engine      *raptor.Engine
	static      *gtfs.Static
	bounds      RegionBounds
	feedHash    string
	lastUpdated time.Time
}

// Manager owns the timetable built from the GTFS feed and keeps it fresh.
// Readers always see a complete timetable and its engine; searches running
// during a reload finish on the generation they started with.
type Manager struct {
	gtfsSource   string
	isLocalFile  bool
	config       Config
	logger       *slog.Logger
	GtfsDB       *gtfsdb.Client
	current      atomic.Pointer[published]
	reloadMu     sync.Mutex
	shutdownChan chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// InitGTFSManager loads the feed named by config.GtfsURL, which can be either
// a URL or a local file path. Remote feeds are refreshed periodically.
func InitGTFSManager(config Config) (*Manager, error) {
	config = config.withDefaults()
	manager := newManager(config)

	if config.GTFSDataPath != "" {
		db, err := gtfsdb.NewClient(gtfsdb.NewConfig(config.GTFSDataPath, config.Env, config.Verbose))
		if err != nil {
			return nil, fmt.Errorf("error building GTFS database: %w", err)
		}
		manager.GtfsDB = db
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := manager.Reload(ctx); err != nil {
		manager.Shutdown()
		return nil, err
	}

	if !manager.isLocalFile {
		manager.wg.Add(1)
		go manager.updateStaticGTFS()
	}
	return manager, nil
}

// NewManagerFromTimetable publishes a timetable built elsewhere. The manager
// does not refresh it.
func NewManagerFromTimetable(tt *timetable.Timetable, config Config) *Manager {
	manager := newManager(config.withDefaults())
	manager.isLocalFile = true
	manager.publish(tt, nil, "")
	return manager
}

func newManager(config Config) *Manager {
	return &Manager{
		gtfsSource:   config.GtfsURL,
		isLocalFile:  !isRemote(config.GtfsURL),
		config:       config,
		logger:       slog.Default().With(slog.String("component", "gtfs_manager")),
		shutdownChan: make(chan struct{}),
	}
}

// Reload fetches the feed and publishes a new timetable when the feed has
// changed. An unchanged feed found in the snapshot database is restored from
// it instead of being parsed.
func (manager *Manager) Reload(ctx context.Context) error {
	manager.reloadMu.Lock()
	defer manager.reloadMu.Unlock()

	start := time.Now()
	raw, err := rawGtfsData(ctx, manager.gtfsSource, manager.isLocalFile, manager.logger)
	if err != nil {
		return err
	}
	hash := feedHash(raw)
	if cur := manager.current.Load(); cur != nil && cur.feedHash == hash {
		if manager.config.Verbose {
			manager.logger.Info("GTFS feed unchanged", slog.String("source", manager.gtfsSource))
		}
		return nil
	}

	if manager.GtfsDB != nil {
		tt, err := manager.restoreSnapshot(ctx, hash)
		if err != nil {
			logging.LogError(manager.logger, "failed to restore timetable snapshot", err)
		} else if tt != nil {
			manager.publish(tt, nil, hash)
			logging.LogOperation(manager.logger, "timetable_restored",
				slog.String("source", manager.gtfsSource),
				slog.Duration("duration", time.Since(start)))
			return nil
		}
	}

	staticData, restrictions, err := parseGTFSData(raw)
	if err != nil {
		return err
	}
	tt, err := BuildTimetable(staticData, restrictions, manager.config)
	if err != nil {
		return err
	}
	manager.publish(tt, staticData, hash)

	if manager.GtfsDB != nil {
		if err := manager.GtfsDB.StoreTimetable(ctx, tt, hash, manager.gtfsSource); err != nil {
			logging.LogError(manager.logger, "failed to store timetable snapshot", err)
		}
	}

	stats := tt.Statistics()
	logging.LogOperation(manager.logger, "timetable_loaded",
		slog.String("source", manager.gtfsSource),
		slog.Int("stops", stats.Stops),
		slog.Int("vehicle_journeys", stats.VehicleJourneys),
		slog.Int("days", stats.Days),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// restoreSnapshot returns the stored timetable when it was built from the
// feed with hash, or nil.
func (manager *Manager) restoreSnapshot(ctx context.Context, hash string) (*timetable.Timetable, error) {
	ok, err := manager.GtfsDB.HasSnapshot(ctx, hash)
	if err != nil || !ok {
		return nil, err
	}
	tt, _, err := manager.GtfsDB.LoadTimetable(ctx)
	if errors.Is(err, gtfsdb.ErrNoSnapshot) {
		return nil, nil
	}
	return tt, err
}

func (manager *Manager) publish(tt *timetable.Timetable, staticData *gtfs.Static, hash string) {
	engine := raptor.NewEngine(tt,
		raptor.WithParallelism(manager.config.Parallelism),
		raptor.WithLogger(manager.logger.With(slog.String("component", "raptor"))))
	manager.current.Store(&published{
		tt:          tt,
		engine:      engine,
		static:      staticData,
		bounds:      regionBounds(tt),
		feedHash:    hash,
		lastUpdated: time.Now(),
	})
}

// Shutdown gracefully shuts down the manager and its background goroutines
func (manager *Manager) Shutdown() {
	manager.shutdownOnce.Do(func() {
		close(manager.shutdownChan)
		manager.wg.Wait()
		if manager.GtfsDB != nil {
			logging.SafeCloseWithLogging(manager.GtfsDB, manager.logger, "close_gtfs_db")
		}
	})
}

// Engine returns the search engine of the published timetable, nil before
// the first load.
func (manager *Manager) Engine() *raptor.Engine {
	if p := manager.current.Load(); p != nil {
		return p.engine
	}
	return nil
}

// Timetable returns the published timetable, nil before the first load.
func (manager *Manager) Timetable() *timetable.Timetable {
	if p := manager.current.Load(); p != nil {
		return p.tt
	}
	return nil
}

// GetStaticData returns the parsed feed of the published timetable. It is nil
// when the timetable was restored from a snapshot.
func (manager *Manager) GetStaticData() *gtfs.Static {
	if p := manager.current.Load(); p != nil {
		return p.static
	}
	return nil
}

func (manager *Manager) GetRegionBounds() RegionBounds {
	if p := manager.current.Load(); p != nil {
		return p.bounds
	}
	return RegionBounds{}
}

func (manager *Manager) LastUpdated() time.Time {
	if p := manager.current.Load(); p != nil {
		return p.lastUpdated
	}
	return time.Time{}
}

func (manager *Manager) FeedHash() string {
	if p := manager.current.Load(); p != nil {
		return p.feedHash
	}
	return ""
}

func (manager *Manager) Source() string { return manager.gtfsSource }

// regionBounds spans the stops that have a location.
func regionBounds(tt *timetable.Timetable) RegionBounds {
	minLat, maxLat := math.Inf(1), math.Inf(-1)
	minLon, maxLon := math.Inf(1), math.Inf(-1)
	for _, s := range tt.Stops() {
		if s.Lat == 0 && s.Lon == 0 {
			continue
		}
		minLat, maxLat = math.Min(minLat, s.Lat), math.Max(maxLat, s.Lat)
		minLon, maxLon = math.Min(minLon, s.Lon), math.Max(maxLon, s.Lon)
	}
	if math.IsInf(minLat, 1) {
		return RegionBounds{}
	}
	return RegionBounds{
		Lat:     (minLat + maxLat) / 2,
		Lon:     (minLon + maxLon) / 2,
		LatSpan: maxLat - minLat,
		LonSpan: maxLon - minLon,
	}
}
