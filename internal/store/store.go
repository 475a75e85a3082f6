package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/awaistahir/solarhub/internal/engine"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// Store handles persistent storage using SQLite
type Store struct {
	db *sql.DB
}

// NewStore creates a new store and initializes the database
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// initialize creates the database schema
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS households (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		latitude REAL,
		longitude REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS systems (
		household_id TEXT PRIMARY KEY,
		panel_kwp REAL NOT NULL DEFAULT 0,
		panel_tilt REAL,
		battery_type TEXT NOT NULL DEFAULT 'li_ion',
		battery_kwh REAL NOT NULL DEFAULT 0,
		battery_soc REAL NOT NULL DEFAULT 50,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (household_id) REFERENCES households(id)
	);

	CREATE TABLE IF NOT EXISTS load_profiles (
		household_id TEXT PRIMARY KEY,
		kind TEXT NOT NULL DEFAULT 'average',
		average_daily_kwh REAL NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (household_id) REFERENCES households(id)
	);

	CREATE TABLE IF NOT EXISTS appliances (
		id TEXT PRIMARY KEY,
		household_id TEXT NOT NULL,
		name TEXT NOT NULL,
		power_watts REAL NOT NULL,
		start_hour INTEGER NOT NULL DEFAULT 0,
		end_hour INTEGER NOT NULL DEFAULT 0,
		all_day INTEGER DEFAULT 0,
		position INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (household_id) REFERENCES households(id)
	);

	CREATE TABLE IF NOT EXISTS weather_cache (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		date TEXT NOT NULL,
		payload TEXT NOT NULL,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(latitude, longitude, date)
	);

	CREATE INDEX IF NOT EXISTS idx_appliances_household ON appliances(household_id, position);
	CREATE INDEX IF NOT EXISTS idx_weather_cache_date ON weather_cache(latitude, longitude, date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveHousehold saves or updates a household
func (s *Store) SaveHousehold(h *engine.Household) error {
	var lat, lon sql.NullFloat64
	if h.Location != nil {
		lat = sql.NullFloat64{Float64: h.Location.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: h.Location.Longitude, Valid: true}
	}

	query := `INSERT INTO households (id, name, latitude, longitude, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			updated_at = excluded.updated_at`

	_, err := s.db.Exec(query, h.ID, h.Name, lat, lon, time.Now())
	return err
}

// GetHousehold retrieves a household by ID
func (s *Store) GetHousehold(id string) (*engine.Household, error) {
	query := `SELECT id, name, latitude, longitude FROM households WHERE id = ?`

	var h engine.Household
	var lat, lon sql.NullFloat64

	err := s.db.QueryRow(query, id).Scan(&h.ID, &h.Name, &lat, &lon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("household %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if lat.Valid && lon.Valid {
		h.Location = &engine.Location{Latitude: lat.Float64, Longitude: lon.Float64}
	}

	return &h, nil
}

// SaveSystem saves the solar system configuration of a household
func (s *Store) SaveSystem(householdID string, cfg engine.SystemConfig) error {
	var tilt sql.NullFloat64
	if cfg.PanelTiltDeg != nil {
		tilt = sql.NullFloat64{Float64: *cfg.PanelTiltDeg, Valid: true}
	}

	batteryType := string(cfg.BatteryType)
	if batteryType == "" {
		batteryType = string(engine.BatteryLiIon)
	}

	query := `INSERT OR REPLACE INTO systems
		(household_id, panel_kwp, panel_tilt, battery_type, battery_kwh, battery_soc, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query, householdID, cfg.PanelCapacityKWp, tilt, batteryType,
		cfg.BatteryKWh, cfg.BatterySoC, time.Now())
	return err
}

// GetSystem retrieves the system configuration, or the defaults when none was saved
func (s *Store) GetSystem(householdID string) (engine.SystemConfig, error) {
	query := `SELECT panel_kwp, panel_tilt, battery_type, battery_kwh, battery_soc
		FROM systems WHERE household_id = ?`

	var cfg engine.SystemConfig
	var tilt sql.NullFloat64
	var batteryType string

	err := s.db.QueryRow(query, householdID).Scan(&cfg.PanelCapacityKWp, &tilt, &batteryType,
		&cfg.BatteryKWh, &cfg.BatterySoC)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.DefaultSystemConfig(), nil
	}
	if err != nil {
		return engine.SystemConfig{}, err
	}

	cfg.BatteryType = engine.BatteryType(batteryType)
	if tilt.Valid {
		cfg.PanelTiltDeg = &tilt.Float64
	}

	return cfg, nil
}

// SaveLoadProfile replaces the load profile of a household, including its appliances
func (s *Store) SaveLoadProfile(householdID string, profile engine.LoadProfile) (err error) {
	kind := profile.Kind
	if kind == "" {
		kind = engine.LoadProfileAverage
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.Exec(`INSERT OR REPLACE INTO load_profiles (household_id, kind, average_daily_kwh, updated_at)
		VALUES (?, ?, ?, ?)`, householdID, string(kind), profile.AverageDailyKWh, time.Now())
	if err != nil {
		return err
	}

	if _, err = tx.Exec(`DELETE FROM appliances WHERE household_id = ?`, householdID); err != nil {
		return err
	}

	for i, a := range profile.Appliances {
		if a.ID == "" {
			a.ID = NewApplianceID()
		}
		if err = insertAppliance(tx, householdID, a, i); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetLoadProfile retrieves the load profile, or the defaults when none was saved.
// Appliances are returned in insertion order for either kind so a kind switch
// does not lose the schedule.
func (s *Store) GetLoadProfile(householdID string) (engine.LoadProfile, error) {
	profile := engine.AverageLoad(0)

	var kind string
	err := s.db.QueryRow(`SELECT kind, average_daily_kwh FROM load_profiles WHERE household_id = ?`,
		householdID).Scan(&kind, &profile.AverageDailyKWh)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return engine.LoadProfile{}, err
	}
	if err == nil {
		profile.Kind = engine.LoadProfileKind(kind)
	}

	profile.Appliances, err = s.GetAppliances(householdID)
	if err != nil {
		return engine.LoadProfile{}, err
	}

	return profile, nil
}

// AddAppliance appends an appliance to the household schedule and returns it with its ID set
func (s *Store) AddAppliance(householdID string, a engine.ApplianceLoad) (engine.ApplianceLoad, error) {
	if a.ID == "" {
		a.ID = NewApplianceID()
	}

	var next int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(position) + 1, 0) FROM appliances WHERE household_id = ?`,
		householdID).Scan(&next)
	if err != nil {
		return engine.ApplianceLoad{}, err
	}

	if err := insertAppliance(s.db, householdID, a, next); err != nil {
		return engine.ApplianceLoad{}, err
	}

	return a, nil
}

// GetAppliances retrieves all appliances of a household in schedule order
func (s *Store) GetAppliances(householdID string) ([]engine.ApplianceLoad, error) {
	query := `SELECT id, name, power_watts, start_hour, end_hour, all_day
		FROM appliances WHERE household_id = ? ORDER BY position, created_at`

	rows, err := s.db.Query(query, householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appliances := []engine.ApplianceLoad{}
	for rows.Next() {
		var a engine.ApplianceLoad
		var allDayInt int

		if err := rows.Scan(&a.ID, &a.Name, &a.PowerWatts, &a.StartHour, &a.EndHour, &allDayInt); err != nil {
			return nil, err
		}
		a.AllDay = allDayInt == 1

		appliances = append(appliances, a)
	}

	return appliances, rows.Err()
}

// DeleteAppliance deletes an appliance by ID
func (s *Store) DeleteAppliance(householdID, id string) error {
	res, err := s.db.Exec(`DELETE FROM appliances WHERE household_id = ? AND id = ?`, householdID, id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("appliance %s: %w", id, ErrNotFound)
	}
	return nil
}

// CacheWeather stores fetched weather for a location and day
func (s *Store) CacheWeather(loc engine.Location, date time.Time, w *engine.SolarWeather) error {
	payload, err := json.Marshal(w)
	if err != nil {
		return err
	}

	lat, lon := cacheKey(loc)
	query := `INSERT OR REPLACE INTO weather_cache (latitude, longitude, date, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err = s.db.Exec(query, lat, lon, date.Format("2006-01-02"), string(payload), time.Now())
	return err
}

// GetCachedWeather retrieves cached weather, returning ErrNotFound on a miss
func (s *Store) GetCachedWeather(loc engine.Location, date time.Time) (*engine.SolarWeather, error) {
	lat, lon := cacheKey(loc)
	query := `SELECT payload FROM weather_cache WHERE latitude = ? AND longitude = ? AND date = ?`

	var payload string
	err := s.db.QueryRow(query, lat, lon, date.Format("2006-01-02")).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var w engine.SolarWeather
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		return nil, fmt.Errorf("decoding cached weather: %w", err)
	}

	return &w, nil
}

// cacheKey rounds coordinates to the 4 decimals sent to the weather API
func cacheKey(loc engine.Location) (float64, float64) {
	return math.Round(loc.Latitude*1e4) / 1e4, math.Round(loc.Longitude*1e4) / 1e4
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertAppliance(db execer, householdID string, a engine.ApplianceLoad, position int) error {
	query := `INSERT INTO appliances
		(id, household_id, name, power_watts, start_hour, end_hour, all_day, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.Exec(query, a.ID, householdID, a.Name, a.PowerWatts, a.StartHour, a.EndHour,
		boolToInt(a.AllDay), position)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
