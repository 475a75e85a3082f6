package uiapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/awaistahir/solarhub/internal/engine"
	"github.com/awaistahir/solarhub/internal/log"
	"github.com/awaistahir/solarhub/internal/service"
	"github.com/awaistahir/solarhub/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const version = "1.0.0"

type Server struct {
	store       *store.Store
	service     *service.Service
	householdID string
}

func NewServer(st *store.Store, weather service.WeatherProvider, householdID string) *Server {
	if householdID == "" {
		householdID = "default"
	}
	return &Server{
		store:       st,
		service:     service.New(st, weather),
		householdID: householdID,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(requestLogger)

	// CORS for local development
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/household", s.handleGetHousehold)
		r.Put("/household", s.handleUpdateHousehold)
		r.Get("/system", s.handleGetSystem)
		r.Put("/system", s.handleUpdateSystem)
		r.Get("/load-profile", s.handleGetLoadProfile)
		r.Put("/load-profile", s.handleUpdateLoadProfile)
		r.Post("/load-profile/appliances", s.handleAddAppliance)
		r.Delete("/load-profile/appliances/{id}", s.handleDeleteAppliance)
		r.Get("/weather", s.handleGetWeather)
		r.Get("/forecast", s.handleGetForecast)
		r.Post("/simulate", s.handleSimulate)
	})

	return r
}

// requestLogger attaches a request-scoped slog logger to the context
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.Ctx(r.Context()).With(slog.String("request_id", middleware.GetReqID(r.Context())))
		next.ServeHTTP(w, r.WithContext(log.With(r.Context(), logger)))
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "ok",
		"version":   version,
		"household": s.householdID,
	}
	if h, err := s.store.GetHousehold(s.householdID); err == nil {
		status["has_location"] = h.Location != nil
	}
	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleGetHousehold(w http.ResponseWriter, r *http.Request) {
	household, err := s.store.GetHousehold(s.householdID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, household)
}

func (s *Server) handleUpdateHousehold(w http.ResponseWriter, r *http.Request) {
	var household engine.Household
	if err := json.NewDecoder(r.Body).Decode(&household); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if household.Location != nil {
		if err := household.Location.Validate(); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	household.ID = s.householdID
	if err := s.store.SaveHousehold(&household); err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, household)
}

func (s *Server) handleGetSystem(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.GetSystem(s.householdID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, systemResponse(cfg))
}

func (s *Server) handleUpdateSystem(w http.ResponseWriter, r *http.Request) {
	cfg := engine.DefaultSystemConfig()
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := cfg.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.SaveSystem(s.householdID, cfg); err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, systemResponse(cfg))
}

// SystemResponse adds the chemistry details to a system configuration
type SystemResponse struct {
	engine.SystemConfig
	BatteryName       string  `json:"battery_name"`
	BatteryEfficiency float64 `json:"battery_efficiency"`
}

func systemResponse(cfg engine.SystemConfig) SystemResponse {
	return SystemResponse{
		SystemConfig:      cfg,
		BatteryName:       cfg.BatteryType.DisplayName(),
		BatteryEfficiency: cfg.BatteryEfficiency(),
	}
}

func (s *Server) handleGetLoadProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.store.GetLoadProfile(s.householdID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateLoadProfile(w http.ResponseWriter, r *http.Request) {
	var profile engine.LoadProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch profile.Kind {
	case engine.LoadProfileAverage, engine.LoadProfileSchedule:
	default:
		respondError(w, http.StatusBadRequest, "kind must be average or schedule")
		return
	}
	if err := profile.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.SaveLoadProfile(s.householdID, profile); err != nil {
		respondStoreError(w, r, err)
		return
	}

	saved, err := s.store.GetLoadProfile(s.householdID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (s *Server) handleAddAppliance(w http.ResponseWriter, r *http.Request) {
	var appliance engine.ApplianceLoad
	if err := json.NewDecoder(r.Body).Decode(&appliance); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := appliance.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	appliance, err := s.store.AddAppliance(s.householdID, appliance)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, appliance)
}

func (s *Server) handleDeleteAppliance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteAppliance(s.householdID, id); err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "deleted", "id": id})
}

func (s *Server) handleGetWeather(w http.ResponseWriter, r *http.Request) {
	weather, _, err := s.service.Weather(r.Context(), s.householdID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, weather)
}

func (s *Server) handleGetForecast(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.Forecast(r.Context(), s.householdID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// SimulateRequest carries every simulator input, bypassing stored state
type SimulateRequest struct {
	System       engine.SystemConfig       `json:"system"`
	Load         engine.LoadProfile        `json:"load_profile"`
	Irradiance   []engine.IrradianceSample `json:"irradiance"`
	Temperatures []float64                 `json:"temperatures"`
	Latitude     float64                   `json:"latitude"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	req := SimulateRequest{System: engine.DefaultSystemConfig()}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 {
		respondError(w, http.StatusBadRequest, "latitude must be between -90 and 90")
		return
	}
	if err := req.System.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Load.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	forecast := engine.CalculateDailyForecast(req.System, req.Load, req.Irradiance, req.Temperatures, req.Latitude)
	respondJSON(w, http.StatusOK, forecast)
}

func respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	log.Ctx(r.Context()).Error("store error", "error", err)
	respondError(w, http.StatusInternalServerError, err.Error())
}

func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNoLocation), errors.Is(err, engine.ErrInvalidHour):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrWeatherUnavailable):
		log.Ctx(r.Context()).Warn("weather provider failed", "error", err)
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		respondStoreError(w, r, err)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
