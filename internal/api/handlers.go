// Package api provides the HTTP surface for DevPulse: the dashboard pages,
// the JSON API, the export endpoints, and the settings update path.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/akvarma/devpulse/internal/config"
	"github.com/akvarma/devpulse/internal/export"
	"github.com/akvarma/devpulse/internal/model"
	"github.com/akvarma/devpulse/internal/scheduler"
	"github.com/akvarma/devpulse/internal/settings"
	"github.com/akvarma/devpulse/internal/simulator"
	"github.com/akvarma/devpulse/internal/store"
	"github.com/akvarma/devpulse/web"
)

// Server is the HTTP server for DevPulse.
type Server struct {
	fleet    *simulator.Fleet
	store    *store.Store
	settings *settings.Settings
	sched    *scheduler.Scheduler
	mux      *http.ServeMux
	server   *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(addr string, fleet *simulator.Fleet, st *store.Store, set *settings.Settings, sched *scheduler.Scheduler) *Server {
	srv := &Server{
		fleet:    fleet,
		store:    st,
		settings: set,
		sched:    sched,
		mux:      http.NewServeMux(),
	}

	srv.registerRoutes()

	srv.server = &http.Server{
		Addr:         addr,
		Handler:      SecurityHeadersMiddleware(RecoveryMiddleware(LoggingMiddleware(srv.mux))),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return srv
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	slog.Info("HTTP server starting", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("HTTP server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	// Pages
	s.mux.HandleFunc("GET /", s.handleIndex)
	s.mux.HandleFunc("GET /device/{id}", s.handleDevicePage)
	s.mux.HandleFunc("GET /settings", s.handleSettingsPage)
	s.mux.HandleFunc("POST /update_settings", s.handleUpdateSettings)

	// JSON API
	s.mux.HandleFunc("GET /api/devices", s.handleAPIDevices)
	s.mux.HandleFunc("GET /api/device/{id}", s.handleAPIDevice)
	s.mux.HandleFunc("GET /api/history/{id}", s.handleAPIHistory)
	s.mux.HandleFunc("GET /api/recent", s.handleAPIRecent)
	s.mux.HandleFunc("GET /api/alerts", s.handleAPIAlerts)

	// Exports
	s.mux.HandleFunc("GET /export/{id}", s.handleExportDevice)
	s.mux.HandleFunc("GET /export_csv", s.handleExportAll)
	s.mux.HandleFunc("GET /export_pdf", s.handleExportPDF)

	// Health check
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
}

// renderHTML renders a page template to a buffer first, then writes the
// buffer to the response. This ensures rendering errors can be returned as a
// proper 500 before any bytes reach the client.
func renderHTML(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := web.Render(&buf, name, data); err != nil {
		slog.Error("rendering template", "template", name, "path", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		// Client disconnected after headers sent — nothing to recover.
		slog.Debug("writing HTML response", "path", r.URL.Path, "error", err)
	}
}

// writeJSON marshals v to JSON into a buffer first, then writes it to the
// response. This ensures marshalling errors can be returned as a proper 500.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("encoding JSON response", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		slog.Debug("writing JSON response", "path", r.URL.Path, "error", err)
	}
}

type indexData struct {
	Settings settings.View
	Devices  []model.Device
	Recent   []model.Snapshot
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	recent, err := s.store.Recent(store.DefaultRecentLimit)
	if err != nil {
		slog.Error("querying recent snapshots", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	renderHTML(w, r, "index", indexData{
		Settings: s.settings.Snapshot(),
		Devices:  s.fleet.Devices(),
		Recent:   recent,
	})
}

type devicePageData struct {
	Settings settings.View
	Device   model.Device
	History  []model.Snapshot
}

func (s *Server) handleDevicePage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	device, ok := s.fleet.Device(id)
	if !ok {
		http.Error(w, "Device not found", http.StatusNotFound)
		return
	}
	history, err := s.store.History(id)
	if err != nil {
		slog.Error("querying history", "device", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	renderHTML(w, r, "device", devicePageData{
		Settings: s.settings.Snapshot(),
		Device:   device,
		History:  history,
	})
}

type settingsPageData struct {
	Settings settings.View
}

func (s *Server) handleSettingsPage(w http.ResponseWriter, r *http.Request) {
	renderHTML(w, r, "settings", settingsPageData{Settings: s.settings.Snapshot()})
}

// handleUpdateSettings applies a settings form post. Invalid values fall
// back (unknown theme → light, bad interval → default, empty email kept);
// the handler never fails the request over bad input.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	s.settings.SetTheme(r.PostFormValue("theme"))
	s.settings.SetAlertEmail(r.PostFormValue("alert_email"))

	raw := r.PostFormValue("refresh_interval")
	interval, err := strconv.Atoi(raw)
	if err != nil {
		interval = config.DefaultRefreshInterval
	}
	s.settings.SetRefreshInterval(interval)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// deviceStatus is a preview snapshot with the device name attached.
type deviceStatus struct {
	model.Snapshot
	DeviceName string `json:"device_name"`
}

func (s *Server) handleAPIDevices(w http.ResponseWriter, r *http.Request) {
	snaps := s.fleet.SampleAll()
	out := make(map[string]deviceStatus, len(snaps))
	for _, d := range s.fleet.Devices() {
		out[d.ID] = deviceStatus{Snapshot: snaps[d.ID], DeviceName: d.Name}
	}
	writeJSON(w, r, out)
}

func (s *Server) handleAPIDevice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	device, ok := s.fleet.Device(id)
	if !ok {
		http.Error(w, "Device not found", http.StatusNotFound)
		return
	}
	writeJSON(w, r, deviceStatus{Snapshot: s.fleet.Sample(device), DeviceName: device.Name})
}

func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.fleet.Device(id); !ok {
		http.Error(w, "Device not found", http.StatusNotFound)
		return
	}
	history, err := s.store.History(id)
	if err != nil {
		slog.Error("querying history", "device", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, history)
}

func (s *Server) handleAPIRecent(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	recent, err := s.store.Recent(limit)
	if err != nil {
		slog.Error("querying recent snapshots", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, recent)
}

func (s *Server) handleAPIAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.store.RecentAlerts(50)
	if err != nil {
		slog.Error("querying alert log", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, alerts)
}

func (s *Server) handleExportDevice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.fleet.Device(id); !ok {
		http.Error(w, "Device not found", http.StatusNotFound)
		return
	}
	history, err := s.store.History(id)
	if err != nil {
		slog.Error("querying history", "device", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if len(history) == 0 {
		http.Error(w, "No data", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := export.HistoryCSV(&buf, history); err != nil {
		slog.Error("rendering history CSV", "device", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("%s_history_%s.csv", id, time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	buf.WriteTo(w)
}

func (s *Server) handleExportAll(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.store.AllSnapshots()
	if err != nil {
		slog.Error("querying all snapshots", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if len(snaps) == 0 {
		http.Error(w, "No data", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := export.AllCSV(&buf, snaps); err != nil {
		slog.Error("rendering all-device CSV", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("all_devices_history_%s.csv", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	buf.WriteTo(w)
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.store.Recent(store.DefaultRecentLimit)
	if err != nil {
		slog.Error("querying recent snapshots", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := export.Report(&buf, snaps); err != nil {
		slog.Error("rendering PDF report", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("device_report_%s.pdf", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	buf.WriteTo(w)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !s.sched.Running() {
		status = "sampler_stopped"
	}

	lastCycle := ""
	if t := s.sched.LastCycle(); !t.IsZero() {
		lastCycle = fmt.Sprintf("%ds ago", int(time.Since(t).Seconds()))
	}

	writeJSON(w, r, map[string]any{
		"status":     status,
		"timestamp":  time.Now().Unix(),
		"last_cycle": lastCycle,
	})
}
