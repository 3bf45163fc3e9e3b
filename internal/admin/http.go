// Package admin serves a read-only HTTP view of a running record store
// for operators. It never writes to the log.
package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	api "github.com/andrwkng/recordstore/api/v1"
	"github.com/andrwkng/recordstore/internal/log"
	"github.com/andrwkng/recordstore/internal/server"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// RecordReader is the read side of the record log.
type RecordReader interface {
	FindLatest(id uint32) (api.Record, error)
	Count() (uint64, error)
}

// StatsSource reports connection and request counters.
type StatsSource interface {
	Stats() server.Stats
}

type Config struct {
	Log    RecordReader
	Server StatsSource
	Logger logrus.FieldLogger
}

func NewHTTPServer(addr string, config *Config) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: NewHandler(config),
	}
}

// NewHandler routes:
//
//	GET /healthz        liveness
//	GET /stats          server counters and record count
//	GET /records/{id}   latest record for id
func NewHandler(config *Config) http.Handler {
	s := &httpServer{Config: config}
	if s.Logger == nil {
		s.Logger = logrus.StandardLogger()
	}
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/records/{id:[0-9]+}", s.handleRecord).Methods(http.MethodGet)
	return r
}

type httpServer struct {
	*Config
}

type StatsResponse struct {
	server.Stats
	Records uint64 `json:"records"`
}

func (s *httpServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *httpServer) handleStats(w http.ResponseWriter, r *http.Request) {
	var res StatsResponse
	if s.Server != nil {
		res.Stats = s.Server.Stats()
	}
	n, err := s.Log.Count()
	if err != nil {
		s.Logger.WithError(err).Error("admin: count records")
		http.Error(w, "count failed", http.StatusInternalServerError)
		return
	}
	res.Records = n
	s.writeJSON(w, res)
}

func (s *httpServer) handleRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		http.Error(w, "id must be a 32-bit unsigned integer", http.StatusBadRequest)
		return
	}
	record, err := s.Log.FindLatest(uint32(id))
	var nf api.ErrRecordNotFound
	switch {
	case err == nil:
	case errors.As(err, &nf), errors.Is(err, log.ErrNoLog):
		http.Error(w, "record not found", http.StatusNotFound)
		return
	default:
		s.Logger.WithError(err).WithField("id", id).Error("admin: find record")
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, record)
}

func (s *httpServer) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.WithError(err).Warn("admin: write response")
	}
}
