package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/GIL9898384/otc-whatsapp/internal/ingest"
	"github.com/GIL9898384/otc-whatsapp/internal/otc"
	"github.com/GIL9898384/otc-whatsapp/internal/repository"
	"github.com/GIL9898384/otc-whatsapp/internal/search"
	"github.com/GIL9898384/otc-whatsapp/internal/sources"
)

// Dispatcher dispara jobs em segundo plano sem bloquear a resposta.
// A implementação real publica no NATS (service.JobQueue).
type Dispatcher interface {
	TriggerSweep()
	TriggerReap()
}

// Server amarra as rotas HTTP nas operações do engine. O transporte é burro
// de propósito: parse, delega, formata.
type Server struct {
	store        repository.VideoStore
	source       sources.Source
	pipeline     *ingest.Pipeline
	jobs         Dispatcher
	indexer      *search.Indexer // pode ser nil
	otcStore     *otc.Store      // pode ser nil (OTC desabilitado sem Redis)
	notifier     otc.Notifier
	lowWatermark int
}

func New(store repository.VideoStore, source sources.Source, pipeline *ingest.Pipeline,
	jobs Dispatcher, indexer *search.Indexer, otcStore *otc.Store, notifier otc.Notifier,
	lowWatermark int) *Server {
	return &Server{
		store:        store,
		source:       source,
		pipeline:     pipeline,
		jobs:         jobs,
		indexer:      indexer,
		otcStore:     otcStore,
		notifier:     notifier,
		lowWatermark: lowWatermark,
	}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/videos", s.handleListVideos)
	mux.HandleFunc("GET /api/videos/search", s.handleSearchVideos)
	mux.HandleFunc("GET /api/videos/{id}", s.handleGetVideo)
	mux.HandleFunc("POST /api/videos/sync", s.handleSync)
	mux.HandleFunc("POST /api/videos/auto-sync", s.handleAutoSync)
	mux.HandleFunc("POST /api/videos/{id}/view", s.handleView)
	mux.HandleFunc("POST /api/videos/{id}/like", s.handleLike)

	mux.HandleFunc("POST /request-otc", s.handleRequestOTC)
	mux.HandleFunc("POST /validate-otc", s.handleValidateOTC)

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Erro ao escrever resposta JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
