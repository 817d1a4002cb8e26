package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/GIL9898384/otc-whatsapp/internal/repository"
)

func parsePositive(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// GET /api/videos?page=&limit=
func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	page := parsePositive(r.URL.Query().Get("page"), 1)
	limit := parsePositive(r.URL.Query().Get("limit"), 10)

	videos, total, err := s.store.ListAvailable(r.Context(), page, limit)
	if err != nil {
		log.Printf("Erro ao listar vídeos: %v", err)
		writeError(w, http.StatusInternalServerError, "Erro ao buscar vídeos")
		return
	}

	// Pool baixo? Dispara a reposição em segundo plano; a resposta não espera.
	if total < s.lowWatermark && s.jobs != nil {
		s.jobs.TriggerSweep()
	}

	totalPages := (total + limit - 1) / limit
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"page":       page,
		"limit":      limit,
		"total":      total,
		"totalPages": totalPages,
		"videos":     videos,
	})
}

// GET /api/videos/{id}
func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	video, err := s.store.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Vídeo não encontrado")
		return
	}
	if err != nil {
		log.Printf("Erro ao buscar vídeo %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Erro ao buscar vídeo")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"video":   video,
	})
}

// POST /api/videos/sync — ingestão síncrona de um lote, fora da lógica de
// marca d'água. Útil pra popular na mão e pra depurar a fonte.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query   string `json:"query"`
		PerPage int    `json:"perPage"`
		Page    int    `json:"page"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	if body.Query == "" {
		body.Query = "nature"
	}
	if body.PerPage < 1 {
		body.PerPage = 15
	}
	if body.Page < 1 {
		body.Page = 1
	}

	batch, err := s.source.Search(r.Context(), body.Query, body.Page, body.PerPage)
	if err != nil {
		log.Printf("Erro na fonte durante sync: %v", err)
		writeError(w, http.StatusInternalServerError, "Falha ao buscar vídeos na fonte")
		return
	}

	res := s.pipeline.AdmitBatch(r.Context(), batch, body.Query)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Sync de '%s' concluído", body.Query),
		"saved":   res.Saved,
		"skipped": res.Skipped(),
		"total":   len(batch),
	})
}

// POST /api/videos/auto-sync — dispara uma varredura completa em segundo
// plano e responde na hora com a contagem atual.
func (s *Server) handleAutoSync(w http.ResponseWriter, r *http.Request) {
	current, err := s.store.CountAvailable(r.Context())
	if err != nil {
		log.Printf("Erro ao contar pool: %v", err)
		writeError(w, http.StatusInternalServerError, "Erro ao consultar o pool")
		return
	}

	if s.jobs != nil {
		s.jobs.TriggerSweep()
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"message": "Reposição do pool iniciada em segundo plano",
		"current": current,
	})
}

// POST /api/videos/{id}/view — marca consumido e incrementa views; de quebra
// dispara a limpeza de retenção (fire-and-forget).
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	video, err := s.store.MarkViewed(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Vídeo não encontrado")
		return
	}
	if err != nil {
		log.Printf("Erro ao marcar vídeo %s como visto: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Erro ao registrar visualização")
		return
	}

	if s.jobs != nil {
		s.jobs.TriggerReap()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"views":   video.Views,
	})
}

// POST /api/videos/{id}/like
func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	video, err := s.store.MarkLiked(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Vídeo não encontrado")
		return
	}
	if err != nil {
		log.Printf("Erro ao curtir vídeo %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Erro ao registrar curtida")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"likes":   video.Likes,
	})
}

// GET /api/videos/search?q=&limit=
func (s *Server) handleSearchVideos(w http.ResponseWriter, r *http.Request) {
	if s.indexer == nil {
		writeError(w, http.StatusServiceUnavailable, "Busca não configurada")
		return
	}

	q := r.URL.Query().Get("q")
	limit := parsePositive(r.URL.Query().Get("limit"), 20)

	docs, err := s.indexer.Search(q, limit)
	if err != nil {
		log.Printf("Erro na busca '%s': %v", q, err)
		writeError(w, http.StatusInternalServerError, "Erro na busca")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": docs,
	})
}
