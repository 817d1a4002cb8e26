package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/GIL9898384/otc-whatsapp/internal/otc"
)

// POST /request-otc — gera o código, guarda com expiração de 5 minutos e
// envia via WhatsApp.
func (s *Server) handleRequestOTC(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Phone == "" {
		writeError(w, http.StatusBadRequest, "Telefone não informado")
		return
	}

	if s.otcStore == nil || s.notifier == nil {
		writeError(w, http.StatusServiceUnavailable, "Serviço de OTC não configurado")
		return
	}

	log.Printf("Número recebido no /request-otc: %s", body.Phone)

	code, err := s.otcStore.Generate(r.Context(), body.Phone)
	if err != nil {
		log.Printf("Erro ao gerar código: %v", err)
		writeError(w, http.StatusInternalServerError, "Erro ao gerar código")
		return
	}

	if !s.notifier.SendCode(r.Context(), body.Phone, code) {
		writeError(w, http.StatusInternalServerError, "Falha ao enviar WhatsApp")
		return
	}
	s.otcStore.MarkSent(r.Context())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Código enviado via WhatsApp",
	})
}

// POST /validate-otc — valida e consome o código (uso único).
func (s *Server) handleValidateOTC(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone string `json:"phone"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Phone == "" {
		writeError(w, http.StatusBadRequest, "Telefone ou código não informados")
		return
	}

	if s.otcStore == nil {
		writeError(w, http.StatusServiceUnavailable, "Serviço de OTC não configurado")
		return
	}

	err := s.otcStore.Validate(r.Context(), body.Phone, body.Code)
	switch {
	case errors.Is(err, otc.ErrNotRequested):
		writeError(w, http.StatusBadRequest, "Código não solicitado ou expirado.")
	case errors.Is(err, otc.ErrCodeMismatch):
		writeError(w, http.StatusBadRequest, "Código incorreto.")
	case err != nil:
		log.Printf("Erro ao validar código: %v", err)
		writeError(w, http.StatusInternalServerError, "Erro ao validar código")
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Código validado!",
		})
	}
}
