package otc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Notifier entrega o código fora de banda. Só reporta sucesso/falha:
// o motivo da falha não é problema de quem chama.
type Notifier interface {
	SendCode(ctx context.Context, phone, code string) bool
}

const defaultGraphURL = "https://graph.facebook.com"

// WhatsAppNotifier envia o código via WhatsApp Business API (Graph).
type WhatsAppNotifier struct {
	httpClient    *http.Client
	token         string
	phoneNumberID string
	baseURL       string
}

func NewWhatsAppNotifier(token, phoneNumberID, baseURL string) *WhatsAppNotifier {
	if baseURL == "" {
		baseURL = defaultGraphURL
	}
	return &WhatsAppNotifier{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		token:         token,
		phoneNumberID: phoneNumberID,
		baseURL:       baseURL,
	}
}

func (n *WhatsAppNotifier) SendCode(ctx context.Context, phone, code string) bool {
	phoneDigits := digitsOnly(phone)
	log.Printf("Número enviado para a API do WhatsApp: %s", phoneDigits)

	body := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                phoneDigits,
		"type":              "text",
		"text": map[string]string{
			"body": fmt.Sprintf("Seu código de verificação Tokstar é: *%s*\nNão compartilhe com ninguém.", code),
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		log.Printf("Erro ao montar payload do WhatsApp: %v", err)
		return false
	}

	url := fmt.Sprintf("%s/v19.0/%s/messages", n.baseURL, n.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		log.Printf("Erro ao montar request do WhatsApp: %v", err)
		return false
	}
	req.Header.Set("Authorization", "Bearer "+n.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		log.Printf("Erro ao enviar WhatsApp: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("Erro ao enviar WhatsApp: status %d: %s", resp.StatusCode, detail)
		return false
	}
	return true
}
