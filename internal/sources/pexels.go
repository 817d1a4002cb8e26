package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.pexels.com"

// PexelsSource busca vídeos na API oficial do Pexels.
type PexelsSource struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

func NewPexelsSource(apiKey, baseURL string) *PexelsSource {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &PexelsSource{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

func (s *PexelsSource) Name() string {
	return "pexels"
}

func (s *PexelsSource) Search(ctx context.Context, query string, page, perPage int) ([]RawVideo, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("PEXELS_API_KEY não configurada")
	}

	endpoint := fmt.Sprintf("%s/videos/search?query=%s&per_page=%d&page=%d",
		s.baseURL, url.QueryEscape(query), perPage, page)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erro de rede na busca '%s' p.%d: %w", query, page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return nil, fmt.Errorf("chave do Pexels inválida ou sem permissão (%d)", resp.StatusCode)
	}
	if resp.StatusCode == 429 {
		return nil, fmt.Errorf("rate limited (muitas requisições)")
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("erro na api do pexels: %d", resp.StatusCode)
	}

	var data searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("erro decodificando resposta do pexels: %w", err)
	}

	return data.Videos, nil
}
