package sources

import (
	"context"
	"fmt"
	"sync"
)

// MockSource gera candidatos verticais sintéticos com IDs sequenciais.
// Usado nos testes e pra rodar local sem chave do Pexels.
type MockSource struct {
	mu      sync.Mutex
	nextID  int64
	fetches int

	// EmptyAfterPage: páginas acima desse número voltam vazias (0 = sem limite)
	EmptyAfterPage int
	// FailOnPage: essa página sempre retorna erro (0 = nunca falha)
	FailOnPage int
}

func (m *MockSource) Name() string {
	return "mock"
}

func (m *MockSource) Search(_ context.Context, query string, page, perPage int) ([]RawVideo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++

	if m.FailOnPage > 0 && page == m.FailOnPage {
		return nil, fmt.Errorf("falha simulada na página %d", page)
	}
	if m.EmptyAfterPage > 0 && page > m.EmptyAfterPage {
		return nil, nil
	}

	batch := make([]RawVideo, 0, perPage)
	for i := 0; i < perPage; i++ {
		m.nextID++
		v := RawVideo{
			ID:       m.nextID,
			Width:    1080,
			Height:   1920,
			Duration: 15,
			URL:      fmt.Sprintf("https://videos.example/%d", m.nextID),
			Image:    fmt.Sprintf("https://images.example/%d.jpg", m.nextID),
			VideoFiles: []VideoFile{
				{ID: m.nextID, Quality: "hd", FileType: "video/mp4", Width: 1080, Height: 1920,
					Link: fmt.Sprintf("https://cdn.example/%d-hd.mp4", m.nextID)},
			},
		}
		v.User.Name = "mock-" + query
		batch = append(batch, v)
	}
	return batch, nil
}

// Fetches retorna quantas buscas já foram feitas (pros asserts dos testes).
func (m *MockSource) Fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}
