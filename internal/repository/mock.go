package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore é um VideoStore em memória, usado nos testes e pra rodar o
// serviço local sem Postgres. Mesmas garantias do banco: unicidade de
// external_id e mutações atômicas (tudo sob o mesmo mutex).
type MemoryStore struct {
	mu    sync.Mutex
	byExt map[int64]*Video
	byID  map[string]*Video
	seq   int64
	seqOf map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byExt: make(map[int64]*Video),
		byID:  make(map[string]*Video),
		seqOf: make(map[string]int64),
	}
}

func (m *MemoryStore) InsertIfAbsent(_ context.Context, v *Video) (InsertOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byExt[v.ExternalID]; ok {
		return OutcomeDuplicate, nil
	}

	v.ID = uuid.New().String()
	// CreatedAt pré-preenchido é respeitado pra facilitar testes de retenção
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	v.UpdatedAt = v.CreatedAt

	stored := *v
	m.byExt[stored.ExternalID] = &stored
	m.byID[stored.ID] = &stored
	m.seq++
	m.seqOf[stored.ID] = m.seq
	return OutcomeInserted, nil
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (*Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *v
	return &out, nil
}

func (m *MemoryStore) ListAvailable(_ context.Context, page, limit int) ([]Video, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	avail := m.availableLocked()
	total := len(avail)

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	out := make([]Video, 0, end-start)
	for _, v := range avail[start:end] {
		out = append(out, *v)
	}
	return out, total, nil
}

// availableLocked retorna os disponíveis já ordenados (mais recentes primeiro,
// desempate pela ordem de inserção).
func (m *MemoryStore) availableLocked() []*Video {
	avail := make([]*Video, 0, len(m.byID))
	for _, v := range m.byID {
		if !v.Consumed {
			avail = append(avail, v)
		}
	}
	sort.Slice(avail, func(i, j int) bool {
		if avail[i].CreatedAt.Equal(avail[j].CreatedAt) {
			return m.seqOf[avail[i].ID] > m.seqOf[avail[j].ID]
		}
		return avail[i].CreatedAt.After(avail[j].CreatedAt)
	})
	return avail
}

func (m *MemoryStore) CountAvailable(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, v := range m.byID {
		if !v.Consumed {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) MarkViewed(_ context.Context, id string) (*Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	v.Consumed = true
	v.Views++
	v.UpdatedAt = time.Now()
	out := *v
	return &out, nil
}

func (m *MemoryStore) MarkLiked(_ context.Context, id string) (*Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	v.Likes++
	v.UpdatedAt = time.Now()
	out := *v
	return &out, nil
}

func (m *MemoryStore) DeleteConsumedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for id, v := range m.byID {
		if v.Consumed && v.CreatedAt.Before(cutoff) {
			delete(m.byID, id)
			delete(m.byExt, v.ExternalID)
			delete(m.seqOf, id)
			deleted++
		}
	}
	return deleted, nil
}
