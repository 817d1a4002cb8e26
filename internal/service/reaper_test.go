package service

import (
	"context"
	"testing"
	"time"

	"github.com/GIL9898384/otc-whatsapp/internal/repository"
)

func TestReaperRetentionBoundary(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	retention := 7 * 24 * time.Hour
	now := time.Now()

	insert := func(ext int64, createdAt time.Time, consumed bool) string {
		v := &repository.Video{
			ExternalID: ext,
			MediaURL:   "https://cdn.example/v.mp4",
			CreatedAt:  createdAt,
		}
		if _, err := store.InsertIfAbsent(ctx, v); err != nil {
			t.Fatalf("Erro inserindo vídeo de teste: %v", err)
		}
		if consumed {
			if _, err := store.MarkViewed(ctx, v.ID); err != nil {
				t.Fatalf("Erro consumindo vídeo de teste: %v", err)
			}
		}
		return v.ID
	}

	// Consumido e 1s além da janela → sai
	expired := insert(1, now.Add(-retention-time.Second), true)
	// Consumido mas 1s dentro da janela → fica
	recent := insert(2, now.Add(-retention+time.Second), true)
	// Velho porém nunca consumido → fica (retenção só pega consumidos)
	oldAvailable := insert(3, now.Add(-2*retention), false)

	reaper := NewReaper(store, retention, nil)
	deleted := reaper.Run(ctx)

	if deleted != 1 {
		t.Errorf("Esperado 1 vídeo removido, foram %d", deleted)
	}
	if _, err := store.GetByID(ctx, expired); err == nil {
		t.Errorf("O vídeo expirado deveria ter sido apagado")
	}
	if _, err := store.GetByID(ctx, recent); err != nil {
		t.Errorf("O vídeo dentro da janela deveria continuar: %v", err)
	}
	if _, err := store.GetByID(ctx, oldAvailable); err != nil {
		t.Errorf("Vídeo disponível nunca pode ser removido pela retenção: %v", err)
	}
}
