package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GIL9898384/otc-whatsapp/internal/metrics"
	"github.com/GIL9898384/otc-whatsapp/internal/repository"
)

// Reaper remove do pool vídeos consumidos mais velhos que a janela de
// retenção. Só controla crescimento de storage: falha aqui é logada e
// engolida, nunca chega no caller.
type Reaper struct {
	store     repository.VideoStore
	retention time.Duration
	rdb       *redis.Client // contador de métricas; pode ser nil
}

func NewReaper(store repository.VideoStore, retention time.Duration, rdb *redis.Client) *Reaper {
	return &Reaper{
		store:     store,
		retention: retention,
		rdb:       rdb,
	}
}

// Run executa uma passada de limpeza e retorna quantos vídeos saíram.
func (r *Reaper) Run(ctx context.Context) int64 {
	cutoff := time.Now().Add(-r.retention)

	// TODO: remover do Meilisearch os vídeos deletados aqui (o delete em
	// massa só retorna a contagem, não os ids).
	deleted, err := r.store.DeleteConsumedBefore(ctx, cutoff)
	if err != nil {
		log.Printf("[Reaper] Erro na limpeza de retenção: %v", err)
		return 0
	}

	if deleted > 0 {
		fmt.Printf("[Reaper] 🧹 Removidos %d vídeos consumidos há mais de %v.\n", deleted, r.retention)
		if r.rdb != nil {
			if err := r.rdb.IncrBy(ctx, metrics.KeyReaped, deleted).Err(); err != nil {
				log.Printf("metrics: erro incrementando %s: %v", metrics.KeyReaped, err)
			}
		}
	}
	return deleted
}
