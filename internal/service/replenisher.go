package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/GIL9898384/otc-whatsapp/internal/ingest"
	"github.com/GIL9898384/otc-whatsapp/internal/metrics"
	"github.com/GIL9898384/otc-whatsapp/internal/repository"
	"github.com/GIL9898384/otc-whatsapp/internal/sources"
)

const sweepLockKey = "tokstar:sweep:lock"

// SweepConfig parametriza uma varredura de reposição do pool.
type SweepConfig struct {
	LowWatermark     int
	HighWatermark    int
	Queries          []string
	MaxPagesPerQuery int
	PageSize         int
	// Espaçamento mínimo entre buscas na fonte, pra respeitar o rate limit
	RequestDelay time.Duration
	// TTL do lock distribuído; limita o estrago se o processo morrer com o lock
	LockTTL time.Duration
}

// SweepReport resume o que uma varredura fez.
type SweepReport struct {
	RunID      string
	Fetches    int
	Admitted   int
	FinalCount int
	Skipped    bool // já havia outra varredura em andamento
}

// Replenisher mantém o pool acima da marca d'água baixa varrendo a fonte
// externa página a página. Uma varredura por vez no cluster inteiro: o lock
// no Redis serializa instâncias concorrentes.
type Replenisher struct {
	store    repository.VideoStore
	source   sources.Source
	pipeline *ingest.Pipeline
	rdb      *redis.Client
	cfg      SweepConfig
}

func NewReplenisher(store repository.VideoStore, source sources.Source, pipeline *ingest.Pipeline, rdb *redis.Client, cfg SweepConfig) *Replenisher {
	if cfg.LockTTL == 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	return &Replenisher{
		store:    store,
		source:   source,
		pipeline: pipeline,
		rdb:      rdb,
		cfg:      cfg,
	}
}

// NeedsSweep diz se a disponibilidade atual justifica disparar uma varredura.
func (r *Replenisher) NeedsSweep(ctx context.Context) bool {
	count, err := r.store.CountAvailable(ctx)
	if err != nil {
		log.Printf("Erro ao contar pool: %v", err)
		return false
	}
	return count < r.cfg.LowWatermark
}

// Sweep roda uma varredura limitada: pra cada query, página 1..MaxPagesPerQuery,
// rechecando a disponibilidade antes de cada busca. Erro numa página é logado
// e a varredura segue pra próxima; só o orçamento ou a marca d'água alta param.
func (r *Replenisher) Sweep(ctx context.Context) (*SweepReport, error) {
	runID := uuid.New().String()[:8]
	report := &SweepReport{RunID: runID}

	if !r.acquireLock(ctx, runID) {
		fmt.Printf("[Sweep %s] Já existe varredura em andamento, ignorando.\n", runID)
		report.Skipped = true
		return report, nil
	}
	defer r.releaseLock(ctx)

	fmt.Printf("[Sweep %s] 🔄 Iniciando reposição do pool (alvo: %d vídeos)...\n", runID, r.cfg.HighWatermark)

sweep:
	for _, query := range r.cfg.Queries {
		for page := 1; page <= r.cfg.MaxPagesPerQuery; page++ {
			count, err := r.store.CountAvailable(ctx)
			if err != nil {
				log.Printf("[Sweep %s] Erro ao contar pool: %v", runID, err)
				break sweep
			}
			if count >= r.cfg.HighWatermark {
				fmt.Printf("[Sweep %s] ✅ Marca d'água alta atingida (%d disponíveis).\n", runID, count)
				break sweep
			}

			batch, err := r.source.Search(ctx, query, page, r.cfg.PageSize)
			report.Fetches++
			if err != nil {
				// Falha transitória da fonte: pula a página, não aborta a varredura
				log.Printf("[Sweep %s] Erro buscando '%s' p.%d: %v", runID, query, page, err)
				continue
			}

			res := r.pipeline.AdmitBatch(ctx, batch, query)
			report.Admitted += res.Saved
			fmt.Printf("[Sweep %s] '%s' p.%d: %d novos, %d pulados\n",
				runID, query, page, res.Saved, res.Skipped())

			time.Sleep(r.cfg.RequestDelay)
		}
	}

	final, err := r.store.CountAvailable(ctx)
	if err == nil {
		report.FinalCount = final
	}
	fmt.Printf("[Sweep %s] Finalizada: %d buscas, %d admitidos, pool com %d disponíveis.\n",
		runID, report.Fetches, report.Admitted, report.FinalCount)

	if r.rdb != nil {
		if err := r.rdb.Incr(ctx, metrics.KeySweeps).Err(); err != nil {
			log.Printf("metrics: erro incrementando %s: %v", metrics.KeySweeps, err)
		}
	}
	return report, nil
}

func (r *Replenisher) acquireLock(ctx context.Context, runID string) bool {
	if r.rdb == nil {
		return true
	}
	ok, err := r.rdb.SetNX(ctx, sweepLockKey, runID, r.cfg.LockTTL).Result()
	if err != nil {
		// Redis fora do ar não pode parar a reposição; o pior caso é uma
		// varredura duplicada, que a deduplicação no banco absorve
		log.Printf("Erro ao adquirir lock da varredura: %v", err)
		return true
	}
	return ok
}

func (r *Replenisher) releaseLock(ctx context.Context) {
	if r.rdb == nil {
		return
	}
	if err := r.rdb.Del(ctx, sweepLockKey).Err(); err != nil {
		log.Printf("Erro ao liberar lock da varredura: %v", err)
	}
}
