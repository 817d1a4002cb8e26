package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/GIL9898384/otc-whatsapp/internal/ingest"
	"github.com/GIL9898384/otc-whatsapp/internal/repository"
	"github.com/GIL9898384/otc-whatsapp/internal/sources"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	// MiniRedis pra rodar os testes sem precisar do Redis real subindo
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Erro ao iniciar miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func seedPool(t *testing.T, store repository.VideoStore, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		v := &repository.Video{
			ExternalID: int64(1_000_000 + i),
			MediaURL:   fmt.Sprintf("https://cdn.example/seed-%d.mp4", i),
			Width:      1080,
			Height:     1920,
		}
		if _, err := store.InsertIfAbsent(context.Background(), v); err != nil {
			t.Fatalf("Erro semeando pool: %v", err)
		}
	}
}

func newTestReplenisher(t *testing.T, store repository.VideoStore, src sources.Source, cfg SweepConfig) *Replenisher {
	t.Helper()
	pipeline := ingest.NewPipeline(store, nil, nil, 0.7)
	return NewReplenisher(store, src, pipeline, testRedis(t), cfg)
}

func TestSweepConvergesAtHighWatermark(t *testing.T) {
	store := repository.NewMemoryStore()
	seedPool(t, store, 10)

	src := &sources.MockSource{}
	repl := newTestReplenisher(t, store, src, SweepConfig{
		LowWatermark:     50,
		HighWatermark:    200,
		Queries:          []string{"nature", "people", "city"},
		MaxPagesPerQuery: 100,
		PageSize:         15,
	})

	report, err := repl.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep não deveria falhar: %v", err)
	}

	count, _ := store.CountAvailable(context.Background())
	if count < 200 {
		t.Errorf("Pool deveria ter chegado na marca alta (200), tem %d", count)
	}

	// Partindo de 10, com lotes de 15, bastam ceil(190/15) = 13 buscas
	if report.Fetches > 13 {
		t.Errorf("Varredura gastou %d buscas, máximo esperado 13", report.Fetches)
	}
}

func TestSweepStopsWhenBudgetExhausted(t *testing.T) {
	store := repository.NewMemoryStore()

	// A fonte seca depois da página 2: a varredura tem que percorrer o
	// orçamento inteiro e terminar sem erro, mesmo longe da marca alta
	src := &sources.MockSource{EmptyAfterPage: 2}
	repl := newTestReplenisher(t, store, src, SweepConfig{
		LowWatermark:     50,
		HighWatermark:    10_000,
		Queries:          []string{"nature", "people"},
		MaxPagesPerQuery: 3,
		PageSize:         5,
	})

	report, err := repl.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Esgotar o orçamento não é erro: %v", err)
	}
	if report.Fetches != 6 {
		t.Errorf("Esperadas 2 queries × 3 páginas = 6 buscas, houve %d", report.Fetches)
	}

	count, _ := store.CountAvailable(context.Background())
	if count != 20 {
		t.Errorf("Só as páginas 1 e 2 de cada query tinham vídeos (20), pool tem %d", count)
	}
}

func TestSweepSkipsFailedPage(t *testing.T) {
	store := repository.NewMemoryStore()

	// A página 1 sempre falha: a varredura pula e segue nas demais
	src := &sources.MockSource{FailOnPage: 1}
	repl := newTestReplenisher(t, store, src, SweepConfig{
		LowWatermark:     50,
		HighWatermark:    10_000,
		Queries:          []string{"nature"},
		MaxPagesPerQuery: 3,
		PageSize:         5,
	})

	report, err := repl.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Erro numa página não pode derrubar a varredura: %v", err)
	}
	if report.Fetches != 3 {
		t.Errorf("As 3 páginas deveriam ter sido tentadas, houve %d buscas", report.Fetches)
	}
	if report.Admitted != 10 {
		t.Errorf("Páginas 2 e 3 deveriam render 10 vídeos, renderam %d", report.Admitted)
	}
}

func TestSweepLockPreventsOverlap(t *testing.T) {
	store := repository.NewMemoryStore()
	src := &sources.MockSource{}
	rdb := testRedis(t)

	pipeline := ingest.NewPipeline(store, nil, nil, 0.7)
	repl := NewReplenisher(store, src, pipeline, rdb, SweepConfig{
		LowWatermark:     50,
		HighWatermark:    100,
		Queries:          []string{"nature"},
		MaxPagesPerQuery: 10,
		PageSize:         15,
	})

	// Simula outra instância segurando o lock
	if err := rdb.SetNX(context.Background(), sweepLockKey, "outra-instancia", time.Minute).Err(); err != nil {
		t.Fatalf("Erro preparando lock: %v", err)
	}

	report, err := repl.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep com lock ocupado não é erro: %v", err)
	}
	if !report.Skipped {
		t.Errorf("Varredura deveria ter sido pulada com o lock ocupado")
	}
	if src.Fetches() != 0 {
		t.Errorf("Nenhuma busca deveria ter acontecido, houve %d", src.Fetches())
	}

	// Lock liberado: a próxima varredura roda normal e solta o lock no fim
	rdb.Del(context.Background(), sweepLockKey)
	report, _ = repl.Sweep(context.Background())
	if report.Skipped {
		t.Errorf("Com o lock livre a varredura deveria rodar")
	}
	if exists, _ := rdb.Exists(context.Background(), sweepLockKey).Result(); exists != 0 {
		t.Errorf("Lock deveria ter sido liberado ao final da varredura")
	}
}

func TestNeedsSweep(t *testing.T) {
	store := repository.NewMemoryStore()
	seedPool(t, store, 49)

	repl := newTestReplenisher(t, store, &sources.MockSource{}, SweepConfig{
		LowWatermark:  50,
		HighWatermark: 200,
	})

	if !repl.NeedsSweep(context.Background()) {
		t.Errorf("Com 49 < 50 disponíveis, NeedsSweep deveria ser true")
	}

	v := &repository.Video{ExternalID: 999, MediaURL: "x", Width: 1080, Height: 1920}
	store.InsertIfAbsent(context.Background(), v)
	if repl.NeedsSweep(context.Background()) {
		t.Errorf("Com 50 disponíveis, NeedsSweep deveria ser false")
	}
}
