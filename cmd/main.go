package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/GIL9898384/otc-whatsapp/internal/config"
	"github.com/GIL9898384/otc-whatsapp/internal/ingest"
	"github.com/GIL9898384/otc-whatsapp/internal/metrics"
	"github.com/GIL9898384/otc-whatsapp/internal/otc"
	"github.com/GIL9898384/otc-whatsapp/internal/repository"
	"github.com/GIL9898384/otc-whatsapp/internal/search"
	"github.com/GIL9898384/otc-whatsapp/internal/server"
	"github.com/GIL9898384/otc-whatsapp/internal/service"
	"github.com/GIL9898384/otc-whatsapp/internal/sources"
)

func main() {
	cfg := config.LoadConfig()

	fmt.Println("Tokstar Feed Service iniciando...")

	// Pool Store (Postgres). Sem DATABASE_URL caímos pro store em memória,
	// só pra desenvolvimento local.
	var store repository.VideoStore
	if cfg.Database.URL != "" {
		repo, err := repository.NewVideoRepository(cfg.Database.URL)
		if err != nil {
			log.Fatal("Erro fatal no banco:", err)
		}
		defer repo.Close()
		store = repo
	} else {
		log.Println("Aviso: DATABASE_URL vazio, usando store em memória (dados voláteis!)")
		store = repository.NewMemoryStore()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Erro fatal: Redis não responde em %s: %v", cfg.Redis.Address, err)
	}

	nc, err := nats.Connect(cfg.Nats.URL)
	if err != nil {
		log.Fatal("Erro NATS:", err)
	}
	defer nc.Close()
	js, _ := nc.JetStream()
	service.EnsureJobStream(js)

	indexer := search.NewIndexer(cfg.Meilisearch.Host, cfg.Meilisearch.Key, cfg.Meilisearch.Index)

	// Fonte de vídeos: Pexels em produção, mock quando não tem chave.
	var source sources.Source
	if cfg.Pexels.Key != "" {
		source = sources.NewPexelsSource(cfg.Pexels.Key, cfg.Pexels.BaseURL)
	} else {
		log.Println("Aviso: PEXELS_API_KEY vazia, usando fonte mock.")
		source = &sources.MockSource{}
	}

	pipeline := ingest.NewPipeline(store, indexer, rdb, cfg.Pool.MaxAspectRatio)

	repl := service.NewReplenisher(store, source, pipeline, rdb, service.SweepConfig{
		LowWatermark:     cfg.Pool.LowWatermark,
		HighWatermark:    cfg.Pool.HighWatermark,
		Queries:          cfg.Pool.Queries,
		MaxPagesPerQuery: cfg.Pool.MaxPagesPerQuery,
		PageSize:         cfg.Pool.PageSize,
		RequestDelay:     cfg.RequestDelay(),
	})
	reaper := service.NewReaper(store, cfg.Retention(), rdb)

	// Worker dos jobs em segundo plano: as rotas só publicam, quem executa
	// é este subscriber (fire-and-forget de verdade, a resposta nunca espera).
	_, err = js.Subscribe(service.SubjectSweep, func(msg *nats.Msg) {
		if _, err := repl.Sweep(context.Background()); err != nil {
			log.Printf("Erro na varredura: %v", err)
		}
		msg.Ack()
	}, nats.Durable("sweep-worker"), nats.DeliverNew(), nats.InactiveThreshold(30*time.Second))
	if err != nil {
		log.Fatal("Erro assinando jobs.sweep:", err)
	}

	_, err = js.Subscribe(service.SubjectReap, func(msg *nats.Msg) {
		reaper.Run(context.Background())
		msg.Ack()
	}, nats.Durable("reap-worker"), nats.DeliverNew(), nats.InactiveThreshold(30*time.Second))
	if err != nil {
		log.Fatal("Erro assinando jobs.reap:", err)
	}

	jobs := service.NewJobQueue(js)

	otcStore := otc.NewStore(rdb)
	notifier := otc.NewWhatsAppNotifier(cfg.WhatsApp.Token, cfg.WhatsApp.PhoneID, "")

	srv := server.New(store, source, pipeline, jobs, indexer, otcStore, notifier, cfg.Pool.LowWatermark)

	go metrics.StartMetricsServer(cfg.Server.MetricsPort, rdb, metrics.Defs())

	// Ticker de reposição periódica, além dos disparos por leitura com pool baixo
	interval := time.Duration(cfg.Pool.SweepIntervalMin) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			if repl.NeedsSweep(context.Background()) {
				jobs.TriggerSweep()
			}
		}
	}()

	go func() {
		addr := ":" + cfg.Server.Port
		fmt.Printf("Servidor HTTP ouvindo em %s\n", addr)
		if err := http.ListenAndServe(addr, srv.Routes()); err != nil {
			log.Fatal("Erro no servidor HTTP:", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	fmt.Println("Encerrando...")
}
