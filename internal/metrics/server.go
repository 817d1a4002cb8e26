package metrics

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// Chaves Redis dos contadores operacionais. Quem incrementa são o pipeline,
// a varredura e o reaper; aqui a gente só lê e expõe.
const (
	KeySaved         = "tokstar:metrics:videos_saved_total"
	KeyDuplicates    = "tokstar:metrics:videos_duplicate_total"
	KeyRejectedShape = "tokstar:metrics:videos_rejected_shape_total"
	KeySweeps        = "tokstar:metrics:sweeps_total"
	KeyReaped        = "tokstar:metrics:videos_reaped_total"
	KeyOtcSent       = "tokstar:metrics:otc_sent_total"
)

// MetricDef define o mapeamento entre uma chave Redis e uma métrica Prometheus.
type MetricDef struct {
	RedisKey string
	PromName string
	Help     string
	Type     string // "counter" ou "gauge"
}

// Defs retorna as métricas do serviço de vídeos/OTC.
func Defs() []MetricDef {
	return []MetricDef{
		{KeySaved, "tokstar_videos_saved_total", "Vídeos novos admitidos no pool", "counter"},
		{KeyDuplicates, "tokstar_videos_duplicate_total", "Candidatos rejeitados por external_id duplicado", "counter"},
		{KeyRejectedShape, "tokstar_videos_rejected_shape_total", "Candidatos rejeitados por não serem verticais", "counter"},
		{KeySweeps, "tokstar_sweeps_total", "Varreduras de reposição executadas", "counter"},
		{KeyReaped, "tokstar_videos_reaped_total", "Vídeos consumidos removidos pela retenção", "counter"},
		{KeyOtcSent, "tokstar_otc_sent_total", "Códigos OTC enviados via WhatsApp", "counter"},
	}
}

// StartMetricsServer inicia um servidor HTTP que expõe métricas no formato Prometheus.
func StartMetricsServer(port string, rdb *redis.Client, metricsDefs []MetricDef) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()
		for _, m := range metricsDefs {
			val, err := rdb.Get(ctx, m.RedisKey).Result()
			if err == redis.Nil {
				val = "0"
			} else if err != nil {
				log.Printf("metrics: erro ao ler chave %s: %v", m.RedisKey, err)
				val = "0"
			}
			fmt.Fprintf(w, "# HELP %s %s\n", m.PromName, m.Help)
			fmt.Fprintf(w, "# TYPE %s %s\n", m.PromName, m.Type)
			fmt.Fprintf(w, "%s %s\n\n", m.PromName, val)
		}
	})

	log.Printf("Metrics server ouvindo em %s/metrics", port)
	if err := http.ListenAndServe(port, mux); err != nil {
		log.Fatalf("metrics: falha ao iniciar servidor: %v", err)
	}
}
