package ingest

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/GIL9898384/otc-whatsapp/internal/metrics"
	"github.com/GIL9898384/otc-whatsapp/internal/repository"
	"github.com/GIL9898384/otc-whatsapp/internal/search"
	"github.com/GIL9898384/otc-whatsapp/internal/sources"
)

// Pipeline aplica o filtro de formato, escolhe a variante de mídia e grava
// o candidato no pool se o external_id ainda não existir.
type Pipeline struct {
	store   repository.VideoStore
	indexer *search.Indexer // pode ser nil
	rdb     *redis.Client   // contadores de métricas; pode ser nil

	// maxAspectRatio: candidatos com largura/altura >= esse valor são
	// rejeitados (não é vídeo vertical). 0 desliga o filtro, pra fontes
	// que já entregam só vertical.
	maxAspectRatio float64
}

// BatchResult acumula o resultado de um lote pra observabilidade.
type BatchResult struct {
	Saved      int
	Duplicates int
	WrongShape int
	NoMedia    int
	Failed     int
}

// Skipped soma tudo que não virou vídeo novo.
func (b BatchResult) Skipped() int {
	return b.Duplicates + b.WrongShape + b.NoMedia + b.Failed
}

func NewPipeline(store repository.VideoStore, indexer *search.Indexer, rdb *redis.Client, maxAspectRatio float64) *Pipeline {
	return &Pipeline{
		store:          store,
		indexer:        indexer,
		rdb:            rdb,
		maxAspectRatio: maxAspectRatio,
	}
}

// AdmitBatch processa um lote cru vindo da fonte. Duplicata não é erro e não
// aborta o lote; erro de banco num candidato também só conta e segue.
func (p *Pipeline) AdmitBatch(ctx context.Context, batch []sources.RawVideo, query string) BatchResult {
	var res BatchResult

	for _, raw := range batch {
		v := p.admit(ctx, raw, query, &res)
		if v != nil && p.indexer != nil {
			if err := p.indexer.IndexVideo(search.VideoDoc{
				ID:           v.ID,
				ExternalID:   v.ExternalID,
				AuthorName:   v.AuthorName,
				Tags:         v.Tags,
				ThumbnailURL: v.ThumbnailURL,
				CreatedAt:    v.CreatedAt.Unix(),
			}); err != nil {
				// Indexação é best-effort, o pool é a fonte da verdade
				log.Printf("Falha na indexação do vídeo %s: %v", v.ID, err)
			}
		}
	}

	p.bumpCounters(ctx, res)
	return res
}

// admit roda as três etapas pra um candidato. Retorna o vídeo criado ou nil,
// contabilizando o motivo da rejeição no BatchResult.
func (p *Pipeline) admit(ctx context.Context, raw sources.RawVideo, query string, res *BatchResult) *repository.Video {
	// 1. Filtro de formato: só entra vídeo vertical
	if !p.isVertical(raw) {
		res.WrongShape++
		return nil
	}

	// 2. Seleção de mídia: hd > sd > primeira variante disponível
	mediaURL, ok := pickMediaFile(raw)
	if !ok {
		res.NoMedia++
		return nil
	}

	v := &repository.Video{
		ExternalID:      raw.ID,
		MediaURL:        mediaURL,
		ThumbnailURL:    raw.Image,
		DurationSeconds: raw.Duration,
		Width:           raw.Width,
		Height:          raw.Height,
		AuthorName:      raw.User.Name,
		AuthorURL:       raw.User.URL,
		Tags:            []string{query},
	}

	// 3. Inserção condicional: o unique index do banco decide quem ganha
	outcome, err := p.store.InsertIfAbsent(ctx, v)
	if err != nil {
		log.Printf("Erro ao admitir vídeo %d: %v", raw.ID, err)
		res.Failed++
		return nil
	}
	if outcome == repository.OutcomeDuplicate {
		res.Duplicates++
		return nil
	}

	res.Saved++
	return v
}

func (p *Pipeline) isVertical(raw sources.RawVideo) bool {
	if p.maxAspectRatio <= 0 {
		return true
	}
	if raw.Height <= 0 {
		return false
	}
	ratio := float64(raw.Width) / float64(raw.Height)
	return ratio < p.maxAspectRatio
}

// pickMediaFile escolhe exatamente uma variante encodada.
func pickMediaFile(raw sources.RawVideo) (string, bool) {
	if len(raw.VideoFiles) == 0 {
		return "", false
	}
	for _, f := range raw.VideoFiles {
		if f.Quality == "hd" {
			return f.Link, true
		}
	}
	for _, f := range raw.VideoFiles {
		if f.Quality == "sd" {
			return f.Link, true
		}
	}
	return raw.VideoFiles[0].Link, true
}

func (p *Pipeline) bumpCounters(ctx context.Context, res BatchResult) {
	if p.rdb == nil {
		return
	}
	counters := map[string]int{
		metrics.KeySaved:         res.Saved,
		metrics.KeyDuplicates:    res.Duplicates,
		metrics.KeyRejectedShape: res.WrongShape,
	}
	for key, n := range counters {
		if n == 0 {
			continue
		}
		if err := p.rdb.IncrBy(ctx, key, int64(n)).Err(); err != nil {
			log.Printf("metrics: erro incrementando %s: %v", key, err)
			return
		}
	}
}
