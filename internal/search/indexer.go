package search

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/meilisearch/meilisearch-go"
)

// VideoDoc define a estrutura do documento no Meilisearch
type VideoDoc struct {
	ID           string   `json:"id"`
	ExternalID   int64    `json:"external_id"`
	AuthorName   string   `json:"author_name,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	CreatedAt    int64    `json:"created_at"`
}

// Indexer é a struct que guarda a conexão aberta. Pode ser nil no resto do
// código: busca é opcional, o feed funciona sem Meilisearch.
type Indexer struct {
	client    meilisearch.ServiceManager
	indexName string
}

// NewIndexer cria a conexão e garante que o índice existe. Retorna nil se o
// host não estiver configurado.
func NewIndexer(host, apiKey, indexName string) *Indexer {
	if host == "" {
		log.Println("Meilisearch não configurado, busca desabilitada.")
		return nil
	}
	if indexName == "" {
		indexName = "videos"
	}

	client := meilisearch.New(host, meilisearch.WithAPIKey(apiKey))

	_, err := client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        indexName,
		PrimaryKey: "id",
	})
	if err != nil {
		log.Printf("Aviso Meilisearch: %v", err)
	}

	client.Index(indexName).UpdateSearchableAttributes(&[]string{
		"author_name",
		"tags",
	})

	client.Index(indexName).UpdateSortableAttributes(&[]string{
		"created_at",
	})

	fmt.Println("Conectado ao Meilisearch!")

	return &Indexer{
		client:    client,
		indexName: indexName,
	}
}

// IndexVideo envia o documento via Upsert (PK: id).
func (i *Indexer) IndexVideo(doc VideoDoc) error {
	pk := "id"
	_, err := i.client.Index(i.indexName).UpdateDocuments([]VideoDoc{doc}, &meilisearch.DocumentOptions{PrimaryKey: &pk})
	if err != nil {
		return fmt.Errorf("erro ao indexar vídeo %s: %w", doc.ID, err)
	}
	return nil
}

// Search consulta o índice por autor/tags. Decodificamos o JSON cru pra não
// depender do formato de Hits do client.
func (i *Indexer) Search(q string, limit int) ([]VideoDoc, error) {
	if limit <= 0 {
		limit = 20
	}
	raw, err := i.client.Index(i.indexName).SearchRaw(q, &meilisearch.SearchRequest{
		Limit: int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("erro na busca: %w", err)
	}

	var parsed struct {
		Hits []VideoDoc `json:"hits"`
	}
	if err := json.Unmarshal(*raw, &parsed); err != nil {
		return nil, fmt.Errorf("erro decodificando resultado da busca: %w", err)
	}
	return parsed.Hits, nil
}
