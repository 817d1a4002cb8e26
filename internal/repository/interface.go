package repository

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indica que o vídeo pedido não existe no pool.
var ErrNotFound = errors.New("vídeo não encontrado")

// InsertOutcome é o resultado tri-estado da inserção condicional.
type InsertOutcome int

const (
	OutcomeInserted InsertOutcome = iota
	OutcomeDuplicate
)

// Video é a unidade de conteúdo do pool.
type Video struct {
	ID              string    `json:"id"`
	ExternalID      int64     `json:"externalId"`
	MediaURL        string    `json:"mediaUrl"`
	ThumbnailURL    string    `json:"thumbnailUrl,omitempty"`
	DurationSeconds int       `json:"durationSeconds"`
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	AuthorName      string    `json:"authorName,omitempty"`
	AuthorURL       string    `json:"authorUrl,omitempty"`
	Tags            []string  `json:"tags"`
	Views           int       `json:"views"`
	Likes           int       `json:"likes"`
	Consumed        bool      `json:"consumed"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// VideoStore é o contrato do Pool Store. A implementação real fica no Postgres;
// o MemoryStore existe para testes e para rodar local sem banco.
type VideoStore interface {
	// InsertIfAbsent grava o vídeo se o external_id ainda não existir.
	// Preenche ID/CreatedAt/UpdatedAt no caso de inserção.
	InsertIfAbsent(ctx context.Context, v *Video) (InsertOutcome, error)
	GetByID(ctx context.Context, id string) (*Video, error)
	// ListAvailable retorna a página pedida (mais recentes primeiro) e o total
	// de vídeos ainda não consumidos.
	ListAvailable(ctx context.Context, page, limit int) ([]Video, int, error)
	CountAvailable(ctx context.Context) (int, error)
	// MarkViewed marca consumed=true e incrementa views num único UPDATE.
	MarkViewed(ctx context.Context, id string) (*Video, error)
	MarkLiked(ctx context.Context, id string) (*Video, error)
	// DeleteConsumedBefore apaga vídeos consumidos criados antes do cutoff.
	DeleteConsumedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
