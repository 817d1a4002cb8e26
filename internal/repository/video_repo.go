package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VideoRepository é a implementação Postgres do VideoStore.
type VideoRepository struct {
	db *pgxpool.Pool
}

func NewVideoRepository(databaseURL string) (*VideoRepository, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar no postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("banco não responde: %w", err)
	}

	repo := &VideoRepository{db: pool}

	if err := repo.runMigrations(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("falha ao criar tabela: %w", err)
	}

	return repo, nil
}

func (r *VideoRepository) runMigrations() error {
	log.Println("Verificando schema do banco de dados...")

	queries := []struct {
		name  string
		query string
	}{
		{
			name: "001_videos",
			query: `CREATE TABLE IF NOT EXISTS videos (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				external_id BIGINT NOT NULL,
				media_url TEXT NOT NULL,
				thumbnail_url TEXT,
				duration_seconds INT DEFAULT 0,
				width INT DEFAULT 0,
				height INT DEFAULT 0,
				author_name VARCHAR(255),
				author_url TEXT,
				tags TEXT[] DEFAULT '{}',
				views INT DEFAULT 0,
				likes INT DEFAULT 0,
				consumed BOOLEAN DEFAULT FALSE,
				created_at TIMESTAMPTZ DEFAULT NOW(),
				updated_at TIMESTAMPTZ DEFAULT NOW(),
				-- O external_id do Pexels é a chave de deduplicação: o banco resolve
				-- corridas de inserção, não a aplicação.
				UNIQUE(external_id)
			);`,
		},
		{
			name:  "002_idx_feed",
			query: "CREATE INDEX IF NOT EXISTS idx_videos_feed ON videos(consumed, created_at DESC);",
		},
	}

	for _, m := range queries {
		if _, err := r.db.Exec(context.Background(), m.query); err != nil {
			log.Printf("Erro na migration [%s]: %v", m.name, err)
		}
	}

	log.Println("Migrations concluídas.")
	return nil
}

const videoColumns = `id, external_id, media_url, thumbnail_url, duration_seconds, width, height,
		author_name, author_url, tags, views, likes, consumed, created_at, updated_at`

func scanVideo(row pgx.Row) (*Video, error) {
	var v Video
	var thumb, authorName, authorURL *string
	err := row.Scan(&v.ID, &v.ExternalID, &v.MediaURL, &thumb, &v.DurationSeconds,
		&v.Width, &v.Height, &authorName, &authorURL, &v.Tags,
		&v.Views, &v.Likes, &v.Consumed, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if thumb != nil {
		v.ThumbnailURL = *thumb
	}
	if authorName != nil {
		v.AuthorName = *authorName
	}
	if authorURL != nil {
		v.AuthorURL = *authorURL
	}
	return &v, nil
}

// InsertIfAbsent usa ON CONFLICT DO NOTHING: se o RETURNING não devolver linha,
// o vídeo já existia. Sem check-then-insert, sem janela de corrida.
func (r *VideoRepository) InsertIfAbsent(ctx context.Context, v *Video) (InsertOutcome, error) {
	query := `
        INSERT INTO videos
        (external_id, media_url, thumbnail_url, duration_seconds, width, height, author_name, author_url, tags)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (external_id) DO NOTHING
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		v.ExternalID,
		v.MediaURL,
		v.ThumbnailURL,
		v.DurationSeconds,
		v.Width,
		v.Height,
		v.AuthorName,
		v.AuthorURL,
		v.Tags,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return OutcomeDuplicate, nil
	}
	if err != nil {
		return OutcomeDuplicate, fmt.Errorf("erro ao inserir vídeo %d: %w", v.ExternalID, err)
	}
	return OutcomeInserted, nil
}

func (r *VideoRepository) GetByID(ctx context.Context, id string) (*Video, error) {
	query := fmt.Sprintf("SELECT %s FROM videos WHERE id = $1", videoColumns)
	v, err := scanVideo(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar vídeo %s: %w", id, err)
	}
	return v, nil
}

func (r *VideoRepository) ListAvailable(ctx context.Context, page, limit int) ([]Video, int, error) {
	total, err := r.CountAvailable(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM videos
		WHERE consumed = FALSE
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, videoColumns)

	rows, err := r.db.Query(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("erro ao listar vídeos: %w", err)
	}
	defer rows.Close()

	videos := []Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, 0, err
		}
		videos = append(videos, *v)
	}
	return videos, total, rows.Err()
}

func (r *VideoRepository) CountAvailable(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM videos WHERE consumed = FALSE").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("erro ao contar vídeos disponíveis: %w", err)
	}
	return count, nil
}

// MarkViewed troca o estado e incrementa views num único UPDATE atômico.
// Ver um vídeo já consumido não é erro: incrementa views de novo, e o
// consumed segue true (nunca volta pra false).
func (r *VideoRepository) MarkViewed(ctx context.Context, id string) (*Video, error) {
	query := fmt.Sprintf(`UPDATE videos
		SET consumed = TRUE, views = views + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, videoColumns)
	v, err := scanVideo(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao marcar vídeo %s como visto: %w", id, err)
	}
	return v, nil
}

func (r *VideoRepository) MarkLiked(ctx context.Context, id string) (*Video, error) {
	query := fmt.Sprintf(`UPDATE videos
		SET likes = likes + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, videoColumns)
	v, err := scanVideo(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao curtir vídeo %s: %w", id, err)
	}
	return v, nil
}

func (r *VideoRepository) DeleteConsumedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		"DELETE FROM videos WHERE consumed = TRUE AND created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("erro ao limpar vídeos consumidos: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *VideoRepository) Close() {
	r.db.Close()
}
