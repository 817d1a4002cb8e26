package sources

import "context"

// Source é a interface que qualquer fonte de vídeos (Pexels, Pixabay) deve implementar.
type Source interface {
	Name() string
	// Search busca uma página de candidatos pro termo dado. Não filtra nem
	// deduplica: devolve o lote cru ou o erro da fonte (sem retry interno —
	// a política de retry é da varredura).
	Search(ctx context.Context, query string, page, perPage int) ([]RawVideo, error)
}
