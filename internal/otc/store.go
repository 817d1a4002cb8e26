package otc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GIL9898384/otc-whatsapp/internal/metrics"
)

// Erros de validação vistos pelo handler (viram 400 com a mensagem certa).
var (
	// ErrNotRequested cobre código nunca pedido ou já expirado: o TTL do
	// Redis apaga a chave sozinho, então os dois casos são indistinguíveis.
	ErrNotRequested = errors.New("código não solicitado ou expirado")
	ErrCodeMismatch = errors.New("código incorreto")
)

const codeTTL = 5 * time.Minute

// Store guarda códigos de uso único no Redis, um por telefone, com expiração
// automática. Substitui o map global em memória da versão antiga: funciona
// com múltiplas instâncias do serviço.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, ttl: codeTTL}
}

func key(phone string) string {
	return "tokstar:otc:" + digitsOnly(phone)
}

// digitsOnly remove qualquer caractere não numérico ('+', espaços, traços).
func digitsOnly(phone string) string {
	out := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			out = append(out, phone[i])
		}
	}
	return string(out)
}

// Generate cria um código de 6 dígitos pro telefone e grava com TTL.
// Pedir de novo sobrescreve o código anterior.
func (s *Store) Generate(ctx context.Context, phone string) (string, error) {
	code := fmt.Sprintf("%06d", 100000+rand.Intn(900000))
	if err := s.rdb.Set(ctx, key(phone), code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("erro ao salvar código: %w", err)
	}
	return code, nil
}

// Validate confere o código e, se bater, remove (uso único). Código errado
// não remove: o usuário ainda pode acertar dentro da janela.
func (s *Store) Validate(ctx context.Context, phone, code string) error {
	stored, err := s.rdb.Get(ctx, key(phone)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotRequested
	}
	if err != nil {
		return fmt.Errorf("erro ao buscar código: %w", err)
	}
	if stored != code {
		return ErrCodeMismatch
	}
	if err := s.rdb.Del(ctx, key(phone)).Err(); err != nil {
		return fmt.Errorf("erro ao invalidar código: %w", err)
	}
	return nil
}

// MarkSent incrementa o contador de códigos entregues (só observabilidade).
func (s *Store) MarkSent(ctx context.Context) {
	if err := s.rdb.Incr(ctx, metrics.KeyOtcSent).Err(); err != nil {
		log.Printf("metrics: erro incrementando %s: %v", metrics.KeyOtcSent, err)
	}
}
