package server

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/GIL9898384/otc-whatsapp/internal/otc"
	"github.com/GIL9898384/otc-whatsapp/internal/repository"
	"github.com/GIL9898384/otc-whatsapp/internal/sources"
)

// fakeNotifier guarda o último código "enviado" e permite simular falha.
type fakeNotifier struct {
	lastPhone string
	lastCode  string
	fail      bool
}

func (f *fakeNotifier) SendCode(_ context.Context, phone, code string) bool {
	if f.fail {
		return false
	}
	f.lastPhone = phone
	f.lastCode = code
	return true
}

func newOTCServer(t *testing.T, notifier otc.Notifier) *Server {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Erro ao iniciar miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store := repository.NewMemoryStore()
	return New(store, &sources.MockSource{}, nil, nil, nil, otc.NewStore(rdb), notifier, 50)
}

func TestRequestAndValidateOTC(t *testing.T) {
	notifier := &fakeNotifier{}
	s := newOTCServer(t, notifier)

	rec, body := doRequest(t, s, "POST", "/request-otc", `{"phone":"+55 (11) 91234-5678"}`)
	if rec.Code != 200 || body["success"] != true {
		t.Fatalf("request-otc deveria dar 200: %d %v", rec.Code, body)
	}
	if len(notifier.lastCode) != 6 {
		t.Fatalf("Código enviado deveria ter 6 dígitos: %q", notifier.lastCode)
	}

	// Código errado → 400 e o código certo continua válido
	rec, _ = doRequest(t, s, "POST", "/validate-otc", `{"phone":"+55 (11) 91234-5678","code":"000000"}`)
	if rec.Code != 400 {
		t.Errorf("Código errado deveria dar 400, deu %d", rec.Code)
	}

	// Telefone com formatação diferente mas mesmos dígitos valida
	rec, body = doRequest(t, s, "POST", "/validate-otc",
		`{"phone":"5511912345678","code":"`+notifier.lastCode+`"}`)
	if rec.Code != 200 || body["success"] != true {
		t.Fatalf("Código correto deveria validar: %d %v", rec.Code, body)
	}

	// Uso único: validar de novo falha
	rec, _ = doRequest(t, s, "POST", "/validate-otc",
		`{"phone":"5511912345678","code":"`+notifier.lastCode+`"}`)
	if rec.Code != 400 {
		t.Errorf("Código já consumido deveria dar 400, deu %d", rec.Code)
	}
}

func TestRequestOTCNotifierFailure(t *testing.T) {
	s := newOTCServer(t, &fakeNotifier{fail: true})

	rec, body := doRequest(t, s, "POST", "/request-otc", `{"phone":"5511912345678"}`)
	if rec.Code != 500 || body["success"] != false {
		t.Errorf("Falha no envio deveria dar 500, deu %d", rec.Code)
	}
}

func TestValidateOTCNeverRequested(t *testing.T) {
	s := newOTCServer(t, &fakeNotifier{})

	rec, body := doRequest(t, s, "POST", "/validate-otc", `{"phone":"5511999999999","code":"123456"}`)
	if rec.Code != 400 {
		t.Errorf("Código nunca pedido deveria dar 400, deu %d", rec.Code)
	}
	if body["message"] != "Código não solicitado ou expirado." {
		t.Errorf("Mensagem errada: %v", body["message"])
	}
}
