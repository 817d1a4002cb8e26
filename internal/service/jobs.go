package service

import (
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// Assuntos dos jobs em segundo plano.
const (
	SubjectSweep = "jobs.sweep"
	SubjectReap  = "jobs.reap"
)

// JobQueue publica jobs fire-and-forget no JetStream. O worker (no main)
// consome e executa; quem dispara nunca espera resultado.
type JobQueue struct {
	js nats.JetStreamContext
}

func NewJobQueue(js nats.JetStreamContext) *JobQueue {
	return &JobQueue{js: js}
}

func (q *JobQueue) TriggerSweep() {
	q.publish(SubjectSweep)
}

func (q *JobQueue) TriggerReap() {
	q.publish(SubjectReap)
}

func (q *JobQueue) publish(subject string) {
	payload := []byte(time.Now().Format(time.RFC3339))
	if _, err := q.js.Publish(subject, payload); err != nil {
		log.Printf("Erro ao publicar job %s: %v", subject, err)
	}
}

// EnsureJobStream garante que o stream dos jobs existe (idempotente).
func EnsureJobStream(js nats.JetStreamContext) {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:     "JOBS",
		Subjects: []string{"jobs.>"},
	})
	if err != nil {
		log.Printf("Aviso JetStream (stream JOBS pode já existir): %v", err)
	}
}
