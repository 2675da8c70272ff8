// Command lambda-worker is the export worker for an Amazon MQ (RabbitMQ)
// event source mapping on the prerender queue.
//
//	GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker
package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"resume-enhancer/internal/bootstrap"
	"resume-enhancer/internal/shared/config"
	"resume-enhancer/internal/shared/telemetry"
	"resume-enhancer/internal/workerproc"
)

type worker struct {
	once  sync.Once
	build func() (workerproc.Exporter, error)
	exp   workerproc.Exporter
	err   error
}

// handle processes every message in the batch. Any transient failure fails the
// invocation so the event source redelivers the batch; rendering is idempotent.
func (w *worker) handle(ctx context.Context, event events.RabbitMQEvent) error {
	w.once.Do(func() {
		w.exp, w.err = w.build()
		if w.err != nil {
			telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": w.err.Error()})
		}
	})
	if w.err != nil {
		return w.err
	}

	failed := 0
	for queue, msgs := range event.MessagesByQueue {
		for _, msg := range msgs {
			body, err := base64.StdEncoding.DecodeString(msg.Data)
			if err != nil {
				telemetry.Error("worker.prerender.bad_message", map[string]any{"queue": queue, "error": err.Error()})
				continue
			}
			outcome, _ := workerproc.Handle(ctx, w.exp, body)
			if outcome.Retry() {
				failed++
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d messages failed", failed)
	}
	return nil
}

func buildExporter() (workerproc.Exporter, error) {
	app, err := bootstrap.Build(config.Load())
	if err != nil {
		return nil, err
	}
	return app.SessionsService, nil
}

func main() {
	w := &worker{build: buildExporter}
	lambda.Start(w.handle)
}
