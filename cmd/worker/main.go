// Command worker consumes session stage changes from RabbitMQ and renders
// exports into the object store once a session reaches download.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/streadway/amqp"

	"resume-enhancer/internal/bootstrap"
	"resume-enhancer/internal/events"
	"resume-enhancer/internal/shared/config"
	"resume-enhancer/internal/shared/telemetry"
	"resume-enhancer/internal/workerproc"
)

func main() {
	if err := run(); err != nil {
		telemetry.Error("worker.exit", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if cfg.RabbitMQURL == "" {
		return errors.New("RABBITMQ_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	consumer, err := events.DialConsumer(cfg.RabbitMQURL, cfg.WorkerQueue, cfg.WorkerPrefetch)
	if err != nil {
		return err
	}
	defer consumer.Close()

	telemetry.Info("worker.started", map[string]any{
		"queue":       cfg.WorkerQueue,
		"concurrency": cfg.WorkerPrefetch,
	})
	wg := consume(ctx, consumer.Deliveries(), app.SessionsService, cfg.WorkerPrefetch)

	telemetry.Info("worker.draining", map[string]any{"timeout": cfg.WorkerShutdown.String()})
	if !waitTimeout(wg, cfg.WorkerShutdown) {
		telemetry.Warn("worker.shutdown_timeout", nil)
	}
	return nil
}

// consume hands deliveries to at most concurrency goroutines until ctx is done
// or the broker closes the channel. The returned group tracks in-flight work.
func consume(ctx context.Context, deliveries <-chan amqp.Delivery, exp workerproc.Exporter, concurrency int) *sync.WaitGroup {
	sem := make(chan struct{}, max(1, concurrency))
	var wg sync.WaitGroup
	for {
		var d amqp.Delivery
		var ok bool
		select {
		case <-ctx.Done():
			return &wg
		case d, ok = <-deliveries:
			if !ok {
				return &wg
			}
		}
		select {
		case <-ctx.Done():
			_ = d.Nack(false, true)
			return &wg
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(d amqp.Delivery) {
			defer wg.Done()
			defer func() { <-sem }()
			outcome, _ := workerproc.Handle(ctx, exp, d.Body)
			if err := settle(d, outcome); err != nil {
				telemetry.Error("worker.settle_failed", map[string]any{
					"delivery_tag": d.DeliveryTag,
					"outcome":      string(outcome),
					"error":        err.Error(),
				})
			}
		}(d)
	}
}

// settle acks finished messages. A transient failure is requeued once; a
// second failure drops it so one bad session cannot block the queue.
func settle(d amqp.Delivery, outcome workerproc.Outcome) error {
	if outcome.Retry() {
		return d.Nack(false, !d.Redelivered)
	}
	return d.Ack(false)
}

func waitTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
