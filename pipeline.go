// Package binrec wires the record pipeline together: a producer writing
// per-group journals through a rotation strategy, and a consumer polling
// the published journals and handing decoded records to a handler. Both
// sides share one binfmt type registry.
package binrec

import (
	"context"
	"errors"
	"sync"

	"github.com/penguinmenac3/binrec/binfmt"
	"github.com/penguinmenac3/binrec/consumer"
	"github.com/penguinmenac3/binrec/processor"
	"github.com/penguinmenac3/binrec/record"
)

// Pipeline manages both writing and consuming of records.
type Pipeline struct {
	producer    *processor.Processor
	consumer    *consumer.Consumer
	shutdownCh  chan struct{}
	shutdownErr error
	ctx         context.Context
	cancel      context.CancelFunc
	once        sync.Once
}

// NewPipeline creates a pipeline with the given storages and handler.
func NewPipeline(
	producerStorage processor.Storage,
	consumerStorage consumer.Storage,
	handler Handler,
	opts ...Option,
) (*Pipeline, error) {
	o := defaultOptions()

	for _, opt := range opts {
		opt(&o)
	}

	if o.strategy == nil {
		return nil, errors.New("binrec: rotation strategy is required")
	}
	if o.registry == nil {
		o.registry = binfmt.NewRegistry()
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := processor.New(producerStorage, o.strategy, o.registry)

	c := consumer.New(
		consumerStorage,
		handler,
		o.registry,
		consumer.Options{
			PollInterval:   o.pollInterval,
			MaxConcurrency: o.maxConcurrency,
		},
	)

	pipe := &Pipeline{
		producer:   p,
		consumer:   c,
		shutdownCh: make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}

	// Start the consumer immediately.
	go func() {
		if err := c.Start(ctx); !errors.Is(err, context.Canceled) {
			pipe.shutdownErr = err
		}
		close(pipe.shutdownCh)
	}()

	return pipe, nil
}

// Handle routes a single record through the producer. The first call
// publishes any journals left pending by a previous run.
func (p *Pipeline) Handle(ctx context.Context, rec record.Record) error {
	var recoverErr error
	p.once.Do(func() {
		recoverErr = p.producer.Recover(ctx)
	})
	if recoverErr != nil {
		return recoverErr
	}
	return p.producer.Handle(ctx, rec)
}

// Stop gracefully shuts down both producer and consumer.
func (p *Pipeline) Stop() error {
	p.cancel()

	p.consumer.Stop()

	<-p.shutdownCh

	if err := p.producer.Close(p.ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			return err
		}
	}

	return p.shutdownErr
}
