package consumer

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log"
	"sync"
	"time"

	"github.com/penguinmenac3/binrec/binfmt"
	"github.com/penguinmenac3/binrec/journal"
	"github.com/penguinmenac3/binrec/processor"
	"github.com/penguinmenac3/binrec/record"
)

// Handler processes one published journal's records.
type Handler interface {
	// Handle processes the records of a single group journal.
	Handle(ctx context.Context, group string, records iter.Seq[record.Record]) error
}

// HandlerFunc is a function type that implements Handler.
type HandlerFunc func(ctx context.Context, group string, records iter.Seq[record.Record]) error

// Handle calls the function.
func (f HandlerFunc) Handle(ctx context.Context, group string, records iter.Seq[record.Record]) error {
	return f(ctx, group, records)
}

// Storage defines the interface for reading published files.
type Storage interface {
	// Open a published file/object for reading.
	Open(ctx context.Context, path string) (ReadAtCloser, error)
	// ListPublished lists published files/objects.
	ListPublished(ctx context.Context) ([]string, error)
	// Delete a published file/object after processing.
	Delete(ctx context.Context, path string) error
}

type ReadAtCloser interface {
	io.ReaderAt
	io.Closer
}

// Consumer polls storage for published journals and feeds each one through
// the handler, deleting it on success.
type Consumer struct {
	storage         Storage
	handler         Handler
	reg             *binfmt.Registry
	pollInterval    time.Duration
	maxConcurrency  int
	processingFiles sync.Map
	stopChan        chan struct{}
	wg              sync.WaitGroup
}

type Options struct {
	PollInterval   time.Duration
	MaxConcurrency int
}

// DefaultOptions returns the default configuration options.
func DefaultOptions() Options {
	return Options{
		PollInterval:   5 * time.Second,
		MaxConcurrency: 10,
	}
}

func New(storage Storage, handler Handler, reg *binfmt.Registry, opts Options) *Consumer {
	return &Consumer{
		storage:        storage,
		handler:        handler,
		reg:            reg,
		pollInterval:   opts.PollInterval,
		maxConcurrency: opts.MaxConcurrency,
		stopChan:       make(chan struct{}),
	}
}

// Start begins the background polling and processing of files.
func (c *Consumer) Start(ctx context.Context) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	// Process immediately on start.
	if err := c.poll(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopChan:
			return nil
		case <-ticker.C:
			if err := c.poll(ctx); err != nil {
				// Keep polling after a failed round.
				log.Printf("consumer: poll failed: %v", err)
			}
		}
	}
}

// Stop gracefully shuts down the consumer.
func (c *Consumer) Stop() {
	close(c.stopChan)
	c.wg.Wait()
}

func (c *Consumer) poll(ctx context.Context) error {
	files, err := c.storage.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("failed to list published files: %w", err)
	}

	// Bound concurrent file processing with a semaphore.
	sem := make(chan struct{}, c.maxConcurrency)

	for _, file := range files {
		// Skip files already in flight.
		if _, exists := c.processingFiles.LoadOrStore(file, struct{}{}); exists {
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			c.processingFiles.Delete(file)
			return ctx.Err()
		}

		c.wg.Add(1)
		go func(file string) {
			defer func() {
				c.processingFiles.Delete(file)
				<-sem
				c.wg.Done()
			}()

			if err := c.processFile(ctx, file); err != nil {
				log.Printf("consumer: processing file %s failed: %v", file, err)
			}
		}(file)
	}

	return nil
}

func (c *Consumer) processFile(ctx context.Context, path string) error {
	key, err := processor.Deserialize(path)
	if err != nil {
		return fmt.Errorf("consumer: not a valid journal file: %w", err)
	}

	reader, err := c.storage.Open(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	records, err := journal.NewReader(reader, c.reg).All()
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	if err := c.handler.Handle(ctx, key.Group, records); err != nil {
		return err
	}

	return c.storage.Delete(ctx, path)
}

// Process reads and processes all published files once, sequentially.
func (c *Consumer) Process(ctx context.Context) error {
	files, err := c.storage.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("failed to list published files: %w", err)
	}

	for _, file := range files {
		if err := c.processFile(ctx, file); err != nil {
			return fmt.Errorf("failed to process file %s: %w", file, err)
		}
	}

	return nil
}
