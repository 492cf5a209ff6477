// Package processor routes incoming records into per-group journal files
// and publishes them once the configured rotation strategy fires.
package processor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/penguinmenac3/binrec/binfmt"
	"github.com/penguinmenac3/binrec/journal"
	"github.com/penguinmenac3/binrec/priority"
	"github.com/penguinmenac3/binrec/record"
)

// defaultSegmentRecords bounds the records buffered per journal segment.
const defaultSegmentRecords = 1000

// Storage defines the interface for the underlying storage system.
type Storage interface {
	// Create a new file/object for writing
	Create(ctx context.Context, path string) (io.WriteCloser, error)
	// Publish a file/object from pending to publishing
	Publish(ctx context.Context, path string) error
	// List files/objects from pending
	List(ctx context.Context) ([]string, error)
}

// Processor fans records out to one active journal per group.
type Processor struct {
	storage  Storage
	strategy record.Strategy
	reg      *binfmt.Registry
	mu       sync.RWMutex
	active   *priority.Queue[string, *activeWriter]
}

type activeWriter struct {
	mu          sync.Mutex
	writer      *journal.Writer
	information record.Information
	name        string
	lastTime    time.Time
}

func newActiveWriter(wc io.WriteCloser, reg *binfmt.Registry, rec record.Record, name string) (*activeWriter, error) {
	w, err := journal.NewWriter(wc, reg, defaultSegmentRecords)
	if err != nil {
		return nil, err
	}
	return &activeWriter{
		writer: w,
		information: record.Information{
			Group:       rec.Group,
			RecordCount: 0,
			FirstTime:   rec.Time,
		},
		lastTime: rec.Time,
		name:     name,
	}, nil
}

func (w *activeWriter) Write(rec record.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Write(rec); err != nil {
		return err
	}

	w.lastTime = rec.Time
	w.information.RecordCount++

	return nil
}

func (w *activeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.writer.Close()
}

// New creates a processor writing journals through storage, rotating groups
// when strategy fires, and encoding payloads through reg.
func New(storage Storage, strategy record.Strategy, reg *binfmt.Registry) *Processor {
	return &Processor{
		storage:  storage,
		strategy: strategy,
		reg:      reg,
		active:   priority.NewQueue[string, *activeWriter](orderByTime),
	}
}

// Handle appends the record to its group's active journal, opening or
// rotating the journal as the strategy dictates.
func (p *Processor) Handle(ctx context.Context, rec record.Record) error {
	p.mu.RLock()

	active, exists := p.active.Get(rec.Group)
	shouldRotate := !exists || p.strategy.ShouldRotate(active.information, rec.Time)

	p.mu.RUnlock()

	if shouldRotate {
		var err error
		if active, err = p.openWriter(ctx, rec); err != nil {
			return err
		}
	}

	if err := active.Write(rec); err != nil {
		return fmt.Errorf("failed to write: %w", err)
	}

	p.mu.Lock()
	p.active.Set(rec.Group, active)
	p.mu.Unlock()

	return p.cleanup(ctx, rec.Time)
}

// Close rotates and publishes every active journal.
func (p *Processor) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		group, _, ok := p.active.Peek()
		if !ok {
			break
		}
		if err := p.rotate(ctx, group); err != nil {
			return fmt.Errorf("failed to rotate during close: %w", err)
		}
	}

	return nil
}

// Recover publishes any pending journals left behind by a previous run.
func (p *Processor) Recover(ctx context.Context) error {
	files, err := p.storage.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending files: %w", err)
	}

	for _, file := range files {
		if err := p.storage.Publish(ctx, file); err != nil {
			return fmt.Errorf("failed to publish recovered file: %w", err)
		}
	}

	return nil
}

func (p *Processor) openWriter(ctx context.Context, rec record.Record) (*activeWriter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.rotate(ctx, rec.Group); err != nil {
		return nil, fmt.Errorf("failed to rotate: %w", err)
	}

	name := Serialize(JournalKey{
		Group: rec.Group,
		Time:  rec.Time,
	})
	wc, err := p.storage.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create writer: %w", err)
	}

	active, err := newActiveWriter(wc, p.reg, rec, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create writer: %w", err)
	}

	p.active.Set(rec.Group, active)

	return active, nil
}

// rotate closes and publishes the group's active journal, if any.
func (p *Processor) rotate(ctx context.Context, group string) error {
	active, found := p.active.Get(group)
	if !found {
		return nil
	}

	if err := active.Close(); err != nil {
		return err
	}

	if err := p.storage.Publish(ctx, active.name); err != nil {
		return err
	}

	p.active.Remove(group)
	return nil
}

// cleanup rotates stale groups, oldest first, until the strategy is
// satisfied.
func (p *Processor) cleanup(ctx context.Context, watermark time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		group, active, ok := p.active.Peek()
		if !ok {
			break
		}
		if !p.strategy.ShouldRotate(active.information, watermark) {
			break
		}
		if err := p.rotate(ctx, group); err != nil {
			return fmt.Errorf("failed to rotate stale group: %w", err)
		}
	}

	return nil
}

func orderByTime(a, b *activeWriter) bool {
	return a.lastTime.Before(b.lastTime)
}
