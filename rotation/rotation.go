// Package rotation provides strategies deciding when a group's active
// output file should be rotated and published.
package rotation

import (
	"time"

	"github.com/penguinmenac3/binrec/record"
)

// Count rotates after a fixed number of records.
type Count struct {
	maxRecords int
}

func NewCount(maxRecords int) *Count {
	return &Count{maxRecords: maxRecords}
}

func (s *Count) ShouldRotate(information record.Information, _ time.Time) bool {
	return information.RecordCount >= s.maxRecords
}

// Window rotates when the watermark moves past a fixed window from the
// group's first record.
type Window struct {
	windowSize time.Duration
}

func NewWindow(windowSize time.Duration) *Window {
	return &Window{windowSize: windowSize}
}

func (s *Window) ShouldRotate(information record.Information, watermark time.Time) bool {
	return watermark.Sub(information.FirstTime) > s.windowSize
}

// Composite rotates as soon as any of its strategies would.
type Composite struct {
	strategies []record.Strategy
}

func NewComposite(strategies ...record.Strategy) *Composite {
	return &Composite{strategies: strategies}
}

func (s *Composite) ShouldRotate(information record.Information, watermark time.Time) bool {
	for _, strategy := range s.strategies {
		if strategy.ShouldRotate(information, watermark) {
			return true
		}
	}
	return false
}
