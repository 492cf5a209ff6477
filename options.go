package binrec

import (
	"time"

	"github.com/penguinmenac3/binrec/binfmt"
	"github.com/penguinmenac3/binrec/record"
)

// options holds all configuration for a Pipeline.
type options struct {
	// Consumer options
	pollInterval   time.Duration // How often to poll for new files
	maxConcurrency int           // Maximum number of concurrent file processors

	// Producer options
	strategy record.Strategy // Strategy for rotating journals

	// Shared type registry
	registry *binfmt.Registry
}

// Option is a function that configures the pipeline options.
type Option func(*options)

// WithPollInterval sets the poll interval for the consumer.
func WithPollInterval(interval time.Duration) Option {
	return func(o *options) {
		o.pollInterval = interval
	}
}

// WithMaxConcurrency sets the maximum number of concurrent file processors.
func WithMaxConcurrency(m int) Option {
	return func(o *options) {
		o.maxConcurrency = m
	}
}

// WithStrategy sets the rotation strategy.
func WithStrategy(strategy record.Strategy) Option {
	return func(o *options) {
		o.strategy = strategy
	}
}

// WithRegistry sets the type registry shared by producer and consumer.
// Without it the pipeline carries primitive payloads only.
func WithRegistry(reg *binfmt.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		pollInterval:   5 * time.Second,
		maxConcurrency: 10,
		strategy:       nil,
		registry:       nil,
	}
}
