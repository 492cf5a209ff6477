package binrec

import (
	"github.com/penguinmenac3/binrec/consumer"
)

// Handler processes one published group journal. It is the consumer
// package's Handler, re-exported so callers wiring a Pipeline only need
// this package.
type Handler = consumer.Handler

// HandlerFunc is a function type that implements Handler.
type HandlerFunc = consumer.HandlerFunc
