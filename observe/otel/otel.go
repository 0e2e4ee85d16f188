package otel

import (
	"context"
	"time"
)

// Nop is a no-op implementation of the thread.Observer interface.
// It serves as a placeholder for an OpenTelemetry-backed observer without adding dependencies.
type Nop struct{}

// NewNop returns a no-op observer.
func NewNop() *Nop { return &Nop{} }

func (*Nop) PoolCreated(context.Context)                       {}
func (*Nop) PoolCancelled(context.Context, error)              {}
func (*Nop) PoolJoined(context.Context, time.Duration)         {}
func (*Nop) ThreadSpawned(string)                              {}
func (*Nop) ThreadFinished(string, time.Duration, error, bool) {}
