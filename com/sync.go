package com

import (
	"context"
	"sync"

	"github.com/wippyai/wasm-com/iid"
)

// Synchronized serializes access to a Space. The core is single-threaded;
// callers that share a space between goroutines go through this wrapper.
type Synchronized struct {
	space *Space
	mu    sync.Mutex
}

// Synchronize wraps s. All access to s must then go through the wrapper.
func Synchronize(s *Space) *Synchronized {
	return &Synchronized{space: s}
}

// Do runs fn with exclusive access to the space.
func (s *Synchronized) Do(fn func(*Space) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.space)
}

// New constructs an instance of class.
func (s *Synchronized) New(class *Class, values ...any) (*Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return class.New(values...)
}

// AddRef adds a reference through p.
func (s *Synchronized) AddRef(ctx context.Context, p Ptr) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return p.AddRef(ctx)
}

// Release drops a reference through p.
func (s *Synchronized) Release(ctx context.Context, p Ptr) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return p.Release(ctx)
}

// QueryInterface queries p for id.
func (s *Synchronized) QueryInterface(ctx context.Context, p Ptr, id iid.IID) (Ptr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return p.QueryInterface(ctx, id)
}

// Invoke calls a vtable slot through p.
func (s *Synchronized) Invoke(ctx context.Context, p Ptr, slot int, args ...uint64) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return p.Invoke(ctx, slot, args...)
}
