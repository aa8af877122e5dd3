// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package share

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	defaultWaitUntilCleanup = time.Second
	defaultCleanupTimeout   = 5 * time.Second
)

type CreateFunc[T any] func() (T, error)

type Config[T any] struct {
	WaitUntilCleanup time.Duration
	CleanupTimeout   time.Duration
	Logf             func(format string, args ...any)

	createFunc CreateFunc[T]
}

type Option[T any] func(cfg *Config[T])

func WithWaitUntilCleanup[T any](wait time.Duration) Option[T] {
	return func(cfg *Config[T]) {
		cfg.WaitUntilCleanup = wait
	}
}

func WithCleanupTimeout[T any](cleanupTimeout time.Duration) Option[T] {
	return func(cfg *Config[T]) {
		cfg.CleanupTimeout = cleanupTimeout
	}
}

func WithLogf[T any](logf func(format string, args ...any)) Option[T] {
	return func(cfg *Config[T]) {
		cfg.Logf = logf
	}
}

// Cleanup destroys value by its own convention. The first return value
// reports whether value matched any known cleanup shape.
func Cleanup(ctx context.Context, value any) (bool, error) {
	switch typedValue := value.(type) {
	case io.Closer:
		err := typedValue.Close()
		if err != nil {
			return true, fmt.Errorf("value.Close: %w", err)
		}

		return true, nil

	case interface {
		Terminate(ctx context.Context) error
	}:
		err := typedValue.Terminate(ctx)
		if err != nil {
			return true, fmt.Errorf("value.Terminate(ctx): %w", err)
		}

		return true, nil

	case interface{ Terminate() error }:
		err := typedValue.Terminate()
		if err != nil {
			return true, fmt.Errorf("value.Terminate: %w", err)
		}

		return true, nil

	default:
		return false, nil
	}
}

type acquireResponse[T any] struct {
	value T
	err   error
}

type command[T any] struct {
	acquireReplyCh  chan acquireResponse[T]
	releaseReplyCh  chan struct{}
	shutdownReplyCh chan struct{}
}

type Handle[T any] struct {
	value   T
	release func()
}

func (h Handle[T]) Value() T {
	return h.value
}

func (h Handle[T]) Release() {
	h.release()
}

// Share owns a single value of T and hands it out to concurrent users.
// The value is created on the first Acquire and destroyed after the
// last Release once WaitUntilCleanup elapses with no new users, so
// back to back tests reuse one value instead of recreating it.
//
// T must be safe to use by many goroutines.
type Share[T any] struct {
	cfg       Config[T]
	commandCh chan command[T]

	done chan struct{}

	shutdownOnce sync.Once
	closeOnce    sync.Once
}

var ErrShutdown = errors.New("share is shut down, acquire is blocked")

func Run[T any](createFunc CreateFunc[T], opts ...Option[T]) *Share[T] {
	if createFunc == nil {
		panic("pass nil createFunc in share.Run")
	}

	cfg := Config[T]{
		WaitUntilCleanup: defaultWaitUntilCleanup,
		CleanupTimeout:   defaultCleanupTimeout,
		Logf:             func(string, ...any) {},
		createFunc:       createFunc,
	}

	for _, op := range opts {
		op(&cfg)
	}

	sh := &Share[T]{
		cfg:       cfg,
		commandCh: make(chan command[T]),

		done: make(chan struct{}),

		shutdownOnce: sync.Once{},
		closeOnce:    sync.Once{},
	}

	go sh.run()

	return sh
}

type Cleanupper interface {
	Cleanup(doCleanup func())
}

func RunForTesting[T any](
	cleanupper Cleanupper,
	createFunc CreateFunc[T],
	opts ...Option[T],
) *Share[T] {
	sh := Run(createFunc, opts...)

	cleanupper.Cleanup(sh.Shutdown)

	return sh
}

func (s *Share[T]) Acquire() (Handle[T], error) {
	replyCh := make(chan acquireResponse[T])

	select {
	case <-s.done:
		return Handle[T]{}, ErrShutdown

	case s.commandCh <- command[T]{acquireReplyCh: replyCh}:
		resp := <-replyCh

		if resp.err != nil {
			return Handle[T]{}, resp.err
		}

		return Handle[T]{
			value:   resp.value,
			release: sync.OnceFunc(s.release),
		}, nil
	}
}

func (s *Share[T]) release() {
	replyCh := make(chan struct{})

	select {
	case <-s.done:
	case s.commandCh <- command[T]{releaseReplyCh: replyCh}:
		<-replyCh
	}
}

// Shutdown destroys the shared value and stops the daemon. Any
// Acquire after Shutdown fails with ErrShutdown.
func (s *Share[T]) Shutdown() {
	s.shutdownOnce.Do(func() {
		replyCh := make(chan struct{})

		select {
		case <-s.done:
		case s.commandCh <- command[T]{shutdownReplyCh: replyCh}:
			<-replyCh
		}
	})
}

func (s *Share[T]) terminate() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Share[T]) run() {
	var (
		value  T
		active bool
		users  int
	)

	var cleanupCh <-chan time.Time

	for {
		select {
		case <-cleanupCh:
			cleanupCh = nil

			if users == 0 && active {
				s.destroy(value)

				var zero T

				value = zero
				active = false
			}

		case cmd := <-s.commandCh:
			switch {
			case cmd.acquireReplyCh != nil:
				if !active {
					newValue, err := s.cfg.createFunc()
					if err != nil {
						cmd.acquireReplyCh <- acquireResponse[T]{err: fmt.Errorf("create shared value: %w", err)}

						continue
					}

					value = newValue
					active = true
				}

				users++
				cleanupCh = nil

				cmd.acquireReplyCh <- acquireResponse[T]{value: value}

			case cmd.releaseReplyCh != nil:
				if users <= 0 {
					panic("share release without matching acquire")
				}

				users--

				if users == 0 {
					cleanupCh = time.After(s.cfg.WaitUntilCleanup)
				}

				cmd.releaseReplyCh <- struct{}{}

			case cmd.shutdownReplyCh != nil:
				if active {
					s.destroy(value)
				}

				s.terminate()

				cmd.shutdownReplyCh <- struct{}{}

				return
			}
		}
	}
}

func (s *Share[T]) destroy(value T) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CleanupTimeout)
	defer cancel()

	_, err := Cleanup(ctx, value)
	if err != nil {
		s.cfg.Logf("failed cleanup shared value: %s", err)
	}
}
