// Package fetch runs a network read under a timeout and falls back to the
// local cache, then to a default value. Reads never fail: the caller always
// gets something renderable plus the Source it came from.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"quickorder/internal/cache"
	"quickorder/internal/metrics"
)

type Source int

const (
	SourceLive Source = iota
	SourceCache
	SourceDefault
)

func (s Source) String() string {
	switch s {
	case SourceLive:
		return "live"
	case SourceCache:
		return "cache"
	case SourceDefault:
		return "default"
	default:
		return "unknown"
	}
}

// Result carries the value and where it came from. Err is the network error
// that caused a fallback; it is nil for live results.
type Result[T any] struct {
	Value  T
	Source Source
	Err    error
}

func (r Result[T]) Live() bool { return r.Source == SourceLive }

// ErrRejected is used when Accept turns down a well-formed live answer.
var ErrRejected = errors.New("fetch: live value rejected")

type Request[T any] struct {
	Entity  string // metrics/log label, e.g. "vendors"
	Key     string
	Timeout time.Duration
	Default T
	Call    func(ctx context.Context) (T, error)

	// Optional. Encode/Decode default to JSON.
	Encode func(T) ([]byte, error)
	Decode func([]byte) (T, error)
	// Accept may reject a live value (e.g. a null profile) so the cache is
	// consulted instead.
	Accept func(T) bool
}

type Fetcher struct {
	cache cache.Cache
	log   *logrus.Entry
}

func NewFetcher(c cache.Cache, log *logrus.Entry) *Fetcher {
	return &Fetcher{cache: c, log: log}
}

func (f *Fetcher) Cache() cache.Cache { return f.cache }

// Do is the resilient read. No retries are attempted.
func Do[T any](ctx context.Context, f *Fetcher, req Request[T]) Result[T] {
	log := f.log.WithField("entity", req.Entity).WithField("key", req.Key)

	value, err := callWithTimeout(ctx, req)
	if err == nil && req.Accept != nil && !req.Accept(value) {
		err = ErrRejected
	}
	if err == nil {
		if data, encErr := encode(req, value); encErr != nil {
			log.WithError(encErr).Error("cannot encode live value for cache")
			metrics.RecordCacheWriteFailure(req.Entity)
		} else if setErr := f.cache.Set(ctx, req.Key, data); setErr != nil {
			log.WithError(setErr).Error("cache write failed")
			metrics.RecordCacheWriteFailure(req.Entity)
		}
		metrics.RecordFetch(req.Entity, SourceLive.String())
		return Result[T]{Value: value, Source: SourceLive}
	}

	log.WithError(err).Warn("network fetch failed, falling back to cache")

	res := readCached(ctx, f, req, log)
	res.Err = err
	metrics.RecordFetch(req.Entity, res.Source.String())
	return res
}

// ReadCached consults only the cache; it is used to show something before the
// network sync finishes.
func ReadCached[T any](ctx context.Context, f *Fetcher, req Request[T]) Result[T] {
	log := f.log.WithField("entity", req.Entity).WithField("key", req.Key)
	return readCached(ctx, f, req, log)
}

func readCached[T any](ctx context.Context, f *Fetcher, req Request[T], log *logrus.Entry) Result[T] {
	data, err := f.cache.Get(ctx, req.Key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			log.WithError(err).Warn("cache read failed")
		}
		return Result[T]{Value: req.Default, Source: SourceDefault}
	}

	value, err := decode(req, data)
	if err != nil {
		log.WithError(err).Warn("corrupt cache entry, using default")
		return Result[T]{Value: req.Default, Source: SourceDefault}
	}

	log.Debug("serving cached value")
	return Result[T]{Value: value, Source: SourceCache}
}

type outcome[T any] struct {
	value T
	err   error
}

// callWithTimeout races the call against the deadline, so a call that ignores
// its context still cannot hold the caller past the timeout.
func callWithTimeout[T any](ctx context.Context, req Request[T]) (T, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	done := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome[T]{err: fmt.Errorf("fetch: %s call panicked: %v", req.Entity, r)}
			}
		}()
		v, err := req.Call(ctx)
		done <- outcome[T]{value: v, err: err}
	}()

	select {
	case o := <-done:
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func encode[T any](req Request[T], v T) ([]byte, error) {
	if req.Encode != nil {
		return req.Encode(v)
	}
	return json.Marshal(v)
}

func decode[T any](req Request[T], data []byte) (T, error) {
	if req.Decode != nil {
		return req.Decode(data)
	}
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}
