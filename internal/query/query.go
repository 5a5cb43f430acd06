// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package query is the fetch-and-cache layer in front of the marketplace backend.

Every remote read that a page depends on is issued through a [Client] under a
composite [Key] (resource name plus sorted parameters). The client guarantees:

  - Deduplication: for a given key at most one fetch is in flight. Callers that
    arrive during that window wait for, and receive, the same result.
  - Freshness: a successful result is served from memory for the query's stale
    time. After that the stale value is still served immediately while a single
    background revalidation runs (stale-while-revalidate).
  - Errors: failures are stored per key and handed to every caller for the
    error time (bounded by the stale time) or until [Refetch] is called. A
    request context marked with [ctxutil.WithRefetch] refetches as well.
    Nothing is retried automatically.
  - Invalidation: a fetch in flight is never abandoned. Its result is dropped
    and the callers that waited on it fetch again once, together.
  - Bounded memory: entries idle for longer than the GC time are dropped, and the
    least-recently-used entries are evicted past the configured capacity.

Different keys never wait on each other.
*/
package query

import (
	"container/list"
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/taibuivan/farmgate/internal/platform/ctxutil"
)

// # Defaults

const (
	DefaultStaleTime    = 5 * time.Minute
	DefaultErrorTime    = 10 * time.Second
	DefaultGCTime       = 30 * time.Minute
	DefaultMaxEntries   = 1024
	DefaultFetchTimeout = 15 * time.Second
)

// # Keys

// Key identifies one cached remote read.
type Key string

// NewKey builds a composite key from a resource name and its parameters.
// Parameters are sorted so that equal parameter sets always produce equal keys.
func NewKey(resource string, params url.Values) Key {
	if len(params) == 0 {
		return Key(resource)
	}
	return Key(resource + "?" + params.Encode())
}

// Resource returns the resource part of the key.
func (k Key) Resource() string {
	resource, _, _ := strings.Cut(string(k), "?")
	return resource
}

// # Contracts

// Query describes one cacheable read.
type Query[T any] struct {
	// Key identifies the read.
	Key Key

	// StaleTime overrides the client default freshness window when positive.
	StaleTime time.Duration

	// Fetch performs the remote call. It receives a context detached from any
	// single caller so that a cancelled request never fails the other waiters.
	Fetch func(ctx context.Context) (T, error)
}

// Result is what a caller observes for a key.
type Result[T any] struct {
	Data T

	// HasData reports whether Data holds a successfully fetched value.
	HasData bool

	// IsLoading is true while the first fetch for the key is in flight.
	IsLoading bool

	// IsFetching is true whenever any fetch for the key is in flight.
	IsFetching bool

	// IsStale is true when Data is older than the stale time.
	IsStale bool

	IsError bool
	Err     error

	UpdatedAt time.Time
}

// ErrNoData is returned by [Result.Value] when nothing has been fetched yet.
var ErrNoData = errors.New("query: no data")

// Value returns the data, or the error a caller should surface instead.
// A stored failure wins over a last good value.
func (r Result[T]) Value() (T, error) {
	if r.IsError {
		return r.Data, r.Err
	}
	if !r.HasData {
		var zero T
		if r.Err != nil {
			return zero, r.Err
		}
		return zero, ErrNoData
	}
	return r.Data, nil
}

// Options configure a [Client].
type Options struct {
	StaleTime    time.Duration
	ErrorTime    time.Duration
	GCTime       time.Duration
	MaxEntries   int
	FetchTimeout time.Duration
	Logger       *slog.Logger

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

func (o *Options) applyDefaults() {
	if o.StaleTime <= 0 {
		o.StaleTime = DefaultStaleTime
	}
	if o.ErrorTime <= 0 {
		o.ErrorTime = DefaultErrorTime
	}
	if o.GCTime <= 0 {
		o.GCTime = DefaultGCTime
	}
	if o.MaxEntries <= 0 {
		o.MaxEntries = DefaultMaxEntries
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// # Client

// entry is the cached state of one key. Guarded by Client.mu.
type entry struct {
	key        Key
	data       any
	hasData    bool
	updatedAt  time.Time
	err        error
	errorAt    time.Time
	inflight   bool
	lastAccess time.Time

	// flight is the id of the current or last fetch; superseded is the id of
	// a fetch whose result was invalidated while it ran.
	flight     uint64
	superseded uint64
}

// Client is the query cache. It is safe for concurrent use.
type Client struct {
	options Options
	baseCtx context.Context
	group   singleflight.Group

	mu      sync.Mutex
	entries map[Key]*list.Element
	lru     *list.List
	flights uint64
}

// NewClient creates a query cache. ctx bounds background revalidations and the
// GC janitor; cancel it on shutdown.
func NewClient(ctx context.Context, options Options) *Client {
	options.applyDefaults()

	client := &Client{
		options: options,
		baseCtx: ctx,
		entries: make(map[Key]*list.Element),
		lru:     list.New(),
	}

	go client.janitor(ctx)

	return client
}

// Do returns the cached result for q, fetching it when there is nothing usable.
func Do[T any](ctx context.Context, client *Client, q Query[T]) Result[T] {
	return typed[T](client.do(ctx, q.Key, client.staleTime(q.StaleTime), erase(q.Fetch), false))
}

// Refetch forces a fetch for q, joining the in-flight one if there is any.
func Refetch[T any](ctx context.Context, client *Client, q Query[T]) Result[T] {
	return typed[T](client.do(ctx, q.Key, client.staleTime(q.StaleTime), erase(q.Fetch), true))
}

// Peek reports the current state of key without fetching.
func Peek[T any](client *Client, key Key, staleTime time.Duration) Result[T] {
	client.mu.Lock()
	defer client.mu.Unlock()

	element, ok := client.entries[key]
	if !ok {
		return Result[T]{}
	}
	return typed[T](client.snapshot(element.Value.(*entry), client.staleTime(staleTime)))
}

// Invalidate drops the cached state of key. The next read fetches in the
// foreground. A fetch already in flight keeps running but its result is not
// stored; readers joining it fetch again once it settles.
func (client *Client) Invalidate(key Key) {
	client.mu.Lock()
	defer client.mu.Unlock()

	client.invalidate(key)
}

// InvalidateResource drops every key belonging to resource.
func (client *Client) InvalidateResource(resource string) {
	client.mu.Lock()
	defer client.mu.Unlock()

	for key := range client.entries {
		if key.Resource() == resource {
			client.invalidate(key)
		}
	}
}

// Len returns the number of cached keys.
func (client *Client) Len() int {
	client.mu.Lock()
	defer client.mu.Unlock()
	return len(client.entries)
}

// # Internals

// snapshot is the untyped form of a Result.
type snapshot struct {
	data       any
	hasData    bool
	isLoading  bool
	isFetching bool
	isStale    bool
	err        error
	updatedAt  time.Time
}

func (client *Client) staleTime(override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	return client.options.StaleTime
}

func (client *Client) do(ctx context.Context, key Key, staleTime time.Duration, fetch func(context.Context) (any, error), force bool) snapshot {
	force = force || ctxutil.WantsRefetch(ctx)

	for {
		client.mu.Lock()

		current := client.touch(key)
		now := client.options.Now()

		if !force {
			errorHeld := current.err != nil && now.Sub(current.errorAt) < min(staleTime, client.options.ErrorTime)
			dataFresh := current.hasData && current.err == nil && now.Sub(current.updatedAt) < staleTime

			switch {
			case errorHeld, dataFresh:
				// Latest outcome is served as-is until it ages out or a refetch.
				result := client.snapshot(current, staleTime)
				client.mu.Unlock()
				return result

			case current.hasData:
				// Stale-while-revalidate: one background refresh, stale value now.
				if !current.inflight {
					flight, _ := client.launch(key, current, fetch)
					go func() { <-flight }()
				}
				result := client.snapshot(current, staleTime)
				client.mu.Unlock()
				return result
			}
		}

		flight, id := client.launch(key, current, fetch)
		client.mu.Unlock()

		select {
		case outcome := <-flight:
			client.mu.Lock()
			superseded := current.superseded == id
			result := snapshot{data: outcome.Val, hasData: true, updatedAt: current.updatedAt, isFetching: current.inflight}
			if outcome.Err != nil {
				// Keep the last good value beside the failure.
				result = snapshot{data: current.data, hasData: current.hasData, updatedAt: current.updatedAt, err: outcome.Err}
			}
			client.mu.Unlock()

			if superseded {
				// Invalidated while in flight: the value predates the change.
				force = false
				continue
			}
			return result

		case <-ctx.Done():
			return snapshot{isLoading: true, isFetching: true, err: ctx.Err()}
		}
	}
}

// launch joins the flight of owner, starting one when none is running.
// Caller holds mu.
func (client *Client) launch(key Key, owner *entry, fetch func(context.Context) (any, error)) (<-chan singleflight.Result, uint64) {
	if !owner.inflight {
		client.flights++
		owner.flight = client.flights
		owner.inflight = true
	}
	id := owner.flight

	flight := client.group.DoChan(string(key)+"#"+strconv.FormatUint(id, 10), func() (any, error) {
		ctx, cancel := context.WithTimeout(client.baseCtx, client.options.FetchTimeout)
		defer cancel()

		value, err := fetch(ctx)
		client.store(key, owner, id, value, err)
		return value, err
	})
	return flight, id
}

// store records a fetch outcome unless the entry was invalidated meanwhile.
func (client *Client) store(key Key, owner *entry, id uint64, value any, err error) {
	client.mu.Lock()
	defer client.mu.Unlock()

	owner.inflight = false

	element, ok := client.entries[key]
	if !ok || element.Value.(*entry) != owner || owner.superseded == id {
		return
	}

	now := client.options.Now()
	if err != nil {
		owner.err = err
		owner.errorAt = now
		client.options.Logger.Warn("query_fetch_failed",
			slog.String("key", string(key)),
			slog.Any("error", err),
		)
		return
	}

	owner.data = value
	owner.hasData = true
	owner.updatedAt = now
	owner.err = nil
	owner.errorAt = time.Time{}
}

// touch returns the entry for key, creating it and evicting as needed. Caller holds mu.
func (client *Client) touch(key Key) *entry {
	now := client.options.Now()

	if element, ok := client.entries[key]; ok {
		client.lru.MoveToFront(element)
		current := element.Value.(*entry)
		current.lastAccess = now
		return current
	}

	current := &entry{key: key, lastAccess: now}
	client.entries[key] = client.lru.PushFront(current)

	// Evict from the cold end, skipping entries with a fetch in flight.
	for element := client.lru.Back(); element != nil && len(client.entries) > client.options.MaxEntries; {
		previous := element.Prev()
		if candidate := element.Value.(*entry); !candidate.inflight && candidate != current {
			client.remove(candidate.key)
		}
		element = previous
	}

	return current
}

// invalidate clears key. An entry with a fetch in flight is kept, emptied and
// its flight marked superseded. Caller holds mu.
func (client *Client) invalidate(key Key) {
	element, ok := client.entries[key]
	if !ok {
		return
	}

	current := element.Value.(*entry)
	if !current.inflight {
		client.remove(key)
		return
	}

	current.superseded = current.flight
	current.data, current.hasData, current.updatedAt = nil, false, time.Time{}
	current.err, current.errorAt = nil, time.Time{}
}

// remove deletes key. Caller holds mu.
func (client *Client) remove(key Key) {
	element, ok := client.entries[key]
	if !ok {
		return
	}
	client.lru.Remove(element)
	delete(client.entries, key)
}

func (client *Client) snapshot(current *entry, staleTime time.Duration) snapshot {
	now := client.options.Now()
	return snapshot{
		data:       current.data,
		hasData:    current.hasData,
		isLoading:  current.inflight && !current.hasData,
		isFetching: current.inflight,
		isStale:    current.hasData && now.Sub(current.updatedAt) >= staleTime,
		err:        current.err,
		updatedAt:  current.updatedAt,
	}
}

// janitor drops entries idle for longer than the GC time.
func (client *Client) janitor(ctx context.Context) {
	interval := client.options.GCTime / 2
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			client.collect()
		case <-ctx.Done():
			return
		}
	}
}

func (client *Client) collect() {
	client.mu.Lock()
	defer client.mu.Unlock()

	now := client.options.Now()
	for key, element := range client.entries {
		current := element.Value.(*entry)
		if !current.inflight && now.Sub(current.lastAccess) > client.options.GCTime {
			client.remove(key)
		}
	}
}

func erase[T any](fetch func(context.Context) (T, error)) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}
}

func typed[T any](s snapshot) Result[T] {
	var data T
	if s.hasData {
		data, _ = s.data.(T)
	}
	return Result[T]{
		Data:       data,
		HasData:    s.hasData,
		IsLoading:  s.isLoading,
		IsFetching: s.isFetching,
		IsStale:    s.isStale,
		IsError:    s.err != nil,
		Err:        s.err,
		UpdatedAt:  s.updatedAt,
	}
}
