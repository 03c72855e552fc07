package feedclient

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Query keys. Feed and comment list keys share a prefix per collection so a
// vote can find every list that may hold its target.
const postsPrefix = "posts?"

func PostsKey(query PostsQuery) string {
	return fmt.Sprintf("%slatitude=%g&longitude=%g&distance=%g", postsPrefix, query.Latitude, query.Longitude, query.Distance)
}

func PostKey(postID uuid.UUID) string {
	return "posts/" + postID.String()
}

func commentsPrefix(postID uuid.UUID) string {
	return "posts/" + postID.String() + "/comments?"
}

func CommentsKey(postID uuid.UUID, query CommentsQuery) string {
	order := query.Sort
	if order == "" {
		order = "new"
	}
	key := commentsPrefix(postID) + "sort=" + order
	if query.ParentCommentID != nil {
		key += "&parentCommentId=" + query.ParentCommentID.String()
	}
	return key
}

func CommentKey(postID uuid.UUID, commentID uuid.UUID) string {
	return "posts/" + postID.String() + "/comments/" + commentID.String()
}

type fetch struct {
	key       string
	cancel    context.CancelFunc
	cancelled bool
	done      chan struct{}
}

// Cache holds query results by key. Values are never mutated in place: every
// change stores a new value, so a value read from the cache doubles as a
// snapshot.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]any
	inflight map[*fetch]struct{}
}

func NewCache() *Cache {
	return &Cache{
		entries:  map[string]any{},
		inflight: map[*fetch]struct{}{},
	}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.entries[key]
	return value, ok
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = value
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Keys lists the cached keys starting with prefix in lexical order.
func (c *Cache) Keys(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var keys []string
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Patch replaces the value of key with the result of patch and returns the
// previous value. Nothing is written when the key is missing or patch reports
// no change.
func (c *Cache) Patch(key string, patch func(previous any) (any, bool)) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	next, changed := patch(previous)
	if !changed {
		return nil, false
	}
	c.entries[key] = next
	return previous, true
}

// Fetch runs loader and stores its result under key. The result is dropped
// when the fetch was cancelled through CancelQueries, even if the loader
// finished anyway.
func (c *Cache) Fetch(ctx context.Context, key string, loader func(ctx context.Context) (any, error)) (any, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	f := &fetch{key: key, cancel: cancel, done: make(chan struct{})}

	c.mu.Lock()
	c.inflight[f] = struct{}{}
	c.mu.Unlock()

	// Also runs when loader panics.
	defer func() {
		c.mu.Lock()
		delete(c.inflight, f)
		c.mu.Unlock()
		close(f.done)
	}()

	value, err := loader(ctx)

	c.mu.Lock()
	delete(c.inflight, f)
	cancelled := f.cancelled
	if err == nil && !cancelled {
		c.entries[key] = value
	}
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if cancelled {
		return nil, context.Canceled
	}
	return value, nil
}

// CancelQueries cancels every in-flight fetch whose key starts with prefix and
// waits until they have returned. Once it returns, no fetch started before the
// call can write to the cache.
func (c *Cache) CancelQueries(ctx context.Context, prefix string) error {
	return c.cancel(ctx, func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}

// CancelQuery is CancelQueries for a single exact key.
func (c *Cache) CancelQuery(ctx context.Context, key string) error {
	return c.cancel(ctx, func(candidate string) bool {
		return candidate == key
	})
}

func (c *Cache) cancel(ctx context.Context, match func(key string) bool) error {
	c.mu.Lock()
	var pending []*fetch
	for f := range c.inflight {
		if match(f.key) {
			f.cancelled = true
			f.cancel()
			pending = append(pending, f)
		}
	}
	c.mu.Unlock()

	for _, f := range pending {
		select {
		case <-f.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Lookup returns the value cached under key when it has type T.
func Lookup[T any](c *Cache, key string) (T, bool) {
	value, ok := c.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := value.(T)
	return typed, ok
}
