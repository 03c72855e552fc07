package feedclient

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestFetchStoresResult(t *testing.T) {
	cache := NewCache()

	value, err := cache.Fetch(context.Background(), "key", func(ctx context.Context) (any, error) {
		return 42, nil
	})
	if err != nil || value != 42 {
		t.Fatalf("unexpected result %v %v", value, err)
	}
	if got, ok := Lookup[int](cache, "key"); !ok || got != 42 {
		t.Fatalf("expected cached 42, got %v %v", got, ok)
	}

	failure := errors.New("offline")
	_, err = cache.Fetch(context.Background(), "key", func(ctx context.Context) (any, error) {
		return nil, failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if got, _ := Lookup[int](cache, "key"); got != 42 {
		t.Fatalf("a failed fetch must keep the cached value, got %v", got)
	}
}

func TestCancelQueriesDropsLateResults(t *testing.T) {
	cache := NewCache()
	cache.Set("posts?a", "fresh")

	started := make(chan struct{})
	result := make(chan error, 1)
	go func() {
		_, err := cache.Fetch(context.Background(), "posts?a", func(ctx context.Context) (any, error) {
			close(started)
			<-ctx.Done()
			time.Sleep(10 * time.Millisecond)
			return "stale", nil
		})
		result <- err
	}()

	<-started
	if err := cache.CancelQueries(context.Background(), "posts?"); err != nil {
		t.Fatal(err)
	}

	// The fetch has returned by now.
	select {
	case err := <-result:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("CancelQueries returned before the fetch finished")
	}
	if got, _ := Lookup[string](cache, "posts?a"); got != "fresh" {
		t.Fatalf("late result overwrote the cache: %q", got)
	}
}

func TestCancelQueryMatchesExactKey(t *testing.T) {
	cache := NewCache()
	postID := uuid.New()

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = cache.Fetch(context.Background(), CommentsKey(postID, CommentsQuery{}), func(ctx context.Context) (any, error) {
			close(started)
			<-release
			return InfiniteComments{}, nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := cache.CancelQuery(ctx, PostKey(postID)); err != nil {
		t.Fatalf("comment fetches must not match the post key: %v", err)
	}

	close(release)
	<-done
	if _, ok := Lookup[InfiniteComments](cache, CommentsKey(postID, CommentsQuery{})); !ok {
		t.Fatal("expected the comment list to be stored")
	}
}

func TestCancelAfterPanickingFetch(t *testing.T) {
	cache := NewCache()

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected the loader panic to propagate")
			}
		}()
		_, _ = cache.Fetch(context.Background(), "posts?a", func(ctx context.Context) (any, error) {
			panic("loader failed")
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := cache.CancelQueries(ctx, "posts?"); err != nil {
		t.Fatalf("cancellation must not wait on a panicked fetch: %v", err)
	}
	if err := cache.CancelQuery(ctx, "posts?a"); err != nil {
		t.Fatalf("cancellation must not wait on a panicked fetch: %v", err)
	}
}

func TestPatch(t *testing.T) {
	cache := NewCache()

	if _, ok := cache.Patch("missing", func(previous any) (any, bool) { return 1, true }); ok {
		t.Fatal("missing keys must not be patched")
	}
	if _, ok := cache.Get("missing"); ok {
		t.Fatal("patch must not create keys")
	}

	cache.Set("key", 1)
	if _, ok := cache.Patch("key", func(previous any) (any, bool) { return previous, false }); ok {
		t.Fatal("unchanged values must not report a snapshot")
	}

	previous, ok := cache.Patch("key", func(previous any) (any, bool) { return previous.(int) + 1, true })
	if !ok || previous != 1 {
		t.Fatalf("unexpected snapshot %v %v", previous, ok)
	}
	if got, _ := Lookup[int](cache, "key"); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

func TestKeys(t *testing.T) {
	cache := NewCache()
	postID := uuid.New()
	parentID := uuid.New()

	cache.Set(CommentsKey(postID, CommentsQuery{Sort: "top"}), nil)
	cache.Set(CommentsKey(postID, CommentsQuery{ParentCommentID: &parentID}), nil)
	cache.Set(CommentKey(postID, uuid.New()), nil)
	cache.Set(PostKey(postID), nil)

	keys := cache.Keys(commentsPrefix(postID))
	expected := []string{
		CommentsKey(postID, CommentsQuery{ParentCommentID: &parentID}),
		CommentsKey(postID, CommentsQuery{Sort: "top"}),
	}
	if !reflect.DeepEqual(keys, expected) {
		t.Fatalf("expected %v, got %v", expected, keys)
	}
}
