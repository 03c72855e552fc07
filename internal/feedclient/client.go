package feedclient

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/geofeed/backend/internal/lib"
)

// Backend is the server surface the client reads from and votes through.
type Backend interface {
	ListPosts(ctx context.Context, query PostsQuery, cursor string) (*PostPage, error)
	GetPost(ctx context.Context, postID uuid.UUID) (*Post, error)
	ListComments(ctx context.Context, postID uuid.UUID, query CommentsQuery, cursor string) (*CommentPage, error)
	GetComment(ctx context.Context, postID uuid.UUID, commentID uuid.UUID) (*Comment, error)
	VotePost(ctx context.Context, postID uuid.UUID, value int) (*PostVoteResponse, error)
	VoteComment(ctx context.Context, postID uuid.UUID, commentID uuid.UUID, value int) (*CommentVoteResponse, error)
}

type MutationState int

const (
	MutationPending MutationState = iota
	MutationCommitted
	MutationRolledBack
)

func (s MutationState) String() string {
	switch s {
	case MutationPending:
		return "pending"
	case MutationCommitted:
		return "committed"
	case MutationRolledBack:
		return "rolled-back"
	}
	return "unknown"
}

// Client serves feed queries from a Cache and applies votes optimistically:
// the predicted state is written before the request is sent, replaced by the
// server answer on success and restored from snapshots on failure.
type Client struct {
	backend Backend
	cache   *Cache
	now     func() time.Time

	mu        sync.Mutex
	mutations map[string]MutationState
}

func NewClient(backend Backend, cache *Cache) *Client {
	return &Client{
		backend:   backend,
		cache:     cache,
		now:       time.Now,
		mutations: map[string]MutationState{},
	}
}

func (c *Client) Cache() *Cache {
	return c.cache
}

// Mutation reports the state of the latest vote sent for key, which is
// PostKey or CommentKey of the target.
func (c *Client) Mutation(key string) (MutationState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.mutations[key]
	return state, ok
}

func (c *Client) setMutation(key string, state MutationState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mutations[key] = state
}

// Posts loads the first page of a feed and replaces any cached pages.
func (c *Client) Posts(ctx context.Context, query PostsQuery) (InfinitePosts, error) {
	value, err := c.cache.Fetch(ctx, PostsKey(query), func(ctx context.Context) (any, error) {
		page, err := c.backend.ListPosts(ctx, query, "")
		if err != nil {
			return nil, err
		}
		return InfinitePosts{Pages: []PostPage{*page}}, nil
	})
	if err != nil {
		return InfinitePosts{}, err
	}
	return value.(InfinitePosts), nil
}

// MorePosts appends the next page of a cached feed.
func (c *Client) MorePosts(ctx context.Context, query PostsQuery) (InfinitePosts, error) {
	key := PostsKey(query)
	current, ok := Lookup[InfinitePosts](c.cache, key)
	if !ok {
		return c.Posts(ctx, query)
	}

	last := current.Pages[len(current.Pages)-1]
	if !last.HasMore || len(last.Posts) == 0 {
		return current, nil
	}
	cursor := last.Posts[len(last.Posts)-1].ID.String()

	value, err := c.cache.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		page, err := c.backend.ListPosts(ctx, query, cursor)
		if err != nil {
			return nil, err
		}
		pages := append(append([]PostPage{}, current.Pages...), *page)
		return InfinitePosts{Pages: pages}, nil
	})
	if err != nil {
		return InfinitePosts{}, err
	}
	return value.(InfinitePosts), nil
}

func (c *Client) Post(ctx context.Context, postID uuid.UUID) (Post, error) {
	value, err := c.cache.Fetch(ctx, PostKey(postID), func(ctx context.Context) (any, error) {
		post, err := c.backend.GetPost(ctx, postID)
		if err != nil {
			return nil, err
		}
		return *post, nil
	})
	if err != nil {
		return Post{}, err
	}
	return value.(Post), nil
}

func (c *Client) Comments(ctx context.Context, postID uuid.UUID, query CommentsQuery) (InfiniteComments, error) {
	value, err := c.cache.Fetch(ctx, CommentsKey(postID, query), func(ctx context.Context) (any, error) {
		page, err := c.backend.ListComments(ctx, postID, query, "")
		if err != nil {
			return nil, err
		}
		return InfiniteComments{Pages: []CommentPage{*page}}, nil
	})
	if err != nil {
		return InfiniteComments{}, err
	}
	return value.(InfiniteComments), nil
}

func (c *Client) MoreComments(ctx context.Context, postID uuid.UUID, query CommentsQuery) (InfiniteComments, error) {
	key := CommentsKey(postID, query)
	current, ok := Lookup[InfiniteComments](c.cache, key)
	if !ok {
		return c.Comments(ctx, postID, query)
	}

	last := current.Pages[len(current.Pages)-1]
	if !last.HasMore || len(last.Comments) == 0 {
		return current, nil
	}
	cursor := last.Comments[len(last.Comments)-1].ID.String()

	value, err := c.cache.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		page, err := c.backend.ListComments(ctx, postID, query, cursor)
		if err != nil {
			return nil, err
		}
		pages := append(append([]CommentPage{}, current.Pages...), *page)
		return InfiniteComments{Pages: pages}, nil
	})
	if err != nil {
		return InfiniteComments{}, err
	}
	return value.(InfiniteComments), nil
}

func (c *Client) Comment(ctx context.Context, postID uuid.UUID, commentID uuid.UUID) (Comment, error) {
	value, err := c.cache.Fetch(ctx, CommentKey(postID, commentID), func(ctx context.Context) (any, error) {
		comment, err := c.backend.GetComment(ctx, postID, commentID)
		if err != nil {
			return nil, err
		}
		return *comment, nil
	})
	if err != nil {
		return Comment{}, err
	}
	return value.(Comment), nil
}

type snapshot struct {
	key   string
	value any
}

// restore puts every snapshot back verbatim.
func (c *Client) restore(snapshots []snapshot) {
	for _, s := range snapshots {
		c.cache.Set(s.key, s.value)
	}
}

// VotePost applies a click on a post reaction. clicked is the reaction the
// user pressed; the value sent to the server follows the toggle rule against
// the cached like. On failure the cache is restored and the error returned.
func (c *Client) VotePost(ctx context.Context, postID uuid.UUID, clicked int) (*PostVoteResponse, error) {
	if err := lib.ValidateVoteValue(clicked); err != nil {
		return nil, err
	}

	single := PostKey(postID)
	if err := c.cache.CancelQueries(ctx, postsPrefix); err != nil {
		return nil, err
	}
	if err := c.cache.CancelQuery(ctx, single); err != nil {
		return nil, err
	}

	value := clicked
	if post, ok := c.cachedPost(postID); ok {
		value = predictPostVote(post, clicked, c.now()).Like.Value
	}

	var snapshots []snapshot
	predict := func(post Post) Post {
		return predictPostVote(post, clicked, c.now())
	}
	for _, key := range c.cache.Keys(postsPrefix) {
		if previous, ok := c.cache.Patch(key, func(previous any) (any, bool) {
			return patchPosts(previous, postID, predict)
		}); ok {
			snapshots = append(snapshots, snapshot{key: key, value: previous})
		}
	}
	if previous, ok := c.cache.Patch(single, func(previous any) (any, bool) {
		return patchPost(previous, predict)
	}); ok {
		snapshots = append(snapshots, snapshot{key: single, value: previous})
	}

	c.setMutation(single, MutationPending)
	response, err := c.backend.VotePost(ctx, postID, value)
	if err != nil {
		c.restore(snapshots)
		c.setMutation(single, MutationRolledBack)
		return nil, err
	}

	reconcile := func(post Post) Post {
		return mergePost(post, response)
	}
	for _, key := range c.cache.Keys(postsPrefix) {
		c.cache.Patch(key, func(previous any) (any, bool) {
			return patchPosts(previous, postID, reconcile)
		})
	}
	c.cache.Patch(single, func(previous any) (any, bool) {
		return patchPost(previous, reconcile)
	})
	c.setMutation(single, MutationCommitted)

	return response, nil
}

// VoteComment is VotePost for comments. Every cached comment list of the post
// is patched along with the single comment entry.
func (c *Client) VoteComment(ctx context.Context, postID uuid.UUID, commentID uuid.UUID, clicked int) (*CommentVoteResponse, error) {
	if err := lib.ValidateVoteValue(clicked); err != nil {
		return nil, err
	}

	lists := commentsPrefix(postID)
	single := CommentKey(postID, commentID)
	if err := c.cache.CancelQueries(ctx, lists); err != nil {
		return nil, err
	}
	if err := c.cache.CancelQuery(ctx, single); err != nil {
		return nil, err
	}

	value := clicked
	if comment, ok := c.cachedComment(postID, commentID); ok {
		value = predictCommentVote(comment, clicked, c.now()).Like.Value
	}

	var snapshots []snapshot
	predict := func(comment Comment) Comment {
		return predictCommentVote(comment, clicked, c.now())
	}
	for _, key := range c.cache.Keys(lists) {
		if previous, ok := c.cache.Patch(key, func(previous any) (any, bool) {
			return patchComments(previous, commentID, predict)
		}); ok {
			snapshots = append(snapshots, snapshot{key: key, value: previous})
		}
	}
	if previous, ok := c.cache.Patch(single, func(previous any) (any, bool) {
		return patchComment(previous, predict)
	}); ok {
		snapshots = append(snapshots, snapshot{key: single, value: previous})
	}

	c.setMutation(single, MutationPending)
	response, err := c.backend.VoteComment(ctx, postID, commentID, value)
	if err != nil {
		c.restore(snapshots)
		c.setMutation(single, MutationRolledBack)
		return nil, err
	}

	reconcile := func(comment Comment) Comment {
		return mergeComment(comment, response)
	}
	for _, key := range c.cache.Keys(lists) {
		c.cache.Patch(key, func(previous any) (any, bool) {
			return patchComments(previous, commentID, reconcile)
		})
	}
	c.cache.Patch(single, func(previous any) (any, bool) {
		return patchComment(previous, reconcile)
	})
	c.setMutation(single, MutationCommitted)

	return response, nil
}

// cachedPost prefers the single entry over feed entries.
func (c *Client) cachedPost(postID uuid.UUID) (Post, bool) {
	if post, ok := Lookup[Post](c.cache, PostKey(postID)); ok {
		return post, true
	}
	for _, key := range c.cache.Keys(postsPrefix) {
		feed, ok := Lookup[InfinitePosts](c.cache, key)
		if !ok {
			continue
		}
		for _, page := range feed.Pages {
			for _, post := range page.Posts {
				if post.ID == postID {
					return post, true
				}
			}
		}
	}
	return Post{}, false
}

func (c *Client) cachedComment(postID uuid.UUID, commentID uuid.UUID) (Comment, bool) {
	if comment, ok := Lookup[Comment](c.cache, CommentKey(postID, commentID)); ok {
		return comment, true
	}
	for _, key := range c.cache.Keys(commentsPrefix(postID)) {
		list, ok := Lookup[InfiniteComments](c.cache, key)
		if !ok {
			continue
		}
		for _, page := range list.Pages {
			for _, comment := range page.Comments {
				if comment.ID == commentID {
					return comment, true
				}
			}
		}
	}
	return Comment{}, false
}
