package feedclient

import (
	"time"

	"github.com/google/uuid"

	"github.com/geofeed/backend/internal/lib"
)

// predictPostVote returns the post as it will look once the server applied the
// click. A post the user never voted on gets a synthetic like without an id.
func predictPostVote(post Post, clicked int, now time.Time) Post {
	previous := 0
	if post.Like != nil {
		previous = post.Like.Value
	}
	prediction := lib.PredictVote(post.Like != nil, previous, clicked)

	next := post
	next.Points += prediction.Delta
	if post.Like != nil {
		like := *post.Like
		like.Value = prediction.Value
		like.UpdatedAt = now
		next.Like = &like
	} else {
		next.Like = &PostLike{
			PostID:    post.ID,
			Value:     prediction.Value,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return next
}

func predictCommentVote(comment Comment, clicked int, now time.Time) Comment {
	previous := 0
	if comment.Like != nil {
		previous = comment.Like.Value
	}
	prediction := lib.PredictVote(comment.Like != nil, previous, clicked)

	next := comment
	next.Points += prediction.Delta
	if comment.Like != nil {
		like := *comment.Like
		like.Value = prediction.Value
		like.UpdatedAt = now
		next.Like = &like
	} else {
		next.Like = &CommentLike{
			CommentID: comment.ID,
			Value:     prediction.Value,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return next
}

// mergePost takes every field from the vote response and keeps what the vote
// endpoint leaves out from the cached copy.
func mergePost(cached Post, response *PostVoteResponse) Post {
	merged := response.Post
	if merged.Author == nil {
		merged.Author = cached.Author
	}
	if len(merged.Poll) == 0 {
		merged.Poll = cached.Poll
	}
	merged.Like = response.Like
	return merged
}

func mergeComment(cached Comment, response *CommentVoteResponse) Comment {
	merged := response.Comment
	if merged.Author == nil {
		merged.Author = cached.Author
	}
	merged.Like = response.Like
	return merged
}

// patchPosts rewrites the post with the given id in a cached feed. Pages and
// post slices are copied before the write.
func patchPosts(value any, postID uuid.UUID, patch func(Post) Post) (any, bool) {
	feed, ok := value.(InfinitePosts)
	if !ok {
		return value, false
	}

	for i, page := range feed.Pages {
		for j, post := range page.Posts {
			if post.ID != postID {
				continue
			}

			posts := append([]Post{}, page.Posts...)
			posts[j] = patch(post)
			pages := append([]PostPage{}, feed.Pages...)
			pages[i] = PostPage{Posts: posts, HasMore: page.HasMore}
			return InfinitePosts{Pages: pages}, true
		}
	}
	return value, false
}

func patchPost(value any, patch func(Post) Post) (any, bool) {
	post, ok := value.(Post)
	if !ok {
		return value, false
	}
	return patch(post), true
}

func patchComments(value any, commentID uuid.UUID, patch func(Comment) Comment) (any, bool) {
	list, ok := value.(InfiniteComments)
	if !ok {
		return value, false
	}

	for i, page := range list.Pages {
		for j, comment := range page.Comments {
			if comment.ID != commentID {
				continue
			}

			comments := append([]Comment{}, page.Comments...)
			comments[j] = patch(comment)
			pages := append([]CommentPage{}, list.Pages...)
			pages[i] = CommentPage{Comments: comments, HasMore: page.HasMore}
			return InfiniteComments{Pages: pages}, true
		}
	}
	return value, false
}

func patchComment(value any, patch func(Comment) Comment) (any, bool) {
	comment, ok := value.(Comment)
	if !ok {
		return value, false
	}
	return patch(comment), true
}
