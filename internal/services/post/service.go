package post

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/geofeed/backend/internal/lib"
	"github.com/geofeed/backend/internal/middleware"
	"github.com/geofeed/backend/internal/orm"
	"github.com/geofeed/backend/internal/services"
)

type PostServiceImpl struct {
	db       services.PostStore
	images   services.ImageUploader
	geocoder services.Geocoder
	filter   *lib.ContentFilter
	log      *zap.Logger
}

func NewPostService(db services.PostStore, images services.ImageUploader, geocoder services.Geocoder, filter *lib.ContentFilter, log *zap.Logger) services.PostService {
	return &PostServiceImpl{
		db:       db,
		images:   images,
		geocoder: geocoder,
		filter:   filter,
		log:      log,
	}
}

func (s *PostServiceImpl) CreatePost(ctx context.Context, input services.CreatePostInput) (*services.PostItem, error) {
	userID, err := middleware.GetUserUUID(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "Unauthorized")
	}

	if err := lib.ValidateCoordinates(input.Latitude, input.Longitude); err != nil {
		return nil, err
	}
	if err := s.filter.Check("title", input.Title); err != nil {
		return nil, err
	}
	if input.Content != nil {
		if err := s.filter.Check("content", *input.Content); err != nil {
			return nil, err
		}
	}

	post := &orm.Post{
		AuthorID:  userID,
		Title:     input.Title,
		Content:   input.Content,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
	}

	if input.Poll != nil {
		poll := &orm.Poll{VotingLength: input.Poll.VotingLength}
		for i, text := range input.Poll.Options {
			poll.Options = append(poll.Options, orm.PollOption{Text: text, Order: i})
		}
		post.Poll = poll
	}

	// Posts are still created when the geocoder is unavailable, just without
	// place names.
	location, err := s.geocoder.Reverse(ctx, input.Latitude, input.Longitude)
	if err != nil {
		s.log.Warn("error reverse geocoding post location", zap.Error(err))
	} else if location != nil {
		if location.Name != "" {
			post.LocationName = &location.Name
		}
		if location.FullName != "" {
			post.FullLocationName = &location.FullName
		}
	}

	if input.Image != nil {
		url, err := s.images.UploadImage(ctx, input.Image.Filename, input.Image.ContentType, input.Image.Body)
		if err != nil {
			s.log.Error("error uploading post image", zap.Error(err))
			return nil, status.Errorf(codes.Internal, "could not upload image")
		}
		post.Images = append(post.Images, url)
	}

	if err := s.db.InsertPost(ctx, post); err != nil {
		s.log.Error("error inserting post", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "could not create post")
	}

	return s.GetPost(ctx, post.ID.String())
}

func (s *PostServiceImpl) GetPost(ctx context.Context, postID string) (*services.PostItem, error) {
	post, err := s.selectPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	items, err := s.annotate(ctx, []*orm.Post{post})
	if err != nil {
		return nil, err
	}
	return items[0], nil
}

func (s *PostServiceImpl) ListNearbyPosts(ctx context.Context, query services.NearbyQuery) (*services.PostPage, error) {
	if err := lib.ValidateCoordinates(query.Latitude, query.Longitude); err != nil {
		return nil, err
	}

	distance := query.DistanceKm
	if distance <= 0 {
		distance = lib.DefaultDistanceKm
	}
	if distance > lib.MaxDistanceKm {
		distance = lib.MaxDistanceKm
	}

	box := lib.NewBoundingBox(query.Latitude, query.Longitude, distance)
	posts, hasMore, err := s.db.SelectPostsNearby(ctx, box, query.Cursor, lib.NormalizeTake(query.Take))
	if err != nil {
		if _, ok := status.FromError(err); ok {
			return nil, err
		}
		s.log.Error("error selecting nearby posts", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "database error")
	}

	items, err := s.annotate(ctx, posts)
	if err != nil {
		return nil, err
	}

	return &services.PostPage{
		Posts:   items,
		HasMore: hasMore,
	}, nil
}

func (s *PostServiceImpl) UpdatePost(ctx context.Context, postID string, title *string, content *string) (*services.PostItem, error) {
	post, err := s.selectOwnPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	if title != nil {
		if err := s.filter.Check("title", *title); err != nil {
			return nil, err
		}
		post.Title = *title
	}
	if content != nil {
		if err := s.filter.Check("content", *content); err != nil {
			return nil, err
		}
		post.Content = content
	}

	if err := s.db.UpdatePostContent(ctx, post); err != nil {
		s.log.Error("error updating post", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "could not update post")
	}

	return s.GetPost(ctx, postID)
}

func (s *PostServiceImpl) DeletePost(ctx context.Context, postID string) error {
	post, err := s.selectOwnPost(ctx, postID)
	if err != nil {
		return err
	}

	if err := s.db.SoftDeletePost(ctx, post); err != nil {
		s.log.Error("error deleting post", zap.Error(err))
		return status.Errorf(codes.Internal, "could not delete post")
	}
	return nil
}

func (s *PostServiceImpl) selectPost(ctx context.Context, postID string) (*orm.Post, error) {
	if _, err := uuid.Parse(postID); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid post id")
	}

	post, err := s.db.SelectPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, status.Errorf(codes.NotFound, "post not found")
		}
		s.log.Error("error selecting post by id", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "database error")
	}
	return post, nil
}

func (s *PostServiceImpl) selectOwnPost(ctx context.Context, postID string) (*orm.Post, error) {
	userID, err := middleware.GetUserUUID(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "Unauthorized")
	}

	post, err := s.selectPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	if post.AuthorID != userID {
		return nil, status.Errorf(codes.PermissionDenied, "not an author")
	}
	return post, nil
}

// annotate attaches the caller's own like and poll vote to each post.
// Anonymous callers get bare posts.
func (s *PostServiceImpl) annotate(ctx context.Context, posts []*orm.Post) ([]*services.PostItem, error) {
	items := make([]*services.PostItem, len(posts))
	for i, post := range posts {
		items[i] = &services.PostItem{Post: post}
	}

	userID, err := middleware.GetUserUUID(ctx)
	if err != nil || len(posts) == 0 {
		return items, nil
	}

	postIDs := make([]uuid.UUID, 0, len(posts))
	pollIDs := make([]uuid.UUID, 0)
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
		if post.Poll != nil {
			pollIDs = append(pollIDs, post.Poll.ID)
		}
	}

	likes, err := s.db.SelectPostLikesByUser(ctx, userID, postIDs)
	if err != nil {
		s.log.Error("error selecting post likes", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "database error")
	}

	votes, err := s.db.SelectPollVotesByUser(ctx, userID, pollIDs)
	if err != nil {
		s.log.Error("error selecting poll votes", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "database error")
	}

	for _, item := range items {
		item.Like = likes[item.Post.ID]
		if item.Post.Poll != nil {
			item.PollVote = votes[item.Post.Poll.ID]
		}
	}
	return items, nil
}
