package ports

import (
	"context"

	"aitaflow/domain/core"
	"aitaflow/domain/daterange"
	"aitaflow/domain/thread"
)

// PostSearcher finds posts created inside a date window
type PostSearcher interface {
	SearchPosts(ctx context.Context, subreddit string, window daterange.DateRange) ([]thread.Post, error)
}

// CommentFetcher returns the top-level replies of one post
type CommentFetcher interface {
	FetchComments(ctx context.Context, postID core.PostID) ([]thread.RawComment, error)
}
