package ports

import (
	"context"

	"aitaflow/domain/core"
	"aitaflow/domain/thread"
)

// ResponseCache stores parsed responses per post so later runs skip the fetch.
//
// Get returns core.ErrCacheMiss when nothing is stored. Put writes at most once
// per post and returns core.ErrAlreadyCached on a second write.
type ResponseCache interface {
	Get(ctx context.Context, postID core.PostID) ([]thread.Response, error)
	Put(ctx context.Context, postID core.PostID, responses []thread.Response) error
}
