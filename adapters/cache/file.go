// Package cache keeps parsed responses per post so a rerun does not refetch them.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"aitaflow/domain/core"
	"aitaflow/domain/thread"
	"aitaflow/internal/errors"
)

// FileCache stores one JSON file per post under a directory.
type FileCache struct {
	dir string
}

// NewFileCache creates the directory if needed
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.CacheError(fmt.Sprintf("failed to create cache directory %s", dir), err)
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache directory
func (c *FileCache) Dir() string {
	return c.dir
}

func (c *FileCache) path(postID core.PostID) (string, error) {
	id := postID.String()
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", errors.InvalidInput(fmt.Sprintf("post ID %q is not a valid cache key", id))
	}
	return filepath.Join(c.dir, id+".json"), nil
}

// Get loads the cached responses of a post
func (c *FileCache) Get(_ context.Context, postID core.PostID) ([]thread.Response, error) {
	path, err := c.path(postID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, core.ErrCacheMiss
	}
	if err != nil {
		return nil, errors.CacheError(fmt.Sprintf("failed to read %s", path), err)
	}

	var responses []thread.Response
	if err := json.Unmarshal(data, &responses); err != nil {
		return nil, errors.CacheError(fmt.Sprintf("corrupt cache entry %s", path), err)
	}
	return responses, nil
}

// Put writes the responses of a post. The entry is written to a temporary
// file and hard-linked into place, so readers never see a partial file and a
// second writer gets core.ErrAlreadyCached.
func (c *FileCache) Put(_ context.Context, postID core.PostID, responses []thread.Response) error {
	path, err := c.path(postID)
	if err != nil {
		return err
	}
	if responses == nil {
		responses = []thread.Response{}
	}
	data, err := json.Marshal(responses)
	if err != nil {
		return errors.CacheError("failed to encode responses", err)
	}

	tmp, err := os.CreateTemp(c.dir, postID.String()+".*.tmp")
	if err != nil {
		return errors.CacheError("failed to create temporary cache file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.CacheError("failed to write temporary cache file", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.CacheError("failed to close temporary cache file", err)
	}

	if err := os.Link(tmp.Name(), path); err != nil {
		if os.IsExist(err) {
			return core.ErrAlreadyCached
		}
		return errors.CacheError(fmt.Sprintf("failed to publish %s", path), err)
	}
	return nil
}
