package ports

import (
	"context"

	"aitaflow/domain/core"
	"aitaflow/domain/labels"
)

// LabelRepository persists labelled posts
type LabelRepository interface {
	Save(ctx context.Context, rows []labels.Row) error
	GetByPostID(ctx context.Context, postID core.PostID) (*labels.Row, error)
	List(ctx context.Context, limit, offset int) ([]labels.Row, error)
}

// LabelExporter writes a labelled table to a file
type LabelExporter interface {
	WriteLabelTable(path string, rows []labels.Row) error
}
