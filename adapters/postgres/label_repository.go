package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"aitaflow/domain/aggregate"
	"aitaflow/domain/core"
	"aitaflow/domain/judgement"
	"aitaflow/domain/labels"
	"aitaflow/domain/thread"
	"aitaflow/internal/errors"
	"aitaflow/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// labelRecord is the post_labels row
type labelRecord struct {
	PostID      string          `db:"post_id"`
	RunID       string          `db:"run_id"`
	Title       string          `db:"title"`
	Score       int             `db:"score"`
	SelfText    string          `db:"selftext"`
	NumComments sql.NullInt64   `db:"num_comments"`
	CreatedUTC  sql.NullInt64   `db:"created_utc"`
	YTA         int             `db:"yta"`
	NTA         int             `db:"nta"`
	NAH         int             `db:"nah"`
	ESH         int             `db:"esh"`
	Total       int             `db:"total"`
	Judgement   string          `db:"judgement"`
	Distrib     pq.Float64Array `db:"distribution"`
	Multiclass  pq.Int64Array   `db:"label_multiclass"`
	Multilabel  pq.Int64Array   `db:"label_multilabel"`
	Regression  pq.Float64Array `db:"label_regression"`
	TwoClass    pq.Int64Array   `db:"label_twoclass_multilabel"`
}

const labelColumns = `post_id, run_id, title, score, selftext, num_comments, created_utc,
	yta, nta, nah, esh, total, judgement, distribution,
	label_multiclass, label_multilabel, label_regression, label_twoclass_multilabel`

const upsertLabel = `INSERT INTO post_labels (` + labelColumns + `) VALUES (
	:post_id, :run_id, :title, :score, :selftext, :num_comments, :created_utc,
	:yta, :nta, :nah, :esh, :total, :judgement, :distribution,
	:label_multiclass, :label_multilabel, :label_regression, :label_twoclass_multilabel
) ON CONFLICT (post_id) DO UPDATE SET
	run_id = EXCLUDED.run_id, title = EXCLUDED.title, score = EXCLUDED.score,
	selftext = EXCLUDED.selftext, num_comments = EXCLUDED.num_comments, created_utc = EXCLUDED.created_utc,
	yta = EXCLUDED.yta, nta = EXCLUDED.nta, nah = EXCLUDED.nah, esh = EXCLUDED.esh,
	total = EXCLUDED.total, judgement = EXCLUDED.judgement, distribution = EXCLUDED.distribution,
	label_multiclass = EXCLUDED.label_multiclass, label_multilabel = EXCLUDED.label_multilabel,
	label_regression = EXCLUDED.label_regression, label_twoclass_multilabel = EXCLUDED.label_twoclass_multilabel,
	updated_at = NOW()`

// labelRepository implements the LabelRepository interface
type labelRepository struct {
	db *sqlx.DB
}

// NewLabelRepository creates a new label repository
func NewLabelRepository(db *sqlx.DB) ports.LabelRepository {
	return &labelRepository{db: db}
}

// Save upserts every row in one transaction
func (r *labelRepository) Save(ctx context.Context, rows []labels.Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	for _, row := range rows {
		if _, err := tx.NamedExecContext(ctx, upsertLabel, toRecord(row)); err != nil {
			return errors.DatabaseError(fmt.Sprintf("failed to save labels for %s", row.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit labels", err)
	}
	return nil
}

// GetByPostID retrieves the labels of one post
func (r *labelRepository) GetByPostID(ctx context.Context, postID core.PostID) (*labels.Row, error) {
	var rec labelRecord
	err := r.db.GetContext(ctx, &rec, `SELECT `+labelColumns+` FROM post_labels WHERE post_id = $1`, postID.String())
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("post", postID.String())
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to get labels", err)
	}

	row, err := fromRecord(rec)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// List returns labelled posts, newest first
func (r *labelRepository) List(ctx context.Context, limit, offset int) ([]labels.Row, error) {
	var recs []labelRecord
	err := r.db.SelectContext(ctx, &recs, `SELECT `+labelColumns+` FROM post_labels
		ORDER BY created_utc DESC NULLS LAST, post_id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, errors.DatabaseError("failed to list labels", err)
	}

	rows := make([]labels.Row, 0, len(recs))
	for _, rec := range recs {
		row, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func toRecord(row labels.Row) labelRecord {
	rec := labelRecord{
		PostID:     row.ID.String(),
		RunID:      row.RunID.String(),
		Title:      row.Title,
		Score:      row.Score,
		SelfText:   row.SelfText,
		YTA:        row.Weights.Get(judgement.YTA),
		NTA:        row.Weights.Get(judgement.NTA),
		NAH:        row.Weights.Get(judgement.NAH),
		ESH:        row.Weights.Get(judgement.ESH),
		Total:      row.Total,
		Judgement:  row.Judgement.String(),
		Distrib:    pq.Float64Array(row.Distribution[:]),
		Multiclass: toInt64s(row.Labels.Multiclass),
		Multilabel: toInt64s(row.Labels.Multilabel),
		Regression: pq.Float64Array(row.Labels.Regression),
		TwoClass:   toInt64s(row.Labels.TwoClass),
	}
	if row.NumComments != nil {
		rec.NumComments = sql.NullInt64{Int64: int64(*row.NumComments), Valid: true}
	}
	if row.CreatedUTC != nil {
		rec.CreatedUTC = sql.NullInt64{Int64: *row.CreatedUTC, Valid: true}
	}
	return rec
}

func fromRecord(rec labelRecord) (labels.Row, error) {
	j, err := judgement.Parse(rec.Judgement)
	if err != nil {
		return labels.Row{}, errors.DatabaseError(fmt.Sprintf("stored labels for %s are invalid", rec.PostID), err)
	}
	dist, err := labels.DistributionFromSlice(rec.Distrib)
	if err != nil {
		return labels.Row{}, errors.DatabaseError(fmt.Sprintf("stored distribution for %s is invalid", rec.PostID), err)
	}

	weights := aggregate.Weights{}
	for category, v := range map[judgement.Judgement]int{
		judgement.YTA: rec.YTA, judgement.NTA: rec.NTA, judgement.NAH: rec.NAH, judgement.ESH: rec.ESH,
	} {
		if v != 0 {
			weights[category] = v
		}
	}

	post := thread.Post{
		ID:       core.PostID(rec.PostID),
		Title:    rec.Title,
		Score:    rec.Score,
		SelfText: rec.SelfText,
	}
	if rec.NumComments.Valid {
		n := int(rec.NumComments.Int64)
		post.NumComments = &n
	}
	if rec.CreatedUTC.Valid {
		c := rec.CreatedUTC.Int64
		post.CreatedUTC = &c
	}

	return labels.Row{
		RunID:        core.RunID(rec.RunID),
		Post:         post,
		Weights:      weights,
		Total:        rec.Total,
		Judgement:    j,
		Distribution: dist,
		Labels: labels.Set{
			Multiclass: fromInt64s(rec.Multiclass),
			Multilabel: fromInt64s(rec.Multilabel),
			Regression: []float64(rec.Regression),
			TwoClass:   fromInt64s(rec.TwoClass),
		},
	}, nil
}

func toInt64s(v []int) pq.Int64Array {
	out := make(pq.Int64Array, len(v))
	for i, x := range v {
		out[i] = int64(x)
	}
	return out
}

func fromInt64s(v pq.Int64Array) []int {
	out := make([]int, len(v))
	for i, x := range v {
		out[i] = int(x)
	}
	return out
}
