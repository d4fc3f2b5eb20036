package app

import (
	"context"
	stderrors "errors"
	"sync/atomic"

	"aitaflow/domain/aggregate"
	"aitaflow/domain/core"
	"aitaflow/domain/daterange"
	"aitaflow/domain/labels"
	"aitaflow/domain/stage"
	"aitaflow/domain/thread"
	"aitaflow/internal"
	"aitaflow/internal/config"
	"aitaflow/internal/errors"
	"aitaflow/ports"
)

// Options controls one scrape-and-label run
type Options struct {
	RunID        core.RunID // generated when empty
	Subreddit    string
	StartDate    string
	EndDate      string
	DayIncrement int
	MinWeight    int
	Threshold    float64
	Workers      int
	ExportPath   string
}

// OptionsFromConfig maps the flow settings; an empty end date means today
func OptionsFromConfig(cfg config.FlowConfig) Options {
	end := cfg.EndDate
	if end == "" {
		end = core.FormatDate(core.Today())
	}
	return Options{
		Subreddit:    cfg.Subreddit,
		StartDate:    cfg.StartDate,
		EndDate:      end,
		DayIncrement: cfg.DayIncrement,
		MinWeight:    cfg.MinWeight,
		Threshold:    cfg.Threshold,
		Workers:      cfg.Workers,
	}
}

// Result is everything a run produced
type Result struct {
	RunID  core.RunID          `json:"run_id"`
	Rows   []labels.Row        `json:"rows"`
	Stages []stage.StageResult `json:"stages"`
}

// Pipeline runs the get_submissions -> get_comments -> aggregate_comments flow.
// Cache, repository and exporter are optional.
type Pipeline struct {
	searcher ports.PostSearcher
	fetcher  ports.CommentFetcher
	cache    ports.ResponseCache
	repo     ports.LabelRepository
	exporter ports.LabelExporter
	observer Observer
	logger   *internal.Logger
}

// Observer is told about every finished stage
type Observer func(runID core.RunID, result stage.StageResult)

// PipelineOption configures optional collaborators
type PipelineOption func(*Pipeline)

func WithCache(c ports.ResponseCache) PipelineOption {
	return func(p *Pipeline) { p.cache = c }
}

func WithRepository(r ports.LabelRepository) PipelineOption {
	return func(p *Pipeline) { p.repo = r }
}

func WithExporter(e ports.LabelExporter) PipelineOption {
	return func(p *Pipeline) { p.exporter = e }
}

func WithObserver(o Observer) PipelineOption {
	return func(p *Pipeline) { p.observer = o }
}

func WithLogger(l *internal.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline wires the required data sources
func NewPipeline(searcher ports.PostSearcher, fetcher ports.CommentFetcher, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		searcher: searcher,
		fetcher:  fetcher,
		logger:   internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("pipeline")
	return p
}

// Run executes every stage. The result carries the stages completed so far
// even when an error is returned.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{RunID: opts.RunID}
	if result.RunID == "" {
		result.RunID = core.NewRunID()
	}
	record := func(r stage.StageResult) {
		result.Stages = append(result.Stages, r)
		if p.observer != nil {
			p.observer(result.RunID, r)
		}
	}
	p.logger.Info("run %s starting: r/%s from %s to %s", result.RunID, opts.Subreddit, opts.StartDate, opts.EndDate)

	timer := stage.Start(stage.StageGetSubmissions)
	posts, err := p.GetSubmissions(ctx, opts)
	record(timer.Done(len(posts), err))
	if err != nil {
		return result, err
	}

	timer = stage.Start(stage.StageGetComments)
	responses, hits, err := p.GetComments(ctx, posts, opts.Workers)
	record(timer.Done(len(responses), err).WithMetric("cache_hits", hits))
	if err != nil {
		return result, err
	}

	timer = stage.Start(stage.StageAggregateComments)
	rows, err := p.AggregateComments(ctx, result.RunID, posts, responses, opts)
	record(timer.Done(len(rows), err))
	if err != nil {
		return result, err
	}
	result.Rows = rows

	if p.repo != nil {
		timer = stage.Start(stage.StagePersist)
		err = p.repo.Save(ctx, rows)
		record(timer.Done(len(rows), err))
		if err != nil {
			return result, errors.Wrap(err, "failed to persist labels")
		}
	}

	if p.exporter != nil && opts.ExportPath != "" {
		timer = stage.Start(stage.StageExport)
		err = p.exporter.WriteLabelTable(opts.ExportPath, rows)
		record(timer.Done(len(rows), err))
		if err != nil {
			return result, errors.Wrap(err, "failed to export labels")
		}
	}

	p.logger.Info("run %s is done: %d posts labelled", result.RunID, len(rows))
	return result, nil
}

// GetSubmissions searches every date window and returns the posts in
// window order. A post reported by two windows is kept once.
func (p *Pipeline) GetSubmissions(ctx context.Context, opts Options) ([]thread.Post, error) {
	windows, err := daterange.Partition(opts.StartDate, opts.EndDate, opts.DayIncrement)
	if err != nil {
		return nil, &errors.AppError{Code: errors.CodeInvalidInput, Message: "failed to partition search period", Cause: err}
	}

	seen := make(map[core.PostID]bool)
	var posts []thread.Post
	for _, window := range windows {
		found, err := p.searcher.SearchPosts(ctx, opts.Subreddit, window)
		if err != nil {
			return nil, errors.Wrapf(err, "search failed for %s", window)
		}
		for _, post := range found {
			if seen[post.ID] {
				continue
			}
			seen[post.ID] = true
			posts = append(posts, post)
		}
	}

	p.logger.Info("found a total of %d different posts between %s-%s", len(posts), opts.StartDate, opts.EndDate)
	return posts, nil
}

// GetComments loads the classified responses of every post, in parallel.
// It also reports how many posts were served from the cache.
func (p *Pipeline) GetComments(ctx context.Context, posts []thread.Post, workers int) ([][]thread.Response, int, error) {
	var hits int64
	responses, err := ParallelMap(ctx, posts, workers, func(ctx context.Context, post thread.Post) ([]thread.Response, error) {
		rs, cached, err := p.responsesFor(ctx, post.ID)
		if cached {
			atomic.AddInt64(&hits, 1)
		}
		return rs, err
	})
	if err != nil {
		return nil, int(hits), err
	}
	return responses, int(hits), nil
}

// responsesFor checks the cache before fetching and stores what it fetched
func (p *Pipeline) responsesFor(ctx context.Context, postID core.PostID) ([]thread.Response, bool, error) {
	if p.cache != nil {
		rs, err := p.cache.Get(ctx, postID)
		if err == nil {
			p.logger.Debug("loaded cached responses for %s", postID)
			return rs, true, nil
		}
		if !core.IsCacheMiss(err) {
			return nil, false, errors.Wrapf(err, "cache lookup failed for %s", postID)
		}
	}

	raws, err := p.fetcher.FetchComments(ctx, postID)
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to fetch comments for %s", postID)
	}
	rs := thread.ParseResponses(raws)

	if p.cache != nil {
		err := p.cache.Put(ctx, postID, rs)
		switch {
		case err == nil:
		case stderrors.Is(err, core.ErrAlreadyCached):
			p.logger.Debug("responses for %s were cached by another worker", postID)
		default:
			p.logger.Warn("failed to cache responses for %s: %v", postID, err)
		}
	}
	return rs, false, nil
}

// AggregateComments labels every post from its responses, in parallel.
// posts and responses are joined by position.
func (p *Pipeline) AggregateComments(ctx context.Context, runID core.RunID, posts []thread.Post, responses [][]thread.Response, opts Options) ([]labels.Row, error) {
	if len(posts) != len(responses) {
		return nil, errors.InternalError("posts and response collections are misaligned")
	}

	indexes := make([]int, len(posts))
	for i := range indexes {
		indexes[i] = i
	}
	return ParallelMap(ctx, indexes, opts.Workers, func(_ context.Context, i int) (labels.Row, error) {
		return LabelPost(runID, posts[i], responses[i], opts.MinWeight, opts.Threshold), nil
	})
}

// LabelPost aggregates one post's responses and derives its labels
func LabelPost(runID core.RunID, post thread.Post, responses []thread.Response, minWeight int, threshold float64) labels.Row {
	return labels.NewRow(runID, post, aggregate.Aggregate(responses, minWeight), threshold)
}
