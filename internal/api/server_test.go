package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aitaflow/app"
	"aitaflow/domain/aggregate"
	"aitaflow/domain/core"
	"aitaflow/domain/judgement"
	"aitaflow/domain/labels"
	"aitaflow/domain/stage"
	"aitaflow/domain/thread"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Save(ctx context.Context, rows []labels.Row) error {
	return m.Called(rows).Error(0)
}

func (m *MockRepository) GetByPostID(ctx context.Context, postID core.PostID) (*labels.Row, error) {
	args := m.Called(postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*labels.Row), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, limit, offset int) ([]labels.Row, error) {
	args := m.Called(limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]labels.Row), args.Error(1)
}

type fakeRunner struct {
	stages []stage.StageResult
	rows   int
	err    error
	onRun  func(opts app.Options)
}

func (f *fakeRunner) Run(ctx context.Context, opts app.Options) (*app.Result, error) {
	if f.onRun != nil {
		f.onRun(opts)
	}
	return &app.Result{RunID: opts.RunID, Stages: f.stages, Rows: make([]labels.Row, f.rows)}, f.err
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	s := NewServer(context.Background())
	w := doJSON(t, s.Handler(), http.MethodGet, "/api/healthz", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["storage"])
}

func TestClassify(t *testing.T) {
	h := NewServer(context.Background()).Handler()

	tests := []struct {
		body      string
		judgement interface{}
		automated bool
	}{
		{"NTA, your sister is out of line", "NTA", false},
		{"NTAs everywhere", "NTA", false},
		{"YTA but also NTA", nil, false},
		{"nta", nil, false},
		{"I am a bot. YTA", nil, true},
	}

	for _, tt := range tests {
		w := doJSON(t, h, http.MethodPost, "/api/classify", classifyRequest{Body: tt.body})
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, tt.judgement, body["judgement"], tt.body)
		assert.Equal(t, tt.automated, body["automated"], tt.body)
	}
}

func TestClassifyBadRequest(t *testing.T) {
	h := NewServer(context.Background()).Handler()
	req := httptest.NewRequest(http.MethodPost, "/api/classify", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLabels(t *testing.T) {
	h := NewServer(context.Background()).Handler()

	w := doJSON(t, h, http.MethodPost, "/api/labels", map[string]interface{}{
		"distribution": map[string]float64{"YTA": 0.1, "NTA": 0.5, "NAH": 0.15, "ESH": 0.25},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp labelsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, judgement.NTA, resp.Judgement)
	assert.Equal(t, []int{0, 1, 0, 0}, resp.Labels.Multiclass)
	assert.Equal(t, []int{0, 1, 0, 1}, resp.Labels.Multilabel)
	assert.Equal(t, []float64{0.1, 0.5, 0.15, 0.25}, resp.Labels.Regression)
	assert.Equal(t, []int{0, 1}, resp.Labels.TwoClass)
}

func TestLabelsCustomThreshold(t *testing.T) {
	h := NewServer(context.Background()).Handler()

	w := doJSON(t, h, http.MethodPost, "/api/labels", map[string]interface{}{
		"distribution": map[string]float64{"YTA": 0.1, "NTA": 0.5, "NAH": 0.15, "ESH": 0.25},
		"threshold":    0.1,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp labelsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []int{1, 1, 1, 1}, resp.Labels.Multilabel)
}

func TestLabelsIncompleteDistribution(t *testing.T) {
	h := NewServer(context.Background()).Handler()

	w := doJSON(t, h, http.MethodPost, "/api/labels", map[string]interface{}{
		"distribution": map[string]float64{"YTA": 0.5, "NTA": 0.5},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], labels.ErrIncompleteDistribution.Error())
}

func TestTwoClass(t *testing.T) {
	h := NewServer(context.Background()).Handler()

	w := doJSON(t, h, http.MethodPost, "/api/labels/twoclass", twoClassRequest{Vector: []int{0, 0, 0, 1}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{float64(1), float64(0)}, decode(t, w)["twoclass_multilabel"])

	w = doJSON(t, h, http.MethodPost, "/api/labels/twoclass", twoClassRequest{Vector: []int{1, 0}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostsWithoutRepository(t *testing.T) {
	h := NewServer(context.Background()).Handler()
	w := doJSON(t, h, http.MethodGet, "/api/posts", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListPosts(t *testing.T) {
	repo := new(MockRepository)
	row := labels.NewRow("run", thread.Post{ID: "abc", Title: "AITA"}, aggregate.Weights{judgement.ESH: 40}, labels.DefaultThreshold)
	repo.On("List", 10, 20).Return([]labels.Row{row}, nil).Once()
	repo.On("List", defaultPageSize, 0).Return([]labels.Row{}, nil).Once()

	h := NewServer(context.Background(), WithRepository(repo)).Handler()

	w := doJSON(t, h, http.MethodGet, "/api/posts?limit=10&offset=20", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["count"])

	w = doJSON(t, h, http.MethodGet, "/api/posts?limit=100000", nil)
	require.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}

func TestGetPost(t *testing.T) {
	repo := new(MockRepository)
	row := labels.NewRow("run", thread.Post{ID: "abc", Title: "AITA"}, aggregate.Weights{judgement.ESH: 40}, labels.DefaultThreshold)
	repo.On("GetByPostID", core.PostID("abc")).Return(&row, nil)
	repo.On("GetByPostID", core.PostID("nope")).Return(nil, core.NewNotFoundError("post", "nope"))
	repo.On("GetByPostID", core.PostID("boom")).Return(nil, errors.New("connection refused"))

	h := NewServer(context.Background(), WithRepository(repo)).Handler()

	w := doJSON(t, h, http.MethodGet, "/api/posts/abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "abc", body["id"])
	assert.Equal(t, "ESH", body["judgement"])

	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodGet, "/api/posts/nope", nil).Code)
	assert.Equal(t, http.StatusInternalServerError, doJSON(t, h, http.MethodGet, "/api/posts/boom", nil).Code)
}

func TestRunsWithoutRunner(t *testing.T) {
	h := NewServer(context.Background()).Handler()
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, h, http.MethodPost, "/api/runs", nil).Code)
}

func TestStartRun(t *testing.T) {
	hub := NewRunHub(nil)
	defer hub.Close()

	started := make(chan app.Options, 1)
	runner := &fakeRunner{
		rows:   3,
		stages: []stage.StageResult{{StageName: stage.StageGetSubmissions, Success: true, Items: 3}},
		onRun:  func(opts app.Options) { started <- opts },
	}
	defaults := app.Options{Subreddit: "AmItheAsshole", StartDate: "2020-01-01", EndDate: "2020-01-31", ExportPath: "x.xlsx"}
	h := NewServer(context.Background(), WithRunner(runner, defaults, hub)).Handler()

	w := doJSON(t, h, http.MethodPost, "/api/runs", startRunRequest{StartDate: "2020-01-05"})
	require.Equal(t, http.StatusAccepted, w.Code)
	runID := decode(t, w)["run_id"].(string)
	require.NotEmpty(t, runID)

	select {
	case opts := <-started:
		assert.Equal(t, core.RunID(runID), opts.RunID)
		assert.Equal(t, "2020-01-05", opts.StartDate)
		assert.Equal(t, "2020-01-31", opts.EndDate)
		assert.Equal(t, "AmItheAsshole", opts.Subreddit)
		assert.Empty(t, opts.ExportPath)
	case <-time.After(time.Second):
		t.Fatal("run was not started")
	}

	assert.Eventually(t, func() bool {
		w := doJSON(t, h, http.MethodGet, "/api/runs/"+runID, nil)
		return w.Code == http.StatusOK && decode(t, w)["status"] == RunDone
	}, time.Second, 10*time.Millisecond)

	body := decode(t, doJSON(t, h, http.MethodGet, "/api/runs/"+runID, nil))
	assert.Equal(t, float64(3), body["rows"])

	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodGet, "/api/runs/missing", nil).Code)
}

func TestFailedRun(t *testing.T) {
	runner := &fakeRunner{err: errors.New("search failed")}
	h := NewServer(context.Background(), WithRunner(runner, app.Options{}, nil)).Handler()

	w := doJSON(t, h, http.MethodPost, "/api/runs", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	runID := decode(t, w)["run_id"].(string)

	assert.Eventually(t, func() bool {
		body := decode(t, doJSON(t, h, http.MethodGet, "/api/runs/"+runID, nil))
		return body["status"] == RunFailed && body["error"] == "search failed"
	}, time.Second, 10*time.Millisecond)
}

func startRun(t *testing.T, baseURL string) string {
	t.Helper()
	resp, err := http.Post(baseURL+"/api/runs", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out["run_id"].(string)
}

func getStatus(t *testing.T, baseURL, runID string) string {
	t.Helper()
	resp, err := http.Get(baseURL + "/api/runs/" + runID)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	status, _ := out["status"].(string)
	return status
}

func TestRunEventsAfterRunFinished(t *testing.T) {
	hub := NewRunHub(nil)
	defer hub.Close()

	runner := &fakeRunner{rows: 3}
	srv := httptest.NewServer(NewServer(context.Background(), WithRunner(runner, app.Options{}, hub)).Handler())
	defer srv.Close()

	runID := startRun(t, srv.URL)
	assert.Eventually(t, func() bool { return getStatus(t, srv.URL, runID) == RunDone }, time.Second, 10*time.Millisecond)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(srv.URL + "/api/runs/events?run_id=" + runID)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "event:run")
	assert.Contains(t, string(body), `"event_type":"done"`)
	assert.Contains(t, string(body), `"rows":3`)
}

func TestRunEventsAfterRunFailed(t *testing.T) {
	hub := NewRunHub(nil)
	defer hub.Close()

	runner := &fakeRunner{err: errors.New("search failed")}
	srv := httptest.NewServer(NewServer(context.Background(), WithRunner(runner, app.Options{}, hub)).Handler())
	defer srv.Close()

	runID := startRun(t, srv.URL)
	assert.Eventually(t, func() bool { return getStatus(t, srv.URL, runID) == RunFailed }, time.Second, 10*time.Millisecond)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(srv.URL + "/api/runs/events?run_id=" + runID)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"event_type":"failed"`)
	assert.Contains(t, string(body), `"error":"search failed"`)
}

func TestRunEventsUnknownRun(t *testing.T) {
	hub := NewRunHub(nil)
	defer hub.Close()

	srv := httptest.NewServer(NewServer(context.Background(), WithRunner(&fakeRunner{}, app.Options{}, hub)).Handler())
	defer srv.Close()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(srv.URL + "/api/runs/events?run_id=missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = client.Get(srv.URL + "/api/runs/events")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRunEventsReplaysEarlierStages(t *testing.T) {
	hub := NewRunHub(nil)
	defer hub.Close()

	release := make(chan struct{})
	runner := &fakeRunner{rows: 2, onRun: func(app.Options) { <-release }}
	srv := httptest.NewServer(NewServer(context.Background(), WithRunner(runner, app.Options{}, hub)).Handler())
	defer srv.Close()

	runID := startRun(t, srv.URL)
	hub.ObserveStage(core.RunID(runID), stage.Start(stage.StageGetSubmissions).Done(4, nil))

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(srv.URL + "/api/runs/events?run_id=" + runID)
	if err != nil {
		close(release)
		require.NoError(t, err)
	}
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	close(release)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	stageAt := strings.Index(text, `"stage_name":"get_submissions"`)
	doneAt := strings.Index(text, `"event_type":"done"`)
	require.GreaterOrEqual(t, stageAt, 0)
	require.GreaterOrEqual(t, doneAt, 0)
	assert.Less(t, stageAt, doneAt)
}
