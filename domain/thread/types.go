// Package thread holds the post and response values handed between the
// fetch adapters and the labelling pipeline.
package thread

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"aitaflow/domain/core"
	"aitaflow/domain/judgement"
)

// Post is one discussion thread as returned by the search API.
type Post struct {
	ID          core.PostID `json:"id" db:"post_id"`
	Title       string      `json:"title" db:"title"`
	Score       int         `json:"score" db:"score"`
	SelfText    string      `json:"selftext" db:"selftext"`
	NumComments *int        `json:"num_comments,omitempty" db:"num_comments"`
	CreatedUTC  *int64      `json:"created_utc,omitempty" db:"created_utc"`
}

// RawComment is a top-level reply exactly as the comment API reports it.
type RawComment struct {
	ID     string
	Author string
	Body   string
	Score  int
}

// automatedAuthors are accounts whose replies are always moderation output.
var automatedAuthors = map[string]bool{
	"AutoModerator": true,
}

// Response is one classified reader reply.
//
// Judged is false when the body had no single judgement. Automated replies
// are kept in the collection but never count towards aggregation.
type Response struct {
	Body      string
	Score     int
	Judgement judgement.Judgement
	Judged    bool
	Automated bool
}

// responseJSON is the cached form; an absent judgement is null.
type responseJSON struct {
	Body      string               `json:"body"`
	Score     int                  `json:"score"`
	Judgement *judgement.Judgement `json:"judgement"`
	Automated bool                 `json:"automated,omitempty"`
}

func (r Response) MarshalJSON() ([]byte, error) {
	out := responseJSON{Body: r.Body, Score: r.Score, Automated: r.Automated}
	if r.Judged {
		j := r.Judgement
		out.Judgement = &j
	}
	return json.Marshal(out)
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var in responseJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Response{Body: in.Body, Score: in.Score, Automated: in.Automated}
	if in.Judgement != nil {
		r.Judgement = *in.Judgement
		r.Judged = true
	}
	return nil
}

// ParseResponse classifies a raw reply.
func ParseResponse(raw RawComment) Response {
	if automatedAuthors[raw.Author] || judgement.IsAutomated(raw.Body) {
		return Response{Body: raw.Body, Score: raw.Score, Automated: true}
	}

	j, ok := judgement.Classify(raw.Body)
	return Response{
		Body:      raw.Body,
		Score:     raw.Score,
		Judgement: j,
		Judged:    ok,
	}
}

// ParseResponses classifies every reply, preserving order.
func ParseResponses(raws []RawComment) []Response {
	out := make([]Response, 0, len(raws))
	for _, raw := range raws {
		out = append(out, ParseResponse(raw))
	}
	return out
}

// Relevant reports whether r may contribute to a judgement total.
func (r Response) Relevant(minWeight int) bool {
	return r.Judged && !r.Automated && r.Score > minWeight
}

func (r Response) String() string {
	summary := strings.ReplaceAll(r.Body, "\n", " ")
	if utf8.RuneCountInString(summary) > 20 {
		summary = string([]rune(summary)[:20])
	}
	verdict := "none"
	if r.Judged {
		verdict = r.Judgement.String()
	}
	return fmt.Sprintf("<judgement=%s, score=%d : body=%s...>", verdict, r.Score, summary)
}
