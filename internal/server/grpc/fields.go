package grpc

import (
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/lifecycle"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/services"
)

const dateLayout = "2006-01-02"

func stringField(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

func requiredString(req *structpb.Struct, key string) (string, error) {
	v := stringField(req, key)
	if v == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return v, nil
}

func boolField(req *structpb.Struct, key string) bool {
	return req.GetFields()[key].GetBoolValue()
}

// timeField parses an RFC 3339 value. Absent or empty means nil.
func timeField(req *structpb.Struct, key string) (*time.Time, error) {
	v := stringField(req, key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%s: expected RFC 3339 time", key)
	}
	t = t.UTC()
	return &t, nil
}

func dateField(req *structpb.Struct, key string) (*time.Time, error) {
	v := stringField(req, key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%s: expected YYYY-MM-DD", key)
	}
	return &t, nil
}

// selectionsField reads the "selections" object as posted by a form.
// Non-string values are dropped, like any other malformed selection.
func selectionsField(req *structpb.Struct) map[string]string {
	out := map[string]string{}
	for k, v := range req.GetFields()["selections"].GetStructValue().GetFields() {
		if sv, ok := v.GetKind().(*structpb.Value_StringValue); ok {
			out[k] = sv.StringValue
		}
	}
	return out
}

func ballotInput(req *structpb.Struct) (services.BallotInput, error) {
	publish, err := timeField(req, "publish_at")
	if err != nil {
		return services.BallotInput{}, err
	}
	due, err := timeField(req, "due_at")
	if err != nil {
		return services.BallotInput{}, err
	}
	return services.BallotInput{
		Title:       stringField(req, "title"),
		Description: stringField(req, "description"),
		District:    stringField(req, "district"),
		PublishAt:   publish,
		DueAt:       due,
	}, nil
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func ballotValue(b *models.Ballot, now time.Time) map[string]any {
	v := map[string]any{
		"id":          b.ID,
		"title":       b.Title,
		"description": b.Description,
		"district":    b.District,
		"publish_at":  formatTime(&b.PublishAt),
		"due_at":      formatTime(b.DueAt),
		"state":       lifecycle.Classify(b, now).String(),
	}
	if b.Questions != nil {
		qs := make([]any, 0, len(b.Questions))
		for _, q := range b.Questions {
			choices := make([]any, 0, len(q.Choices))
			for _, c := range q.Choices {
				choices = append(choices, map[string]any{"id": c.ID, "label": c.Label})
			}
			qs = append(qs, map[string]any{"id": q.ID, "prompt": q.Prompt, "choices": choices})
		}
		v["questions"] = qs
	}
	return v
}

func ballotList(bs []models.Ballot, now time.Time) []any {
	out := make([]any, 0, len(bs))
	for i := range bs {
		out = append(out, ballotValue(&bs[i], now))
	}
	return out
}

func resultsValue(res *services.BallotResults, now time.Time) map[string]any {
	qs := make([]any, 0, len(res.Questions))
	for _, q := range res.Questions {
		choices := make([]any, 0, len(q.Choices))
		for _, c := range q.Choices {
			choices = append(choices, map[string]any{"id": c.ChoiceID, "label": c.Label, "count": c.Count})
		}
		qs = append(qs, map[string]any{"id": q.QuestionID, "prompt": q.Prompt, "choices": choices})
	}
	return map[string]any{
		"ballot":    ballotValue(&res.Ballot, now),
		"receipts":  res.Receipts,
		"envelopes": res.Envelopes,
		"questions": qs,
	}
}

func countsValue(counts map[string]int64) map[string]any {
	out := make(map[string]any, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}
