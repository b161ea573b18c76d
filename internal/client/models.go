package client

import "google.golang.org/protobuf/types/known/structpb"

type Choice struct {
	ID    string
	Label string
	Count int64
}

type Question struct {
	ID      string
	Prompt  string
	Choices []Choice
}

// Ballot mirrors the server's ballot view. Times are kept as sent (RFC 3339).
type Ballot struct {
	ID          string
	Title       string
	Description string
	District    string
	PublishAt   string
	DueAt       string
	State       string
	Questions   []Question
}

type Results struct {
	Ballot    Ballot
	Receipts  int64
	Envelopes int64
	Questions []Question
}

func str(f map[string]*structpb.Value, key string) string {
	return f[key].GetStringValue()
}

func questionsFrom(v *structpb.Value) []Question {
	var out []Question
	for _, qv := range v.GetListValue().GetValues() {
		qf := qv.GetStructValue().GetFields()
		q := Question{ID: str(qf, "id"), Prompt: str(qf, "prompt")}
		for _, cv := range qf["choices"].GetListValue().GetValues() {
			cf := cv.GetStructValue().GetFields()
			q.Choices = append(q.Choices, Choice{ID: str(cf, "id"), Label: str(cf, "label"), Count: int64(cf["count"].GetNumberValue())})
		}
		out = append(out, q)
	}
	return out
}

func ballotFrom(s *structpb.Struct) Ballot {
	f := s.GetFields()
	return Ballot{
		ID:          str(f, "id"),
		Title:       str(f, "title"),
		Description: str(f, "description"),
		District:    str(f, "district"),
		PublishAt:   str(f, "publish_at"),
		DueAt:       str(f, "due_at"),
		State:       str(f, "state"),
		Questions:   questionsFrom(f["questions"]),
	}
}

func ballotsFrom(v *structpb.Value) []Ballot {
	out := []Ballot{}
	for _, bv := range v.GetListValue().GetValues() {
		out = append(out, ballotFrom(bv.GetStructValue()))
	}
	return out
}

func resultsFrom(s *structpb.Struct) *Results {
	f := s.GetFields()
	return &Results{
		Ballot:    ballotFrom(f["ballot"].GetStructValue()),
		Receipts:  int64(f["receipts"].GetNumberValue()),
		Envelopes: int64(f["envelopes"].GetNumberValue()),
		Questions: questionsFrom(f["questions"]),
	}
}
