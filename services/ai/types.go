package aisvc

import (
	"bytes"
	"encoding/json"
)

type (
	ExerciseRequest struct {
		Subject           string `json:"subject"`
		Difficulty        string `json:"difficulty"`
		ExerciseType      string `json:"exerciseType"`
		AdditionalContext string `json:"additionalContext"`
	}

	ExerciseResult struct {
		Exercise      json.RawMessage `json:"exercise"`
		RetrievedDocs int             `json:"retrievedDocs"`
	}

	BatchExerciseRequest struct {
		Subject    string `json:"subject"`
		Difficulty string `json:"difficulty"`
		Count      int    `json:"count"`
	}

	BatchExerciseResult struct {
		Exercises  []json.RawMessage `json:"exercises"`
		Exercise   json.RawMessage   `json:"exercise,omitempty"` // older services answer with a single exercise
		Total      int               `json:"total"`
		Subject    string            `json:"subject"`
		Difficulty string            `json:"difficulty"`
	}

	CheckAnswerRequest struct {
		Expected string `json:"expected"`
		Student  string `json:"student"`
	}

	CheckAnswerResult struct {
		Correct  bool            `json:"correct"`
		Expected json.RawMessage `json:"expected"`
		Student  json.RawMessage `json:"student"`
	}

	// SubjectsResult accepts both `{"subjects": [...]}` and a bare array.
	SubjectsResult struct {
		Subjects []string `json:"subjects"`
	}

	ChatTurn struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	ChatRequest struct {
		Message   string     `json:"message"`
		SessionID *string    `json:"sessionId"`
		History   []ChatTurn `json:"history"`
	}

	ChatResult struct {
		Response string            `json:"response"`
		Sources  []json.RawMessage `json:"sources"`
	}

	SearchRequest struct {
		Query string `json:"query"`
		K     int    `json:"k"`
	}

	SearchResult struct {
		Results []json.RawMessage `json:"results"`
		Count   int               `json:"count"`
	}

	SentimentRequest struct {
		Text string `json:"text"`
	}

	SentimentResult struct {
		Sentiment  string  `json:"sentiment"`
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}

	BatchSentimentRequest struct {
		Reviews []string `json:"reviews"`
	}

	SentimentStatistics struct {
		Total             int     `json:"total"`
		Positive          int     `json:"positive"`
		Negative          int     `json:"negative"`
		Neutral           int     `json:"neutral"`
		AverageConfidence float64 `json:"average_confidence"`
	}

	BatchSentimentResult struct {
		Results    []SentimentResult   `json:"results"`
		Statistics SentimentStatistics `json:"statistics"`
	}
)

func (r *SubjectsResult) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &r.Subjects)
	}
	type alias SubjectsResult
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = SubjectsResult(a)
	return nil
}

// List returns the generated exercises, falling back to the single exercise of older services.
func (r BatchExerciseResult) List() []json.RawMessage {
	if len(r.Exercises) > 0 {
		return r.Exercises
	}
	if len(r.Exercise) > 0 && !bytes.Equal(r.Exercise, []byte("null")) {
		return []json.RawMessage{r.Exercise}
	}
	return []json.RawMessage{}
}

// Count returns the number of analyzed reviews.
func (r BatchSentimentResult) Count() int {
	if r.Statistics.Total > 0 {
		return r.Statistics.Total
	}
	return len(r.Results)
}
