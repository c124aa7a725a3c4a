package echoapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	aisvc "github.com/AmelJaballah/SmartLearn-mern-project/services/ai"
)

const (
	subjectsCacheKey = "ai:subjects"

	defaultDifficulty   = "medium"
	defaultExerciseType = "multiple-choice"
	legacyExerciseType  = "problem-solving"
	defaultSearchK      = 5
	maxExerciseCount    = 10
)

var (
	DefaultSubjects = []string{"Mathematics", "Algebra", "Calculus", "Statistics", "Trigonometry", "Geometry"}

	jsonObjectRegex = regexp.MustCompile(`(?s)\{.*\}`)
)

type aiApi struct {
	client   *aisvc.Client
	cache    core.Cache
	logger   core.Logger
	validate *validator.Validate
}

func registerAIAPI(g *echo.Group, auth *Auth, client *aisvc.Client, cache core.Cache, logger core.Logger, validate *validator.Validate) {
	api := aiApi{client: client, cache: cache, logger: logger, validate: validate}

	ag := g.Group("/ai", auth.Middleware())

	// exercises
	ag.POST("/generate-exercise", api.generateExercise)
	ag.GET("/subjects", api.subjects)
	ag.POST("/exercise/generate", api.generateExercises)
	ag.GET("/exercise/subjects", api.exerciseSubjects)
	ag.POST("/exercise/check", api.checkAnswer)

	// tutor
	ag.POST("/chat", api.chat)
	ag.POST("/search", api.search)

	// sentiment
	ag.POST("/analyze-sentiment", api.analyzeSentiment)
	ag.POST("/batch-sentiment", api.batchSentiment)

	ag.GET("/services-health", api.servicesHealth)
}

// Requests

type (
	GenerateExerciseRequest struct {
		Subject           string `json:"subject" validate:"required"`
		Difficulty        string `json:"difficulty"`
		ExerciseType      string `json:"exerciseType"`
		AdditionalContext string `json:"additionalContext"`
	}

	GenerateExercisesRequest struct {
		Subject    string      `json:"subject"`
		Topic      string      `json:"topic"`
		Difficulty string      `json:"difficulty"`
		Count      interface{} `json:"count"` // number or numeric string
	}

	// CheckAnswerRequest accepts both the `expected`/`student` and the `correctAnswer`/`userAnswer` shapes.
	CheckAnswerRequest struct {
		Exercise      *CheckedExercise `json:"exercise"`
		UserAnswer    json.RawMessage  `json:"userAnswer"`
		CorrectAnswer json.RawMessage  `json:"correctAnswer"`
		Expected      json.RawMessage  `json:"expected"`
		Student       json.RawMessage  `json:"student"`
	}

	CheckedExercise struct {
		Question      string          `json:"question"`
		Answer        json.RawMessage `json:"answer"`
		SolutionSteps json.RawMessage `json:"solution_steps"`
	}

	ChatRequest struct {
		Message   string           `json:"message" validate:"required"`
		SessionID *string          `json:"sessionId"`
		History   []aisvc.ChatTurn `json:"history"`
	}

	SearchRequest struct {
		Query string `json:"query" validate:"required"`
		K     int    `json:"k" validate:"min=0"`
	}

	SentimentRequest struct {
		Text    string          `json:"text"`
		Reviews json.RawMessage `json:"reviews"`
	}
)

func (r *GenerateExerciseRequest) Validate(validate *validator.Validate) error {
	r.Subject = core.CleanString(r.Subject)
	if r.Difficulty = core.CleanString(r.Difficulty); r.Difficulty == "" {
		r.Difficulty = defaultDifficulty
	}
	if r.ExerciseType = core.CleanString(r.ExerciseType); r.ExerciseType == "" {
		r.ExerciseType = defaultExerciseType
	}
	return validate.Struct(r)
}

func (r *GenerateExercisesRequest) Validate(_ *validator.Validate) error {
	r.Subject = core.CleanString(r.Subject)
	r.Topic = core.CleanString(r.Topic)
	if r.Subject == "" {
		r.Subject = r.Topic
	}
	if r.Subject == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "subject", Error: "subject or topic is required"})
	}
	if r.Difficulty = core.CleanString(r.Difficulty); r.Difficulty == "" {
		r.Difficulty = defaultDifficulty
	}
	return nil
}

// count returns the requested number of exercises, clamped to [1, maxExerciseCount].
func (r GenerateExercisesRequest) count() int {
	var n int
	switch v := r.Count.(type) {
	case float64:
		n = int(v)
	case string:
		n, _ = strconv.Atoi(strings.TrimSpace(v))
	}
	if n < 1 {
		return 1
	}
	if n > maxExerciseCount {
		return maxExerciseCount
	}
	return n
}

func (r *CheckAnswerRequest) Validate(_ *validator.Validate) error {
	if r.student() == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "student", Error: "student answer is required"})
	}
	return nil
}

func (r CheckAnswerRequest) student() string {
	if s := answerString(r.Student); s != "" {
		return s
	}
	return answerString(r.UserAnswer)
}

func (r CheckAnswerRequest) expected() string {
	if s := answerString(r.Expected); s != "" {
		return s
	}
	if s := answerString(r.CorrectAnswer); s != "" {
		return s
	}
	if r.Exercise != nil {
		return answerString(r.Exercise.Answer)
	}
	return ""
}

func (r CheckAnswerRequest) question() string {
	if r.Exercise != nil && r.Exercise.Question != "" {
		return r.Exercise.Question
	}
	return "Unknown question"
}

func (r CheckAnswerRequest) solutionSteps() json.RawMessage {
	if r.Exercise != nil && isJSONArray(r.Exercise.SolutionSteps) {
		return r.Exercise.SolutionSteps
	}
	return json.RawMessage("[]")
}

func (r *ChatRequest) Validate(validate *validator.Validate) error {
	if r.History == nil {
		r.History = []aisvc.ChatTurn{}
	}
	return validate.Struct(r)
}

func (r *SearchRequest) Validate(validate *validator.Validate) error {
	r.Query = core.CleanString(r.Query)
	if r.K == 0 {
		r.K = defaultSearchK
	}
	return validate.Struct(r)
}

// answerString renders an answer of any JSON type as text: strings are unquoted, null is empty.
func answerString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func isJSONArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// Handlers

func (api *aiApi) generateExercise(ctx echo.Context) error {
	var data GenerateExerciseRequest
	if err := bindValid(ctx, &data, api.validate, "GenerateExerciseRequest"); err != nil {
		return err
	}

	res, err := api.client.GenerateExercise(ctx.Request().Context(), data.Subject, data.Difficulty, data.ExerciseType, data.AdditionalContext)
	if err != nil {
		return errors.Wrap(err, "generating exercise")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"exercise":      res.Exercise,
		"retrievedDocs": res.RetrievedDocs,
	})
}

func (api *aiApi) subjects(ctx echo.Context) error {
	res, err := api.client.Subjects(ctx.Request().Context())
	if err != nil {
		api.logger.Warn("fetching subjects", err)
		return ctx.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to fetch subjects", "subjects": []string{}})
	}
	subjects := res.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "subjects": subjects})
}

// generateExercises asks for a batch of exercises and falls back to the single exercise endpoint.
// When both fail, the error of the batch call is returned.
func (api *aiApi) generateExercises(ctx echo.Context) error {
	var data GenerateExercisesRequest
	if err := bindValid(ctx, &data, api.validate, "GenerateExercisesRequest"); err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()

	res, err := api.client.GenerateExercises(reqCtx, data.Subject, data.Difficulty, data.count())
	if err == nil {
		total := res.Total
		if total == 0 {
			total = 1
		}
		subject := res.Subject
		if subject == "" {
			subject = data.Subject
		}
		difficulty := res.Difficulty
		if difficulty == "" {
			difficulty = data.Difficulty
		}
		return ctx.JSON(http.StatusOK, echo.Map{
			"success":    true,
			"exercises":  res.List(),
			"total":      total,
			"subject":    subject,
			"difficulty": difficulty,
		})
	}
	api.logger.Warn("batch exercise generation failed, trying the legacy endpoint", err)

	legacy, fbErr := api.client.GenerateExercise(reqCtx, data.Subject, data.Difficulty, legacyExerciseType, "")
	if fbErr != nil {
		return errors.Wrap(err, "generating exercises")
	}
	exercises := []json.RawMessage{}
	if len(legacy.Exercise) > 0 && !bytes.Equal(legacy.Exercise, []byte("null")) {
		exercises = append(exercises, legacy.Exercise)
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"exercises":  exercises,
		"total":      1,
		"subject":    data.Subject,
		"difficulty": data.Difficulty,
	})
}

// exerciseSubjects never fails: the last known subjects, then the default ones, stand in for the service.
func (api *aiApi) exerciseSubjects(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	res, err := api.client.Subjects(reqCtx)
	if err == nil {
		if len(res.Subjects) == 0 {
			return ctx.JSON(http.StatusOK, echo.Map{"success": true, "subjects": DefaultSubjects})
		}
		if api.cache != nil {
			if cErr := api.cache.SetJSON(reqCtx, subjectsCacheKey, res.Subjects); cErr != nil {
				api.logger.Warn("caching subjects", cErr)
			}
		}
		return ctx.JSON(http.StatusOK, echo.Map{"success": true, "subjects": res.Subjects})
	}
	api.logger.Warn("fetching subjects, using fallback", err)

	subjects := DefaultSubjects
	if api.cache != nil {
		var cached []string
		switch cErr := api.cache.GetJSON(reqCtx, subjectsCacheKey, &cached); {
		case cErr == nil && len(cached) > 0:
			subjects = cached
		case cErr != nil && !errors.Is(cErr, core.ErrCacheMiss):
			api.logger.Warn("reading cached subjects", cErr)
		}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "subjects": subjects, "fromCache": true})
}

type gradedAnswer struct {
	Correct  *bool           `json:"correct"`
	Feedback string          `json:"feedback"`
	Steps    json.RawMessage `json:"steps"`
}

// checkAnswer grades with the exercise service, then with the tutor model, then by plain comparison.
func (api *aiApi) checkAnswer(ctx echo.Context) error {
	var data CheckAnswerRequest
	if err := bindValid(ctx, &data, api.validate, "CheckAnswerRequest"); err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	expected, student := data.expected(), data.student()

	res, err := api.client.CheckAnswer(reqCtx, expected, student)
	if err == nil {
		feedback := "Not quite right."
		if res.Correct {
			feedback = "Correct!"
		}
		return ctx.JSON(http.StatusOK, echo.Map{
			"success":  true,
			"correct":  res.Correct,
			"expected": res.Expected,
			"student":  res.Student,
			"feedback": feedback,
		})
	}
	api.logger.Info("answer check service failed, grading with the tutor", err)

	if graded, ok := api.gradeWithTutor(ctx, data.question(), expected, student); ok {
		steps := graded.Steps
		if !isJSONArray(steps) {
			steps = data.solutionSteps()
		}
		return ctx.JSON(http.StatusOK, echo.Map{
			"success":  true,
			"correct":  *graded.Correct,
			"feedback": graded.Feedback,
			"steps":    steps,
		})
	}

	correct := strings.EqualFold(strings.TrimSpace(expected), strings.TrimSpace(student))
	feedback := "Your answer is not quite right. Review the solution below."
	if correct {
		feedback = "Your answer is correct! Well done!"
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"correct":  correct,
		"feedback": feedback,
		"steps":    data.solutionSteps(),
	})
}

// gradeWithTutor asks the chat model for a verdict and reads the first JSON object of its reply.
func (api *aiApi) gradeWithTutor(ctx echo.Context, question, expected, student string) (gradedAnswer, bool) {
	if expected == "" {
		expected = "Unknown"
	}
	prompt := fmt.Sprintf(`Question: %s
Correct Answer: %s
User's Answer: %s

Evaluate if the user's answer is correct. Consider:
1. Is the answer mathematically/logically equivalent?
2. Is the reasoning sound?

Respond with JSON:
{
  "correct": true/false,
  "feedback": "explanation",
  "steps": ["step 1", "step 2", ...]
}`, question, expected, student)

	res, err := api.client.Chat(ctx.Request().Context(), prompt, nil, nil)
	if err != nil {
		api.logger.Info("tutor grading failed, comparing answers", err)
		return gradedAnswer{}, false
	}
	match := jsonObjectRegex.FindString(res.Response)
	if match == "" {
		return gradedAnswer{}, false
	}
	var graded gradedAnswer
	if err = json.Unmarshal([]byte(match), &graded); err != nil || graded.Correct == nil {
		return gradedAnswer{}, false
	}
	return graded, true
}

func (api *aiApi) chat(ctx echo.Context) error {
	var data ChatRequest
	if err := bindValid(ctx, &data, api.validate, "ChatRequest"); err != nil {
		return err
	}

	res, err := api.client.Chat(ctx.Request().Context(), data.Message, data.SessionID, data.History)
	if err != nil {
		return errors.Wrap(err, "chatting")
	}
	sources := res.Sources
	if sources == nil {
		sources = []json.RawMessage{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "response": res.Response, "sources": sources})
}

func (api *aiApi) search(ctx echo.Context) error {
	var data SearchRequest
	if err := bindValid(ctx, &data, api.validate, "SearchRequest"); err != nil {
		return err
	}

	res, err := api.client.Search(ctx.Request().Context(), data.Query, data.K)
	if err != nil {
		api.logger.Warn("searching knowledge base", err)
		return ctx.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	results := res.Results
	if results == nil {
		results = []json.RawMessage{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "results": results, "count": res.Count})
}

func (api *aiApi) analyzeSentiment(ctx echo.Context) error {
	var data SentimentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SentimentRequest")
	}
	reqCtx := ctx.Request().Context()

	if text := strings.TrimSpace(data.Text); text != "" {
		res, err := api.client.AnalyzeSentiment(reqCtx, text)
		if err != nil {
			return errors.Wrap(err, "analyzing sentiment")
		}
		return ctx.JSON(http.StatusOK, echo.Map{
			"success":    true,
			"sentiment":  res.Sentiment,
			"label":      res.Label,
			"confidence": res.Confidence,
		})
	}
	if !isJSONArray(data.Reviews) {
		return core.NewValidationError(nil, core.FieldError{Field: "text", Error: "text or reviews array is required"})
	}
	return api.analyzeBatch(ctx, data.Reviews)
}

func (api *aiApi) batchSentiment(ctx echo.Context) error {
	var data SentimentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SentimentRequest")
	}
	if !isJSONArray(data.Reviews) {
		return core.NewValidationError(nil, core.FieldError{Field: "reviews", Error: "reviews array is required"})
	}
	return api.analyzeBatch(ctx, data.Reviews)
}

func (api *aiApi) analyzeBatch(ctx echo.Context, raw json.RawMessage) error {
	var reviews []string
	if err := json.Unmarshal(raw, &reviews); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "reviews", Error: "reviews must be a list of texts"})
	}

	res, err := api.client.BatchAnalyzeSentiment(ctx.Request().Context(), reviews)
	if err != nil {
		return errors.Wrap(err, "analyzing sentiments")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"results":    res.Results,
		"statistics": res.Statistics,
	})
}

func (api *aiApi) servicesHealth(ctx echo.Context) error {
	report := api.client.CheckHealth(ctx.Request().Context())
	return ctx.JSON(report.HTTPStatus(), report)
}
