package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/victornm/grammarquiz/internal/domain"
	"github.com/victornm/grammarquiz/internal/score"
)

type (
	StartQuizResponse struct {
		SessionID string     `json:"sessionId"`
		Questions []Question `json:"questions"`
	}

	Question struct {
		ID           string   `json:"id"`
		ContentEn    string   `json:"contentEn"`
		GrammarTopic string   `json:"grammarTopic"`
		TopicNumber  int      `json:"topicNumber"`
		Answers      []Answer `json:"answers"`
	}

	Answer struct {
		ID     string `json:"id"`
		TextEn string `json:"textEn"`
	}

	SubmitQuizRequest struct {
		SessionID string             `json:"sessionId" binding:"required"`
		Answers   []SubmissionAnswer `json:"answers"`
	}

	SubmissionAnswer struct {
		QuestionID       string `json:"questionId"`
		SelectedAnswerID string `json:"selectedAnswerId"`
	}

	QuizResult struct {
		Score          int          `json:"score"`
		TotalQuestions int          `json:"totalQuestions"`
		Percentage     int          `json:"percentage"`
		AnswersData    []AnswerData `json:"answersData"`
	}

	AnswerData struct {
		QuestionID       string `json:"questionId"`
		SelectedAnswerID string `json:"selectedAnswerId"`
		IsCorrect        bool   `json:"isCorrect"`
		GrammarTopic     string `json:"grammarTopic"`
		TopicNumber      int    `json:"topicNumber"`
	}

	ResultsResponse struct {
		Score          int              `json:"score"`
		TotalQuestions int              `json:"totalQuestions"`
		Percentage     int              `json:"percentage"`
		Questions      []QuestionReview `json:"questions"`
	}

	QuestionReview struct {
		ID            string `json:"id"`
		QuestionText  string `json:"questionText"`
		UserAnswer    string `json:"userAnswer"`
		CorrectAnswer string `json:"correctAnswer"`
		IsCorrect     bool   `json:"isCorrect"`
		Explanation   string `json:"explanation"`
		GrammarTopic  string `json:"grammarTopic"`
		TopicNumber   int    `json:"topicNumber"`
	}
)

// StartQuiz samples a new quiz. The answers never reveal which one is correct.
func (a *API) StartQuiz(c *gin.Context) {
	ss, err := a.qs.StartQuiz(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}

	resp := StartQuizResponse{
		SessionID: ss.SessionID,
		Questions: make([]Question, 0, len(ss.Questions)),
	}

	for _, q := range ss.Questions {
		out := Question{
			ID:           q.QuestionID,
			ContentEn:    q.Content,
			GrammarTopic: q.GrammarTopic,
			TopicNumber:  q.TopicNumber,
			Answers:      make([]Answer, 0, len(q.Answers)),
		}
		for _, ans := range q.Answers {
			out.Answers = append(out.Answers, Answer{ID: ans.AnswerID, TextEn: ans.Text})
		}
		resp.Questions = append(resp.Questions, out)
	}

	c.JSON(http.StatusOK, resp)
}

func (a *API) SubmitQuiz(c *gin.Context) {
	var req SubmitQuizRequest
	if !a.bind(c, &req) {
		return
	}

	subs := make([]domain.Submission, 0, len(req.Answers))
	for _, ans := range req.Answers {
		subs = append(subs, domain.Submission{QuestionID: ans.QuestionID, SelectedAnswerID: ans.SelectedAnswerID})
	}

	r, err := a.ss.Score(c.Request.Context(), score.ScoreRequest{
		SessionID:   req.SessionID,
		Submissions: subs,
	})
	if err != nil {
		a.fail(c, err)
		return
	}

	resp := QuizResult{
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		Percentage:     r.Percentage,
		AnswersData:    make([]AnswerData, 0, len(r.Answers)),
	}
	for _, ans := range r.Answers {
		resp.AnswersData = append(resp.AnswersData, AnswerData{
			QuestionID:       ans.QuestionID,
			SelectedAnswerID: ans.SelectedAnswerID,
			IsCorrect:        ans.IsCorrect,
			GrammarTopic:     ans.GrammarTopic,
			TopicNumber:      ans.TopicNumber,
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (a *API) GetResults(c *gin.Context) {
	r, err := a.ss.GetResults(c.Request.Context(), score.GetResultsRequest{
		SessionID: c.Param("sessionId"),
		Language:  c.Query("language"),
	})
	if err != nil {
		a.fail(c, err)
		return
	}

	resp := ResultsResponse{
		Score:          r.Result.Score,
		TotalQuestions: r.Result.TotalQuestions,
		Percentage:     r.Result.Percentage,
		Questions:      make([]QuestionReview, 0, len(r.Questions)),
	}
	for _, q := range r.Questions {
		resp.Questions = append(resp.Questions, QuestionReview{
			ID:            q.QuestionID,
			QuestionText:  q.QuestionText,
			UserAnswer:    q.UserAnswer,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     q.IsCorrect,
			Explanation:   q.Explanation,
			GrammarTopic:  q.GrammarTopic,
			TopicNumber:   q.TopicNumber,
		})
	}

	c.JSON(http.StatusOK, resp)
}
