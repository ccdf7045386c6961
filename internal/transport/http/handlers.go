package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"quiz-results-service/internal/app"
	"quiz-results-service/internal/domain"
)

// Handler serves the result and leaderboard endpoints.
type Handler struct {
	results      *app.ResultService
	leaderboards *app.LeaderboardService
	validate     *validator.Validate
	log          logrus.FieldLogger
}

func NewHandler(results *app.ResultService, leaderboards *app.LeaderboardService, log logrus.FieldLogger) *Handler {
	return &Handler{
		results:      results,
		leaderboards: leaderboards,
		validate:     validator.New(),
		log:          log,
	}
}

func (h *Handler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	quizID := chi.URLParam(r, "quizId")

	var submission domain.Submission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(submission); err != nil {
		writeValidation(w, err)
		return
	}

	result, err := h.results.Submit(r.Context(), quizID, p.UserID, submission)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeOK(w, "Quiz submitted successfully", result)
}

// GetQuizResults is limited to the admin who created the quiz.
func (h *Handler) GetQuizResults(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	quizID := chi.URLParam(r, "quizId")

	if err := h.results.AuthorizeQuizOwner(r.Context(), quizID, p.UserID); err != nil {
		writeError(w, h.log, err)
		return
	}
	results, err := h.results.GetQuizResults(r.Context(), quizID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeOK(w, "Quiz results retrieved", results)
}

func (h *Handler) GetMyResults(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	results, err := h.results.GetUserResults(r.Context(), p.UserID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeOK(w, "Results retrieved", results)
}

func (h *Handler) GetMyQuizResult(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	result, err := h.results.GetResult(r.Context(), p.UserID, chi.URLParam(r, "quizId"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeOK(w, "Result retrieved", result)
}

func (h *Handler) GetMyDetailedQuizResult(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	detail, err := h.results.GetDetailedResult(r.Context(), p.UserID, chi.URLParam(r, "quizId"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeOK(w, "Detailed result retrieved", detail)
}

func (h *Handler) CheckAttempt(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	attempted, err := h.results.HasAttempted(r.Context(), p.UserID, chi.URLParam(r, "quizId"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeOK(w, "Attempt status retrieved", attempted)
}

func (h *Handler) GetQuizLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.leaderboards.QuizLeaderboard(r.Context(), chi.URLParam(r, "quizId"), topCount(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeOK(w, "Leaderboard retrieved", lb)
}

func (h *Handler) GetGlobalLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.leaderboards.GlobalLeaderboard(r.Context(), topCount(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeOK(w, "Global leaderboard retrieved", lb)
}

func (h *Handler) GetQuizPodium(w http.ResponseWriter, r *http.Request) {
	podium, err := h.leaderboards.QuizPodium(r.Context(), chi.URLParam(r, "quizId"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeOK(w, "Podium retrieved", podium)
}

func (h *Handler) GetMyStats(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	h.writeStats(w, r, p.UserID)
}

func (h *Handler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	h.writeStats(w, r, chi.URLParam(r, "userId"))
}

func (h *Handler) writeStats(w http.ResponseWriter, r *http.Request, userID string) {
	stats, err := h.leaderboards.UserStats(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeOK(w, "User stats retrieved", stats)
}

func (h *Handler) GetUserRankInQuiz(w http.ResponseWriter, r *http.Request) {
	rank, err := h.leaderboards.UserRankInQuiz(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "quizId"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeOK(w, "Rank retrieved", rank)
}

// topCount reads ?topCount=, leaving defaulting of bad or missing values to the service.
func topCount(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("topCount"))
	if err != nil {
		return 0
	}
	return n
}
