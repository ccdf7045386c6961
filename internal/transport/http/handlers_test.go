package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"quiz-results-service/internal/app"
	"quiz-results-service/internal/domain"
	"quiz-results-service/internal/infra/memory"
)

var testSecret = []byte("test-secret-long-enough-for-hs256")

type testEnv struct {
	server  *httptest.Server
	results *app.ResultService
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	catalog := memory.NewStaticCatalog([]domain.Quiz{{
		ID:        "quiz-1",
		Title:     "Arithmetic",
		CreatedBy: "admin-1",
		IsActive:  true,
		Questions: []domain.Question{
			{ID: "q1", Text: "2 + 2?", Type: domain.MultipleChoice, Options: []string{"3", "4"}, CorrectAnswer: "4", Order: 1},
			{ID: "q2", Text: "1 + 1 = 2", Type: domain.TrueFalse, CorrectAnswer: "True", Order: 2},
		},
	}}, []domain.User{
		{ID: "admin-1", Name: "Ada", Email: "ada@example.com", Role: domain.RoleAdmin},
		{ID: "admin-2", Name: "Grace", Email: "grace@example.com", Role: domain.RoleAdmin},
		{ID: "u1", Name: "Alice", Email: "alice@example.com", Role: domain.RoleStudent},
		{ID: "u2", Name: "Bob", Email: "bob@example.com", Role: domain.RoleStudent},
	})
	quizRepo := memory.NewQuizRepository(catalog, time.Minute)
	attempts := memory.NewAttemptStore()
	hub := app.NewLeaderboardHub()
	results := app.NewResultService(attempts, quizRepo, memory.NewAttemptGuard(), hub, log)
	leaderboards := app.NewLeaderboardService(attempts, quizRepo, catalog, log)

	router := NewRouter(RouterConfig{
		Handler:   NewHandler(results, leaderboards, log),
		WSHandler: NewWSHandler(leaderboards, hub, log),
		Secret:    testSecret,
		Log:       log,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return testEnv{server: server, results: results}
}

func token(t *testing.T, userID string, role domain.Role) string {
	t.Helper()
	tok, err := IssueToken(testSecret, userID, role, time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (e testEnv) do(t *testing.T, method, path, tok, body string) (int, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return resp.StatusCode, env
}

const submitBody = `{
	"answers": [
		{"questionId": "q1", "selectedAnswer": " 4 "},
		{"questionId": "q2", "selectedAnswer": "false"}
	],
	"startTime": "2025-03-01T10:00:00Z",
	"endTime": "2025-03-01T10:03:00Z"
}`

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.server.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRequiresBearerToken(t *testing.T) {
	env := newTestEnv(t)
	status, _ := env.do(t, http.MethodGet, "/api/leaderboard/global", "", "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	status, _ = env.do(t, http.MethodGet, "/api/leaderboard/global", "not-a-jwt", "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", status)
	}
}

func TestSubmitQuizFlow(t *testing.T) {
	env := newTestEnv(t)
	alice := token(t, "u1", domain.RoleStudent)

	status, body := env.do(t, http.MethodPost, "/api/quiz/quiz-1/submit", alice, submitBody)
	if status != http.StatusOK || !body.Success {
		t.Fatalf("expected successful submit, got %d %+v", status, body)
	}
	data := body.Data.(map[string]any)
	if data["score"] != "50" || data["correctAnswers"].(float64) != 1 {
		t.Fatalf("unexpected result payload: %+v", data)
	}

	status, body = env.do(t, http.MethodPost, "/api/quiz/quiz-1/submit", alice, submitBody)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 on second attempt, got %d", status)
	}
	if body.Message != domain.ErrAlreadyAttempted.Error() {
		t.Fatalf("unexpected message %q", body.Message)
	}

	status, body = env.do(t, http.MethodGet, "/api/result/quiz/quiz-1/check-attempt", alice, "")
	if status != http.StatusOK || body.Data != true {
		t.Fatalf("expected attempted=true, got %d %+v", status, body)
	}

	status, body = env.do(t, http.MethodGet, "/api/result/quiz/quiz-1/my-result/detailed", alice, "")
	if status != http.StatusOK {
		t.Fatalf("detailed: expected 200, got %d", status)
	}
	details := body.Data.(map[string]any)["answerDetails"].([]any)
	if len(details) != 2 || details[0].(map[string]any)["isCorrect"] != true {
		t.Fatalf("unexpected details: %+v", details)
	}

	status, body = env.do(t, http.MethodGet, "/api/leaderboard/user/u1/rank/quiz/quiz-1", alice, "")
	if status != http.StatusOK || body.Data.(float64) != 1 {
		t.Fatalf("expected rank 1, got %d %+v", status, body)
	}
}

func TestSubmitQuizValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := token(t, "u1", domain.RoleStudent)

	status, body := env.do(t, http.MethodPost, "/api/quiz/quiz-1/submit", alice, `{"answers":[{"selectedAnswer":"4"}],"startTime":"2025-03-01T10:00:00Z"}`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if body.Errors["Submission.EndTime"] != "required" || body.Errors["Submission.Answers[0].QuestionID"] != "required" {
		t.Fatalf("unexpected field errors: %+v", body.Errors)
	}

	status, _ = env.do(t, http.MethodPost, "/api/quiz/quiz-1/submit", alice, `{`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", status)
	}

	status, _ = env.do(t, http.MethodPost, "/api/quiz/missing/submit", alice, submitBody)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown quiz, got %d", status)
	}
}

func TestRoleAndOwnershipChecks(t *testing.T) {
	env := newTestEnv(t)
	alice := token(t, "u1", domain.RoleStudent)
	owner := token(t, "admin-1", domain.RoleAdmin)
	other := token(t, "admin-2", domain.RoleAdmin)

	if status, _ := env.do(t, http.MethodPost, "/api/quiz/quiz-1/submit", owner, submitBody); status != http.StatusForbidden {
		t.Fatalf("admins may not submit, got %d", status)
	}
	if status, _ := env.do(t, http.MethodPost, "/api/quiz/quiz-1/submit", alice, submitBody); status != http.StatusOK {
		t.Fatalf("submit: got %d", status)
	}

	cases := []struct {
		tok    string
		path   string
		status int
	}{
		{alice, "/api/result/quiz/quiz-1", http.StatusForbidden},
		{other, "/api/result/quiz/quiz-1", http.StatusForbidden},
		{owner, "/api/result/quiz/quiz-1", http.StatusOK},
		{alice, "/api/leaderboard/user/u2/stats", http.StatusForbidden},
		{owner, "/api/leaderboard/user/u1/stats", http.StatusOK},
		{owner, "/api/leaderboard/user/ghost/stats", http.StatusNotFound},
		{alice, "/api/leaderboard/user/stats", http.StatusOK},
		{owner, "/api/result/my-results", http.StatusForbidden},
	}
	for _, tc := range cases {
		if status, _ := env.do(t, http.MethodGet, tc.path, tc.tok, ""); status != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.status, status)
		}
	}
}

func TestLeaderboardEndpoints(t *testing.T) {
	env := newTestEnv(t)
	alice := token(t, "u1", domain.RoleStudent)
	bob := token(t, "u2", domain.RoleStudent)

	env.do(t, http.MethodPost, "/api/quiz/quiz-1/submit", alice, submitBody)
	perfect := strings.Replace(submitBody, `"false"`, `"TRUE"`, 1)
	env.do(t, http.MethodPost, "/api/quiz/quiz-1/submit", bob, perfect)

	status, body := env.do(t, http.MethodGet, "/api/leaderboard/quiz/quiz-1?topCount=1", alice, "")
	if status != http.StatusOK {
		t.Fatalf("leaderboard: got %d", status)
	}
	lb := body.Data.(map[string]any)
	if lb["totalParticipants"].(float64) != 2 || lb["averageScore"] != "75" {
		t.Fatalf("unexpected leaderboard: %+v", lb)
	}
	top := lb["topPerformers"].([]any)
	if len(top) != 1 || top[0].(map[string]any)["userName"] != "Bob" {
		t.Fatalf("expected Bob alone on top, got %+v", top)
	}

	status, body = env.do(t, http.MethodGet, "/api/leaderboard/quiz/quiz-1/podium", alice, "")
	if status != http.StatusOK {
		t.Fatalf("podium: got %d", status)
	}
	podium := body.Data.(map[string]any)
	if podium["thirdPlace"] != nil || podium["secondPlace"].(map[string]any)["userId"] != "u1" {
		t.Fatalf("unexpected podium: %+v", podium)
	}

	status, body = env.do(t, http.MethodGet, "/api/leaderboard/global", alice, "")
	if status != http.StatusOK {
		t.Fatalf("global: got %d", status)
	}
	if body.Data.(map[string]any)["totalStudents"].(float64) != 2 {
		t.Fatalf("unexpected global leaderboard: %+v", body.Data)
	}

	if status, _ := env.do(t, http.MethodGet, "/api/leaderboard/quiz/nope", alice, ""); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		domain.ErrQuizNotFound:                            http.StatusNotFound,
		fmt.Errorf("wrapped: %w", domain.ErrUserNotFound): http.StatusNotFound,
		domain.ErrResultNotFound:                          http.StatusNotFound,
		domain.ErrAlreadyAttempted:                        http.StatusConflict,
		domain.ErrSubmissionInProgress:                    http.StatusConflict,
		domain.ErrEmptyQuiz:                               http.StatusBadRequest,
		domain.ErrUnauthorized:                            http.StatusForbidden,
		errMissingToken:                                   http.StatusUnauthorized,
		errors.New("connection reset"):                    http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := statusFor(err); got != want {
			t.Fatalf("%v: expected %d, got %d", err, want, got)
		}
	}
}

func TestParseToken(t *testing.T) {
	tok, err := IssueToken(testSecret, "u1", domain.RoleStudent, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	p, err := ParseToken(testSecret, tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.UserID != "u1" || p.Role != domain.RoleStudent {
		t.Fatalf("unexpected principal %+v", p)
	}

	if _, err := ParseToken([]byte("another-secret"), tok); !errors.Is(err, errMissingToken) {
		t.Fatalf("expected signature failure, got %v", err)
	}

	expired, err := IssueToken(testSecret, "u1", domain.RoleStudent, -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseToken(testSecret, expired); !errors.Is(err, errMissingToken) {
		t.Fatalf("expected expiry failure, got %v", err)
	}
}
