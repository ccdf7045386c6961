package http

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quiz-results-service/internal/app"
)

// WSHandler streams a quiz leaderboard, recomputed after every submission.
type WSHandler struct {
	leaderboards *app.LeaderboardService
	hub          *app.LeaderboardHub
	log          logrus.FieldLogger
	upgrader     websocket.Upgrader
}

func NewWSHandler(leaderboards *app.LeaderboardService, hub *app.LeaderboardHub, log logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		leaderboards: leaderboards,
		hub:          hub,
		log:          log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS sends the current leaderboard on connect and again on each update.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		writeFail(w, http.StatusBadRequest, "missing quizId")
		return
	}
	topCount := topCount(r)

	// Resolve the quiz before upgrading so unknown ids get a plain 404.
	initial, err := h.leaderboards.QuizLeaderboard(r.Context(), quizID, topCount)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	log := h.log.WithField("quiz_id", quizID)
	updates, cancel := h.hub.Subscribe(quizID)
	defer cancel()

	ctx, stop := context.WithCancel(r.Context())
	defer stop()

	send := make(chan outboundMessage, 4)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("ws write failed")
				stop()
				return
			}
		}
	}()

	// The client only sends control frames; reading surfaces the close.
	go func() {
		defer stop()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send <- outboundMessage{Type: "leaderboard", Payload: initial}
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case _, ok := <-updates:
			if !ok {
				break loop
			}
			msg := h.snapshot(ctx, log, quizID, topCount)
			select {
			case send <- msg:
			case <-ctx.Done():
				break loop
			}
		}
	}

	close(send)
	<-writerDone
}

func (h *WSHandler) snapshot(ctx context.Context, log logrus.FieldLogger, quizID string, topCount int) outboundMessage {
	lb, err := h.leaderboards.QuizLeaderboard(ctx, quizID, topCount)
	if err != nil {
		log.WithError(err).Warn("leaderboard refresh failed")
		msg := "leaderboard unavailable"
		if statusFor(err) != http.StatusInternalServerError {
			msg = err.Error()
		}
		return outboundMessage{Type: "error", Payload: errorPayload{Message: msg}}
	}
	return outboundMessage{Type: "leaderboard", Payload: lb}
}
