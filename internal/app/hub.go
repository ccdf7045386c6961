package app

import (
	"sync"

	"quiz-results-service/internal/domain"
)

// LeaderboardHub fans out per-quiz leaderboard notifications to in-process subscribers.
type LeaderboardHub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.LeaderboardUpdate]struct{}
}

func NewLeaderboardHub() *LeaderboardHub {
	return &LeaderboardHub{subscribers: make(map[string]map[chan domain.LeaderboardUpdate]struct{})}
}

// Subscribe returns a channel receiving updates for quizID.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *LeaderboardHub) Subscribe(quizID string) (<-chan domain.LeaderboardUpdate, func()) {
	ch := make(chan domain.LeaderboardUpdate, 8)

	h.mu.Lock()
	subs, ok := h.subscribers[quizID]
	if !ok {
		subs = make(map[chan domain.LeaderboardUpdate]struct{})
		h.subscribers[quizID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.subscribers[quizID]
		if _, ok := subs[ch]; !ok {
			return
		}
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.subscribers, quizID)
		}
	}
	return ch, cancel
}

// Publish delivers update to every subscriber of its quiz without blocking.
func (h *LeaderboardHub) Publish(update domain.LeaderboardUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[update.QuizID] {
		select {
		case ch <- update:
		default:
			// slow reader: drop the oldest pending update, keep the newest
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}

// Subscribers reports how many channels are listening on quizID.
func (h *LeaderboardHub) Subscribers(quizID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[quizID])
}
