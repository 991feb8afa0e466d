package service

import (
	"log/slog"
	"sync"

	"github.com/stridelab/pacequest/internal/repository"
)

// QuestSync advances stored quest progress asynchronously, outside the
// award transaction. The advancement only affects future reads of quest
// state, never reward correctness, so best-effort delivery is acceptable;
// folding it into the award transaction would make that transaction span
// unrelated state for no correctness gain.
type QuestSync struct {
	quests repository.QuestRepository

	mu       sync.RWMutex
	closed   bool
	updates  chan questUpdate
	finished chan struct{}
}

type questUpdate struct {
	questID string
	delta   float64
}

func NewQuestSync(quests repository.QuestRepository) *QuestSync {
	s := &QuestSync{
		quests:   quests,
		updates:  make(chan questUpdate, 64),
		finished: make(chan struct{}),
	}
	go s.run()
	return s
}

// Enqueue schedules an additive progress advancement. Updates arriving
// after shutdown are dropped with a log line.
func (s *QuestSync) Enqueue(questID string, delta float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		slog.Warn("quest sync stopped, dropping update", "quest_id", questID)
		return
	}
	s.updates <- questUpdate{questID: questID, delta: delta}
}

func (s *QuestSync) run() {
	defer close(s.finished)
	for u := range s.updates {
		err := s.quests.AdvanceProgress(u.questID, u.delta)
		if err != nil {
			slog.Error("quest progress sync failed",
				"quest_id", u.questID,
				"delta", u.delta,
				"error", err,
			)
		}
	}
}

// Close stops intake, drains pending updates, and waits for the worker.
func (s *QuestSync) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.updates)
	<-s.finished
}
