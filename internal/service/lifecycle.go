package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stridelab/pacequest/internal/model"
	"github.com/stridelab/pacequest/internal/progress"
	"github.com/stridelab/pacequest/internal/repository"
)

var (
	ErrChallengeFull   = errors.New("challenge is full")
	ErrChallengeClosed = errors.New("challenge is not active")
)

// questTemplate is one of the fixed daily quest archetypes. Goals scale
// with the user's rolling averages and level.
type questTemplate struct {
	key      string
	title    string
	unit     model.Unit
	baseGoal float64
	xpReward int
}

// The six daily archetypes.
var dailyTemplates = []questTemplate{
	{key: "daily_distance", title: "Cover the Distance", unit: model.UnitDistance, baseGoal: 3, xpReward: 80},
	{key: "daily_duration", title: "Stay Moving", unit: model.UnitDuration, baseGoal: 30, xpReward: 60},
	{key: "daily_steps", title: "Step It Up", unit: model.UnitSteps, baseGoal: 6000, xpReward: 60},
	{key: "daily_calories", title: "Burn Bright", unit: model.UnitCalories, baseGoal: 300, xpReward: 70},
	{key: "daily_reps", title: "Strength Circuit", unit: model.UnitReps, baseGoal: 50, xpReward: 70},
	{key: "daily_pace", title: "Hold the Pace", unit: model.UnitPace, baseGoal: 7.0, xpReward: 100},
}

// Lifecycle generates and expires daily quests and manages challenge
// membership and manual progress sync. It is an explicit service object:
// all store dependencies are injected, no process-wide state.
type Lifecycle struct {
	db         *sqlx.DB
	users      repository.UserRepository
	quests     repository.QuestRepository
	challenges repository.ChallengeRepository

	now func() time.Time
}

func NewLifecycle(
	db *sqlx.DB,
	users repository.UserRepository,
	quests repository.QuestRepository,
	challenges repository.ChallengeRepository,
) *Lifecycle {
	return &Lifecycle{
		db:         db,
		users:      users,
		quests:     quests,
		challenges: challenges,
		now:        time.Now,
	}
}

// DailyQuests expires stale quests and generates today's set on first
// access each day, then returns the user's active quests. Generation is a
// conditional create per template, guarded by the quest identity
// constraint, so concurrent first accesses cannot create duplicates.
func (s *Lifecycle) DailyQuests(ctx context.Context, userID string) ([]*model.Quest, error) {
	user, err := s.users.ByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrDataUnavailable, userID)
		}
		return nil, err
	}

	now := s.now()
	expiresAt := endOfDay(now)

	err = repository.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		quests := s.quests.WithTx(tx)

		_, err := quests.ExpireBefore(userID, now)
		if err != nil {
			return fmt.Errorf("expire quests: %w", err)
		}

		// Defensive sweep for duplicate rows created before the identity
		// constraint existed. With the conditional create below the race
		// itself is gone; this only cleans up legacy data.
		removed, err := quests.DeleteDuplicates(userID)
		if err != nil {
			return fmt.Errorf("dedupe quests: %w", err)
		}
		if removed > 0 {
			slog.Warn("removed duplicate quests", "user_id", userID, "count", removed)
		}

		for _, tpl := range dailyTemplates {
			quest := s.questFromTemplate(tpl, user, expiresAt, now)
			_, err := quests.CreateIfAbsent(quest)
			if err != nil {
				return fmt.Errorf("create quest %s: %w", tpl.key, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.quests.ActiveByUser(userID)
}

// questFromTemplate scales a template's goal by the user's history. The
// level multiplier is 1 + (level-1)*0.1; distance and step goals also pull
// toward the user's rolling per-activity averages. Pace goals tighten
// (decrease) with level since lower is better.
func (s *Lifecycle) questFromTemplate(tpl questTemplate, user *model.User, expiresAt, now time.Time) *model.Quest {
	levelMult := 1 + float64(user.Level-1)*0.1

	goal := tpl.baseGoal * levelMult
	if tpl.unit == model.UnitPace {
		goal = tpl.baseGoal / levelMult
	}

	if user.TotalActivities > 0 {
		switch tpl.unit {
		case model.UnitDistance:
			avg := user.TotalDistanceM / 1000 / float64(user.TotalActivities)
			goal = math.Max(goal, avg*levelMult)
		case model.UnitDuration:
			avg := user.TotalDurationS / 60 / float64(user.TotalActivities)
			goal = math.Max(goal, avg*levelMult)
		case model.UnitSteps:
			avg := float64(user.TotalSteps) / float64(user.TotalActivities)
			goal = math.Max(goal, avg*levelMult)
		}
	}
	goal = math.Round(goal*10) / 10

	return &model.Quest{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		Title:       tpl.title,
		Unit:        tpl.unit,
		Goal:        goal,
		Progress:    0,
		Status:      model.QuestStatusNotStarted,
		XPReward:    tpl.xpReward,
		TemplateKey: tpl.key,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// QuestProgress evaluates live progress of a quest against a stats
// snapshot, without side effects.
func (s *Lifecycle) QuestProgress(userID, questID string, stats model.SessionStats) (ProgressReport, error) {
	quest, err := s.quests.ByID(userID, questID)
	if err != nil {
		if errors.Is(err, repository.ErrQuestNotFound) {
			return ProgressReport{}, fmt.Errorf("%w: quest %s", ErrDataUnavailable, questID)
		}
		return ProgressReport{}, err
	}
	return reportFor(progress.FromQuest(quest), stats), nil
}

// ChallengeProgress evaluates one participant's live progress.
func (s *Lifecycle) ChallengeProgress(challengeID, userID string, stats model.SessionStats) (ProgressReport, error) {
	challenge, err := s.challenges.ByID(challengeID)
	if err != nil {
		if errors.Is(err, repository.ErrChallengeNotFound) {
			return ProgressReport{}, fmt.Errorf("%w: challenge %s", ErrDataUnavailable, challengeID)
		}
		return ProgressReport{}, err
	}
	participant, err := s.challenges.Participant(challengeID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return ProgressReport{}, fmt.Errorf("%w: participant %s", ErrDataUnavailable, userID)
		}
		return ProgressReport{}, err
	}
	return reportFor(progress.FromParticipant(challenge, participant), stats), nil
}

// ProgressReport is the live progress view handed to the UI layer.
type ProgressReport struct {
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
}

func reportFor(e progress.Entity, stats model.SessionStats) ProgressReport {
	return ProgressReport{
		Value:      progress.TotalValue(e, stats),
		Percentage: progress.Percentage(e, stats),
		Status:     progress.Status(e, stats),
	}
}

// CreateChallenge creates a challenge with its creator as the first
// participant.
func (s *Lifecycle) CreateChallenge(creatorID string, challenge *model.Challenge) (*model.Challenge, error) {
	now := s.now()
	challenge.ID = uuid.New().String()
	challenge.Status = model.ChallengeStatusActive
	challenge.CreatedAt = now
	challenge.UpdatedAt = now
	if challenge.ExpiresAt.IsZero() {
		challenge.ExpiresAt = now.AddDate(0, 0, 7)
	}

	err := s.challenges.Create(challenge)
	if err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}

	err = s.Join(challenge.ID, creatorID)
	if err != nil {
		return nil, err
	}
	return challenge, nil
}

// Join adds a user to a challenge, enforcing group size.
func (s *Lifecycle) Join(challengeID, userID string) error {
	challenge, err := s.challenges.ByID(challengeID)
	if err != nil {
		if errors.Is(err, repository.ErrChallengeNotFound) {
			return fmt.Errorf("%w: challenge %s", ErrDataUnavailable, challengeID)
		}
		return err
	}
	if challenge.Status != model.ChallengeStatusActive {
		return ErrChallengeClosed
	}

	participants, err := s.challenges.Participants(challengeID)
	if err != nil {
		return err
	}
	if len(participants) >= maxParticipants(challenge.GroupType) {
		return ErrChallengeFull
	}

	return s.challenges.AddParticipant(&model.ChallengeParticipant{
		ChallengeID: challengeID,
		UserID:      userID,
		Progress:    0,
		Status:      progress.StatusNotStarted,
		JoinedAt:    s.now(),
	})
}

// SyncProgress advances a participant's challenge progress outside the
// reward ledger (manual sync). It reuses the same additive update as the
// ledger; replacing stored progress would break per-user monotonicity.
func (s *Lifecycle) SyncProgress(challengeID, userID string, delta float64) error {
	if delta <= 0 {
		return nil
	}
	err := s.challenges.AdvanceParticipant(challengeID, userID, delta)
	if errors.Is(err, repository.ErrParticipantNotFound) {
		return fmt.Errorf("%w: participant %s", ErrDataUnavailable, userID)
	}
	return err
}

// ChallengeWithParticipants loads a challenge and its member progress.
func (s *Lifecycle) ChallengeWithParticipants(challengeID string) (*model.Challenge, []*model.ChallengeParticipant, error) {
	challenge, err := s.challenges.ByID(challengeID)
	if err != nil {
		if errors.Is(err, repository.ErrChallengeNotFound) {
			return nil, nil, fmt.Errorf("%w: challenge %s", ErrDataUnavailable, challengeID)
		}
		return nil, nil, err
	}
	participants, err := s.challenges.Participants(challengeID)
	if err != nil {
		return nil, nil, err
	}
	return challenge, participants, nil
}

func maxParticipants(g model.GroupType) int {
	switch g {
	case model.GroupSolo:
		return 1
	case model.GroupDuo:
		return 2
	default:
		return 16
	}
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
