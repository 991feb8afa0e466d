package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stridelab/pacequest/internal/model"
	"github.com/stridelab/pacequest/internal/progress"
	"github.com/stridelab/pacequest/internal/repository"
)

var (
	// ErrDataUnavailable marks a missing user, quest, or challenge record.
	// Fatal for the call; no partial writes occur.
	ErrDataUnavailable = errors.New("required record unavailable")
)

// ledgerCompletionThreshold is where the ledger treats a quest or challenge
// as complete. Deliberately looser than the progress package's strict >= 1:
// a 4.999 km session against a 5 km goal must not lose its reward to
// floating-point error. The two thresholds are distinct on purpose.
const ledgerCompletionThreshold = 0.99

// Eligibility floors: sessions shorter than this do not count.
const (
	minDistanceM = 10.0
	minDurationS = 10.0
	minReps      = 1
)

// Rejection reasons surfaced to callers.
const (
	RejectTooShort = "session too short"
)

// AwardRequest submits a finished session for reward.
type AwardRequest struct {
	ActivityID   string             `json:"activity_id"`
	UserID       string             `json:"user_id"`
	ActivityType model.ActivityType `json:"activity_type"`
	Stats        model.SessionStats `json:"stats"`
	QuestID      string             `json:"quest_id,omitempty"`
	ChallengeID  string             `json:"challenge_id,omitempty"`
}

// classify determines exactly one classification. A challenge-linked quest
// counts as challenge: quest-only XP rules do not apply when a challenge is
// present.
func (r AwardRequest) classify() model.Classification {
	switch {
	case r.ChallengeID != "":
		return model.ClassChallenge
	case r.QuestID != "":
		return model.ClassQuest
	default:
		return model.ClassNormal
	}
}

// AwardResult reports the outcome of an award attempt. AlreadyAwarded and
// Rejected are expected outcomes, not errors.
type AwardResult struct {
	XPEarned           int                  `json:"xp_earned"`
	QuestCompleted     bool                 `json:"quest_completed"`
	ChallengeCompleted bool                 `json:"challenge_completed"`
	LevelUp            bool                 `json:"level_up"`
	NewLevel           int                  `json:"new_level"`
	Classification     model.Classification `json:"classification"`
	AlreadyAwarded     bool                 `json:"already_awarded"`
	Rejected           bool                 `json:"rejected"`
	RejectReason       string               `json:"reject_reason,omitempty"`
}

// Ledger atomically reconciles a finished session against the user's XP,
// quest progress, and shared challenge state, guaranteeing each activity is
// rewarded exactly once. It is the single entry point for committing a
// finished session: no caller writes profile or quest state directly.
type Ledger struct {
	db         *sqlx.DB
	users      repository.UserRepository
	quests     repository.QuestRepository
	challenges repository.ChallengeRepository
	activities repository.ActivityRepository
	receipts   repository.ReceiptRepository
	questSync  *QuestSync
}

func NewLedger(
	db *sqlx.DB,
	users repository.UserRepository,
	quests repository.QuestRepository,
	challenges repository.ChallengeRepository,
	activities repository.ActivityRepository,
	receipts repository.ReceiptRepository,
	questSync *QuestSync,
) *Ledger {
	return &Ledger{
		db:         db,
		users:      users,
		quests:     quests,
		challenges: challenges,
		activities: activities,
		receipts:   receipts,
		questSync:  questSync,
	}
}

// AwardXP runs the award state machine as one optimistic transaction.
// Retried submissions short-circuit on the stored receipt and return its
// result unchanged; nothing is ever recomputed for a rewarded activity.
func (l *Ledger) AwardXP(ctx context.Context, req AwardRequest) (AwardResult, error) {
	var result AwardResult
	var questDelta float64

	err := repository.InTx(ctx, l.db, func(tx *sqlx.Tx) error {
		result = AwardResult{}
		questDelta = 0

		receipts := l.receipts.WithTx(tx)

		// Step 1: idempotency. The receipt is the sole source of truth for
		// "already rewarded".
		existing, err := receipts.ByActivityID(req.ActivityID)
		if err != nil {
			return fmt.Errorf("read receipt: %w", err)
		}
		if existing != nil {
			result = resultFromReceipt(existing, req.classify())
			return nil
		}

		users := l.users.WithTx(tx)
		user, err := users.ByID(req.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return fmt.Errorf("%w: user %s", ErrDataUnavailable, req.UserID)
			}
			return err
		}

		var quest *model.Quest
		if req.QuestID != "" {
			quest, err = l.quests.WithTx(tx).ByID(req.UserID, req.QuestID)
			if err != nil {
				if errors.Is(err, repository.ErrQuestNotFound) {
					return fmt.Errorf("%w: quest %s", ErrDataUnavailable, req.QuestID)
				}
				return err
			}
		}

		var challenge *model.Challenge
		var participant *model.ChallengeParticipant
		if req.ChallengeID != "" {
			challenges := l.challenges.WithTx(tx)
			challenge, err = challenges.ByID(req.ChallengeID)
			if err != nil {
				if errors.Is(err, repository.ErrChallengeNotFound) {
					return fmt.Errorf("%w: challenge %s", ErrDataUnavailable, req.ChallengeID)
				}
				return err
			}
			participant, err = challenges.Participant(req.ChallengeID, req.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrParticipantNotFound) {
					return fmt.Errorf("%w: user %s not in challenge %s", ErrDataUnavailable, req.UserID, req.ChallengeID)
				}
				return err
			}
		}

		// Step 2: eligibility. Rejection is reported, not silently
		// ignored, and performs no mutation.
		if reason, ok := eligible(req.ActivityType, req.Stats, challenge); !ok {
			result.Rejected = true
			result.RejectReason = reason
			result.Classification = req.classify()
			return nil
		}

		// Steps 3-4: classification and XP.
		classification := req.classify()
		result.Classification = classification

		xp := 0
		if classification == model.ClassNormal {
			xp = baseXPFor(req.ActivityType) + performanceBonus(req.ActivityType, req.Stats)
		}

		if quest != nil && classification == model.ClassQuest {
			// A quest pays out once. Later activities against a completed or
			// expired quest earn nothing and advance nothing; the receipt
			// only dedupes per activity, so the gate lives here.
			if quest.Status != model.QuestStatusCompleted && quest.Status != model.QuestStatusExpired {
				entity := progress.FromQuest(quest)
				if ledgerCompleted(entity, req.Stats) {
					result.QuestCompleted = true
					xp += quest.XPReward
				}
				questDelta = progress.SessionValue(entity, req.Stats)
			}
		}

		var challengeDelta float64
		if challenge != nil {
			entity := progress.FromParticipant(challenge, participant)
			challengeDelta = progress.SessionValue(entity, req.Stats)
			// Completion pays at most once per participant, and never after
			// the challenge itself has been finalized.
			open := challenge.Status != model.ChallengeStatusCompleted &&
				participant.Status != progress.StatusCompleted
			if open && ledgerCompleted(entity, req.Stats) {
				result.ChallengeCompleted = true
				// Wagered challenges settle at finalization, never here.
				if !challenge.Wagered() {
					xp += challenge.XPReward
				}
			}
			// Multi-participant challenges suppress all direct XP pending
			// finalization.
			if challenge.GroupType != model.GroupSolo {
				xp = 0
			}
		}

		newTotalXP := user.TotalXP + xp
		newLevel := model.LevelForXP(newTotalXP)
		result.XPEarned = xp
		result.LevelUp = newLevel > user.Level
		result.NewLevel = newLevel

		// Step 5: atomic apply. Everything below commits or nothing does.
		now := time.Now()
		err = receipts.Create(&model.ActivityReceipt{
			ActivityID:         req.ActivityID,
			UserID:             req.UserID,
			XPEarned:           result.XPEarned,
			QuestCompleted:     result.QuestCompleted,
			ChallengeCompleted: result.ChallengeCompleted,
			LevelUp:            result.LevelUp,
			NewLevel:           result.NewLevel,
			AwardedAt:          now,
		})
		if err != nil {
			return fmt.Errorf("create receipt: %w", err)
		}

		err = users.ApplyStats(req.UserID, req.Stats, newTotalXP, newLevel)
		if err != nil {
			return fmt.Errorf("apply user stats: %w", err)
		}
		err = users.IncrementActivityCount(req.UserID, req.ActivityType)
		if err != nil {
			return fmt.Errorf("increment activity count: %w", err)
		}

		err = l.activities.WithTx(tx).Create(&model.Activity{
			ID:             req.ActivityID,
			UserID:         req.UserID,
			ActivityType:   req.ActivityType,
			Classification: classification,
			QuestID:        optional(req.QuestID),
			ChallengeID:    optional(req.ChallengeID),
			DistanceM:      req.Stats.DistanceM,
			DurationS:      req.Stats.DurationS,
			Steps:          req.Stats.Steps,
			Reps:           req.Stats.Reps,
			Calories:       req.Stats.Calories,
			AvgPace:        req.Stats.AvgPace,
			ElevationGainM: req.Stats.ElevationGainM,
			RecordedAt:     now,
		})
		if err != nil {
			return fmt.Errorf("persist activity: %w", err)
		}

		if result.QuestCompleted {
			quests := l.quests.WithTx(tx)
			err = quests.SetStatus(quest.ID, model.QuestStatusCompleted)
			if err != nil {
				return fmt.Errorf("complete quest: %w", err)
			}
			err = quests.RecordCompletion(&model.QuestCompletion{
				ID:          uuid.New().String(),
				QuestID:     quest.ID,
				UserID:      req.UserID,
				XPAwarded:   quest.XPReward,
				CompletedAt: now,
			})
			if err != nil {
				return fmt.Errorf("record quest completion: %w", err)
			}
		}

		if challenge != nil {
			err = l.applyChallenge(tx, challenge, participant, req, challengeDelta, now)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return AwardResult{}, err
	}

	// Quest progress advancement is deliberately decoupled from the award
	// transaction: it only affects future reads of quest state, never
	// reward correctness.
	if questDelta > 0 && !result.AlreadyAwarded && !result.Rejected {
		l.questSync.Enqueue(req.QuestID, questDelta)
	}

	return result, nil
}

// applyChallenge advances the caller's own progress (additively, never a
// replace), records the participation event, and finalizes duo
// better-than-other challenges once every participant has submitted.
func (l *Ledger) applyChallenge(
	tx *sqlx.Tx,
	challenge *model.Challenge,
	participant *model.ChallengeParticipant,
	req AwardRequest,
	delta float64,
	now time.Time,
) error {
	challenges := l.challenges.WithTx(tx)

	if delta > 0 {
		err := challenges.AdvanceParticipant(challenge.ID, req.UserID, delta)
		if err != nil {
			return fmt.Errorf("advance challenge progress: %w", err)
		}
	}

	// Completed participants keep their status and completion time; a later
	// submission never rewrites either.
	if participant.Status != progress.StatusCompleted {
		status := progress.StatusInProgress
		var completedAt *time.Time
		entity := progress.FromParticipant(challenge, participant)
		if ledgerCompleted(entity, req.Stats) {
			status = progress.StatusCompleted
			completedAt = &now
		}
		err := challenges.SetParticipantStatus(challenge.ID, req.UserID, status, completedAt)
		if err != nil {
			return fmt.Errorf("set participant status: %w", err)
		}
	}

	err := challenges.RecordEvent(&model.ChallengeEvent{
		ID:          uuid.New().String(),
		ChallengeID: challenge.ID,
		UserID:      req.UserID,
		ActivityID:  req.ActivityID,
		Delta:       delta,
		CreatedAt:   now,
	})
	if err != nil {
		return fmt.Errorf("record challenge event: %w", err)
	}

	if challenge.GroupType == model.GroupDuo &&
		challenge.CompletionRequirement == model.RequirementBetterThanOther {
		return l.maybeFinalizeDuo(tx, challenge)
	}

	return nil
}

// maybeFinalizeDuo finalizes a two-participant better-than-other challenge
// once both have submitted. The global status guard makes finalization
// happen at most once even under concurrent award calls.
func (l *Ledger) maybeFinalizeDuo(tx *sqlx.Tx, challenge *model.Challenge) error {
	if challenge.Status == model.ChallengeStatusCompleted {
		return nil
	}

	challenges := l.challenges.WithTx(tx)
	participants, err := challenges.Participants(challenge.ID)
	if err != nil {
		return fmt.Errorf("load participants: %w", err)
	}
	if len(participants) < 2 {
		return nil
	}
	for _, p := range participants {
		if p.Status == progress.StatusNotStarted {
			return nil
		}
	}

	winner := pickWinner(challenge, participants)
	err = challenges.Finalize(challenge.ID, winner)
	if errors.Is(err, repository.ErrAlreadyFinalized) {
		// A concurrent award call won the transition.
		return nil
	}
	if err != nil {
		return fmt.Errorf("finalize challenge: %w", err)
	}

	if winner != nil {
		payout := challenge.XPReward
		if challenge.Wagered() {
			payout += challenge.WagerXP * len(participants)
		}
		if payout > 0 {
			err = l.users.WithTx(tx).AddXP(*winner, payout)
			if err != nil {
				return fmt.Errorf("settle challenge payout: %w", err)
			}
		}
	}

	slog.Info("challenge finalized",
		"challenge_id", challenge.ID,
		"winner", deref(winner),
	)
	return nil
}

// pickWinner selects the single winner by best progress. For pace
// challenges better means lower; ties go unawarded.
func pickWinner(challenge *model.Challenge, participants []*model.ChallengeParticipant) *string {
	best := participants[0]
	tied := false
	for _, p := range participants[1:] {
		switch {
		case betterThan(challenge.Unit, p.Progress, best.Progress):
			best = p
			tied = false
		case p.Progress == best.Progress:
			tied = true
		}
	}
	if tied {
		return nil
	}
	id := best.UserID
	return &id
}

func betterThan(unit model.Unit, a, b float64) bool {
	if unit == model.UnitPace {
		return a > 0 && (b == 0 || a < b)
	}
	return a > b
}

// ledgerCompleted is the ledger's completion gate. Cumulative units use the
// forgiving threshold to absorb accumulated float error; pace is a single
// session measurement with no drift to absorb, so it keeps the exact
// lower-is-better rule.
func ledgerCompleted(e progress.Entity, s model.SessionStats) bool {
	if e.Unit == model.UnitPace {
		return progress.Completed(e, s)
	}
	return progress.Percentage(e, s) >= ledgerCompletionThreshold
}

// eligible rejects sessions too short to count: minimum one rep for
// strength activities, otherwise ~10 m of filtered distance and 10 s of
// duration. Time-based challenges relax the distance floor.
func eligible(t model.ActivityType, stats model.SessionStats, challenge *model.Challenge) (string, bool) {
	if t.IsStrength() {
		if stats.Reps < minReps {
			return RejectTooShort, false
		}
		return "", true
	}

	if stats.DurationS < minDurationS {
		return RejectTooShort, false
	}

	distanceRequired := true
	if challenge != nil && challenge.Unit == model.UnitDuration {
		distanceRequired = false
	}
	if distanceRequired && stats.DistanceM < minDistanceM {
		return RejectTooShort, false
	}

	return "", true
}

// resultFromReceipt replays a stored outcome. Anything returned from a
// second inbound call is read from the receipt, never recomputed.
func resultFromReceipt(r *model.ActivityReceipt, classification model.Classification) AwardResult {
	return AwardResult{
		XPEarned:           r.XPEarned,
		QuestCompleted:     r.QuestCompleted,
		ChallengeCompleted: r.ChallengeCompleted,
		LevelUp:            r.LevelUp,
		NewLevel:           r.NewLevel,
		Classification:     classification,
		AlreadyAwarded:     true,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
