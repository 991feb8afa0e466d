package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/stridelab/pacequest/internal/model"
)

var (
	ErrChallengeNotFound   = errors.New("challenge not found")
	ErrParticipantNotFound = errors.New("challenge participant not found")
	ErrAlreadyFinalized    = errors.New("challenge already finalized")
)

type ChallengeRepository interface {
	WithTx(q DBTX) ChallengeRepository
	Create(c *model.Challenge) error
	ByID(challengeID string) (*model.Challenge, error)
	ByUser(userID string) ([]*model.Challenge, error)
	AddParticipant(p *model.ChallengeParticipant) error
	Participant(challengeID, userID string) (*model.ChallengeParticipant, error)
	Participants(challengeID string) ([]*model.ChallengeParticipant, error)
	// AdvanceParticipant adds delta to one participant's progress. Always
	// additive, never a replace: concurrent awards for different users must
	// not overwrite each other.
	AdvanceParticipant(challengeID, userID string, delta float64) error
	SetParticipantStatus(challengeID, userID, status string, completedAt *time.Time) error
	// Finalize transitions the global status to completed exactly once.
	// Returns ErrAlreadyFinalized if a concurrent writer won.
	Finalize(challengeID string, winnerID *string) error
	RecordEvent(e *model.ChallengeEvent) error
}

type challengeRepository struct {
	db DBTX
}

func NewChallengeRepository(db DBTX) ChallengeRepository {
	return &challengeRepository{db: db}
}

func (r *challengeRepository) WithTx(q DBTX) ChallengeRepository {
	return &challengeRepository{db: q}
}

func (r *challengeRepository) Create(c *model.Challenge) error {
	query := `INSERT INTO challenges (id, title, unit, goal, group_type, completion_requirement,
	          wager_xp, xp_reward, status, expires_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(query,
		c.ID,
		c.Title,
		c.Unit,
		c.Goal,
		c.GroupType,
		c.CompletionRequirement,
		c.WagerXP,
		c.XPReward,
		c.Status,
		c.ExpiresAt,
		c.CreatedAt,
		c.UpdatedAt,
	)

	return err
}

func (r *challengeRepository) ByID(challengeID string) (*model.Challenge, error) {
	challenge := &model.Challenge{}
	query := `SELECT * FROM challenges WHERE id = $1`

	err := r.db.Get(challenge, query, challengeID)
	if err == sql.ErrNoRows {
		return nil, ErrChallengeNotFound
	}

	return challenge, err
}

func (r *challengeRepository) ByUser(userID string) ([]*model.Challenge, error) {
	var challenges []*model.Challenge
	query := `SELECT c.* FROM challenges c
	          JOIN challenge_participants p ON p.challenge_id = c.id
	          WHERE p.user_id = $1
	          ORDER BY c.created_at DESC`

	err := r.db.Select(&challenges, query, userID)
	if err != nil {
		return nil, err
	}

	return challenges, nil
}

func (r *challengeRepository) AddParticipant(p *model.ChallengeParticipant) error {
	query := `INSERT INTO challenge_participants (challenge_id, user_id, progress, status, joined_at)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (challenge_id, user_id) DO NOTHING`

	_, err := r.db.Exec(query, p.ChallengeID, p.UserID, p.Progress, p.Status, p.JoinedAt)
	return err
}

func (r *challengeRepository) Participant(challengeID, userID string) (*model.ChallengeParticipant, error) {
	participant := &model.ChallengeParticipant{}
	query := `SELECT * FROM challenge_participants WHERE challenge_id = $1 AND user_id = $2`

	err := r.db.Get(participant, query, challengeID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrParticipantNotFound
	}

	return participant, err
}

func (r *challengeRepository) Participants(challengeID string) ([]*model.ChallengeParticipant, error) {
	var participants []*model.ChallengeParticipant
	query := `SELECT * FROM challenge_participants WHERE challenge_id = $1 ORDER BY joined_at ASC`

	err := r.db.Select(&participants, query, challengeID)
	if err != nil {
		return nil, err
	}

	return participants, nil
}

func (r *challengeRepository) AdvanceParticipant(challengeID, userID string, delta float64) error {
	query := `UPDATE challenge_participants
	          SET progress = progress + $1
	          WHERE challenge_id = $2 AND user_id = $3`

	result, err := r.db.Exec(query, delta, challengeID, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrParticipantNotFound
	}

	return nil
}

func (r *challengeRepository) SetParticipantStatus(challengeID, userID, status string, completedAt *time.Time) error {
	query := `UPDATE challenge_participants
	          SET status = $1, completed_at = $2
	          WHERE challenge_id = $3 AND user_id = $4`

	result, err := r.db.Exec(query, status, completedAt, challengeID, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrParticipantNotFound
	}

	return nil
}

func (r *challengeRepository) Finalize(challengeID string, winnerID *string) error {
	// The status guard in the WHERE clause is the at-most-once mechanism:
	// the losing concurrent writer matches zero rows.
	query := `UPDATE challenges
	          SET status = $1, winner_id = $2, updated_at = $3
	          WHERE id = $4 AND status != $1`

	result, err := r.db.Exec(query, model.ChallengeStatusCompleted, winnerID, time.Now(), challengeID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlreadyFinalized
	}

	return nil
}

func (r *challengeRepository) RecordEvent(e *model.ChallengeEvent) error {
	query := `INSERT INTO challenge_events (id, challenge_id, user_id, activity_id, delta, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(query, e.ID, e.ChallengeID, e.UserID, e.ActivityID, e.Delta, e.CreatedAt)
	return err
}
