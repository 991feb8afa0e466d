package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/stridelab/pacequest/internal/model"
)

var ErrQuestNotFound = errors.New("quest not found")

type QuestRepository interface {
	WithTx(q DBTX) QuestRepository
	// CreateIfAbsent inserts the quest unless one with the same
	// (user, template, expiry) identity already exists. Returns true when a
	// row was inserted. This conditional create is what makes daily
	// generation race-free.
	CreateIfAbsent(quest *model.Quest) (bool, error)
	ByID(userID, questID string) (*model.Quest, error)
	ActiveByUser(userID string) ([]*model.Quest, error)
	ExpireBefore(userID string, cutoff time.Time) (int64, error)
	// AdvanceProgress adds delta to the quest's absolute progress, clamped
	// at the goal. Progress is never replaced or reduced.
	AdvanceProgress(questID string, delta float64) error
	SetStatus(questID, status string) error
	RecordCompletion(c *model.QuestCompletion) error
	DeleteDuplicates(userID string) (int64, error)
}

type questRepository struct {
	db DBTX
}

func NewQuestRepository(db DBTX) QuestRepository {
	return &questRepository{db: db}
}

func (r *questRepository) WithTx(q DBTX) QuestRepository {
	return &questRepository{db: q}
}

func (r *questRepository) CreateIfAbsent(quest *model.Quest) (bool, error) {
	query := `INSERT INTO quests (id, user_id, title, unit, goal, progress, status, xp_reward,
	          template_key, expires_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          ON CONFLICT (user_id, template_key, expires_at) DO NOTHING`

	result, err := r.db.Exec(query,
		quest.ID,
		quest.UserID,
		quest.Title,
		quest.Unit,
		quest.Goal,
		quest.Progress,
		quest.Status,
		quest.XPReward,
		quest.TemplateKey,
		quest.ExpiresAt,
		quest.CreatedAt,
		quest.UpdatedAt,
	)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *questRepository) ByID(userID, questID string) (*model.Quest, error) {
	quest := &model.Quest{}
	query := `SELECT * FROM quests WHERE id = $1 AND user_id = $2`

	err := r.db.Get(quest, query, questID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrQuestNotFound
	}

	return quest, err
}

func (r *questRepository) ActiveByUser(userID string) ([]*model.Quest, error) {
	var quests []*model.Quest
	query := `SELECT * FROM quests
	          WHERE user_id = $1 AND status != $2
	          ORDER BY created_at ASC`

	err := r.db.Select(&quests, query, userID, model.QuestStatusExpired)
	if err != nil {
		return nil, err
	}

	return quests, nil
}

func (r *questRepository) ExpireBefore(userID string, cutoff time.Time) (int64, error) {
	query := `UPDATE quests SET status = $1, updated_at = $2
	          WHERE user_id = $3 AND expires_at < $4 AND status != $1`

	result, err := r.db.Exec(query, model.QuestStatusExpired, time.Now(), userID, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *questRepository) AdvanceProgress(questID string, delta float64) error {
	// Moving progress off zero also moves a pristine quest to in_progress,
	// so listings never show an advanced quest as not started.
	query := `UPDATE quests
	          SET progress = progress + $1,
	              status = CASE WHEN status = $2 THEN $3 ELSE status END,
	              updated_at = $4
	          WHERE id = $5 AND status != $6`

	_, err := r.db.Exec(query,
		delta,
		model.QuestStatusNotStarted,
		model.QuestStatusInProgress,
		time.Now(),
		questID,
		model.QuestStatusExpired,
	)
	if err != nil {
		return err
	}

	// Clamp at the goal; split from the addition to stay portable across
	// the sqlite and postgres scalar-min spellings.
	clamp := `UPDATE quests SET progress = goal WHERE id = $1 AND progress > goal`
	_, err = r.db.Exec(clamp, questID)
	return err
}

func (r *questRepository) SetStatus(questID, status string) error {
	query := `UPDATE quests SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(query, status, time.Now(), questID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrQuestNotFound
	}

	return nil
}

func (r *questRepository) RecordCompletion(c *model.QuestCompletion) error {
	query := `INSERT INTO quest_completions (id, quest_id, user_id, xp_awarded, completed_at)
	          VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(query, c.ID, c.QuestID, c.UserID, c.XPAwarded, c.CompletedAt)
	return err
}

// DeleteDuplicates is a sweep for rows created before the unique
// (user, template, expiry) constraint existed. Keeps one row per identity
// group, the MIN(id) by string order.
func (r *questRepository) DeleteDuplicates(userID string) (int64, error) {
	query := `DELETE FROM quests
	          WHERE user_id = $1 AND id NOT IN (
	              SELECT MIN(id) FROM quests
	              WHERE user_id = $1
	              GROUP BY template_key, expires_at
	          )`

	result, err := r.db.Exec(query, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
