package repository

import (
	"database/sql"

	"github.com/stridelab/pacequest/internal/model"
)

type ReceiptRepository interface {
	WithTx(q DBTX) ReceiptRepository
	// ByActivityID returns (nil, nil) when no receipt exists; a present
	// receipt means the activity has already been rewarded.
	ByActivityID(activityID string) (*model.ActivityReceipt, error)
	Create(receipt *model.ActivityReceipt) error
}

type receiptRepository struct {
	db DBTX
}

func NewReceiptRepository(db DBTX) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) WithTx(q DBTX) ReceiptRepository {
	return &receiptRepository{db: q}
}

func (r *receiptRepository) ByActivityID(activityID string) (*model.ActivityReceipt, error) {
	receipt := &model.ActivityReceipt{}
	query := `SELECT * FROM activity_receipts WHERE activity_id = $1`

	err := r.db.Get(receipt, query, activityID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return receipt, nil
}

// Create inserts the receipt. Receipts are immutable; there is deliberately
// no update method on this repository.
func (r *receiptRepository) Create(receipt *model.ActivityReceipt) error {
	query := `INSERT INTO activity_receipts (activity_id, user_id, xp_earned, quest_completed,
	          challenge_completed, level_up, new_level, awarded_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(query,
		receipt.ActivityID,
		receipt.UserID,
		receipt.XPEarned,
		receipt.QuestCompleted,
		receipt.ChallengeCompleted,
		receipt.LevelUp,
		receipt.NewLevel,
		receipt.AwardedAt,
	)

	return err
}
