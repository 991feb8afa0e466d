package repository

import (
	"database/sql"
	"errors"

	"github.com/stridelab/pacequest/internal/model"
)

var ErrActivityNotFound = errors.New("activity not found")

type ActivityRepository interface {
	WithTx(q DBTX) ActivityRepository
	Create(a *model.Activity) error
	ByID(activityID string) (*model.Activity, error)
	ByUser(userID string, classification model.Classification) ([]*model.Activity, error)
}

type activityRepository struct {
	db DBTX
}

func NewActivityRepository(db DBTX) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) WithTx(q DBTX) ActivityRepository {
	return &activityRepository{db: q}
}

func (r *activityRepository) Create(a *model.Activity) error {
	query := `INSERT INTO activities (id, user_id, activity_type, classification, quest_id, challenge_id,
	          distance_m, duration_s, steps, reps, calories, avg_pace, elevation_gain_m, recorded_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(query,
		a.ID,
		a.UserID,
		a.ActivityType,
		a.Classification,
		a.QuestID,
		a.ChallengeID,
		a.DistanceM,
		a.DurationS,
		a.Steps,
		a.Reps,
		a.Calories,
		a.AvgPace,
		a.ElevationGainM,
		a.RecordedAt,
	)

	return err
}

func (r *activityRepository) ByID(activityID string) (*model.Activity, error) {
	activity := &model.Activity{}
	query := `SELECT * FROM activities WHERE id = $1`

	err := r.db.Get(activity, query, activityID)
	if err == sql.ErrNoRows {
		return nil, ErrActivityNotFound
	}

	return activity, err
}

// ByUser lists a user's activities within one classification partition, or
// all of them when classification is empty.
func (r *activityRepository) ByUser(userID string, classification model.Classification) ([]*model.Activity, error) {
	var activities []*model.Activity

	if classification == "" {
		query := `SELECT * FROM activities WHERE user_id = $1 ORDER BY recorded_at DESC`
		err := r.db.Select(&activities, query, userID)
		return activities, err
	}

	query := `SELECT * FROM activities WHERE user_id = $1 AND classification = $2 ORDER BY recorded_at DESC`
	err := r.db.Select(&activities, query, userID, classification)
	return activities, err
}
