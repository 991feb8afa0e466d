package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/stridelab/pacequest/internal/model"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	WithTx(q DBTX) UserRepository
	Create(user *model.User) error
	ByID(userID string) (*model.User, error)
	// ApplyStats atomically adds an activity's measurements to the user's
	// lifetime totals and sets the new XP and level.
	ApplyStats(userID string, stats model.SessionStats, newTotalXP, newLevel int) error
	IncrementActivityCount(userID string, activityType model.ActivityType) error
	ActivityCounts(userID string) (map[model.ActivityType]int, error)
	AddXP(userID string, xp int) error
}

type userRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(q DBTX) UserRepository {
	return &userRepository{db: q}
}

func (r *userRepository) Create(user *model.User) error {
	query := `INSERT INTO users (id, display_name, total_xp, level, total_distance_m, total_duration_s,
	          total_steps, total_reps, total_calories, total_activities, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(query,
		user.ID,
		user.DisplayName,
		user.TotalXP,
		user.Level,
		user.TotalDistanceM,
		user.TotalDurationS,
		user.TotalSteps,
		user.TotalReps,
		user.TotalCalories,
		user.TotalActivities,
		user.CreatedAt,
		user.UpdatedAt,
	)

	return err
}

func (r *userRepository) ByID(userID string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE id = $1`

	err := r.db.Get(user, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) ApplyStats(userID string, stats model.SessionStats, newTotalXP, newLevel int) error {
	query := `UPDATE users
	          SET total_xp = $1, level = $2,
	              total_distance_m = total_distance_m + $3,
	              total_duration_s = total_duration_s + $4,
	              total_steps = total_steps + $5,
	              total_reps = total_reps + $6,
	              total_calories = total_calories + $7,
	              total_activities = total_activities + 1,
	              updated_at = $8
	          WHERE id = $9`

	result, err := r.db.Exec(query,
		newTotalXP,
		newLevel,
		stats.DistanceM,
		stats.DurationS,
		stats.Steps,
		stats.Reps,
		stats.Calories,
		time.Now(),
		userID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *userRepository) IncrementActivityCount(userID string, activityType model.ActivityType) error {
	query := `INSERT INTO user_activity_counts (user_id, activity_type, count)
	          VALUES ($1, $2, 1)
	          ON CONFLICT (user_id, activity_type) DO UPDATE SET count = user_activity_counts.count + 1`

	_, err := r.db.Exec(query, userID, activityType)
	return err
}

func (r *userRepository) ActivityCounts(userID string) (map[model.ActivityType]int, error) {
	rows := []struct {
		ActivityType model.ActivityType `db:"activity_type"`
		Count        int                `db:"count"`
	}{}

	query := `SELECT activity_type, count FROM user_activity_counts WHERE user_id = $1`
	err := r.db.Select(&rows, query, userID)
	if err != nil {
		return nil, err
	}

	counts := make(map[model.ActivityType]int, len(rows))
	for _, row := range rows {
		counts[row.ActivityType] = row.Count
	}
	return counts, nil
}

func (r *userRepository) AddXP(userID string, xp int) error {
	query := `UPDATE users
	          SET total_xp = total_xp + $1,
	              level = (total_xp + $1) / 1000 + 1,
	              updated_at = $2
	          WHERE id = $3`

	result, err := r.db.Exec(query, xp, time.Now(), userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}
