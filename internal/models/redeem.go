package models

import (
	"time"

	"github.com/google/uuid"
)

// Redeem описывает заявку волонтёра на обмен баллов на вознаграждение.
// Баллы списываются атомарно в момент создания, а не после одобрения.
type Redeem struct {
	ID                uuid.UUID `db:"id" json:"id"`
	VolunteerID       uuid.UUID `db:"volunteer_id" json:"volunteerId"`
	RewardName        string    `db:"reward_name" json:"rewardName"`
	RewardDescription string    `db:"reward_description" json:"rewardDescription"`
	PointsRequired    int       `db:"points_required" json:"pointsRequired"`
	Status            string    `db:"status" json:"status"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}
