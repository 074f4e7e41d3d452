package models

import "time"

// ResultRecord is one completed exam attempt. Append-only: re-attempts of
// the same exam produce new rows. ExamID is nullable so ad-hoc task-set
// attempts without a stored exam can still log a score; ExamName is a
// snapshot of the exam's name at submission time and survives renames.
type ResultRecord struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	UserID       string  `json:"user_id" gorm:"not null;index;size:255"`
	ExamID       *uint   `json:"exam_id" gorm:"index"`
	ExamName     string  `json:"exam_name" gorm:"not null;size:255"`
	EarnedPoints int     `json:"earned_points" gorm:"not null"`
	TotalPoints  int     `json:"total_points" gorm:"not null"`
	WrongCount   int     `json:"wrong_count" gorm:"not null"`
	Percent      float64 `json:"percent" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (ResultRecord) TableName() string {
	return "result_records"
}

// ExamStats summarizes a user's exam history.
type ExamStats struct {
	Attempts    int64   `json:"attempts"`
	AvgPercent  float64 `json:"avg_percent"`
	BestPercent float64 `json:"best_percent"`
}

// LeaderboardEntry is one ranked row of a leaderboard projection.
type LeaderboardEntry struct {
	UserID string `json:"user_id"`
	Points int64  `json:"points"`
	Rank   int    `json:"rank"`
}
