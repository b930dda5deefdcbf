package models

import "time"

// FeatureSnapshot is the normalized copy of the features a prediction was made from.
// It serializes under the training column names.
type FeatureSnapshot struct {
	Gender            string `json:"gender" gorm:"type:varchar(64)"`
	RaceEthnicity     string `json:"race/ethnicity" gorm:"type:varchar(64)"`
	ParentalEducation string `json:"parental level of education" gorm:"type:varchar(64)"`
	Lunch             string `json:"lunch" gorm:"type:varchar(64)"`
	TestPreparation   string `json:"test preparation course" gorm:"type:varchar(64)"`
	MathScore         int    `json:"math score"`
	ReadingScore      int    `json:"reading score"`
	WritingScore      int    `json:"writing score"`
}

// Prediction is one recorded inference result. Records are immutable once stored.
type Prediction struct {
	ID         uint            `json:"-" gorm:"primaryKey;autoIncrement"`
	UserID     string          `json:"-" gorm:"type:varchar(36);index;not null"`
	User       *User           `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Input      FeatureSnapshot `json:"input_data" gorm:"embedded;embeddedPrefix:input_"`
	Label      string          `json:"prediction" gorm:"type:varchar(64);not null"`
	Confidence float64         `json:"confidence"`
	CreatedAt  time.Time       `json:"timestamp" gorm:"index"`
}

// Stats is the per-user aggregate over prediction records.
type Stats struct {
	TotalPredictions        int            `json:"total_predictions"`
	PerformanceDistribution map[string]int `json:"performance_distribution"`
	AverageConfidence       float64        `json:"average_confidence"`
}
