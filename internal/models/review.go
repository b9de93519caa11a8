package models

type JobReview struct {
	BaseModel
	JobID      uint64  `gorm:"not null;uniqueIndex:idx_job_reviews_job_reviewer" json:"job_id"`
	ReviewerID uint64  `gorm:"not null;uniqueIndex:idx_job_reviews_job_reviewer" json:"reviewer_id"`
	RevieweeID uint64  `gorm:"not null;index" json:"reviewee_id"`
	Rating     int     `gorm:"not null" json:"rating"`
	Comment    *string `gorm:"type:text" json:"comment"`

	Job      *Job  `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"job,omitempty"`
	Reviewer *User `gorm:"foreignKey:ReviewerID;constraint:OnDelete:CASCADE" json:"reviewer,omitempty"`
	Reviewee *User `gorm:"foreignKey:RevieweeID;constraint:OnDelete:CASCADE" json:"reviewee,omitempty"`
}
