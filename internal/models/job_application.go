package models

import "time"

type JobApplication struct {
	BaseModel
	JobID     uint64            `gorm:"not null;uniqueIndex:idx_job_applications_job_worker" json:"job_id"`
	WorkerID  uint64            `gorm:"not null;uniqueIndex:idx_job_applications_job_worker;index" json:"worker_id"`
	Status    ApplicationStatus `gorm:"type:varchar(30);not null;default:'pending'" json:"status"`
	AppliedAt time.Time         `gorm:"not null" json:"applied_at"`
	Message   *string           `gorm:"type:text" json:"message"`

	Job    *Job  `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"job,omitempty"`
	Worker *User `gorm:"foreignKey:WorkerID;constraint:OnDelete:CASCADE" json:"worker,omitempty"`
}
