package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ApplicantStatusLogModel is one committed status change. Rows are append-only.
type ApplicantStatusLogModel struct {
	ApplicantStatusLogID          uuid.UUID       `gorm:"column:applicant_status_log_id;type:uuid;primaryKey" json:"applicant_status_log_id"`
	ApplicantStatusLogApplicantID uuid.UUID       `gorm:"column:applicant_status_log_applicant_id;type:uuid;not null;index" json:"applicant_status_log_applicant_id"`
	ApplicantStatusLogFrom        ApplicantStatus `gorm:"column:applicant_status_log_from;type:varchar(20);not null" json:"applicant_status_log_from"`
	ApplicantStatusLogTo          ApplicantStatus `gorm:"column:applicant_status_log_to;type:varchar(20);not null" json:"applicant_status_log_to"`
	ApplicantStatusLogVersion     int             `gorm:"column:applicant_status_log_version;not null" json:"applicant_status_log_version"`
	ApplicantStatusLogMeta        datatypes.JSON  `gorm:"column:applicant_status_log_meta" json:"applicant_status_log_meta,omitempty"`
	ApplicantStatusLogCreatedAt   time.Time       `gorm:"column:applicant_status_log_created_at;not null;autoCreateTime" json:"applicant_status_log_created_at"`
}

func (ApplicantStatusLogModel) TableName() string {
	return "applicant_status_logs"
}
