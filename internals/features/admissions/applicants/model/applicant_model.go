package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

/* ======================================================
   ENUM: applicant status
====================================================== */

type ApplicantStatus string

const (
	ApplicantPending  ApplicantStatus = "PENDING"
	ApplicantInReview ApplicantStatus = "IN_REVIEW"
	ApplicantAccepted ApplicantStatus = "ACCEPTED"
	ApplicantRejected ApplicantStatus = "REJECTED"
)

var applicantTransitions = map[ApplicantStatus][]ApplicantStatus{
	ApplicantPending:  {ApplicantInReview, ApplicantAccepted, ApplicantRejected},
	ApplicantInReview: {ApplicantAccepted, ApplicantRejected},
	ApplicantAccepted: nil,
	ApplicantRejected: nil,
}

func ParseApplicantStatus(s string) (ApplicantStatus, bool) {
	st := ApplicantStatus(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

func (s ApplicantStatus) Valid() bool {
	_, ok := applicantTransitions[s]
	return ok
}

// Terminal statuses accept no further reviewer transition.
func (s ApplicantStatus) Terminal() bool {
	return s == ApplicantAccepted || s == ApplicantRejected
}

func (s ApplicantStatus) CanTransitionTo(next ApplicantStatus) bool {
	for _, n := range applicantTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

/* ======================================================
   Model: applicants
====================================================== */

type ApplicantModel struct {
	ApplicantID uuid.UUID `gorm:"column:applicant_id;type:uuid;primaryKey" json:"applicant_id"`

	// Submission
	ApplicantFirstName string `gorm:"column:applicant_first_name;type:varchar(100);not null" json:"applicant_first_name"`
	ApplicantLastName  string `gorm:"column:applicant_last_name;type:varchar(100);not null" json:"applicant_last_name"`
	ApplicantEmail     string `gorm:"column:applicant_email;type:varchar(255);not null;uniqueIndex:uq_applicants_email_alive,where:applicant_deleted_at IS NULL" json:"applicant_email"`

	// Evaluation
	ApplicantProgram   string          `gorm:"column:applicant_program;type:varchar(200);not null;index" json:"applicant_program"`
	ApplicantGPA       decimal.Decimal `gorm:"column:applicant_gpa;type:numeric(3,2);not null" json:"applicant_gpa"`
	ApplicantTestScore int             `gorm:"column:applicant_test_score;not null" json:"applicant_test_score"`
	ApplicantStatus    ApplicantStatus `gorm:"column:applicant_status;type:varchar(20);not null;index" json:"applicant_status"`

	// Derived from GPA + test score
	ApplicantAIScore decimal.Decimal `gorm:"column:applicant_ai_score;type:numeric(5,2);not null" json:"applicant_ai_score"`
	ApplicantAIHint  string          `gorm:"column:applicant_ai_hint;type:varchar(30);not null" json:"applicant_ai_hint"`

	// Optimistic lock token, bumped on every write
	ApplicantVersion int `gorm:"column:applicant_version;not null" json:"applicant_version"`

	ApplicantCreatedAt time.Time      `gorm:"column:applicant_created_at;not null;autoCreateTime" json:"applicant_created_at"`
	ApplicantUpdatedAt time.Time      `gorm:"column:applicant_updated_at;not null;autoUpdateTime" json:"applicant_updated_at"`
	ApplicantDeletedAt gorm.DeletedAt `gorm:"column:applicant_deleted_at;index" json:"applicant_deleted_at,omitempty"`
}

func (ApplicantModel) TableName() string {
	return "applicants"
}

func (m *ApplicantModel) BeforeCreate(tx *gorm.DB) error {
	if m.ApplicantID == uuid.Nil {
		m.ApplicantID = uuid.New()
	}
	return nil
}

func (m *ApplicantModel) FullName() string {
	return strings.TrimSpace(m.ApplicantFirstName + " " + m.ApplicantLastName)
}
