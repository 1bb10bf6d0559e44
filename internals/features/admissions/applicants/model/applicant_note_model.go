package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NoteMinLength = 10
	NoteMaxLength = 5000
)

// ApplicantNoteModel is a reviewer's free-text remark on an applicant.
// Notes are append-only.
type ApplicantNoteModel struct {
	ApplicantNoteID          uuid.UUID  `gorm:"column:applicant_note_id;type:uuid;primaryKey" json:"applicant_note_id"`
	ApplicantNoteApplicantID uuid.UUID  `gorm:"column:applicant_note_applicant_id;type:uuid;not null;index:idx_applicant_notes_applicant_created,priority:1" json:"applicant_note_applicant_id"`
	ApplicantNoteReviewerID  *uuid.UUID `gorm:"column:applicant_note_reviewer_id;type:uuid;index" json:"applicant_note_reviewer_id,omitempty"`
	ApplicantNoteReviewer    string     `gorm:"column:applicant_note_reviewer;type:varchar(255);not null" json:"applicant_note_reviewer"`
	ApplicantNoteContent     string     `gorm:"column:applicant_note_content;type:text;not null" json:"applicant_note_content"`
	ApplicantNoteCreatedAt   time.Time  `gorm:"column:applicant_note_created_at;not null;autoCreateTime;index:idx_applicant_notes_applicant_created,priority:2" json:"applicant_note_created_at"`
}

func (ApplicantNoteModel) TableName() string {
	return "applicant_notes"
}

func (m *ApplicantNoteModel) BeforeCreate(tx *gorm.DB) error {
	if m.ApplicantNoteID == uuid.Nil {
		m.ApplicantNoteID = uuid.New()
	}
	return nil
}
