package repository

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"admissions_backend/internals/features/admissions/applicants/model"
)

/* ====================== READ ====================== */

// FindAlive returns the applicant unless it is absent or soft-deleted.
func FindAlive(db *gorm.DB, id uuid.UUID) (*model.ApplicantModel, error) {
	var m model.ApplicantModel
	if err := db.Where("applicant_id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func FindAliveByEmail(db *gorm.DB, email string) (*model.ApplicantModel, error) {
	var m model.ApplicantModel
	if err := db.Where("applicant_email = ?", email).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// FindAnyByID ignores soft deletion.
func FindAnyByID(db *gorm.DB, id uuid.UUID) (*model.ApplicantModel, error) {
	var m model.ApplicantModel
	if err := db.Unscoped().Where("applicant_id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// EmailTaken reports whether another live applicant uses email.
func EmailTaken(db *gorm.DB, email string, exceptID uuid.UUID) (bool, error) {
	var n int64
	err := db.Model(&model.ApplicantModel{}).
		Where("applicant_email = ? AND applicant_id <> ?", email, exceptID).
		Count(&n).Error
	return n > 0, err
}

type SearchFilter struct {
	Email   string
	Program string
	Status  model.ApplicantStatus
}

func Search(db *gorm.DB, f SearchFilter, offset, limit int) ([]model.ApplicantModel, int64, error) {
	q := db.Model(&model.ApplicantModel{})
	if s := strings.ToLower(strings.TrimSpace(f.Email)); s != "" {
		q = q.Where("LOWER(applicant_email) LIKE ?", "%"+s+"%")
	}
	if s := strings.ToLower(strings.TrimSpace(f.Program)); s != "" {
		q = q.Where("LOWER(applicant_program) LIKE ?", "%"+s+"%")
	}
	if f.Status != "" {
		q = q.Where("applicant_status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.ApplicantModel
	if err := q.Order("applicant_created_at DESC, applicant_id").
		Offset(offset).Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

/* ====================== WRITE ====================== */

func Create(db *gorm.DB, m *model.ApplicantModel) error {
	m.ApplicantVersion = 0
	return db.Create(m).Error
}

// SaveIfVersion writes every mutable column of m only when the stored
// version still equals expected. On success m.ApplicantVersion is expected+1.
func SaveIfVersion(db *gorm.DB, m *model.ApplicantModel, expected int, now time.Time) (bool, error) {
	res := db.Model(&model.ApplicantModel{}).
		Where("applicant_id = ? AND applicant_version = ?", m.ApplicantID, expected).
		Updates(map[string]any{
			"applicant_first_name": m.ApplicantFirstName,
			"applicant_last_name":  m.ApplicantLastName,
			"applicant_email":      m.ApplicantEmail,
			"applicant_program":    m.ApplicantProgram,
			"applicant_gpa":        m.ApplicantGPA,
			"applicant_test_score": m.ApplicantTestScore,
			"applicant_status":     m.ApplicantStatus,
			"applicant_ai_score":   m.ApplicantAIScore,
			"applicant_ai_hint":    m.ApplicantAIHint,
			"applicant_version":    expected + 1,
			"applicant_updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	m.ApplicantVersion = expected + 1
	m.ApplicantUpdatedAt = now
	return true, nil
}

// SoftDelete marks a live applicant deleted and bumps its version.
func SoftDelete(db *gorm.DB, id uuid.UUID, now time.Time) (bool, error) {
	res := db.Model(&model.ApplicantModel{}).
		Where("applicant_id = ?", id).
		Updates(map[string]any{
			"applicant_deleted_at": now,
			"applicant_version":    gorm.Expr("applicant_version + 1"),
			"applicant_updated_at": now,
		})
	return res.RowsAffected > 0, res.Error
}

/* ====================== STATUS LOG ====================== */

func InsertStatusLog(db *gorm.DB, row *model.ApplicantStatusLogModel) error {
	if row.ApplicantStatusLogID == uuid.Nil {
		row.ApplicantStatusLogID = uuid.New()
	}
	return db.Create(row).Error
}

func ListStatusLogs(db *gorm.DB, applicantID uuid.UUID) ([]model.ApplicantStatusLogModel, error) {
	var rows []model.ApplicantStatusLogModel
	err := db.Where("applicant_status_log_applicant_id = ?", applicantID).
		Order("applicant_status_log_version ASC").
		Find(&rows).Error
	return rows, err
}

/* ====================== NOTES ====================== */

func InsertNote(db *gorm.DB, row *model.ApplicantNoteModel) error {
	return db.Create(row).Error
}

// ListNotes returns an applicant's notes newest first.
func ListNotes(db *gorm.DB, applicantID uuid.UUID) ([]model.ApplicantNoteModel, error) {
	var rows []model.ApplicantNoteModel
	err := db.Where("applicant_note_applicant_id = ?", applicantID).
		Order("applicant_note_created_at DESC").
		Find(&rows).Error
	return rows, err
}

func CountNotes(db *gorm.DB, applicantID uuid.UUID) (int64, error) {
	var n int64
	err := db.Model(&model.ApplicantNoteModel{}).
		Where("applicant_note_applicant_id = ?", applicantID).
		Count(&n).Error
	return n, err
}
