package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"admissions_backend/internals/apperr"
	"admissions_backend/internals/features/academics/students/model"
	applicantModel "admissions_backend/internals/features/admissions/applicants/model"
	applicantRepo "admissions_backend/internals/features/admissions/applicants/repository"
)

// codeAttempts bounds the retries when two admissions race for the same
// student code.
const codeAttempts = 5

type StudentService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewStudentService(db *gorm.DB) *StudentService {
	return &StudentService{DB: db, Now: time.Now}
}

func (s *StudentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

/* ======================================================
   Admission
====================================================== */

// AdmitApplicant turns an ACCEPTED applicant into an ACTIVE student. The
// call is idempotent: an applicant already admitted gets the existing row
// back with created=false.
func (s *StudentService) AdmitApplicant(ctx context.Context, applicantID uuid.UUID) (*model.StudentModel, bool, error) {
	db := s.DB.WithContext(ctx)

	app, err := applicantRepo.FindAlive(db, applicantID)
	if err != nil {
		return nil, false, apperr.FromDB(err, "applicant")
	}
	if app.ApplicantStatus != applicantModel.ApplicantAccepted {
		return nil, false, apperr.InvalidState("applicant must be ACCEPTED to be admitted (current %s)", app.ApplicantStatus)
	}

	if existing, err := s.findByApplicant(db, applicantID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, apperr.FromDB(err, "student")
	}

	now := s.now()
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := s.nextCode(db, now.Year(), attempt)
		if err != nil {
			return nil, false, apperr.FromDB(err, "student")
		}
		m := &model.StudentModel{
			StudentApplicantID:     app.ApplicantID,
			StudentCode:            code,
			StudentProgram:         app.ApplicantProgram,
			StudentStatus:          model.StudentActive,
			StudentGPA:             app.ApplicantGPA,
			StudentCreditsEarned:   0,
			StudentCreditsRequired: model.DefaultCreditsRequired,
			StudentEnrollmentDate:  now,
		}
		err = db.Create(m).Error
		if err == nil {
			log.Printf("[Student] admitted applicant=%s student=%s code=%s", app.ApplicantID, m.StudentID, m.StudentCode)
			return m, true, nil
		}
		if !apperr.IsConflict(apperr.FromDB(err, "student")) {
			return nil, false, apperr.FromDB(err, "student")
		}
		// Either another request admitted this applicant or the code was taken.
		if existing, ferr := s.findByApplicant(db, applicantID); ferr == nil {
			return existing, false, nil
		}
		log.Printf("[Student] code %s taken, retrying (attempt %d)", code, attempt+1)
	}
	return nil, false, apperr.Conflict("could not allocate a student code, retry later")
}

// nextCode returns STU-YYYY-NNNN, numbered after the students already
// admitted this year.
func (s *StudentService) nextCode(db *gorm.DB, year, attempt int) (string, error) {
	var n int64
	if err := db.Model(&model.StudentModel{}).
		Where("student_code LIKE ?", fmt.Sprintf("STU-%d-%%", year)).
		Count(&n).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("STU-%d-%04d", year, n+1+int64(attempt)), nil
}

func (s *StudentService) findByApplicant(db *gorm.DB, applicantID uuid.UUID) (*model.StudentModel, error) {
	var m model.StudentModel
	if err := db.Where("student_applicant_id = ?", applicantID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

/* ======================================================
   Reads
====================================================== */

func (s *StudentService) Get(ctx context.Context, id uuid.UUID) (*model.StudentModel, error) {
	var m model.StudentModel
	if err := s.DB.WithContext(ctx).Where("student_id = ?", id).First(&m).Error; err != nil {
		return nil, apperr.FromDB(err, "student")
	}
	return &m, nil
}

func (s *StudentService) GetByApplicant(ctx context.Context, applicantID uuid.UUID) (*model.StudentModel, error) {
	m, err := s.findByApplicant(s.DB.WithContext(ctx), applicantID)
	if err != nil {
		return nil, apperr.FromDB(err, "student")
	}
	return m, nil
}

/* ======================================================
   Status
====================================================== */

func (s *StudentService) Suspend(ctx context.Context, id uuid.UUID) (*model.StudentModel, error) {
	return s.moveStatus(ctx, id, model.StudentActive, model.StudentSuspended)
}

func (s *StudentService) Reactivate(ctx context.Context, id uuid.UUID) (*model.StudentModel, error) {
	return s.moveStatus(ctx, id, model.StudentSuspended, model.StudentActive)
}

func (s *StudentService) moveStatus(ctx context.Context, id uuid.UUID, from, to model.StudentStatus) (*model.StudentModel, error) {
	var out *model.StudentModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.StudentModel{}).
			Where("student_id = ? AND student_status = ?", id, from).
			Updates(map[string]any{
				"student_status":     to,
				"student_updated_at": s.now(),
			})
		if res.Error != nil {
			return apperr.FromDB(res.Error, "student")
		}

		var m model.StudentModel
		if err := tx.Where("student_id = ?", id).First(&m).Error; err != nil {
			return apperr.FromDB(err, "student")
		}
		if res.RowsAffected == 0 {
			return apperr.InvalidState("student is %s, expected %s", m.StudentStatus, from)
		}
		out = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Student] status id=%s %s -> %s", id, from, to)
	return out, nil
}
