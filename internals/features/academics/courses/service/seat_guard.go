package service

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"admissions_backend/internals/apperr"
	"admissions_backend/internals/features/academics/courses/model"
)

// SeatGuard moves course_enrolled inside the caller's transaction.
type SeatGuard interface {
	Claim(tx *gorm.DB, courseID uuid.UUID) error
	Release(tx *gorm.DB, courseID uuid.UUID) error
}

type seatGuard struct {
	now func() time.Time
}

func NewSeatGuard() SeatGuard {
	return &seatGuard{now: time.Now}
}

// Claim takes one seat with a single conditional UPDATE, so two concurrent
// claims on the last seat cannot both succeed. When nothing is updated the
// course is read back to report why: NotFound, InvalidState (inactive) or
// Conflict (full).
func (s *seatGuard) Claim(tx *gorm.DB, courseID uuid.UUID) error {
	inc := tx.Model(&model.CourseModel{}).
		Where("course_id = ?", courseID).
		Where("course_is_active = ?", true).
		Where("course_enrolled < course_capacity").
		Updates(map[string]any{
			"course_enrolled":   gorm.Expr("course_enrolled + 1"),
			"course_updated_at": s.now(),
		})
	if inc.Error != nil {
		log.Printf("[SeatGuard] ERROR Claim course=%s err=%v", courseID, inc.Error)
		return apperr.FromDB(inc.Error, "course")
	}
	if inc.RowsAffected == 1 {
		return nil
	}

	var c model.CourseModel
	if err := tx.Select("course_id", "course_is_active", "course_enrolled", "course_capacity").
		Where("course_id = ?", courseID).
		First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("course not found")
		}
		return apperr.FromDB(err, "course")
	}
	if !c.CourseIsActive {
		return apperr.InvalidState("course is not active")
	}
	log.Printf("[SeatGuard] FULL course=%s enrolled=%d capacity=%d", courseID, c.CourseEnrolled, c.CourseCapacity)
	return apperr.Conflict("course is full")
}

// Release gives one seat back; the counter never goes below zero.
func (s *seatGuard) Release(tx *gorm.DB, courseID uuid.UUID) error {
	dec := tx.Model(&model.CourseModel{}).
		Where("course_id = ?", courseID).
		Where("course_enrolled > 0").
		Updates(map[string]any{
			"course_enrolled":   gorm.Expr("course_enrolled - 1"),
			"course_updated_at": s.now(),
		})
	if dec.Error != nil {
		log.Printf("[SeatGuard] ERROR Release course=%s err=%v", courseID, dec.Error)
		return apperr.FromDB(dec.Error, "course")
	}
	if dec.RowsAffected == 0 {
		log.Printf("[SeatGuard] WARN Release course=%s counter already at zero", courseID)
	}
	return nil
}
