package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"admissions_backend/internals/apperr"
	"admissions_backend/internals/features/academics/courses/model"
)

type CourseService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewCourseService(db *gorm.DB) *CourseService {
	return &CourseService{DB: db, Now: time.Now}
}

type CreateCourseInput struct {
	Code        string
	Name        string
	Credits     int
	Instructor  *string
	Schedule    *string
	Program     string
	Description *string
	// Capacity nil means model.DefaultCourseCapacity.
	Capacity *int
}

func (s *CourseService) Create(ctx context.Context, in CreateCourseInput) (*model.CourseModel, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	name := strings.TrimSpace(in.Name)
	program := normalizeProgram(in.Program)

	fields := map[string][]string{}
	if code == "" || len(code) > 20 {
		fields["course_code"] = append(fields["course_code"], "must be 1 to 20 characters")
	}
	if name == "" {
		fields["course_name"] = append(fields["course_name"], "is required")
	}
	if program == "" {
		fields["course_program"] = append(fields["course_program"], "is required")
	}
	if in.Credits < 0 {
		fields["course_credits"] = append(fields["course_credits"], "must not be negative")
	}
	capacity := model.DefaultCourseCapacity
	if in.Capacity != nil {
		capacity = *in.Capacity
	}
	if capacity < 0 {
		fields["course_capacity"] = append(fields["course_capacity"], "must not be negative")
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(fields, "invalid course")
	}

	m := &model.CourseModel{
		CourseCode:        code,
		CourseName:        name,
		CourseCredits:     in.Credits,
		CourseInstructor:  in.Instructor,
		CourseSchedule:    in.Schedule,
		CourseProgram:     program,
		CourseDescription: in.Description,
		CourseCapacity:    capacity,
		CourseEnrolled:    0,
		CourseIsActive:    true,
	}
	if err := s.DB.WithContext(ctx).Create(m).Error; err != nil {
		return nil, apperr.FromDB(err, "course")
	}
	log.Printf("[Course] created id=%s code=%s capacity=%d", m.CourseID, m.CourseCode, m.CourseCapacity)
	return m, nil
}

func (s *CourseService) Get(ctx context.Context, id uuid.UUID) (*model.CourseModel, error) {
	var m model.CourseModel
	if err := s.DB.WithContext(ctx).Where("course_id = ?", id).First(&m).Error; err != nil {
		return nil, apperr.FromDB(err, "course")
	}
	return &m, nil
}

func (s *CourseService) List(ctx context.Context, program string, activeOnly bool) ([]model.CourseModel, error) {
	q := s.DB.WithContext(ctx).Model(&model.CourseModel{})
	if p := normalizeProgram(program); p != "" {
		q = q.Where("course_program = ?", p)
	}
	if activeOnly {
		q = q.Where("course_is_active = ?", true)
	}
	var rows []model.CourseModel
	if err := q.Order("course_code ASC").Find(&rows).Error; err != nil {
		return nil, apperr.FromDB(err, "course")
	}
	return rows, nil
}

// UpdateCapacity refuses to go below the seats already taken. The guard is
// part of the UPDATE so it holds against concurrent enrollments.
func (s *CourseService) UpdateCapacity(ctx context.Context, id uuid.UUID, capacity int) (*model.CourseModel, error) {
	if capacity < 0 {
		return nil, apperr.Validation(map[string][]string{"course_capacity": {"must not be negative"}}, "invalid capacity")
	}

	var out *model.CourseModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.CourseModel{}).
			Where("course_id = ? AND course_enrolled <= ?", id, capacity).
			Updates(map[string]any{
				"course_capacity":   capacity,
				"course_updated_at": s.now(),
			})
		if res.Error != nil {
			return apperr.FromDB(res.Error, "course")
		}

		var m model.CourseModel
		if err := tx.Where("course_id = ?", id).First(&m).Error; err != nil {
			return apperr.FromDB(err, "course")
		}
		if res.RowsAffected == 0 {
			return apperr.InvalidState("capacity %d is below the %d students already enrolled", capacity, m.CourseEnrolled)
		}
		out = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Course] capacity id=%s capacity=%d", id, capacity)
	return out, nil
}

func (s *CourseService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.CourseModel, error) {
	var out *model.CourseModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.CourseModel{}).
			Where("course_id = ?", id).
			Updates(map[string]any{
				"course_is_active":  active,
				"course_updated_at": s.now(),
			})
		if res.Error != nil {
			return apperr.FromDB(res.Error, "course")
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("course not found")
		}
		var m model.CourseModel
		if err := tx.Where("course_id = ?", id).First(&m).Error; err != nil {
			return apperr.FromDB(err, "course")
		}
		out = &m
		return nil
	})
	return out, err
}

// ReconcileCounters recomputes course_enrolled from the ENROLLED rows and
// returns how many courses had drifted. Each course is fixed in its own
// transaction under the course row lock, the lock Claim and Release also
// wait on, so an enrollment committing mid-run is always counted.
func (s *CourseService) ReconcileCounters(ctx context.Context) (int64, error) {
	var ids []uuid.UUID
	if err := s.DB.WithContext(ctx).Model(&model.CourseModel{}).
		Order("course_code ASC").
		Pluck("course_id", &ids).Error; err != nil {
		return 0, apperr.FromDB(err, "course")
	}

	var fixed int64
	for _, id := range ids {
		var changed bool
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			changed, err = s.recountCourse(tx, id)
			return err
		})
		if err != nil {
			return fixed, err
		}
		if changed {
			fixed++
		}
	}
	if fixed > 0 {
		log.Printf("[Course] reconcile fixed %d course counter(s)", fixed)
	}
	return fixed, nil
}

func (s *CourseService) recountCourse(tx *gorm.DB, id uuid.UUID) (bool, error) {
	var c model.CourseModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("course_id", "course_enrolled").
		Where("course_id = ?", id).
		First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, apperr.FromDB(err, "course")
	}

	var n int64
	if err := tx.Table("course_enrollments").
		Where("course_enrollment_course_id = ? AND course_enrollment_status = ?", id, "ENROLLED").
		Count(&n).Error; err != nil {
		return false, apperr.FromDB(err, "enrollment")
	}
	if int64(c.CourseEnrolled) == n {
		return false, nil
	}

	if err := tx.Model(&model.CourseModel{}).
		Where("course_id = ?", id).
		Updates(map[string]any{
			"course_enrolled":   n,
			"course_updated_at": s.now(),
		}).Error; err != nil {
		return false, apperr.FromDB(err, "course")
	}
	log.Printf("[Course] reconcile course=%s enrolled %d -> %d", id, c.CourseEnrolled, n)
	return true, nil
}

// normalizeProgram matches how applicant programs are stored, so student and
// course programs compare byte for byte.
func normalizeProgram(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

func (s *CourseService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
