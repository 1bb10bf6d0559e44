package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"admissions_backend/internals/apperr"
	courseModel "admissions_backend/internals/features/academics/courses/model"
	courseService "admissions_backend/internals/features/academics/courses/service"
	"admissions_backend/internals/features/academics/enrollments/model"
	studentModel "admissions_backend/internals/features/academics/students/model"
)

type EnrollmentService struct {
	DB    *gorm.DB
	Seats courseService.SeatGuard
	Now   func() time.Time
}

func NewEnrollmentService(db *gorm.DB, seats courseService.SeatGuard) *EnrollmentService {
	if seats == nil {
		seats = courseService.NewSeatGuard()
	}
	return &EnrollmentService{DB: db, Seats: seats, Now: time.Now}
}

func (s *EnrollmentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// BatchError reports which course of a batch failed. Nothing of the batch
// was committed.
type BatchError struct {
	Index    int
	CourseID uuid.UUID
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("course %s (index %d): %v", e.CourseID, e.Index, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

/* ======================================================
   Enroll
====================================================== */

func (s *EnrollmentService) Enroll(ctx context.Context, studentID, courseID uuid.UUID) (*model.CourseEnrollmentModel, error) {
	var out *model.CourseEnrollmentModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := findStudent(tx, studentID)
		if err != nil {
			return err
		}
		out, err = s.enrollTx(tx, st, courseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Enrollment] enrolled student=%s course=%s", studentID, courseID)
	return out, nil
}

// EnrollBatch enrolls the student in every course or in none. The first
// failure rolls back the whole batch and comes back as *BatchError.
func (s *EnrollmentService) EnrollBatch(ctx context.Context, studentID uuid.UUID, courseIDs []uuid.UUID) ([]model.CourseEnrollmentModel, error) {
	if len(courseIDs) == 0 {
		return nil, apperr.Validation(map[string][]string{"course_ids": {"must not be empty"}}, "no courses given")
	}

	out := make([]model.CourseEnrollmentModel, 0, len(courseIDs))
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := findStudent(tx, studentID)
		if err != nil {
			return err
		}
		seen := make(map[uuid.UUID]struct{}, len(courseIDs))
		for i, cid := range courseIDs {
			if _, dup := seen[cid]; dup {
				return &BatchError{Index: i, CourseID: cid, Err: apperr.Conflict("course listed more than once")}
			}
			seen[cid] = struct{}{}

			m, err := s.enrollTx(tx, st, cid)
			if err != nil {
				return &BatchError{Index: i, CourseID: cid, Err: err}
			}
			out = append(out, *m)
		}
		return nil
	})
	if err != nil {
		var be *BatchError
		if errors.As(err, &be) {
			log.Printf("[Enrollment] batch rolled back student=%s failed=%s index=%d: %v", studentID, be.CourseID, be.Index, be.Err)
		}
		return nil, err
	}
	log.Printf("[Enrollment] batch enrolled student=%s courses=%d", studentID, len(out))
	return out, nil
}

// enrollTx runs the checks in order: course exists, not already enrolled,
// same program, then the seat claim. The claim and the insert share tx.
func (s *EnrollmentService) enrollTx(tx *gorm.DB, st *studentModel.StudentModel, courseID uuid.UUID) (*model.CourseEnrollmentModel, error) {
	if !st.CanEnroll() {
		return nil, apperr.InvalidState("student is %s and cannot enroll", st.StudentStatus)
	}

	var course courseModel.CourseModel
	if err := tx.Where("course_id = ?", courseID).First(&course).Error; err != nil {
		return nil, apperr.FromDB(err, "course")
	}

	enrolled, err := activeExists(tx, st.StudentID, courseID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return nil, apperr.Conflict("student is already enrolled in this course")
	}

	if !sameProgram(st.StudentProgram, course.CourseProgram) {
		return nil, apperr.InvalidState("course belongs to program %q, student is in %q", course.CourseProgram, st.StudentProgram)
	}

	if err := s.Seats.Claim(tx, courseID); err != nil {
		return nil, err
	}

	m := &model.CourseEnrollmentModel{
		CourseEnrollmentStudentID:  st.StudentID,
		CourseEnrollmentCourseID:   courseID,
		CourseEnrollmentStatus:     model.EnrollmentEnrolled,
		CourseEnrollmentEnrolledAt: s.now(),
	}
	if err := tx.Create(m).Error; err != nil {
		err = apperr.FromDB(err, "enrollment")
		if apperr.IsConflict(err) {
			// lost a race with a concurrent enroll for the same pair
			return nil, apperr.Conflict("student is already enrolled in this course")
		}
		return nil, err
	}
	return m, nil
}

// sameProgram treats a blank program on either side as unrestricted.
// Program names are stored NFC-normalized, so the match is exact.
func sameProgram(student, course string) bool {
	a, b := strings.TrimSpace(student), strings.TrimSpace(course)
	if a == "" || b == "" {
		return true
	}
	return a == b
}

/* ======================================================
   Drop
====================================================== */

// Drop marks the student's enrollment DROPPED and gives the seat back.
func (s *EnrollmentService) Drop(ctx context.Context, studentID, courseID uuid.UUID) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := currentEnrollment(tx, studentID, courseID)
		if err != nil {
			return err
		}
		switch cur.CourseEnrollmentStatus {
		case model.EnrollmentEnrolled:
		case model.EnrollmentDropped:
			return apperr.InvalidState("course is already dropped")
		default:
			return apperr.InvalidState("enrollment is %s and cannot be dropped", cur.CourseEnrollmentStatus)
		}

		now := s.now()
		res := tx.Model(&model.CourseEnrollmentModel{}).
			Where("course_enrollment_id = ? AND course_enrollment_status = ?", cur.CourseEnrollmentID, model.EnrollmentEnrolled).
			Updates(map[string]any{
				"course_enrollment_status":     model.EnrollmentDropped,
				"course_enrollment_dropped_at": now,
				"course_enrollment_updated_at": now,
			})
		if res.Error != nil {
			return apperr.FromDB(res.Error, "enrollment")
		}
		if res.RowsAffected == 0 {
			return apperr.InvalidState("course is already dropped")
		}
		return s.Seats.Release(tx, courseID)
	})
	if err != nil {
		return err
	}
	log.Printf("[Enrollment] dropped student=%s course=%s", studentID, courseID)
	return nil
}

/* ======================================================
   Reads
====================================================== */

// EnrollmentView is an enrollment with the course fields a student sees.
type EnrollmentView struct {
	model.CourseEnrollmentModel

	CourseCode       string
	CourseName       string
	CourseCredits    int
	CourseInstructor *string
	CourseSchedule   *string
	CourseProgram    string
}

// ListForStudent returns the student's enrollments, newest first. The
// student must exist whether or not activeOnly is set.
func (s *EnrollmentService) ListForStudent(ctx context.Context, studentID uuid.UUID, activeOnly bool) ([]EnrollmentView, error) {
	db := s.DB.WithContext(ctx)
	if _, err := findStudent(db, studentID); err != nil {
		return nil, err
	}

	q := db.Where("course_enrollment_student_id = ?", studentID)
	if activeOnly {
		q = q.Where("course_enrollment_status = ?", model.EnrollmentEnrolled)
	}
	var rows []model.CourseEnrollmentModel
	if err := q.Order("course_enrollment_enrolled_at DESC").Find(&rows).Error; err != nil {
		return nil, apperr.FromDB(err, "enrollment")
	}
	if len(rows) == 0 {
		return []EnrollmentView{}, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	seen := make(map[uuid.UUID]struct{}, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.CourseEnrollmentCourseID]; ok {
			continue
		}
		seen[r.CourseEnrollmentCourseID] = struct{}{}
		ids = append(ids, r.CourseEnrollmentCourseID)
	}
	var courses []courseModel.CourseModel
	if err := db.Where("course_id IN ?", ids).Find(&courses).Error; err != nil {
		return nil, apperr.FromDB(err, "course")
	}
	byID := make(map[uuid.UUID]*courseModel.CourseModel, len(courses))
	for i := range courses {
		byID[courses[i].CourseID] = &courses[i]
	}

	out := make([]EnrollmentView, 0, len(rows))
	for _, r := range rows {
		v := EnrollmentView{CourseEnrollmentModel: r}
		if c, ok := byID[r.CourseEnrollmentCourseID]; ok {
			v.CourseCode = c.CourseCode
			v.CourseName = c.CourseName
			v.CourseCredits = c.CourseCredits
			v.CourseInstructor = c.CourseInstructor
			v.CourseSchedule = c.CourseSchedule
			v.CourseProgram = c.CourseProgram
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *EnrollmentService) IsEnrolled(ctx context.Context, studentID, courseID uuid.UUID) (bool, error) {
	return activeExists(s.DB.WithContext(ctx), studentID, courseID)
}

/* ======================================================
   Helpers
====================================================== */

func findStudent(db *gorm.DB, id uuid.UUID) (*studentModel.StudentModel, error) {
	var st studentModel.StudentModel
	if err := db.Where("student_id = ?", id).First(&st).Error; err != nil {
		return nil, apperr.FromDB(err, "student")
	}
	return &st, nil
}

func activeExists(db *gorm.DB, studentID, courseID uuid.UUID) (bool, error) {
	var n int64
	err := db.Model(&model.CourseEnrollmentModel{}).
		Where("course_enrollment_student_id = ? AND course_enrollment_course_id = ? AND course_enrollment_status = ?",
			studentID, courseID, model.EnrollmentEnrolled).
		Count(&n).Error
	if err != nil {
		return false, apperr.FromDB(err, "enrollment")
	}
	return n > 0, nil
}

// currentEnrollment prefers the ENROLLED row for the pair and falls back
// to the most recent one.
func currentEnrollment(tx *gorm.DB, studentID, courseID uuid.UUID) (*model.CourseEnrollmentModel, error) {
	var m model.CourseEnrollmentModel
	err := tx.Where("course_enrollment_student_id = ? AND course_enrollment_course_id = ?", studentID, courseID).
		Order(fmt.Sprintf("CASE WHEN course_enrollment_status = '%s' THEN 0 ELSE 1 END", model.EnrollmentEnrolled)).
		Order("course_enrollment_enrolled_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("enrollment not found")
		}
		return nil, apperr.FromDB(err, "enrollment")
	}
	return &m, nil
}
