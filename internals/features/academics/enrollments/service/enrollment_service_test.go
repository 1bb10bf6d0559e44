package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"admissions_backend/internals/apperr"
	"admissions_backend/internals/databases/dbtest"
	courseModel "admissions_backend/internals/features/academics/courses/model"
	"admissions_backend/internals/features/academics/enrollments/model"
	studentModel "admissions_backend/internals/features/academics/students/model"
)

const csProgram = "Computer Science"

func newTestService(t *testing.T) (*EnrollmentService, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t, &studentModel.StudentModel{}, &courseModel.CourseModel{}, &model.CourseEnrollmentModel{})
	svc := NewEnrollmentService(db, nil)

	// strictly increasing clock so "latest" is well defined
	var mu sync.Mutex
	clock := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, db
}

func seedStudent(t *testing.T, db *gorm.DB, program string, status studentModel.StudentStatus) *studentModel.StudentModel {
	t.Helper()
	st := &studentModel.StudentModel{
		StudentApplicantID:     uuid.New(),
		StudentCode:            "STU-2026-" + uuid.NewString()[:8],
		StudentProgram:         program,
		StudentStatus:          status,
		StudentCreditsRequired: studentModel.DefaultCreditsRequired,
		StudentEnrollmentDate:  time.Now(),
	}
	if err := db.Create(st).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}
	return st
}

func seedCourse(t *testing.T, db *gorm.DB, code, program string, capacity int) *courseModel.CourseModel {
	t.Helper()
	c := &courseModel.CourseModel{
		CourseCode:     code,
		CourseName:     code + " course",
		CourseCredits:  3,
		CourseProgram:  program,
		CourseCapacity: capacity,
		CourseIsActive: true,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return c
}

func enrolledCount(t *testing.T, db *gorm.DB, courseID uuid.UUID) int {
	t.Helper()
	var c courseModel.CourseModel
	if err := db.Where("course_id = ?", courseID).First(&c).Error; err != nil {
		t.Fatalf("reload course: %v", err)
	}
	return c.CourseEnrolled
}

func TestEnrollTakesSeat(t *testing.T) {
	svc, db := newTestService(t)
	st := seedStudent(t, db, csProgram, studentModel.StudentActive)
	c := seedCourse(t, db, "CS101", csProgram, 2)

	e, err := svc.Enroll(context.Background(), st.StudentID, c.CourseID)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if e.CourseEnrollmentStatus != model.EnrollmentEnrolled || e.CourseEnrollmentEnrolledAt.IsZero() {
		t.Fatalf("unexpected enrollment %+v", e)
	}
	if got := enrolledCount(t, db, c.CourseID); got != 1 {
		t.Fatalf("enrolled = %d, want 1", got)
	}
	ok, err := svc.IsEnrolled(context.Background(), st.StudentID, c.CourseID)
	if err != nil || !ok {
		t.Fatalf("IsEnrolled = %v, %v", ok, err)
	}
}

func TestEnrollRejections(t *testing.T) {
	svc, db := newTestService(t)
	st := seedStudent(t, db, csProgram, studentModel.StudentActive)
	cs := seedCourse(t, db, "CS101", csProgram, 5)
	it := seedCourse(t, db, "IT101", "Information Technology", 5)
	full := seedCourse(t, db, "CS199", csProgram, 0)
	inactive := seedCourse(t, db, "CS150", csProgram, 5)
	if err := db.Model(inactive).Update("course_is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	suspended := seedStudent(t, db, csProgram, studentModel.StudentSuspended)
	lowercase := seedStudent(t, db, "computer science", studentModel.StudentActive)

	if _, err := svc.Enroll(context.Background(), st.StudentID, cs.CourseID); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	cases := []struct {
		name      string
		studentID uuid.UUID
		courseID  uuid.UUID
		want      error
	}{
		{"unknown student", uuid.New(), cs.CourseID, apperr.ErrNotFound},
		{"unknown course", st.StudentID, uuid.New(), apperr.ErrNotFound},
		{"duplicate", st.StudentID, cs.CourseID, apperr.ErrConflict},
		{"program mismatch", st.StudentID, it.CourseID, apperr.ErrInvalidState},
		{"course full", st.StudentID, full.CourseID, apperr.ErrConflict},
		{"inactive course", st.StudentID, inactive.CourseID, apperr.ErrInvalidState},
		{"suspended student", suspended.StudentID, cs.CourseID, apperr.ErrInvalidState},
		{"program differs only in case", lowercase.StudentID, cs.CourseID, apperr.ErrInvalidState},
	}
	for _, tc := range cases {
		_, err := svc.Enroll(context.Background(), tc.studentID, tc.courseID)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want kind %s", tc.name, err, apperr.KindOf(tc.want))
		}
	}

	if got := enrolledCount(t, db, cs.CourseID); got != 1 {
		t.Fatalf("CS101 enrolled = %d, want 1", got)
	}
	if got := enrolledCount(t, db, it.CourseID); got != 0 {
		t.Fatalf("IT101 enrolled = %d, want 0", got)
	}
}

// The in-memory pool serializes these transactions; overlapping claims are
// exercised against a shared file database in the seat guard tests. This
// one checks that rows and the counter agree after a burst of enrollments.
func TestConcurrentEnrollLastSeat(t *testing.T) {
	svc, db := newTestService(t)
	c := seedCourse(t, db, "CS101", csProgram, 1)

	const n = 8
	students := make([]*studentModel.StudentModel, n)
	for i := range students {
		students[i] = seedStudent(t, db, csProgram, studentModel.StudentActive)
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Enroll(context.Background(), students[i].StudentID, c.CourseID)
		}(i)
	}
	close(start)
	wg.Wait()

	ok := 0
	for i, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperr.IsConflict(err):
		default:
			t.Fatalf("student %d: unexpected err %v", i, err)
		}
	}
	if ok != 1 {
		t.Fatalf("successful enrollments = %d, want 1", ok)
	}
	if got := enrolledCount(t, db, c.CourseID); got != 1 {
		t.Fatalf("enrolled = %d, want 1", got)
	}
	var rows int64
	db.Model(&model.CourseEnrollmentModel{}).Where("course_enrollment_course_id = ?", c.CourseID).Count(&rows)
	if rows != 1 {
		t.Fatalf("enrollment rows = %d, want 1", rows)
	}
}

func TestDropAndReenroll(t *testing.T) {
	svc, db := newTestService(t)
	st := seedStudent(t, db, csProgram, studentModel.StudentActive)
	c := seedCourse(t, db, "CS101", csProgram, 1)
	ctx := context.Background()

	first, err := svc.Enroll(ctx, st.StudentID, c.CourseID)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if err := svc.Drop(ctx, st.StudentID, c.CourseID); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if got := enrolledCount(t, db, c.CourseID); got != 0 {
		t.Fatalf("enrolled after drop = %d, want 0", got)
	}

	if err := svc.Drop(ctx, st.StudentID, c.CourseID); !apperr.IsInvalidState(err) {
		t.Fatalf("second drop: err = %v, want InvalidState", err)
	}
	if got := enrolledCount(t, db, c.CourseID); got != 0 {
		t.Fatalf("enrolled after second drop = %d, want 0", got)
	}

	second, err := svc.Enroll(ctx, st.StudentID, c.CourseID)
	if err != nil {
		t.Fatalf("re-enroll: %v", err)
	}
	if second.CourseEnrollmentID == first.CourseEnrollmentID {
		t.Fatalf("re-enroll reused the dropped row")
	}

	var old model.CourseEnrollmentModel
	if err := db.Where("course_enrollment_id = ?", first.CourseEnrollmentID).First(&old).Error; err != nil {
		t.Fatalf("reload first: %v", err)
	}
	if old.CourseEnrollmentStatus != model.EnrollmentDropped || old.CourseEnrollmentDroppedAt == nil {
		t.Fatalf("first row = %+v", old)
	}
	if got := enrolledCount(t, db, c.CourseID); got != 1 {
		t.Fatalf("enrolled after re-enroll = %d, want 1", got)
	}

	// with the ENROLLED row present, drop targets it rather than the old one
	if err := svc.Drop(ctx, st.StudentID, c.CourseID); err != nil {
		t.Fatalf("drop re-enrollment: %v", err)
	}
}

func TestDropWithoutEnrollment(t *testing.T) {
	svc, db := newTestService(t)
	st := seedStudent(t, db, csProgram, studentModel.StudentActive)
	c := seedCourse(t, db, "CS101", csProgram, 3)

	if err := svc.Drop(context.Background(), st.StudentID, c.CourseID); !apperr.IsNotFound(err) {
		t.Fatalf("err = %v, want NotFound", err)
	}
	if got := enrolledCount(t, db, c.CourseID); got != 0 {
		t.Fatalf("enrolled = %d, want 0", got)
	}
}

func TestDropNeverGoesBelowZero(t *testing.T) {
	svc, db := newTestService(t)
	st := seedStudent(t, db, csProgram, studentModel.StudentActive)
	c := seedCourse(t, db, "CS101", csProgram, 3)

	if _, err := svc.Enroll(context.Background(), st.StudentID, c.CourseID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	// counter drifted to zero behind the ledger's back
	if err := db.Model(c).Update("course_enrolled", 0).Error; err != nil {
		t.Fatalf("reset counter: %v", err)
	}
	if err := svc.Drop(context.Background(), st.StudentID, c.CourseID); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if got := enrolledCount(t, db, c.CourseID); got != 0 {
		t.Fatalf("enrolled = %d, want 0", got)
	}
}

func TestEnrollBatchIsAllOrNothing(t *testing.T) {
	svc, db := newTestService(t)
	st := seedStudent(t, db, csProgram, studentModel.StudentActive)
	a := seedCourse(t, db, "CS101", csProgram, 5)
	b := seedCourse(t, db, "CS102", csProgram, 5)
	full := seedCourse(t, db, "CS103", csProgram, 0)
	ctx := context.Background()

	_, err := svc.EnrollBatch(ctx, st.StudentID, []uuid.UUID{a.CourseID, b.CourseID, full.CourseID})
	var be *BatchError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want *BatchError", err)
	}
	if be.Index != 2 || be.CourseID != full.CourseID || !apperr.IsConflict(be.Err) {
		t.Fatalf("batch error = %+v", be)
	}
	if !apperr.IsConflict(err) {
		t.Fatalf("batch error kind is not reachable through errors.Is")
	}
	for _, c := range []*courseModel.CourseModel{a, b} {
		if got := enrolledCount(t, db, c.CourseID); got != 0 {
			t.Fatalf("%s enrolled = %d after rollback", c.CourseCode, got)
		}
	}
	var rows int64
	db.Model(&model.CourseEnrollmentModel{}).Count(&rows)
	if rows != 0 {
		t.Fatalf("enrollment rows = %d after rollback", rows)
	}

	got, err := svc.EnrollBatch(ctx, st.StudentID, []uuid.UUID{a.CourseID, b.CourseID})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if enrolledCount(t, db, a.CourseID) != 1 || enrolledCount(t, db, b.CourseID) != 1 {
		t.Fatalf("counters not incremented")
	}
}

func TestEnrollBatchDuplicateCourse(t *testing.T) {
	svc, db := newTestService(t)
	st := seedStudent(t, db, csProgram, studentModel.StudentActive)
	a := seedCourse(t, db, "CS101", csProgram, 5)

	_, err := svc.EnrollBatch(context.Background(), st.StudentID, []uuid.UUID{a.CourseID, a.CourseID})
	var be *BatchError
	if !errors.As(err, &be) || be.Index != 1 || !apperr.IsConflict(be.Err) {
		t.Fatalf("err = %v", err)
	}
	if got := enrolledCount(t, db, a.CourseID); got != 0 {
		t.Fatalf("enrolled = %d after rollback", got)
	}

	if _, err := svc.EnrollBatch(context.Background(), st.StudentID, nil); !apperr.IsValidation(err) {
		t.Fatalf("empty batch: err = %v, want Validation", err)
	}
}

func TestListForStudent(t *testing.T) {
	svc, db := newTestService(t)
	st := seedStudent(t, db, csProgram, studentModel.StudentActive)
	a := seedCourse(t, db, "CS101", csProgram, 5)
	b := seedCourse(t, db, "CS102", csProgram, 5)
	ctx := context.Background()

	for _, c := range []*courseModel.CourseModel{a, b} {
		if _, err := svc.Enroll(ctx, st.StudentID, c.CourseID); err != nil {
			t.Fatalf("enroll %s: %v", c.CourseCode, err)
		}
	}
	if err := svc.Drop(ctx, st.StudentID, a.CourseID); err != nil {
		t.Fatalf("drop: %v", err)
	}

	all, err := svc.ListForStudent(ctx, st.StudentID, false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all = %d, want 2", len(all))
	}
	// newest first
	if all[0].CourseCode != "CS102" || all[0].CourseName != "CS102 course" || all[0].CourseCredits != 3 {
		t.Fatalf("first view = %+v", all[0])
	}

	active, err := svc.ListForStudent(ctx, st.StudentID, true)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].CourseEnrollmentCourseID != b.CourseID {
		t.Fatalf("active = %+v", active)
	}

	for _, activeOnly := range []bool{false, true} {
		if _, err := svc.ListForStudent(ctx, uuid.New(), activeOnly); !apperr.IsNotFound(err) {
			t.Fatalf("unknown student activeOnly=%v: err = %v, want NotFound", activeOnly, err)
		}
	}

	empty := seedStudent(t, db, csProgram, studentModel.StudentActive)
	rows, err := svc.ListForStudent(ctx, empty.StudentID, false)
	if err != nil || len(rows) != 0 {
		t.Fatalf("empty student: rows=%d err=%v", len(rows), err)
	}
}
