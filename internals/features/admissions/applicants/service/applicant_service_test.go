package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"admissions_backend/internals/apperr"
	"admissions_backend/internals/databases/dbtest"
	"admissions_backend/internals/features/admissions/applicants/model"
	"admissions_backend/internals/features/admissions/applicants/repository"
	"admissions_backend/internals/features/admissions/scoring"
	"admissions_backend/internals/features/notifications"
)

type fakeNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (f *fakeNotifier) NotifyAsync(ev notifications.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeNotifier) kinds() []notifications.Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notifications.Kind, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Kind)
	}
	return out
}

func newTestService(t *testing.T) (*ApplicantService, *fakeNotifier, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t, &model.ApplicantModel{}, &model.ApplicantStatusLogModel{}, &model.ApplicantNoteModel{})
	n := &fakeNotifier{}
	svc := NewApplicantService(db, n)
	base := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return base }
	return svc, n, db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

func validInput(email string) SubmitInput {
	return SubmitInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Program:   "Computer Science",
		GPA:       dec("3.00"),
		TestScore: 75,
	}
}

func TestSubmitCreatesPendingApplicantWithScore(t *testing.T) {
	svc, n, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Submit(ctx, validInput("  Ada@Example.com "))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if a.ApplicantStatus != model.ApplicantPending {
		t.Fatalf("status = %s", a.ApplicantStatus)
	}
	if a.ApplicantEmail != "ada@example.com" {
		t.Fatalf("email not normalized: %q", a.ApplicantEmail)
	}
	if a.ApplicantAIScore.StringFixed(2) != "75.00" || a.ApplicantAIHint != string(scoring.TierAccept) {
		t.Fatalf("score = %s hint = %s", a.ApplicantAIScore.StringFixed(2), a.ApplicantAIHint)
	}
	if a.ApplicantVersion != 0 {
		t.Fatalf("version = %d, want 0", a.ApplicantVersion)
	}
	if k := n.kinds(); len(k) != 1 || k[0] != notifications.KindApplicantSubmitted {
		t.Fatalf("events = %v", k)
	}
}

func TestSubmitValidatesInput(t *testing.T) {
	svc, n, _ := newTestService(t)
	in := validInput("not-an-email")
	in.GPA = dec("5.01")
	in.TestScore = 101

	_, err := svc.Submit(context.Background(), in)
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("not an apperr: %v", err)
	}
	for _, f := range []string{"email", "gpa", "test_score"} {
		if len(ae.Fields[f]) == 0 {
			t.Fatalf("missing field error for %s: %v", f, ae.Fields)
		}
	}
	if len(n.kinds()) != 0 {
		t.Fatal("no event expected on validation failure")
	}

	in = validInput("ok@example.com")
	in.GPA = dec("3.125")
	if _, err := svc.Submit(context.Background(), in); !apperr.IsValidation(err) {
		t.Fatalf("three decimals should be rejected, got %v", err)
	}
}

func TestResubmissionUpdatesInPlace(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, validInput("ada@example.com"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Update(ctx, first.ApplicantID, 0, Patch{Status: ptr(model.ApplicantInReview)}, "reviewer"); err != nil {
		t.Fatalf("Update: %v", err)
	}

	again := validInput("ADA@example.com")
	again.Program = "Software Engineering"
	again.GPA = dec("2.00")
	again.TestScore = 50
	second, err := svc.Submit(ctx, again)
	if err != nil {
		t.Fatalf("re-Submit: %v", err)
	}
	if second.ApplicantID != first.ApplicantID {
		t.Fatal("re-submission should reuse the applicant")
	}
	if second.ApplicantStatus != model.ApplicantPending || second.ApplicantVersion != 2 {
		t.Fatalf("status=%s version=%d", second.ApplicantStatus, second.ApplicantVersion)
	}
	if second.ApplicantAIScore.StringFixed(2) != "50.00" || second.ApplicantAIHint != string(scoring.TierReject) {
		t.Fatalf("score not recomputed: %s %s", second.ApplicantAIScore, second.ApplicantAIHint)
	}

	var n int64
	db.Model(&model.ApplicantModel{}).Count(&n)
	if n != 1 {
		t.Fatalf("rows = %d, want 1", n)
	}
}

func TestUpdateStaleVersionIsRejectedAndWritesNothing(t *testing.T) {
	svc, n, _ := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Submit(ctx, validInput("ada@example.com"))
	if _, err := svc.Update(ctx, a.ApplicantID, 0, Patch{Program: ptr("Information Technology")}, "r1"); err != nil {
		t.Fatalf("Update: %v", err)
	}

	for i := 0; i < 3; i++ {
		_, err := svc.Update(ctx, a.ApplicantID, 0, Patch{
			Status: ptr(model.ApplicantAccepted),
			GPA:    ptr(dec("4.00")),
		}, "r2")
		if !apperr.IsConflict(err) {
			t.Fatalf("attempt %d: expected conflict, got %v", i, err)
		}
		if !strings.Contains(err.Error(), "refetch") {
			t.Fatalf("conflict should tell caller to refetch: %v", err)
		}
	}

	got, err := svc.Get(ctx, a.ApplicantID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ApplicantVersion != 1 || got.ApplicantStatus != model.ApplicantPending || !got.ApplicantGPA.Equal(dec("3.00")) {
		t.Fatalf("stale update leaked: %+v", got)
	}
	if got.ApplicantProgram != "Information Technology" {
		t.Fatalf("program = %q", got.ApplicantProgram)
	}
	for _, k := range n.kinds() {
		if k == notifications.KindApplicantStatusChanged {
			t.Fatal("no status event expected")
		}
	}
}

func TestUpdateRecomputesScoreAndNotifiesStatusChange(t *testing.T) {
	svc, n, _ := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Submit(ctx, validInput("ada@example.com"))
	got, err := svc.Update(ctx, a.ApplicantID, a.ApplicantVersion, Patch{
		TestScore: ptr(40),
		Status:    ptr(model.ApplicantInReview),
	}, "reviewer@example.com")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ApplicantAIScore.StringFixed(2) != "54.00" || got.ApplicantAIHint != string(scoring.TierReject) {
		t.Fatalf("score=%s hint=%s", got.ApplicantAIScore.StringFixed(2), got.ApplicantAIHint)
	}
	if got.ApplicantVersion != 1 {
		t.Fatalf("version = %d", got.ApplicantVersion)
	}

	n.mu.Lock()
	last := n.events[len(n.events)-1]
	n.mu.Unlock()
	if last.Kind != notifications.KindApplicantStatusChanged || last.OldStatus != "PENDING" || last.NewStatus != "IN_REVIEW" {
		t.Fatalf("unexpected event %+v", last)
	}

	logs, err := svc.StatusLog(ctx, a.ApplicantID)
	if err != nil {
		t.Fatalf("StatusLog: %v", err)
	}
	if len(logs) != 1 || logs[0].ApplicantStatusLogFrom != model.ApplicantPending ||
		logs[0].ApplicantStatusLogTo != model.ApplicantInReview || logs[0].ApplicantStatusLogVersion != 1 {
		t.Fatalf("logs = %+v", logs)
	}
	if !strings.Contains(string(logs[0].ApplicantStatusLogMeta), "reviewer@example.com") {
		t.Fatalf("meta = %s", logs[0].ApplicantStatusLogMeta)
	}
}

func TestUpdateSameStatusIsNoopForNotifications(t *testing.T) {
	svc, n, _ := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Submit(ctx, validInput("ada@example.com"))
	got, err := svc.Update(ctx, a.ApplicantID, 0, Patch{Status: ptr(model.ApplicantPending)}, "r")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ApplicantVersion != 1 {
		t.Fatalf("every write bumps the version, got %d", got.ApplicantVersion)
	}
	if len(n.kinds()) != 1 {
		t.Fatalf("events = %v", n.kinds())
	}
}

func TestStatusTransitionGraph(t *testing.T) {
	tests := []struct {
		path []model.ApplicantStatus
		ok   bool
	}{
		{[]model.ApplicantStatus{model.ApplicantInReview, model.ApplicantAccepted}, true},
		{[]model.ApplicantStatus{model.ApplicantRejected}, true},
		{[]model.ApplicantStatus{model.ApplicantAccepted, model.ApplicantPending}, false},
		{[]model.ApplicantStatus{model.ApplicantInReview, model.ApplicantPending}, false},
		{[]model.ApplicantStatus{model.ApplicantRejected, model.ApplicantAccepted}, false},
	}
	for i, tt := range tests {
		svc, _, _ := newTestService(t)
		ctx := context.Background()
		a, _ := svc.Submit(ctx, validInput("ada@example.com"))

		var err error
		version := a.ApplicantVersion
		for _, st := range tt.path {
			var got *model.ApplicantModel
			got, err = svc.Update(ctx, a.ApplicantID, version, Patch{Status: ptr(st)}, "r")
			if err != nil {
				break
			}
			version = got.ApplicantVersion
		}
		if tt.ok && err != nil {
			t.Fatalf("case %d: unexpected error %v", i, err)
		}
		if !tt.ok && !apperr.IsInvalidState(err) {
			t.Fatalf("case %d: expected invalid state, got %v", i, err)
		}
	}
}

func TestUpdateEmailCollision(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Submit(ctx, validInput("ada@example.com"))
	b, _ := svc.Submit(ctx, validInput("grace@example.com"))

	_, err := svc.Update(ctx, b.ApplicantID, 0, Patch{Email: ptr("ADA@example.com")}, "r")
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if err := svc.SoftDelete(ctx, a.ApplicantID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	got, err := svc.Update(ctx, b.ApplicantID, 0, Patch{Email: ptr("ada@example.com")}, "r")
	if err != nil {
		t.Fatalf("deleted applicant's email should be reusable: %v", err)
	}
	if got.ApplicantEmail != "ada@example.com" {
		t.Fatalf("email = %q", got.ApplicantEmail)
	}
}

func TestSoftDeleteHidesButKeepsRow(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Submit(ctx, validInput("ada@example.com"))
	if err := svc.SoftDelete(ctx, a.ApplicantID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if _, err := svc.Get(ctx, a.ApplicantID); !apperr.IsNotFound(err) {
		t.Fatalf("Get after delete: %v", err)
	}
	if err := svc.SoftDelete(ctx, a.ApplicantID); !apperr.IsNotFound(err) {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := svc.Update(ctx, a.ApplicantID, 1, Patch{Program: ptr("IT")}, "r"); !apperr.IsNotFound(err) {
		t.Fatalf("update deleted: %v", err)
	}

	row, err := repository.FindAnyByID(db, a.ApplicantID)
	if err != nil {
		t.Fatalf("row should still exist: %v", err)
	}
	if !row.ApplicantDeletedAt.Valid || row.ApplicantVersion != 1 {
		t.Fatalf("deleted_at=%v version=%d", row.ApplicantDeletedAt, row.ApplicantVersion)
	}

	// a new submission with the same email creates a fresh applicant
	b, err := svc.Submit(ctx, validInput("ada@example.com"))
	if err != nil {
		t.Fatalf("Submit after delete: %v", err)
	}
	if b.ApplicantID == a.ApplicantID {
		t.Fatal("deleted applicant must not be resurrected")
	}
}

func TestGetUnknownApplicant(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.Get(context.Background(), uuid.New()); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.ComputeHint(context.Background(), uuid.New()); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestComputeHint(t *testing.T) {
	svc, _, _ := newTestService(t)
	in := validInput("ada@example.com")
	in.GPA = dec("2.50")
	in.TestScore = 60
	a, _ := svc.Submit(context.Background(), in)

	h, err := svc.ComputeHint(context.Background(), a.ApplicantID)
	if err != nil {
		t.Fatalf("ComputeHint: %v", err)
	}
	if h.Tier != scoring.TierReview || h.Score.StringFixed(2) != "61.00" {
		t.Fatalf("hint = %+v", h)
	}
}

func TestListFilters(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, e := range []string{"ada@example.com", "grace@example.com", "alan@school.org"} {
		if _, err := svc.Submit(ctx, validInput(e)); err != nil {
			t.Fatalf("Submit %s: %v", e, err)
		}
	}
	in := validInput("linus@example.com")
	in.Program = "Information Technology"
	if _, err := svc.Submit(ctx, in); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	rows, total, err := svc.List(ctx, repository.SearchFilter{Email: "EXAMPLE"}, 0, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(rows) != 3 {
		t.Fatalf("total=%d rows=%d", total, len(rows))
	}

	rows, total, _ = svc.List(ctx, repository.SearchFilter{Program: "information"}, 0, 10)
	if total != 1 || rows[0].ApplicantEmail != "linus@example.com" {
		t.Fatalf("program filter: total=%d", total)
	}

	rows, total, _ = svc.List(ctx, repository.SearchFilter{}, 0, 2)
	if total != 4 || len(rows) != 2 {
		t.Fatalf("paging: total=%d rows=%d", total, len(rows))
	}

	if _, _, err := svc.List(ctx, repository.SearchFilter{Status: "NOPE"}, 0, 10); !apperr.IsValidation(err) {
		t.Fatalf("bad status filter: %v", err)
	}
}

func TestGetByEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	a, _ := svc.Submit(context.Background(), validInput("ada@example.com"))
	got, err := svc.GetByEmail(context.Background(), " ADA@example.com")
	if err != nil || got.ApplicantID != a.ApplicantID {
		t.Fatalf("GetByEmail: %v", err)
	}
}

func TestSubmitRetriesWhenEmailIsTakenBetweenLookupAndInsert(t *testing.T) {
	svc, n, db := newTestService(t)

	// the first insert finds a rival row with the same email already written
	inserted := false
	err := db.Callback().Create().Before("gorm:create").Register("test:rival_submission", func(d *gorm.DB) {
		m, ok := d.Statement.Dest.(*model.ApplicantModel)
		if !ok || inserted {
			return
		}
		inserted = true
		rival := &model.ApplicantModel{
			ApplicantFirstName: "Rival",
			ApplicantLastName:  "Submitter",
			ApplicantEmail:     m.ApplicantEmail,
			ApplicantProgram:   m.ApplicantProgram,
			ApplicantGPA:       m.ApplicantGPA,
			ApplicantTestScore: m.ApplicantTestScore,
			ApplicantStatus:    model.ApplicantPending,
		}
		if err := d.Session(&gorm.Session{NewDB: true}).Create(rival).Error; err != nil {
			d.AddError(err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	a, err := svc.Submit(context.Background(), validInput("ada@example.com"))
	if err != nil {
		t.Fatalf("Submit: err = %v, want success after retry", err)
	}
	if !inserted {
		t.Fatal("rival insert never ran")
	}
	if a.ApplicantStatus != model.ApplicantPending {
		t.Fatalf("status = %s", a.ApplicantStatus)
	}

	var rows int64
	db.Model(&model.ApplicantModel{}).Where("applicant_email = ?", "ada@example.com").Count(&rows)
	if rows != 1 {
		t.Fatalf("rows = %d, want 1", rows)
	}
	if got := n.kinds(); len(got) != 1 || got[0] != notifications.KindApplicantSubmitted {
		t.Fatalf("notifications = %v", got)
	}
}
