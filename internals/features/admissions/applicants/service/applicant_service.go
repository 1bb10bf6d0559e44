package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"admissions_backend/internals/apperr"
	"admissions_backend/internals/features/admissions/applicants/model"
	"admissions_backend/internals/features/admissions/applicants/repository"
	"admissions_backend/internals/features/admissions/scoring"
	"admissions_backend/internals/features/notifications"
)

// errEmailRace marks an insert that lost the email to a concurrent submission.
var errEmailRace = errors.New("applicant email taken concurrently")

const staleVersionMsg = "applicant was modified by another user; refetch and retry with the current version"

// Notifier receives events after commit. It must not block.
type Notifier interface {
	NotifyAsync(ev notifications.Event)
}

type ApplicantService struct {
	DB       *gorm.DB
	Notifier Notifier
	Now      func() time.Time
}

func NewApplicantService(db *gorm.DB, n Notifier) *ApplicantService {
	return &ApplicantService{DB: db, Notifier: n, Now: time.Now}
}

type SubmitInput struct {
	FirstName string
	LastName  string
	Email     string
	Program   string
	GPA       decimal.Decimal
	TestScore int
}

// Patch carries a partial update; nil fields are left untouched.
type Patch struct {
	FirstName *string
	LastName  *string
	Email     *string
	Program   *string
	GPA       *decimal.Decimal
	TestScore *int
	Status    *model.ApplicantStatus
}

func (s *ApplicantService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

/* ======================================================
   Submit
====================================================== */

// Submit creates a PENDING applicant, or re-submits the live applicant that
// already owns the email: program, GPA and test score are replaced and the
// status goes back to PENDING.
func (s *ApplicantService) Submit(ctx context.Context, in SubmitInput) (*model.ApplicantModel, error) {
	in.FirstName = normalizeText(in.FirstName)
	in.LastName = normalizeText(in.LastName)
	in.Program = normalizeText(in.Program)
	in.Email = normalizeEmail(in.Email)

	fe := fieldErrors{}
	checkEmail(fe, in.Email)
	checkProgram(fe, in.Program)
	checkGPA(fe, in.GPA)
	checkTestScore(fe, in.TestScore)
	if err := fe.err(); err != nil {
		return nil, err
	}

	// A concurrent first submission can win the email between lookup and
	// insert; the second attempt then takes the re-submission path.
	var (
		out       *model.ApplicantModel
		oldStatus model.ApplicantStatus
		err       error
	)
	for attempt := 0; attempt < 2; attempt++ {
		out, oldStatus, err = s.submitOnce(ctx, in)
		if !errors.Is(err, errEmailRace) {
			break
		}
		log.Printf("[Applicant] email %s taken concurrently, retrying as re-submission", in.Email)
	}
	if errors.Is(err, errEmailRace) {
		return nil, apperr.Conflict("an application with this email is being submitted, try again")
	}
	if err != nil {
		return nil, err
	}

	log.Printf("[Applicant] submitted id=%s email=%s score=%s tier=%s",
		out.ApplicantID, out.ApplicantEmail, out.ApplicantAIScore.StringFixed(2), out.ApplicantAIHint)
	s.notify(notifications.KindApplicantSubmitted, out, string(oldStatus))
	return out, nil
}

// submitOnce runs one lookup-then-write transaction for Submit.
func (s *ApplicantService) submitOnce(ctx context.Context, in SubmitInput) (*model.ApplicantModel, model.ApplicantStatus, error) {
	var out *model.ApplicantModel
	var oldStatus model.ApplicantStatus
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := repository.FindAliveByEmail(tx, in.Email)
		switch {
		case err == nil:
			oldStatus = cur.ApplicantStatus
			cur.ApplicantProgram = in.Program
			cur.ApplicantGPA = in.GPA
			cur.ApplicantTestScore = in.TestScore
			cur.ApplicantStatus = model.ApplicantPending
			applyScore(cur)

			ok, err := repository.SaveIfVersion(tx, cur, cur.ApplicantVersion, s.now())
			if err != nil {
				return apperr.FromDB(err, "applicant")
			}
			if !ok {
				return apperr.Conflict(staleVersionMsg)
			}
			if oldStatus != model.ApplicantPending {
				if err := s.logStatus(tx, cur, oldStatus, "resubmission"); err != nil {
					return err
				}
			}
			out = cur
			return nil

		case errors.Is(err, gorm.ErrRecordNotFound):
			nf := fieldErrors{}
			checkName(nf, "first_name", in.FirstName)
			checkName(nf, "last_name", in.LastName)
			if err := nf.err(); err != nil {
				return err
			}
			m := &model.ApplicantModel{
				ApplicantFirstName: in.FirstName,
				ApplicantLastName:  in.LastName,
				ApplicantEmail:     in.Email,
				ApplicantProgram:   in.Program,
				ApplicantGPA:       in.GPA,
				ApplicantTestScore: in.TestScore,
				ApplicantStatus:    model.ApplicantPending,
			}
			applyScore(m)
			if err := repository.Create(tx, m); err != nil {
				err = apperr.FromDB(err, "applicant")
				if apperr.IsConflict(err) {
					return errEmailRace
				}
				return err
			}
			out = m
			return nil

		default:
			return apperr.FromDB(err, "applicant")
		}
	})
	if err != nil {
		return nil, "", err
	}
	return out, oldStatus, nil
}

/* ======================================================
   Update
====================================================== */

// Update applies p when expectedVersion matches the stored version. A stale
// version fails with Conflict and writes nothing; the caller refetches.
// actor is recorded on status log rows.
func (s *ApplicantService) Update(ctx context.Context, id uuid.UUID, expectedVersion int, p Patch, actor string) (*model.ApplicantModel, error) {
	if err := normalizePatch(&p); err != nil {
		return nil, err
	}

	var out *model.ApplicantModel
	var oldStatus model.ApplicantStatus
	statusChanged := false

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := repository.FindAlive(tx, id)
		if err != nil {
			return apperr.FromDB(err, "applicant")
		}
		if cur.ApplicantVersion != expectedVersion {
			return apperr.Conflict(staleVersionMsg)
		}

		if p.Email != nil && *p.Email != cur.ApplicantEmail {
			taken, err := repository.EmailTaken(tx, *p.Email, cur.ApplicantID)
			if err != nil {
				return apperr.FromDB(err, "applicant")
			}
			if taken {
				return apperr.Conflict("an applicant with this email already exists")
			}
			cur.ApplicantEmail = *p.Email
		}
		if p.FirstName != nil {
			cur.ApplicantFirstName = *p.FirstName
		}
		if p.LastName != nil {
			cur.ApplicantLastName = *p.LastName
		}
		if p.Program != nil {
			cur.ApplicantProgram = *p.Program
		}

		rescore := false
		if p.GPA != nil && !p.GPA.Equal(cur.ApplicantGPA) {
			cur.ApplicantGPA = *p.GPA
			rescore = true
		}
		if p.TestScore != nil && *p.TestScore != cur.ApplicantTestScore {
			cur.ApplicantTestScore = *p.TestScore
			rescore = true
		}
		if rescore {
			applyScore(cur)
		}

		oldStatus = cur.ApplicantStatus
		if p.Status != nil && *p.Status != cur.ApplicantStatus {
			if !cur.ApplicantStatus.CanTransitionTo(*p.Status) {
				return apperr.InvalidState("cannot move applicant from %s to %s", cur.ApplicantStatus, *p.Status)
			}
			cur.ApplicantStatus = *p.Status
			statusChanged = true
		}

		ok, err := repository.SaveIfVersion(tx, cur, expectedVersion, s.now())
		if err != nil {
			return apperr.FromDB(err, "applicant")
		}
		if !ok {
			// lost the race between read and write
			return apperr.Conflict(staleVersionMsg)
		}
		if statusChanged {
			if err := s.logStatus(tx, cur, oldStatus, actor); err != nil {
				return err
			}
		}
		out = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Applicant] updated id=%s version=%d status=%s", out.ApplicantID, out.ApplicantVersion, out.ApplicantStatus)
	if statusChanged {
		s.notify(notifications.KindApplicantStatusChanged, out, string(oldStatus))
	}
	return out, nil
}

func normalizePatch(p *Patch) error {
	fe := fieldErrors{}
	if p.FirstName != nil {
		v := normalizeText(*p.FirstName)
		checkName(fe, "first_name", v)
		p.FirstName = &v
	}
	if p.LastName != nil {
		v := normalizeText(*p.LastName)
		checkName(fe, "last_name", v)
		p.LastName = &v
	}
	if p.Email != nil {
		v := normalizeEmail(*p.Email)
		checkEmail(fe, v)
		p.Email = &v
	}
	if p.Program != nil {
		v := normalizeText(*p.Program)
		checkProgram(fe, v)
		p.Program = &v
	}
	if p.GPA != nil {
		checkGPA(fe, *p.GPA)
	}
	if p.TestScore != nil {
		checkTestScore(fe, *p.TestScore)
	}
	if p.Status != nil && !p.Status.Valid() {
		fe.add("status", "must be one of PENDING, IN_REVIEW, ACCEPTED, REJECTED")
	}
	return fe.err()
}

/* ======================================================
   Delete / reads
====================================================== */

// SoftDelete hides the applicant from every read. The row stays for audit
// and its email becomes available to new submissions.
func (s *ApplicantService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	ok, err := repository.SoftDelete(s.DB.WithContext(ctx), id, s.now())
	if err != nil {
		return apperr.FromDB(err, "applicant")
	}
	if !ok {
		return apperr.NotFound("applicant not found")
	}
	log.Printf("[Applicant] soft deleted id=%s", id)
	return nil
}

func (s *ApplicantService) Get(ctx context.Context, id uuid.UUID) (*model.ApplicantModel, error) {
	m, err := repository.FindAlive(s.DB.WithContext(ctx), id)
	if err != nil {
		return nil, apperr.FromDB(err, "applicant")
	}
	return m, nil
}

func (s *ApplicantService) GetByEmail(ctx context.Context, email string) (*model.ApplicantModel, error) {
	m, err := repository.FindAliveByEmail(s.DB.WithContext(ctx), normalizeEmail(email))
	if err != nil {
		return nil, apperr.FromDB(err, "applicant")
	}
	return m, nil
}

func (s *ApplicantService) List(ctx context.Context, f repository.SearchFilter, offset, limit int) ([]model.ApplicantModel, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, apperr.Validation(map[string][]string{"status": {"unknown status"}}, "invalid filter")
	}
	rows, total, err := repository.Search(s.DB.WithContext(ctx), f, offset, limit)
	if err != nil {
		return nil, 0, apperr.FromDB(err, "applicant")
	}
	return rows, total, nil
}

// ComputeHint explains the stored applicant's score. Read-only.
func (s *ApplicantService) ComputeHint(ctx context.Context, id uuid.UUID) (*scoring.Hint, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	h := scoring.Explain(m.ApplicantGPA, m.ApplicantTestScore, m.ApplicantProgram)
	return &h, nil
}

// StatusLog lists status changes oldest first, including for deleted applicants.
func (s *ApplicantService) StatusLog(ctx context.Context, id uuid.UUID) ([]model.ApplicantStatusLogModel, error) {
	db := s.DB.WithContext(ctx)
	if _, err := repository.FindAnyByID(db, id); err != nil {
		return nil, apperr.FromDB(err, "applicant")
	}
	rows, err := repository.ListStatusLogs(db, id)
	if err != nil {
		return nil, apperr.FromDB(err, "applicant status log")
	}
	return rows, nil
}

/* ======================================================
   helpers
====================================================== */

func applyScore(m *model.ApplicantModel) {
	r := scoring.Score(m.ApplicantGPA, m.ApplicantTestScore)
	m.ApplicantAIScore = r.Score
	m.ApplicantAIHint = string(r.Tier)
}

func (s *ApplicantService) logStatus(tx *gorm.DB, m *model.ApplicantModel, from model.ApplicantStatus, actor string) error {
	meta, _ := json.Marshal(map[string]any{"actor": actor})
	row := &model.ApplicantStatusLogModel{
		ApplicantStatusLogApplicantID: m.ApplicantID,
		ApplicantStatusLogFrom:        from,
		ApplicantStatusLogTo:          m.ApplicantStatus,
		ApplicantStatusLogVersion:     m.ApplicantVersion,
		ApplicantStatusLogMeta:        datatypes.JSON(meta),
	}
	if err := repository.InsertStatusLog(tx, row); err != nil {
		return apperr.FromDB(err, "applicant status log")
	}
	return nil
}

func (s *ApplicantService) notify(kind notifications.Kind, m *model.ApplicantModel, oldStatus string) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.NotifyAsync(notifications.Event{
		Kind:        kind,
		ApplicantID: m.ApplicantID,
		Email:       m.ApplicantEmail,
		FullName:    m.FullName(),
		Program:     m.ApplicantProgram,
		OldStatus:   oldStatus,
		NewStatus:   string(m.ApplicantStatus),
		OccurredAt:  s.now(),
	})
}
