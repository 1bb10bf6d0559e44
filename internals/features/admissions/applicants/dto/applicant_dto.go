package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"admissions_backend/internals/features/admissions/applicants/model"
	"admissions_backend/internals/features/admissions/applicants/service"
	"admissions_backend/internals/features/admissions/scoring"
)

/* =========================
   Requests
========================= */

type SubmitApplicantRequest struct {
	FirstName string           `json:"first_name" validate:"required,min=2,max=100"`
	LastName  string           `json:"last_name" validate:"required,min=2,max=100"`
	Email     string           `json:"email" validate:"required,email,max=255"`
	Program   string           `json:"program" validate:"required,min=2,max=200"`
	GPA       *decimal.Decimal `json:"gpa" validate:"required,gpa"`
	TestScore *int             `json:"test_score" validate:"required,min=0,max=100"`
}

func (r SubmitApplicantRequest) ToInput() service.SubmitInput {
	in := service.SubmitInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Program:   r.Program,
	}
	if r.GPA != nil {
		in.GPA = *r.GPA
	}
	if r.TestScore != nil {
		in.TestScore = *r.TestScore
	}
	return in
}

// UpdateApplicantRequest is a partial update. Version is the applicant
// version the client last read.
type UpdateApplicantRequest struct {
	FirstName *string          `json:"first_name" validate:"omitempty,min=2,max=100"`
	LastName  *string          `json:"last_name" validate:"omitempty,min=2,max=100"`
	Email     *string          `json:"email" validate:"omitempty,email,max=255"`
	Program   *string          `json:"program" validate:"omitempty,min=2,max=200"`
	GPA       *decimal.Decimal `json:"gpa" validate:"omitempty,gpa"`
	TestScore *int             `json:"test_score" validate:"omitempty,min=0,max=100"`
	Status    *string          `json:"status" validate:"omitempty,oneof=PENDING IN_REVIEW ACCEPTED REJECTED"`
	Version   *int             `json:"version" validate:"required,min=0"`
}

func (r UpdateApplicantRequest) ToPatch() service.Patch {
	p := service.Patch{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Program:   r.Program,
		GPA:       r.GPA,
		TestScore: r.TestScore,
	}
	if r.Status != nil {
		st, _ := model.ParseApplicantStatus(*r.Status)
		p.Status = &st
	}
	return p
}

type ListApplicantsQuery struct {
	Email   string `query:"email"`
	Program string `query:"program"`
	Status  string `query:"status"`
}

/* =========================
   Responses
========================= */

type ApplicantResponse struct {
	ApplicantID        uuid.UUID `json:"applicant_id"`
	ApplicantFirstName string    `json:"applicant_first_name"`
	ApplicantLastName  string    `json:"applicant_last_name"`
	ApplicantEmail     string    `json:"applicant_email"`
	ApplicantProgram   string    `json:"applicant_program"`
	ApplicantGPA       string    `json:"applicant_gpa"`
	ApplicantTestScore int       `json:"applicant_test_score"`
	ApplicantStatus    string    `json:"applicant_status"`
	ApplicantAIScore   string    `json:"applicant_ai_score"`
	ApplicantAIHint    string    `json:"applicant_ai_hint"`
	ApplicantVersion   int       `json:"applicant_version"`
	ApplicantCreatedAt time.Time `json:"applicant_created_at"`
	ApplicantUpdatedAt time.Time `json:"applicant_updated_at"`

	// only on single-applicant reads
	ApplicantNoteCount *int64 `json:"applicant_note_count,omitempty"`
}

func FromApplicantModel(m *model.ApplicantModel) ApplicantResponse {
	return ApplicantResponse{
		ApplicantID:        m.ApplicantID,
		ApplicantFirstName: m.ApplicantFirstName,
		ApplicantLastName:  m.ApplicantLastName,
		ApplicantEmail:     m.ApplicantEmail,
		ApplicantProgram:   m.ApplicantProgram,
		ApplicantGPA:       m.ApplicantGPA.StringFixed(2),
		ApplicantTestScore: m.ApplicantTestScore,
		ApplicantStatus:    string(m.ApplicantStatus),
		ApplicantAIScore:   m.ApplicantAIScore.StringFixed(2),
		ApplicantAIHint:    m.ApplicantAIHint,
		ApplicantVersion:   m.ApplicantVersion,
		ApplicantCreatedAt: m.ApplicantCreatedAt,
		ApplicantUpdatedAt: m.ApplicantUpdatedAt,
	}
}

func FromApplicantModels(rows []model.ApplicantModel) []ApplicantResponse {
	out := make([]ApplicantResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromApplicantModel(&rows[i]))
	}
	return out
}

type AIHintResponse struct {
	Score     string `json:"score"`
	Tier      string `json:"tier"`
	Note      string `json:"note"`
	Reasoning string `json:"reasoning"`
}

func FromHint(h *scoring.Hint) AIHintResponse {
	return AIHintResponse{
		Score:     h.Score.StringFixed(2),
		Tier:      string(h.Tier),
		Note:      h.Note,
		Reasoning: h.Reasoning,
	}
}

type StatusLogResponse struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	Version   int             `json:"version"`
	Meta      json.RawMessage `json:"meta,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func FromStatusLogs(rows []model.ApplicantStatusLogModel) []StatusLogResponse {
	out := make([]StatusLogResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, StatusLogResponse{
			From:      string(r.ApplicantStatusLogFrom),
			To:        string(r.ApplicantStatusLogTo),
			Version:   r.ApplicantStatusLogVersion,
			Meta:      json.RawMessage(r.ApplicantStatusLogMeta),
			CreatedAt: r.ApplicantStatusLogCreatedAt,
		})
	}
	return out
}

/* =========================
   Notes
========================= */

type AddNoteRequest struct {
	Content string `json:"content" validate:"required,min=10,max=5000"`
}

type NoteResponse struct {
	ID         uuid.UUID  `json:"note_id"`
	ReviewerID *uuid.UUID `json:"reviewer_id,omitempty"`
	Reviewer   string     `json:"reviewer"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
}

func FromNoteModel(m *model.ApplicantNoteModel) NoteResponse {
	return NoteResponse{
		ID:         m.ApplicantNoteID,
		ReviewerID: m.ApplicantNoteReviewerID,
		Reviewer:   m.ApplicantNoteReviewer,
		Content:    m.ApplicantNoteContent,
		CreatedAt:  m.ApplicantNoteCreatedAt,
	}
}

func FromNoteModels(rows []model.ApplicantNoteModel) []NoteResponse {
	out := make([]NoteResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromNoteModel(&rows[i]))
	}
	return out
}
