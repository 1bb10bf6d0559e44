package service

import (
	"context"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"admissions_backend/internals/apperr"
	"admissions_backend/internals/features/admissions/applicants/model"
	"admissions_backend/internals/features/admissions/applicants/repository"
)

// Reviewer identifies who wrote a note. ID is nil when the token carries
// no user id.
type Reviewer struct {
	ID   *uuid.UUID
	Name string
}

// AddNote attaches a note to a live applicant.
func (s *ApplicantService) AddNote(ctx context.Context, applicantID uuid.UUID, by Reviewer, content string) (*model.ApplicantNoteModel, error) {
	content = normalizeText(content)
	if n := utf8.RuneCountInString(content); n < model.NoteMinLength || n > model.NoteMaxLength {
		return nil, apperr.Validation(map[string][]string{
			"content": {"must be between 10 and 5000 characters"},
		}, "invalid note")
	}
	name := strings.TrimSpace(by.Name)
	if name == "" {
		name = "reviewer"
	}

	db := s.DB.WithContext(ctx)
	if _, err := repository.FindAlive(db, applicantID); err != nil {
		return nil, apperr.FromDB(err, "applicant")
	}
	row := &model.ApplicantNoteModel{
		ApplicantNoteApplicantID: applicantID,
		ApplicantNoteReviewerID:  by.ID,
		ApplicantNoteReviewer:    name,
		ApplicantNoteContent:     content,
		ApplicantNoteCreatedAt:   s.now(),
	}
	if err := repository.InsertNote(db, row); err != nil {
		return nil, apperr.FromDB(err, "applicant note")
	}
	log.Printf("[Applicant] note added applicant=%s by=%s", applicantID, name)
	return row, nil
}

// Notes lists notes newest first. Notes stay readable after soft deletion.
func (s *ApplicantService) Notes(ctx context.Context, applicantID uuid.UUID) ([]model.ApplicantNoteModel, error) {
	db := s.DB.WithContext(ctx)
	if _, err := repository.FindAnyByID(db, applicantID); err != nil {
		return nil, apperr.FromDB(err, "applicant")
	}
	rows, err := repository.ListNotes(db, applicantID)
	if err != nil {
		return nil, apperr.FromDB(err, "applicant note")
	}
	return rows, nil
}

func (s *ApplicantService) CountNotes(ctx context.Context, applicantID uuid.UUID) (int64, error) {
	n, err := repository.CountNotes(s.DB.WithContext(ctx), applicantID)
	if err != nil {
		return 0, apperr.FromDB(err, "applicant note")
	}
	return n, nil
}
