package notifications

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindApplicantSubmitted     Kind = "applicant.submitted"
	KindApplicantStatusChanged Kind = "applicant.status_changed"
)

// Event is what the admissions core reports after a committed write.
type Event struct {
	Kind        Kind
	ApplicantID uuid.UUID
	Email       string
	FullName    string
	Program     string
	OldStatus   string
	NewStatus   string
	OccurredAt  time.Time
}
