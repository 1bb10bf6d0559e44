// Package notifications delivers admissions events to applicants and to
// other services. Delivery is best effort: nothing here can fail the write
// that produced the event.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Gateway delivers one event.
type Gateway interface {
	Send(ctx context.Context, ev Event) error
}

// LogGateway only writes the event to the log.
type LogGateway struct{}

func (LogGateway) Send(_ context.Context, ev Event) error {
	log.Printf("[Notify] %s applicant=%s email=%s status=%s->%s",
		ev.Kind, ev.ApplicantID, ev.Email, ev.OldStatus, ev.NewStatus)
	return nil
}

// Fanout sends to every gateway and joins their errors.
type Fanout []Gateway

func (f Fanout) Send(ctx context.Context, ev Event) error {
	var errs []error
	for i, g := range f {
		if g == nil {
			continue
		}
		if err := g.Send(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("gateway %d (%T): %w", i, g, err))
		}
	}
	return errors.Join(errs...)
}
