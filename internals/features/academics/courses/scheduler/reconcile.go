package scheduler

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Reconciler is satisfied by the course service.
type Reconciler interface {
	ReconcileCounters(ctx context.Context) (int64, error)
}

// StartCounterReconciler runs ReconcileCounters on spec (standard 5-field
// cron). An empty spec disables the job and returns nil. The caller stops
// the returned scheduler on shutdown.
func StartCounterReconciler(r Reconciler, spec string) (*cron.Cron, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		log.Printf("[RECONCILE] disabled (RECONCILE_CRON empty)")
		return nil, nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, func() { runOnce(r) }); err != nil {
		return nil, err
	}
	log.Printf("[RECONCILE] started schedule=%q", spec)
	c.Start()
	return c, nil
}

func runOnce(r Reconciler) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	n, err := r.ReconcileCounters(ctx)
	if err != nil {
		log.Printf("[RECONCILE] error: %v", err)
		return
	}
	log.Printf("[RECONCILE] done drifted=%d", n)
}
