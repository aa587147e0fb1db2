package gatewaymain

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	log "github.com/golang/glog"
	"github.com/robfig/cron"

	"github.com/w3licence/licence-gateway/pkg/utils"
)

const (
	checkRunSecs = 60

	cronRunTimeout = 5 * time.Minute

	sessionSweepCronConfig = "@every 10m"
)

type sweeper interface {
	Sweep() int
}

func checkCron(cr *cron.Cron) {
	entries := cr.Entries()
	for _, entry := range entries {
		log.Infof("Cron run times: prev: %v, next: %v\n", entry.Prev, entry.Next)
	}
}

// singleRun skips a scheduled run while the previous one is still going
func singleRun(name string, fn func(ctx context.Context)) func() {
	var running atomic.Bool
	return func() {
		if !running.CompareAndSwap(false, true) {
			log.Infof("Skipping %v run, previous run still going", name)
			return
		}
		defer running.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), cronRunTimeout)
		defer cancel()
		fn(ctx)
	}
}

// RunIndexer catches the content index up with the registry
func RunIndexer(ctx context.Context, services *Services) {
	err := services.Indexer.CatchUp(ctx)
	if err != nil {
		log.Errorf("Error running indexer: err: %v", err)
		return
	}
	log.V(2).Infof("Done running indexer: %v", runtime.NumGoroutine())
}

// RunReconciler retries issuance of paid payments
func RunReconciler(ctx context.Context, services *Services) {
	result, err := services.Reconciler.Reconcile(ctx)
	if err != nil {
		log.Errorf("Error running reconciler: err: %v", err)
		return
	}
	if result.RefundDue > 0 {
		log.Warningf("%v payments flagged for refund", result.RefundDue)
	}
}

// RunSessionSweep drops expired sessions from stores that keep them in memory
func RunSessionSweep(ctx context.Context, services *Services) {
	store, ok := services.Sessions.(sweeper)
	if !ok {
		return
	}
	removed := store.Sweep()
	log.V(2).Infof("Swept %v expired sessions and challenges", removed)
}

// cronJobs schedules the given jobs with the gateway's cron parser
func cronJobs(specs map[string]string, jobs map[string]func()) (*cron.Cron, error) {
	parser := utils.CronParser()
	cr := cron.New()
	for name, spec := range specs {
		schedule, err := parser.Parse(spec)
		if err != nil {
			return nil, err
		}
		cr.Schedule(schedule, cron.FuncJob(jobs[name]))
		log.Infof("Scheduled %v with %q", name, spec)
	}
	return cr, nil
}

// NewGatewayCron returns the cron running the indexer, the reconciler and,
// for in-memory session stores, the session sweep
func NewGatewayCron(config *utils.GatewayConfig, services *Services) (*cron.Cron, error) {
	specs := map[string]string{
		"indexer":    config.IndexerCronConfig,
		"reconciler": config.ReconcileCronConfig,
	}
	jobs := map[string]func(){
		"indexer":    singleRun("indexer", func(ctx context.Context) { RunIndexer(ctx, services) }),
		"reconciler": singleRun("reconciler", func(ctx context.Context) { RunReconciler(ctx, services) }),
	}
	if _, ok := services.Sessions.(sweeper); ok {
		specs["sessions"] = sessionSweepCronConfig
		jobs["sessions"] = singleRun("sessions", func(ctx context.Context) { RunSessionSweep(ctx, services) })
	}
	return cronJobs(specs, jobs)
}

// NewReconcilerCron returns the cron running only the reconciler
func NewReconcilerCron(config *utils.GatewayConfig, services *Services) (*cron.Cron, error) {
	return cronJobs(
		map[string]string{"reconciler": config.ReconcileCronConfig},
		map[string]func(){
			"reconciler": singleRun("reconciler", func(ctx context.Context) { RunReconciler(ctx, services) }),
		},
	)
}
