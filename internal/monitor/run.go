package monitor

import (
	"context"
	"time"

	"regwatch/internal/dataset"
	"regwatch/internal/state"
	logx "regwatch/pkg/logx"
)

// heartbeatWindow bounds "still unchanged" notifications to at most one per
// rolling window, regardless of how many runs happen inside it.
const heartbeatWindow = 7 * 24 * time.Hour

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]dataset.Row, error)
}

type Notifier interface {
	// Notify is best-effort: implementations log and swallow delivery failures.
	Notify(ctx context.Context, text string)
}

type Config struct {
	DatasetURL string
	TargetID   string
}

// Runner executes one monitoring pass: fetch, locate, diff, persist, notify.
type Runner struct {
	cfg      Config
	fetcher  Fetcher
	store    state.Store
	notifier Notifier
	log      logx.Logger

	// now is injectable for tests.
	now func() time.Time
}

func NewRunner(cfg Config, fetcher Fetcher, store state.Store, notifier Notifier, log logx.Logger) *Runner {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Runner{
		cfg:      cfg,
		fetcher:  fetcher,
		store:    store,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Run performs one pass. All runtime failures end up as a notification or a
// log line, never as a returned error: the process exits 0 whatever happened
// inside a run.
func (r *Runner) Run(ctx context.Context) {
	log := r.log.With(logx.String("target", r.cfg.TargetID))

	rows, err := r.fetcher.Fetch(ctx, r.cfg.DatasetURL)
	if err != nil {
		log.Error("dataset fetch failed", logx.Err(err))
		r.notifier.Notify(ctx, formatRunError(err))
		return
	}

	st, err := r.store.Load(ctx)
	if err != nil {
		// State read failure is logged only; the run continues from empty.
		log.Warn("state load failed, continuing from empty state", logx.Err(err))
		st = state.NewState()
	}

	row, found := dataset.Locate(rows, r.cfg.TargetID)
	if !found {
		// Not-found leaves the previous snapshot and lastCheck untouched.
		log.Warn("target identifier not found in dataset", logx.Int("rows", len(rows)))
		r.notifier.Notify(ctx, formatNotFound(r.cfg.TargetID))
		return
	}

	cur := ExtractFields(row)
	var prev map[string]string
	if snap, ok := st.LastValues[r.cfg.TargetID]; ok {
		prev = snap.Values
	}
	changes := Detect(prev, cur)

	now := r.now()
	st.LastValues[r.cfg.TargetID] = state.Snapshot{Values: cur, Timestamp: now}
	checked := now
	st.LastCheck = &checked

	if len(changes) > 0 {
		// Persist before notifying so a delivery failure cannot cause the same
		// transition to be reported again on the next run.
		r.save(ctx, st)
		log.Info("tracked fields changed", logx.Int("changes", len(changes)))
		r.notifier.Notify(ctx, formatChanges(r.cfg.TargetID, cur[FieldSubjectName], changes))
		return
	}

	log.Info("no changes detected")
	if now.Sub(time.UnixMilli(st.LastAllGood)) > heartbeatWindow {
		st.LastAllGood = now.UnixMilli()
		r.save(ctx, st)
		log.Info("heartbeat sent", logx.Time("checked", now))
		r.notifier.Notify(ctx, formatHeartbeat(r.cfg.TargetID, cur[FieldSubjectName], cur, now))
		return
	}

	r.save(ctx, st)
}

func (r *Runner) save(ctx context.Context, st state.State) {
	if err := r.store.Save(ctx, st); err != nil {
		// Write failure is logged only, never fatal.
		r.log.Warn("state save failed", logx.Err(err))
	}
}
