package monitor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"regwatch/internal/dataset"
	"regwatch/internal/state"
	logx "regwatch/pkg/logx"
)

const testID = "065-0-Reg-25-000001"

type fakeFetcher struct {
	rows []dataset.Row
	err  error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]dataset.Row, error) {
	return f.rows, f.err
}

type fakeNotifier struct {
	msgs []string
}

func (n *fakeNotifier) Notify(ctx context.Context, text string) {
	n.msgs = append(n.msgs, text)
}

type memStore struct {
	st      state.State
	loadErr error
	saveErr error
	saves   int
}

func (m *memStore) Load(ctx context.Context) (state.State, error) {
	if m.loadErr != nil {
		return state.NewState(), m.loadErr
	}
	return m.st, nil
}

func (m *memStore) Save(ctx context.Context, st state.State) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.st = st
	m.saves++
	return nil
}

func (m *memStore) Close() error { return nil }

func datasetRows() []dataset.Row {
	headers := []string{"", FieldClosureDate, FieldDecisionDate, FieldSubjectName}
	mk := func(cells ...string) dataset.Row {
		values := map[string]string{}
		for i, h := range headers {
			if i < len(cells) {
				values[h] = cells[i]
			}
		}
		return dataset.Row{Headers: headers, Values: values}
	}
	return []dataset.Row{
		mk("065-0-Reg-25-000000", "", "", "First Corp"),
		mk(testID, "2024-01-01", "", "ACME Holdings"),
		mk("065-0-Reg-25-000002", "", "", "Third Corp"),
	}
}

func newTestRunner(fetcher Fetcher, store state.Store, notifier Notifier, at time.Time) *Runner {
	r := NewRunner(Config{DatasetURL: "http://example.test/data.csv", TargetID: testID},
		fetcher, store, notifier, logx.Nop())
	r.now = func() time.Time { return at }
	return r
}

func TestRunFirstObservationNotifiesChange(t *testing.T) {
	store := &memStore{st: state.NewState()}
	notifier := &fakeNotifier{}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	// Keep the heartbeat quiet so the change path is isolated.
	store.st.LastAllGood = now.UnixMilli()

	r := newTestRunner(&fakeFetcher{rows: datasetRows()}, store, notifier, now)
	r.Run(context.Background())

	if len(notifier.msgs) != 1 {
		t.Fatalf("expected one notification, got %d: %v", len(notifier.msgs), notifier.msgs)
	}
	msg := notifier.msgs[0]
	if !strings.Contains(msg, EmptyPlaceholder) || !strings.Contains(msg, "2024-01-01") {
		t.Errorf("change message should show (empty) → 2024-01-01, got %q", msg)
	}

	snap, ok := store.st.LastValues[testID]
	if !ok {
		t.Fatal("snapshot not persisted")
	}
	if snap.Values[FieldClosureDate] != "2024-01-01" {
		t.Errorf("persisted closure date = %q", snap.Values[FieldClosureDate])
	}
	if store.st.LastCheck == nil || !store.st.LastCheck.Equal(now) {
		t.Errorf("lastCheck = %v, want %v", store.st.LastCheck, now)
	}
}

func TestRunUnchangedDoesNotRenotify(t *testing.T) {
	store := &memStore{st: state.NewState()}
	notifier := &fakeNotifier{}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.st.LastAllGood = now.UnixMilli()

	first := newTestRunner(&fakeFetcher{rows: datasetRows()}, store, notifier, now)
	first.Run(context.Background())

	second := newTestRunner(&fakeFetcher{rows: datasetRows()}, store, notifier, now.Add(time.Hour))
	second.Run(context.Background())

	if len(notifier.msgs) != 1 {
		t.Fatalf("second identical run must not re-notify, got %v", notifier.msgs)
	}
	if store.saves != 2 {
		t.Errorf("both runs should persist state, saves = %d", store.saves)
	}
}

func TestRunNotFoundLeavesStateUntouched(t *testing.T) {
	prior := state.NewState()
	check := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	prior.LastCheck = &check
	prior.LastValues[testID] = state.Snapshot{
		Values:    map[string]string{FieldClosureDate: "old"},
		Timestamp: check,
	}
	store := &memStore{st: prior}
	notifier := &fakeNotifier{}

	rows := datasetRows()[:1] // target row absent
	r := newTestRunner(&fakeFetcher{rows: rows}, store, notifier, check.Add(24*time.Hour))
	r.Run(context.Background())

	if len(notifier.msgs) != 1 || !strings.Contains(notifier.msgs[0], "not found") {
		t.Fatalf("expected a not-found notification, got %v", notifier.msgs)
	}
	if store.saves != 0 {
		t.Error("not-found must not persist state")
	}
	if store.st.LastValues[testID].Values[FieldClosureDate] != "old" {
		t.Error("snapshot must stay unmodified on not-found")
	}
	if !store.st.LastCheck.Equal(check) {
		t.Error("lastCheck must not advance on not-found")
	}
}

func TestRunFetchErrorNotifiesWithoutStateMutation(t *testing.T) {
	store := &memStore{st: state.NewState()}
	notifier := &fakeNotifier{}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	r := newTestRunner(&fakeFetcher{err: &dataset.FetchError{URL: "u", Err: errors.New("boom")}},
		store, notifier, now)
	r.Run(context.Background())

	if len(notifier.msgs) != 1 || !strings.Contains(notifier.msgs[0], "failed") {
		t.Fatalf("expected an error notification, got %v", notifier.msgs)
	}
	if store.saves != 0 {
		t.Error("fetch failure must not persist state")
	}
}

func TestRunHeartbeatOncePerWindow(t *testing.T) {
	store := &memStore{st: state.NewState()}
	notifier := &fakeNotifier{}
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	// Snapshot already matches the dataset, so runs detect no changes.
	store.st.LastValues[testID] = state.Snapshot{
		Values: map[string]string{
			FieldClosureDate:  "2024-01-01",
			FieldDecisionDate: "",
			FieldSubjectName:  "ACME Holdings",
		},
		Timestamp: start.Add(-time.Hour),
	}

	first := newTestRunner(&fakeFetcher{rows: datasetRows()}, store, notifier, start)
	first.Run(context.Background())
	if len(notifier.msgs) != 1 || !strings.Contains(notifier.msgs[0], "unchanged") {
		t.Fatalf("first quiet run outside the window should heartbeat, got %v", notifier.msgs)
	}

	second := newTestRunner(&fakeFetcher{rows: datasetRows()}, store, notifier, start.Add(48*time.Hour))
	second.Run(context.Background())
	if len(notifier.msgs) != 1 {
		t.Fatalf("second quiet run inside the window must stay silent, got %v", notifier.msgs)
	}

	third := newTestRunner(&fakeFetcher{rows: datasetRows()}, store, notifier, start.Add(8*24*time.Hour))
	third.Run(context.Background())
	if len(notifier.msgs) != 2 {
		t.Fatalf("run past the window should heartbeat again, got %v", notifier.msgs)
	}
}

func TestRunSurvivesStateIOFailures(t *testing.T) {
	store := &memStore{
		st:      state.NewState(),
		loadErr: errors.New("read failed"),
		saveErr: errors.New("write failed"),
	}
	notifier := &fakeNotifier{}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	r := newTestRunner(&fakeFetcher{rows: datasetRows()}, store, notifier, now)
	r.Run(context.Background()) // must not panic

	// With no readable prior state the first observation is a change.
	if len(notifier.msgs) != 1 {
		t.Fatalf("run should complete and notify despite state I/O failures, got %v", notifier.msgs)
	}
}
