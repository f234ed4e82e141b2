package tracker

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tokengate/internal/domain/quota"
)

// fakeRepo is an in-memory Repository with error injection. failOn maps an
// operation name (optionally "op:key") to the error that op should return.
type fakeRepo struct {
	counters map[string]int64
	strings  map[string]string
	history  []quota.HistoryPoint
	archive  []quota.ArchiveEntry

	setLog []string // names passed to SetCounter, in order
	failOn map[string]error
	swapFn func(name, expectedOld, newVal string) (bool, error)
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		counters: make(map[string]int64),
		strings:  make(map[string]string),
		failOn:   make(map[string]error),
	}
}

func (f *fakeRepo) fail(op, name string) error {
	if err, ok := f.failOn[op+":"+name]; ok {
		return err
	}
	return f.failOn[op]
}

func (f *fakeRepo) GetCounter(_ context.Context, name string) (int64, bool, error) {
	if err := f.fail("GetCounter", name); err != nil {
		return 0, false, err
	}
	v, ok := f.counters[name]
	return v, ok, nil
}

func (f *fakeRepo) SetCounter(_ context.Context, name string, val int64) error {
	if err := f.fail("SetCounter", name); err != nil {
		return err
	}
	f.counters[name] = val
	f.setLog = append(f.setLog, name)
	return nil
}

func (f *fakeRepo) IncrCounter(_ context.Context, name string, delta int64) (int64, error) {
	if err := f.fail("IncrCounter", name); err != nil {
		return 0, err
	}
	f.counters[name] += delta
	return f.counters[name], nil
}

func (f *fakeRepo) IncrCounterCapped(_ context.Context, name string, delta, ceiling int64) (bool, int64, error) {
	if err := f.fail("IncrCounterCapped", name); err != nil {
		return false, 0, err
	}
	cur := f.counters[name]
	if cur+delta > ceiling {
		return false, cur, nil
	}
	f.counters[name] = cur + delta
	return true, f.counters[name], nil
}

func (f *fakeRepo) GetString(_ context.Context, name string) (string, bool, error) {
	if err := f.fail("GetString", name); err != nil {
		return "", false, err
	}
	v, ok := f.strings[name]
	return v, ok, nil
}

func (f *fakeRepo) SetString(_ context.Context, name, val string) error {
	if err := f.fail("SetString", name); err != nil {
		return err
	}
	f.strings[name] = val
	return nil
}

func (f *fakeRepo) SwapString(_ context.Context, name, expectedOld, newVal string) (bool, error) {
	if f.swapFn != nil {
		return f.swapFn(name, expectedOld, newVal)
	}
	if err := f.fail("SwapString", name); err != nil {
		return false, err
	}
	if f.strings[name] != expectedOld {
		return false, nil
	}
	f.strings[name] = newVal
	return true, nil
}

func (f *fakeRepo) Delete(_ context.Context, name string) error {
	if err := f.fail("Delete", name); err != nil {
		return err
	}
	if name == quota.KeyTokenHistory {
		f.history = nil
		return nil
	}
	delete(f.counters, name)
	delete(f.strings, name)
	return nil
}

func (f *fakeRepo) History(_ context.Context) ([]quota.HistoryPoint, error) {
	if err := f.fail("History", ""); err != nil {
		return nil, err
	}
	out := make([]quota.HistoryPoint, len(f.history))
	copy(out, f.history)
	return out, nil
}

func (f *fakeRepo) SaveHistory(_ context.Context, points []quota.HistoryPoint) error {
	if err := f.fail("SaveHistory", ""); err != nil {
		return err
	}
	f.history = make([]quota.HistoryPoint, len(points))
	copy(f.history, points)
	return nil
}

func (f *fakeRepo) Archive(_ context.Context) ([]quota.ArchiveEntry, error) {
	if err := f.fail("Archive", ""); err != nil {
		return nil, err
	}
	out := make([]quota.ArchiveEntry, len(f.archive))
	copy(out, f.archive)
	return out, nil
}

func (f *fakeRepo) SaveArchive(_ context.Context, entries []quota.ArchiveEntry) error {
	if err := f.fail("SaveArchive", ""); err != nil {
		return err
	}
	f.archive = make([]quota.ArchiveEntry, len(entries))
	copy(f.archive, entries)
	return nil
}

// testClock is a manually advanced clock.
type testClock struct {
	t time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{t: t} }

func (c *testClock) Now() time.Time            { return c.t }
func (c *testClock) Advance(d time.Duration)   { c.t = c.t.Add(d) }
func (c *testClock) NextDay()                  { c.t = c.t.AddDate(0, 0, 1) }
func (c *testClock) Set(t time.Time)           { c.t = t }

const testProviderLimit = 1_000_000

var testStart = time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)

func newTestTracker(t *testing.T) (*Tracker, *fakeRepo, *testClock) {
	t.Helper()
	repo := newFakeRepo()
	clk := newTestClock(testStart)
	tr := New(repo, "flash", testProviderLimit, zap.NewNop(), WithClock(clk.Now))
	return tr, repo, clk
}
