package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/eglogicsabhishek1/jbe-management/internal/domain/alerts"
	"github.com/eglogicsabhishek1/jbe-management/internal/domain/backup"
	idb "github.com/eglogicsabhishek1/jbe-management/internal/infra/database"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeAlertRepo is an in-memory alerts.Repository. ApplyAssignments mutates
// the held users so backup/restore round-trips can be asserted against real
// state, and can be gated to orchestrate interleaving tests.
type fakeAlertRepo struct {
	mu    sync.Mutex
	users []*alerts.User

	groups     []alerts.FrequencyDateCount
	countCalls int

	// failApplyAfter >= 0 makes ApplyAssignments mutate that many rows and
	// then fail, simulating a bulk update dying partway.
	failApplyAfter int
	applyCalls     int

	startOnce   sync.Once
	gateStart   chan struct{} // closed when ApplyAssignments begins
	gateRelease chan struct{} // if non-nil, ApplyAssignments blocks on it

	applying      int32
	maxConcurrent int32
}

func newFakeAlertRepo(users ...*alerts.User) *fakeAlertRepo {
	return &fakeAlertRepo{users: users, failApplyAfter: -1}
}

func (f *fakeAlertRepo) ListActive(_ context.Context) ([]*alerts.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*alerts.User, 0, len(f.users))
	for _, u := range f.users {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeAlertRepo) CountActiveByFrequencyAndDate(_ context.Context) ([]alerts.FrequencyDateCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	return f.groups, nil
}

func (f *fakeAlertRepo) ApplyAssignments(_ context.Context, assignments []alerts.Assignment) (int64, error) {
	if f.gateStart != nil {
		f.startOnce.Do(func() { close(f.gateStart) })
	}
	if f.gateRelease != nil {
		<-f.gateRelease
	}

	cur := atomic.AddInt32(&f.applying, 1)
	defer atomic.AddInt32(&f.applying, -1)
	for {
		max := atomic.LoadInt32(&f.maxConcurrent)
		if cur <= max || atomic.CompareAndSwapInt32(&f.maxConcurrent, max, cur) {
			break
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.applyCalls++

	limit := len(assignments)
	var failErr error
	if f.failApplyAfter >= 0 && f.failApplyAfter < limit {
		limit = f.failApplyAfter
		failErr = fmt.Errorf("bulk update died after %d rows", limit)
	}

	byID := make(map[int64]*alerts.User, len(f.users))
	for _, u := range f.users {
		byID[u.ID] = u
	}
	for _, a := range assignments[:limit] {
		if u, ok := byID[a.UserID]; ok {
			u.Partition.Int32 = int32(a.Partition)
			u.Partition.Valid = true
			u.NextEmailDate = a.NextEmailDate
		}
	}

	if failErr != nil {
		return 0, failErr
	}
	return int64(len(assignments)), nil
}

func (f *fakeAlertRepo) stateCopy() []alerts.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]alerts.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out
}

// fakeBackupStore snapshots the fakeAlertRepo's state by value. Restore puts
// the captured rows back, so the backup/restore round-trip is observable.
type fakeBackupStore struct {
	mu         sync.Mutex
	repo       *fakeAlertRepo
	snapErr    error
	restoreErr error
	snapshots  map[string][]alerts.User
	order      []string
	restored   []string
	seq        int
}

func newFakeBackupStore(repo *fakeAlertRepo) *fakeBackupStore {
	return &fakeBackupStore{repo: repo, snapshots: make(map[string][]alerts.User)}
}

func (s *fakeBackupStore) Snapshot(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapErr != nil {
		return "", s.snapErr
	}
	s.seq++
	tag := fmt.Sprintf("tag-%03d", s.seq)
	s.snapshots[tag] = s.repo.stateCopy()
	s.order = append(s.order, tag)
	return tag, nil
}

func (s *fakeBackupStore) Restore(_ context.Context, tableName, versionTag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.restoreErr != nil {
		return s.restoreErr
	}
	rows, ok := s.snapshots[versionTag]
	if !ok {
		return fmt.Errorf("%w: %s@%s", backup.ErrSnapshotNotFound, tableName, versionTag)
	}

	s.repo.mu.Lock()
	users := make([]*alerts.User, 0, len(rows))
	for _, row := range rows {
		u := row
		users = append(users, &u)
	}
	s.repo.users = users
	s.repo.mu.Unlock()

	s.restored = append(s.restored, versionTag)
	return nil
}

func (s *fakeBackupStore) List(_ context.Context, tableName string) ([]backup.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]backup.Snapshot, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, backup.Snapshot{TableName: tableName, VersionTag: s.order[i]})
	}
	return out, nil
}

// memLocker mirrors the advisory locker's try-lock semantics in memory.
type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]bool)}
}

func (l *memLocker) Acquire(_ context.Context, tableName string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[tableName] {
		return nil, fmt.Errorf("%w: %s", idb.ErrRunInProgress, tableName)
	}
	l.held[tableName] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, tableName)
	}, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	runs []*alerts.Run
}

func (n *fakeNotifier) NotifyRunCompleted(_ context.Context, run *alerts.Run) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.runs = append(n.runs, run)
}
