package reminder

import (
	"context"
	"sync"
	"testing"
	"time"

	notificationhandler "org-portal-backend/lib/notification"
	"org-portal-backend/lib/notification/notificationtest"
	"org-portal-backend/lib/utils/helpers"
	"org-portal-backend/lib/utils/lock"
	"org-portal-backend/models"
	dbmodels "org-portal-backend/models/db"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeTasks struct {
	list []dbmodels.Task
	err  error
}

func (f fakeTasks) ListWithDeadline() ([]dbmodels.Task, error) {
	return f.list, f.err
}

type fakeRequests struct {
	list []dbmodels.Request
}

func (f fakeRequests) ListWithDeadline() ([]dbmodels.Request, error) {
	return f.list, nil
}

type fakeCheckpoints struct {
	mu  sync.Mutex
	rec *dbmodels.JobCheckpoint
}

func (f *fakeCheckpoints) Get(jobName string) (*dbmodels.JobCheckpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rec == nil {
		return nil, nil
	}
	copied := *f.rec
	return &copied, nil
}

func (f *fakeCheckpoints) Save(rec dbmodels.JobCheckpoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec = &rec
	return nil
}

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func task(id string, daysLeft int) dbmodels.Task {
	rec := dbmodels.Task{
		Title:        "مهمة " + id,
		Status:       models.TaskStatusInProgress,
		AssigneeID:   helpers.StrPtr("u1"),
		DeadlineDate: helpers.TimePtr(now.AddDate(0, 0, daysLeft)),
	}
	rec.ID = id
	return rec
}

type fixture struct {
	worker      Provider
	store       *notificationtest.Store
	checkpoints *fakeCheckpoints
}

func newFixture(t *testing.T, tasks TaskLister, requests []dbmodels.Request, locker lock.Distributed) fixture {
	f := fixture{
		store:       &notificationtest.Store{},
		checkpoints: &fakeCheckpoints{},
	}
	f.worker = New(Options{
		Tasks:       tasks,
		Requests:    fakeRequests{list: requests},
		Sender:      notificationhandler.New(f.store, nil, nil, notificationhandler.Channels{}),
		Checkpoints: f.checkpoints,
		Locker:      locker,
		MaxDays:     3,
		TimeZone:    "UTC",
		Now:         func() time.Time { return now },
	})
	return f
}

func TestThresholdKey(t *testing.T) {
	cases := []struct {
		days int
		key  string
		ok   bool
	}{
		{days: -5, key: "overdue", ok: true},
		{days: -1, key: "overdue", ok: true},
		{days: 0, key: "due_in_0", ok: true},
		{days: 3, key: "due_in_3", ok: true},
		{days: 4, ok: false},
	}
	for _, c := range cases {
		key, ok := ThresholdKey(c.days, 3)
		require.Equal(t, c.ok, ok, c.days)
		require.Equal(t, c.key, key, c.days)
	}
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run(`rerun inserts nothing new`, func(t *testing.T) {
		f := newFixture(t, fakeTasks{list: []dbmodels.Task{task("t1", 2)}}, nil, nil)

		result, err := f.worker.RunOnce(ctx)
		require.NoError(t, err)
		require.True(t, result.Executed)
		require.Equal(t, 1, result.Inserted)
		require.Equal(t, 1, f.store.Count())
		row := f.store.Rows[0]
		require.Equal(t, models.NotificationDeadlineReminder, row.NotificationType)
		require.Equal(t, "due_in_2", row.DedupKey)
		require.Equal(t, "u1", row.UserID)

		result, err = f.worker.RunOnce(ctx)
		require.NoError(t, err)
		require.Zero(t, result.Inserted)
		require.Equal(t, 1, result.Skipped)
		require.Equal(t, 1, f.store.Count())
	})

	t.Run(`thresholds and duplicates within a pass`, func(t *testing.T) {
		req := dbmodels.Request{RequesterID: "u2", Title: "طلب", DeadlineDate: helpers.TimePtr(now.AddDate(0, 0, -2))}
		req.ID = "r1"
		noAssignee := task("t3", 1)
		noAssignee.AssigneeID = nil
		f := newFixture(t, fakeTasks{list: []dbmodels.Task{task("t1", 0), task("t1", 0), task("t2", 10), noAssignee}}, []dbmodels.Request{req}, nil)

		result, err := f.worker.RunOnce(ctx)
		require.NoError(t, err)
		require.Equal(t, 4, result.Checked)
		require.Equal(t, 2, result.Inserted)
		require.Equal(t, 2, result.Skipped)
		keys := map[string]string{}
		for _, row := range f.store.Rows {
			keys[row.RelatedEntityID] = row.DedupKey
		}
		require.Equal(t, map[string]string{"t1": "due_in_0", "r1": "overdue"}, keys)
	})

	t.Run(`checkpoint records success and failure`, func(t *testing.T) {
		tasks := &fakeTasks{}
		f := newFixture(t, tasks, nil, nil)
		_, err := f.worker.RunOnce(ctx)
		require.NoError(t, err)
		require.NotNil(t, f.checkpoints.rec.LastSuccessAt)
		require.Empty(t, f.checkpoints.rec.LastError)

		tasks.err = errors.New("connection refused")
		_, err = f.worker.RunOnce(ctx)
		require.Error(t, err)
		require.Contains(t, f.checkpoints.rec.LastError, "connection refused")
		require.NotNil(t, f.checkpoints.rec.LastSuccessAt)
		require.Equal(t, JobName, f.checkpoints.rec.JobName)
	})

	t.Run(`pass is skipped while another instance holds the lock`, func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()
		f := newFixture(t, fakeTasks{list: []dbmodels.Task{task("t1", 1)}}, nil, lock.NewDistributed(client))

		require.NoError(t, mr.Set("lock:"+JobName, "other"))
		result, err := f.worker.RunOnce(ctx)
		require.NoError(t, err)
		require.False(t, result.Executed)
		require.Zero(t, f.store.Count())
		require.Nil(t, f.checkpoints.rec)

		mr.Del("lock:" + JobName)
		result, err = f.worker.RunOnce(ctx)
		require.NoError(t, err)
		require.True(t, result.Executed)
		require.Equal(t, 1, f.store.Count())
		require.False(t, mr.Exists("lock:"+JobName))
	})
}
