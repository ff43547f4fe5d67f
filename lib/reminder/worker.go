package reminder

import (
	"context"
	"fmt"
	"time"

	"org-portal-backend/config"
	"org-portal-backend/db"
	notificationhandler "org-portal-backend/lib/notification"
	checkpointstore "org-portal-backend/lib/reminder/checkpoint-store"
	requeststore "org-portal-backend/lib/request/store"
	taskstore "org-portal-backend/lib/task/store"
	baseworker "org-portal-backend/lib/utils/base-worker"
	"org-portal-backend/lib/utils/helpers"
	"org-portal-backend/lib/utils/lock"
	"org-portal-backend/models"
	notificationapimodels "org-portal-backend/models/api/notification"
	dbmodels "org-portal-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	JobName  = "deadline-reminder"
	lockTTL  = 10 * time.Minute
	overdue  = "overdue"
	dueInFmt = "due_in_%d"
)

type TaskLister interface {
	ListWithDeadline() ([]dbmodels.Task, error)
}

type RequestLister interface {
	ListWithDeadline() ([]dbmodels.Request, error)
}

type Sender interface {
	Send(ctx context.Context, data notificationapimodels.SendRequest) (notificationapimodels.SendResult, error)
}

type Provider interface {
	// Start runs a pass right away and then every interval until ctx is done
	Start(ctx context.Context)
	// RunOnce runs a single pass. Executed is false when another instance holds the lock
	RunOnce(ctx context.Context) (notificationapimodels.ReminderRunResult, error)
}

var Instance Provider

func NewHandler(locker lock.Distributed) {
	Instance = New(Options{
		Tasks:       taskstore.NewInstance(db.DB),
		Requests:    requeststore.NewInstance(db.DB),
		Sender:      notificationhandler.Instance,
		Checkpoints: checkpointstore.NewInstance(db.DB),
		Locker:      locker,
		Interval:    time.Duration(config.Conf.Reminder.IntervalMinutes) * time.Minute,
		MaxDays:     config.Conf.Reminder.ThresholdDays,
		TimeZone:    config.Conf.Reminder.TimeZone,
	})
}

type Options struct {
	Tasks       TaskLister
	Requests    RequestLister
	Sender      Sender
	Checkpoints checkpointstore.Provider
	// Locker is optional, without it passes are not coordinated across instances
	Locker   lock.Distributed
	Interval time.Duration
	MaxDays  int
	TimeZone string
	Now      func() time.Time
}

func New(opts Options) Provider {
	loc, err := time.LoadLocation(opts.TimeZone)
	if err != nil || opts.TimeZone == "" {
		log.WithField("time_zone", opts.TimeZone).Warn("unknown reminder time zone, UTC is used")
		loc = time.UTC
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &impl{
		BaseImpl: baseworker.NewInstance("DeadlineReminderWorker", 0, opts.Interval),
		opts:     opts,
		loc:      loc,
	}
}

type impl struct {
	*baseworker.BaseImpl
	opts Options
	loc  *time.Location
}

// ThresholdKey maps days left to the dedup key of the reminder, ok is false
// when no reminder is due yet
func ThresholdKey(daysLeft, maxDays int) (key string, ok bool) {
	switch {
	case daysLeft < 0:
		return overdue, true
	case daysLeft <= maxDays:
		return fmt.Sprintf(dueInFmt, daysLeft), true
	}
	return "", false
}

func (i *impl) Start(ctx context.Context) {
	go i.Run(ctx, func(ctx context.Context) {
		result, err := i.RunOnce(ctx)
		if err != nil {
			i.GetLogger().WithError(err).Error("reminder pass failed")
			return
		}
		i.GetLogger().
			WithField("executed", result.Executed).
			WithField("checked", result.Checked).
			WithField("inserted", result.Inserted).
			Info("reminder pass finished")
	})
}

func (i *impl) RunOnce(ctx context.Context) (notificationapimodels.ReminderRunResult, error) {
	if i.opts.Locker == nil {
		return i.pass(ctx)
	}
	var result notificationapimodels.ReminderRunResult
	locked, err := i.opts.Locker.TryRun(ctx, JobName, lockTTL, func(ctx context.Context) error {
		var passErr error
		result, passErr = i.pass(ctx)
		return passErr
	})
	if err != nil {
		return result, err
	}
	if !locked {
		i.GetLogger().Debug("reminder pass skipped, lock is held")
	}
	return result, nil
}

type reminderItem struct {
	entityID   string
	entityType models.EntityType
	userID     string
	title      string
	deadline   time.Time
}

func (i *impl) pass(ctx context.Context) (result notificationapimodels.ReminderRunResult, err error) {
	logger := i.GetLogger()
	startedAt := i.opts.Now()
	checkpoint := dbmodels.JobCheckpoint{JobName: JobName}
	if prev, getErr := i.opts.Checkpoints.Get(JobName); getErr != nil {
		logger.WithError(getErr).Warn("reminder checkpoint lookup failed")
	} else if prev != nil {
		checkpoint = *prev
	}
	checkpoint.LastRunAt = &startedAt
	defer func() {
		checkpoint.UpdatedAt = i.opts.Now()
		if err != nil {
			checkpoint.LastError = err.Error()
		} else {
			checkpoint.LastError = ""
			checkpoint.LastSuccessAt = &startedAt
		}
		if saveErr := i.opts.Checkpoints.Save(checkpoint); saveErr != nil {
			logger.WithError(saveErr).Error("reminder checkpoint save failed")
		}
	}()

	items, err := i.collect()
	if err != nil {
		return result, err
	}
	result.Executed = true
	seen := map[string]bool{}
	for _, item := range items {
		if helpers.IsContextDone(ctx) {
			return result, ctx.Err()
		}
		result.Checked++
		daysLeft := helpers.DaysUntil(startedAt, item.deadline, i.loc)
		key, ok := ThresholdKey(daysLeft, i.opts.MaxDays)
		if !ok {
			result.Skipped++
			continue
		}
		dedup := item.entityID + "|" + key
		if seen[dedup] {
			result.Skipped++
			continue
		}
		seen[dedup] = true
		data := models.GetDeadlineReminder(item.title, daysLeft)
		sent, sendErr := i.opts.Sender.Send(ctx, notificationapimodels.SendRequest{
			UserID:            item.userID,
			Title:             data.Title,
			Message:           data.Msg,
			NotificationType:  data.Type,
			RelatedEntityID:   item.entityID,
			RelatedEntityType: item.entityType,
			DedupKey:          key,
		})
		if sendErr != nil {
			logger.
				WithField("entity_id", item.entityID).
				WithError(sendErr).
				Error("reminder insert failed")
			continue
		}
		if sent.Created {
			result.Inserted++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}

func (i *impl) collect() ([]reminderItem, error) {
	items := []reminderItem{}
	tasks, err := i.opts.Tasks.ListWithDeadline()
	if err != nil {
		return nil, errors.Wrap(err, "tasks with deadline lookup failed")
	}
	for _, rec := range tasks {
		if rec.DeadlineDate == nil || rec.AssigneeID == nil {
			continue
		}
		items = append(items, reminderItem{
			entityID:   rec.ID,
			entityType: models.EntityTask,
			userID:     *rec.AssigneeID,
			title:      rec.Title,
			deadline:   *rec.DeadlineDate,
		})
	}
	requests, err := i.opts.Requests.ListWithDeadline()
	if err != nil {
		return nil, errors.Wrap(err, "requests with deadline lookup failed")
	}
	for _, rec := range requests {
		if rec.DeadlineDate == nil {
			continue
		}
		items = append(items, reminderItem{
			entityID:   rec.ID,
			entityType: models.EntityRequest,
			userID:     rec.RequesterID,
			title:      rec.Title,
			deadline:   *rec.DeadlineDate,
		})
	}
	return items, nil
}
