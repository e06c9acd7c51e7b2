// Package scheduler runs network tasks on their intervals. Every running
// task has one armed timer keyed by its scheduler id; a firing timer probes
// the task, records the result and arms the next run.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/keepitup/internal/logging"
	"github.com/mesh-intelligence/keepitup/internal/notify"
	"github.com/mesh-intelligence/keepitup/internal/probe"
	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// Scheduler errors.
var (
	ErrNotStarted     = errors.New("scheduler is not started")
	ErrAlreadyStarted = errors.New("scheduler is already started")
)

// retryDelay is how long a task waits after its record could not be read.
const retryDelay = time.Minute

// maxParallelProbes bounds RunOnce.
const maxParallelProbes = 8

type alarm struct {
	taskID      int64
	schedulerID int
	at          time.Time
	timer       Timer
}

// Scheduler arms one timer per running task.
type Scheduler struct {
	store    types.Store
	prober   probe.Prober
	notifier notify.Notifier
	clock    Clock

	mu        sync.Mutex
	prefs     types.Preferences
	alarms    map[int]*alarm
	inflight  map[int]bool
	cancelled map[int]bool  // in-flight scheduler ids not to arm again
	armed     map[int64]int // scheduler id last armed per task id
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// New returns a stopped scheduler. notifier may be nil.
func New(store types.Store, prober probe.Prober, notifier notify.Notifier, prefs types.Preferences, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:     store,
		prober:    prober,
		notifier:  notifier,
		clock:     realClock{},
		prefs:     prefs,
		alarms:    make(map[int]*alarm),
		inflight:  make(map[int]bool),
		cancelled: make(map[int]bool),
		armed:     make(map[int64]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Preferences returns the preferences in effect.
func (s *Scheduler) Preferences() types.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// SetPreferences applies new preferences to later runs. The log cap is
// forwarded to stores that support changing it.
func (s *Scheduler) SetPreferences(p types.Preferences) {
	s.mu.Lock()
	s.prefs = p
	s.mu.Unlock()

	if st, ok := s.store.(interface{ SetLogMaxEntries(int) }); ok {
		st.SetLogMaxEntries(p.Log.MaxEntries)
	}
}

// Start arms every running task. A task whose last run is older than its
// interval fires immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	tasks, err := s.listTasks()
	if err != nil {
		return err
	}
	intervals, err := s.suspensionIntervals()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		return ErrAlreadyStarted
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	now := s.clock.Now()
	armed := 0
	for _, task := range tasks {
		if !task.Running {
			continue
		}
		s.armLocked(task, firstRun(task, now, intervals))
		armed++
	}
	logging.L().Info("scheduler started", "tasks", len(tasks), "armed", armed)
	return nil
}

// Stop disarms every timer and waits for running probes to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.ctx == nil {
		s.mu.Unlock()
		return
	}
	s.cancel()
	for id, a := range s.alarms {
		a.timer.Stop()
		delete(s.alarms, id)
	}
	s.ctx, s.cancel = nil, nil
	s.mu.Unlock()

	s.wg.Wait()
	logging.L().Info("scheduler stopped")
}

// StartTask marks the task running and, when the scheduler is started,
// arms it for an immediate first run.
func (s *Scheduler) StartTask(id int64) (*types.NetworkTask, error) {
	tasks, err := s.store.Tasks()
	if err != nil {
		return nil, err
	}
	if err := tasks.SetRunning(id, true); err != nil {
		return nil, fmt.Errorf("starting task %d: %w", id, err)
	}
	task, err := tasks.Get(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		s.armLocked(task, s.clock.Now())
	}
	return task, nil
}

// StopTask marks the task stopped and disarms its timer.
func (s *Scheduler) StopTask(id int64) (*types.NetworkTask, error) {
	tasks, err := s.store.Tasks()
	if err != nil {
		return nil, err
	}
	if err := tasks.SetRunning(id, false); err != nil {
		return nil, fmt.Errorf("stopping task %d: %w", id, err)
	}
	task, err := tasks.Get(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(task.SchedulerID)
	return task, nil
}

// Sync reconciles the armed timers with the stored tasks. Running tasks
// without a timer are armed and timers of stopped or deleted tasks are
// dropped. A task that was restarted elsewhere, and so carries a new
// scheduler id, runs immediately. Other processes change the database; the
// daemon calls Sync to pick those changes up.
func (s *Scheduler) Sync() error {
	tasks, err := s.listTasks()
	if err != nil {
		return err
	}
	intervals, err := s.suspensionIntervals()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return ErrNotStarted
	}

	now := s.clock.Now()
	running := make(map[int]bool)
	listed := make(map[int64]bool, len(tasks))
	for _, task := range tasks {
		listed[task.ID] = true
		if !task.Running {
			continue
		}
		running[task.SchedulerID] = true
		if _, ok := s.alarms[task.SchedulerID]; ok || s.inflight[task.SchedulerID] {
			continue
		}
		at := firstRun(task, now, intervals)
		if prev, ok := s.armed[task.ID]; ok && prev != task.SchedulerID {
			at = deferSuspended(now, intervals)
		}
		logging.L().Debug("arming task found by sync", "task_id", task.ID, "scheduler_id", task.SchedulerID)
		s.armLocked(task, at)
	}
	for id := range s.alarms {
		if !running[id] {
			s.disarmLocked(id)
		}
	}
	for id := range s.inflight {
		if !running[id] {
			s.cancelled[id] = true
		}
	}
	for id := range s.armed {
		if !listed[id] {
			delete(s.armed, id)
		}
	}
	return nil
}

// NextRuns returns the armed run time per task id.
func (s *Scheduler) NextRuns() map[int64]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]time.Time, len(s.alarms))
	for _, a := range s.alarms {
		out[a.taskID] = a.at
	}
	return out
}

// RunOnce probes the given tasks, or all tasks when ids is empty, in
// parallel without arming timers. Results follow the order of the tasks.
func (s *Scheduler) RunOnce(ctx context.Context, ids ...int64) ([]*types.LogEntry, error) {
	var tasks []*types.NetworkTask
	if len(ids) == 0 {
		all, err := s.listTasks()
		if err != nil {
			return nil, err
		}
		tasks = all
	} else {
		table, err := s.store.Tasks()
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			task, err := table.Get(id)
			if err != nil {
				return nil, fmt.Errorf("task %d: %w", id, err)
			}
			tasks = append(tasks, task)
		}
	}

	entries := make([]*types.LogEntry, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelProbes)
	for i, task := range tasks {
		g.Go(func() error {
			entry, err := s.run(gctx, task)
			if err != nil {
				return fmt.Errorf("task %d: %w", task.ID, err)
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// armLocked arms task at at. A timer or run left over from an earlier
// scheduler id of the same task is cancelled.
func (s *Scheduler) armLocked(task *types.NetworkTask, at time.Time) {
	if prev, ok := s.armed[task.ID]; ok && prev != task.SchedulerID {
		s.cancelLocked(prev)
	}
	s.disarmLocked(task.SchedulerID)
	delete(s.cancelled, task.SchedulerID)
	a := &alarm{taskID: task.ID, schedulerID: task.SchedulerID, at: at}
	delay := max(at.Sub(s.clock.Now()), 0)
	a.timer = s.clock.AfterFunc(delay, func() { s.fire(a) })
	s.alarms[task.SchedulerID] = a
	s.armed[task.ID] = task.SchedulerID
}

func (s *Scheduler) disarmLocked(schedulerID int) {
	if a, ok := s.alarms[schedulerID]; ok {
		a.timer.Stop()
		delete(s.alarms, schedulerID)
	}
}

// cancelLocked disarms schedulerID and keeps a run in flight from arming
// it again.
func (s *Scheduler) cancelLocked(schedulerID int) {
	s.disarmLocked(schedulerID)
	if s.inflight[schedulerID] {
		s.cancelled[schedulerID] = true
	}
}

// rearm arms the task unless the scheduler was stopped or restarted since
// ctx was taken, or the task was stopped while it ran.
func (s *Scheduler) rearm(ctx context.Context, task *types.NetworkTask, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != ctx || s.cancelled[task.SchedulerID] {
		return
	}
	s.armLocked(task, at)
}

func (s *Scheduler) fire(a *alarm) {
	s.mu.Lock()
	if s.ctx == nil || s.alarms[a.schedulerID] != a {
		s.mu.Unlock()
		return
	}
	delete(s.alarms, a.schedulerID)
	s.inflight[a.schedulerID] = true
	ctx := s.ctx
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, a.schedulerID)
		delete(s.cancelled, a.schedulerID)
		s.mu.Unlock()
		s.wg.Done()
	}()
	s.execute(ctx, a)
}

func (s *Scheduler) execute(ctx context.Context, a *alarm) {
	log := logging.L().With("task_id", a.taskID, "scheduler_id", a.schedulerID)

	task, err := s.loadTask(a.taskID)
	switch {
	case errors.Is(err, types.ErrNotFound):
		log.Debug("dropping alarm of deleted task")
		return
	case err != nil:
		log.Error("loading task", "error", err)
		s.rearm(ctx, &types.NetworkTask{ID: a.taskID, SchedulerID: a.schedulerID}, s.clock.Now().Add(retryDelay))
		return
	}
	if task.SchedulerID != a.schedulerID {
		log.Debug("dropping stale alarm", "current_scheduler_id", task.SchedulerID)
		return
	}
	if !task.Running {
		log.Debug("dropping alarm of stopped task")
		return
	}

	intervals, err := s.suspensionIntervals()
	if err != nil {
		log.Warn("loading suspension intervals", "error", err)
	}
	now := s.clock.Now()
	if iv := types.ActiveInterval(intervals, now); iv != nil {
		at := deferSuspended(now, intervals)
		log.Info("task suspended", "interval", iv.String(), "next_run", at)
		s.rearm(ctx, task, at)
		return
	}

	if _, err := s.run(ctx, task); err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error("running task", "error", err)
	}
	s.rearm(ctx, task, NextRun(task, s.clock.Now(), intervals))
}

// run probes task once, logs the result, records the run time and
// dispatches a notification when one is due.
func (s *Scheduler) run(ctx context.Context, task *types.NetworkTask) (*types.LogEntry, error) {
	dataTable, err := s.store.AccessTypeData()
	if err != nil {
		return nil, err
	}
	data, err := dataTable.Get(task.ID)
	if err != nil {
		return nil, fmt.Errorf("loading access type data: %w", err)
	}

	res := s.prober.Probe(ctx, task, data)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logs, err := s.store.Logs()
	if err != nil {
		return nil, err
	}
	previous, err := logs.Latest(task.ID)
	if errors.Is(err, types.ErrNotFound) {
		previous, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading previous log entry: %w", err)
	}

	entry, err := logs.Insert(&types.LogEntry{
		NetworkTaskID: task.ID,
		Success:       res.Success,
		Timestamp:     s.clock.Now(),
		Message:       res.Message,
	})
	if err != nil {
		return nil, fmt.Errorf("inserting log entry: %w", err)
	}
	tasks, err := s.store.Tasks()
	if err != nil {
		return nil, err
	}
	if err := tasks.SetLastScheduled(task.ID, entry.Timestamp); err != nil {
		return nil, fmt.Errorf("recording last run: %w", err)
	}

	logging.L().Info("task probed",
		"task_id", task.ID,
		"name", task.DisplayName(),
		"access_type", task.AccessType,
		"success", res.Success,
		"duration", res.Duration)

	if s.shouldNotify(task, previous, entry) {
		// Async senders outlive the run; RunOnce cancels its context on return.
		s.notifier.Dispatch(context.WithoutCancel(ctx), notify.NewEvent(task.ID, task.DisplayName(), task.Target(), entry.Success, entry.Message, entry.Timestamp))
	}
	return entry, nil
}

// shouldNotify applies the notification type. Without a previous entry a
// change is assumed from success, so a first failure is reported.
func (s *Scheduler) shouldNotify(task *types.NetworkTask, previous, entry *types.LogEntry) bool {
	if s.notifier == nil || !task.Notification {
		return false
	}
	s.mu.Lock()
	kind := s.prefs.Notification.Type
	s.mu.Unlock()

	if kind == types.NotificationChange {
		if previous == nil {
			return !entry.Success
		}
		return previous.Success != entry.Success
	}
	return !entry.Success
}

func (s *Scheduler) loadTask(id int64) (*types.NetworkTask, error) {
	tasks, err := s.store.Tasks()
	if err != nil {
		return nil, err
	}
	return tasks.Get(id)
}

func (s *Scheduler) listTasks() ([]*types.NetworkTask, error) {
	tasks, err := s.store.Tasks()
	if err != nil {
		return nil, err
	}
	return tasks.List()
}

// suspensionIntervals returns nil when suspension is disabled.
func (s *Scheduler) suspensionIntervals() ([]*types.Interval, error) {
	s.mu.Lock()
	enabled := s.prefs.Suspension.Enabled
	s.mu.Unlock()
	if !enabled {
		return nil, nil
	}
	table, err := s.store.Intervals()
	if err != nil {
		return nil, err
	}
	return table.List()
}
