package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MimeLyc/videotools/internal/errs"
	"github.com/MimeLyc/videotools/internal/metrics"
	"github.com/MimeLyc/videotools/pkg/log"
)

// ProgressFunc lets an executor publish progress of the running job.
type ProgressFunc func(progress float64, status string)

// Executor runs one job. The returned result is stored as JSON on success.
type Executor func(ctx context.Context, job *Job, report ProgressFunc) (any, error)

type Queue struct {
	workerCount int
	maxJobs     int
	store       Store

	mu         sync.RWMutex
	jobs       map[string]*Job
	dedupe     map[string]string
	idCounter  uint64
	started    bool
	running    int
	pendingIDs chan string
	ctx        context.Context
	cancel     context.CancelFunc
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func NewQueue(workerCount int, store Store) *Queue {
	if workerCount <= 0 {
		workerCount = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		workerCount: workerCount,
		maxJobs:     1000,
		store:       store,
		jobs:        make(map[string]*Job),
		dedupe:      make(map[string]string),
		pendingIDs:  make(chan string, 1024),
		ctx:         ctx,
		cancel:      cancel,
	}
	q.hydrateFromStore(context.Background())
	return q
}

// Enqueue adds a job unless one with the same dedupe key is still active, in
// which case the active job is returned with created=false.
func (q *Queue) Enqueue(req EnqueueRequest) (*Job, bool, error) {
	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, false, fmt.Errorf("encode payload: %w", err)
	}
	now := time.Now()

	q.mu.Lock()
	if id, ok := q.dedupe[req.DedupeKey]; ok {
		if existing, exists := q.jobs[id]; exists {
			snapshot := cloneJob(existing)
			q.mu.Unlock()
			return snapshot, false, nil
		}
		delete(q.dedupe, req.DedupeKey)
	}

	id := fmt.Sprintf("job-%d", atomic.AddUint64(&q.idCounter, 1))
	job := &Job{
		ID:        id,
		Kind:      req.Kind,
		Source:    req.Source,
		DedupeKey: req.DedupeKey,
		Payload:   payload,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	q.jobs[id] = job
	if req.DedupeKey != "" {
		q.dedupe[req.DedupeKey] = id
	}
	started := q.started
	snapshot := cloneJob(job)
	q.updateGaugesLocked()
	q.mu.Unlock()

	q.persistJob(snapshot)
	if started {
		q.enqueuePendingID(id)
	}
	log.Info("Enqueued %s job %s from %s", job.Kind, id, job.Source)
	return snapshot, true, nil
}

func (q *Queue) Get(id string) (*Job, bool) {
	q.mu.RLock()
	job, ok := q.jobs[id]
	q.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cloneJob(job), true
}

// List returns every job, newest first.
func (q *Queue) List() []*Job {
	q.mu.RLock()
	ret := make([]*Job, 0, len(q.jobs))
	for _, job := range q.jobs {
		ret = append(ret, cloneJob(job))
	}
	q.mu.RUnlock()

	sort.Slice(ret, func(i, j int) bool {
		if ret[i].CreatedAt.Equal(ret[j].CreatedAt) {
			return jobNumber(ret[i].ID) > jobNumber(ret[j].ID)
		}
		return ret[i].CreatedAt.After(ret[j].CreatedAt)
	})
	return ret
}

func (q *Queue) Start(exec Executor) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true

	pending := make([]*Job, 0)
	for _, job := range q.jobs {
		if job.Status == StatusPending {
			pending = append(pending, job)
		}
	}
	q.mu.Unlock()

	sort.Slice(pending, func(i, j int) bool {
		return jobNumber(pending[i].ID) < jobNumber(pending[j].ID)
	})
	for _, job := range pending {
		q.enqueuePendingID(job.ID)
	}

	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(exec)
	}
}

// Stop cancels running jobs and waits for the workers to exit.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		q.cancel()
		q.wg.Wait()
	})
}

func (q *Queue) worker(exec Executor) {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case id := <-q.pendingIDs:
			job, ok := q.markRunning(id)
			if !ok {
				continue
			}

			result, err := q.execute(exec, job)
			if err != nil {
				q.markFailed(id, err)
				continue
			}
			q.markSuccess(id, result)
		}
	}
}

// execute runs exec, turning a panic into a job failure.
func (q *Queue) execute(exec Executor, job *Job) (result any, err error) {
	err = errs.SafeExecute(func() error {
		var runErr error
		result, runErr = exec(q.ctx, job, func(progress float64, status string) {
			q.reportProgress(job.ID, progress, status)
		})
		return runErr
	})
	return result, err
}

func (q *Queue) enqueuePendingID(id string) {
	select {
	case q.pendingIDs <- id:
	default:
		go func() { q.pendingIDs <- id }()
	}
}

func (q *Queue) reportProgress(id string, progress float64, status string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok || job.Status != StatusRunning {
		return
	}
	job.Progress = progress
	job.StatusText = status
	job.UpdatedAt = time.Now()
}

func (q *Queue) markRunning(id string) (*Job, bool) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || job.Status != StatusPending {
		q.mu.Unlock()
		return nil, false
	}
	job.Status = StatusRunning
	job.UpdatedAt = time.Now()
	q.running++
	q.updateGaugesLocked()
	snapshot := cloneJob(job)
	q.mu.Unlock()

	q.persistJob(snapshot)
	return snapshot, true
}

func (q *Queue) markSuccess(id string, result any) {
	var raw json.RawMessage
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			q.markFailed(id, fmt.Errorf("encode result: %w", err))
			return
		}
		raw = data
	}

	q.finish(id, func(job *Job) {
		job.Status = StatusSuccess
		job.Progress = 1
		job.Error = ""
		job.Result = raw
	})
}

func (q *Queue) markFailed(id string, err error) {
	q.finish(id, func(job *Job) {
		job.Status = StatusFailed
		if err != nil {
			job.Error = err.Error()
		}
	})
}

func (q *Queue) finish(id string, apply func(job *Job)) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok {
		q.mu.Unlock()
		return
	}
	apply(job)
	job.UpdatedAt = time.Now()
	q.running--
	q.releaseDedupeLocked(job)
	pruned := q.pruneTerminalJobsLocked()
	q.updateGaugesLocked()
	snapshot := cloneJob(job)
	q.mu.Unlock()

	metrics.RecordJobCompleted(string(snapshot.Kind), string(snapshot.Status))
	if snapshot.Status == StatusFailed {
		log.Error("Job %s failed: %s", id, snapshot.Error)
	} else {
		log.Info("Job %s finished", id)
	}
	q.persistJob(snapshot)
	q.deleteJobsFromStore(pruned)
}

func (q *Queue) updateGaugesLocked() {
	pending := 0
	for _, job := range q.jobs {
		if job.Status == StatusPending {
			pending++
		}
	}
	metrics.UpdateJobMetrics(q.running, pending)
}

func (q *Queue) releaseDedupeLocked(job *Job) {
	if job == nil || job.DedupeKey == "" {
		return
	}
	if id, ok := q.dedupe[job.DedupeKey]; ok && id == job.ID {
		delete(q.dedupe, job.DedupeKey)
	}
}

func (q *Queue) pruneTerminalJobsLocked() []string {
	if q.maxJobs <= 0 || len(q.jobs) <= q.maxJobs {
		return nil
	}

	type candidate struct {
		id        string
		updatedAt time.Time
	}
	terminal := make([]candidate, 0, len(q.jobs))
	for id, job := range q.jobs {
		if job == nil || !job.Status.Terminal() {
			continue
		}
		terminal = append(terminal, candidate{id: id, updatedAt: job.UpdatedAt})
	}
	if len(terminal) == 0 {
		return nil
	}

	sort.Slice(terminal, func(i, j int) bool {
		return terminal[i].updatedAt.Before(terminal[j].updatedAt)
	})

	toRemove := min(len(q.jobs)-q.maxJobs, len(terminal))
	pruned := make([]string, 0, toRemove)
	for i := 0; i < toRemove; i++ {
		id := terminal[i].id
		if job := q.jobs[id]; job != nil {
			q.releaseDedupeLocked(job)
		}
		delete(q.jobs, id)
		pruned = append(pruned, id)
	}
	return pruned
}

func (q *Queue) deleteJobsFromStore(ids []string) {
	if q.store == nil || len(ids) == 0 {
		return
	}
	for _, id := range ids {
		if err := q.store.DeleteJob(context.Background(), id); err != nil {
			log.Error("Failed to delete pruned job %s from store: %v", id, err)
		}
	}
}

// hydrateFromStore restores job history. Jobs that were running when the
// process stopped are failed, never resumed.
func (q *Queue) hydrateFromStore(ctx context.Context) {
	if q.store == nil {
		return
	}
	loaded, err := q.store.LoadJobs(ctx)
	if err != nil {
		log.Error("Failed to load jobs from store: %v", err)
		return
	}

	now := time.Now()
	toPersist := make([]*Job, 0)
	q.mu.Lock()
	for _, raw := range loaded {
		if raw == nil || raw.ID == "" {
			continue
		}
		job := cloneJob(raw)
		if job.Status == StatusRunning {
			job.Status = StatusFailed
			job.Error = InterruptedError
			job.UpdatedAt = now
			toPersist = append(toPersist, cloneJob(job))
		}
		q.jobs[job.ID] = job
		if job.Status == StatusPending && job.DedupeKey != "" {
			q.dedupe[job.DedupeKey] = job.ID
		}
		q.updateIDCounterLocked(job.ID)
	}
	q.mu.Unlock()

	for _, job := range toPersist {
		q.persistJob(job)
	}
	if len(toPersist) > 0 {
		log.Warn("Marked %d interrupted jobs as failed", len(toPersist))
	}
}

func (q *Queue) updateIDCounterLocked(jobID string) {
	if n := jobNumber(jobID); n > q.idCounter {
		q.idCounter = n
	}
}

func jobNumber(jobID string) uint64 {
	if !strings.HasPrefix(jobID, "job-") {
		return 0
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(jobID, "job-"), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func (q *Queue) persistJob(job *Job) {
	if q.store == nil || job == nil {
		return
	}
	if err := q.store.UpsertJob(context.Background(), job); err != nil {
		log.Error("Failed to persist job %s: %v", job.ID, err)
	}
}

func cloneJob(job *Job) *Job {
	if job == nil {
		return nil
	}
	tmp := *job
	tmp.Payload = append(json.RawMessage(nil), job.Payload...)
	tmp.Result = append(json.RawMessage(nil), job.Result...)
	return &tmp
}
