package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
	"github.com/99minutos/accounts-api/internal/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
	retryDelay     = time.Second
	drainTimeout   = 30 * time.Second
)

// Source yields jobs from the broker. A nil job with a nil error means the
// poll timed out with nothing to do.
type Source interface {
	Next(ctx context.Context) (*domain.Job, error)
}

// HandlerFunc executes one job and returns its result payload.
type HandlerFunc func(ctx context.Context, job domain.Job) (any, error)

// Dispatcher pulls jobs from a Source and fans them out to a fixed set of
// workers hashed on the job id. Every job's lifecycle is recorded in the
// TaskStore as STARTED and then SUCCESS or FAILURE.
//
// A popped job has already left the broker, so none is dropped at shutdown:
// workers drain their channels and jobs run after cancellation get a detached
// context bounded by drainTimeout.
type Dispatcher struct {
	workers  []chan domain.Job
	handlers map[string]HandlerFunc
	source   Source
	tasks    ports.TaskStore
	log      zerolog.Logger
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, source Source, tasks ports.TaskStore, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.Job, numWorkers),
		handlers: make(map[string]HandlerFunc),
		source:   source,
		tasks:    tasks,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Job, channelBuffer)
	}
	return d
}

// Handle registers fn for jobs called name. Call before Start.
func (d *Dispatcher) Handle(name string, fn HandlerFunc) {
	d.handlers[name] = fn
}

// Start launches the workers and the broker poll loop. Polling stops when ctx
// is cancelled and the workers stop once their channels are drained; Wait
// blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
	d.wg.Add(1)
	go d.poll(ctx)
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// enqueue hands a job to the worker responsible for its id, blocking while
// that worker's buffer is full. Only poll sends on the worker channels.
func (d *Dispatcher) enqueue(ctx context.Context, job domain.Job) bool {
	idx := d.shardIndex(job.ID)
	select {
	case d.workers[idx] <- job:
		metrics.JobsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return true
	case <-ctx.Done():
		return false
	}
}

// shardIndex maps a job id deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) poll(ctx context.Context) {
	defer d.wg.Done()
	defer func() {
		for _, ch := range d.workers {
			close(ch)
		}
	}()
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := d.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.log.Error().Err(err).Msg("broker poll failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryDelay):
			}
			continue
		}
		if job == nil {
			continue
		}
		if !d.enqueue(ctx, *job) {
			d.log.Warn().Str("task_id", job.ID).Msg("dispatcher stopping, running popped job inline")
			d.process(ctx, d.shardIndex(job.ID), *job)
			return
		}
	}
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Job) {
	defer d.wg.Done()
	worker := strconv.Itoa(id)
	for job := range ch {
		metrics.JobsQueueDepth.WithLabelValues(worker).Set(float64(len(ch)))
		d.process(ctx, id, job)
	}
}

func (d *Dispatcher) process(ctx context.Context, worker int, job domain.Job) {
	start := time.Now()
	log := d.log.With().Str("task_id", job.ID).Str("job", job.Name).Int("worker_id", worker).Logger()

	if ctx.Err() != nil {
		log.Warn().Msg("draining job after shutdown")
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
		defer cancel()
	}

	if err := d.tasks.SetStatus(ctx, job.ID, domain.TaskStarted, nil); err != nil {
		log.Error().Err(err).Msg("recording task start failed")
	}

	status := domain.TaskSuccess
	var result any

	fn, ok := d.handlers[job.Name]
	if !ok {
		status = domain.TaskFailure
		result = map[string]string{"error": "unknown job " + job.Name}
		log.Error().Msg("no handler registered for job")
	} else {
		res, err := fn(ctx, job)
		if err != nil {
			status = domain.TaskFailure
			result = map[string]string{"error": err.Error()}
			log.Error().Err(err).Msg("job failed")
		} else {
			result = res
		}
	}

	if err := d.tasks.SetStatus(ctx, job.ID, status, result); err != nil {
		log.Error().Err(err).Str("status", string(status)).Msg("recording task result failed")
	}

	metrics.JobsProcessedTotal.WithLabelValues(job.Name, string(status)).Inc()
	metrics.JobDuration.WithLabelValues(job.Name).Observe(time.Since(start).Seconds())
}
