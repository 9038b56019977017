// Package rwpool runs reader and writer closures across a fixed worker set
// under an alternating time-sliced phase policy: mutating work gets a
// guaranteed share of the clock while reader bursts still run wide, and the
// two kinds never mix unless interlap is enabled.
package rwpool

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrDurationTooSmall is returned for phase durations below the 0.5s floor.
var ErrDurationTooSmall = errors.New("rwpool: phase duration below 0.5s floor")

// durationFloor is 0.5s with half a millisecond of slack for float32 noise:
// 0.500 is accepted, 0.499 is not.
const durationFloor = 0.5 - 0.0005

// Config sets the pool's worker count and phase policy.
type Config struct {
	Workers          int
	WriterDuration   float32 // seconds, min 0.5
	ReaderDuration   float32 // seconds, min 0.5
	CanInterlap      bool    // let both phases execute concurrently
	StartWithWriters bool
}

// Pool dispatches queued closures from two FIFO queues.
//
// One internal phase-timer goroutine alternates the active phase: it sleeps
// for the active phase's duration, flips only if the opposite queue is
// non-empty, then waits for the outgoing phase's in-flight counter to drain
// before waking the workers (in interlap mode it wakes the workers first and
// waits for the drain afterwards). In non-interlap mode a worker only pops from
// the active queue and only while no task of the opposite kind is in flight,
// so at any instant at most one of {readers, writers} is executing.
//
// A single mutex guards the queues, counters, flags and the active phase; it
// is released while a task runs. There is no per-task cancellation —
// cancellation equals pool termination.
type Pool struct {
	log *zap.Logger

	mu        sync.Mutex
	taskCond  *sync.Cond // workers wait here for runnable tasks
	timerCond *sync.Cond // the timer waits here for counters to drain

	readerTasks queue
	writerTasks queue

	initialized bool
	terminated  bool
	paused      bool

	canInterlap bool
	writerPhase bool
	readersInFlight,
	writersInFlight int

	readerDuration float32
	writerDuration float32

	wg sync.WaitGroup // workers + timer
}

// New starts cfg.Workers worker goroutines and the phase timer. A Workers
// value below 1 is raised to 1.
func New(log *zap.Logger, cfg Config) *Pool {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	p := &Pool{
		log:            log.Named("rwpool"),
		initialized:    true,
		canInterlap:    cfg.CanInterlap,
		writerPhase:    cfg.StartWithWriters,
		readerDuration: cfg.ReaderDuration,
		writerDuration: cfg.WriterDuration,
	}
	p.taskCond = sync.NewCond(&p.mu)
	p.timerCond = sync.NewCond(&p.mu)

	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.wg.Add(1)
	go p.timer()

	p.log.Info("pool started",
		zap.Int("workers", cfg.Workers),
		zap.Float32("writer_duration", cfg.WriterDuration),
		zap.Float32("reader_duration", cfg.ReaderDuration),
		zap.Bool("interlap", cfg.CanInterlap))
	return p
}

// AddReaderTask enqueues a read-only closure. Dropped silently when the pool
// is not working.
func (p *Pool) AddReaderTask(task func()) { p.addTask(&p.readerTasks, task) }

// AddWriterTask enqueues a mutating closure. Dropped silently when the pool
// is not working.
func (p *Pool) AddWriterTask(task func()) { p.addTask(&p.writerTasks, task) }

func (p *Pool) addTask(q *queue, task func()) {
	p.mu.Lock()
	if !p.workingLocked() {
		p.mu.Unlock()
		return
	}
	q.push(task)
	p.mu.Unlock()

	p.taskCond.Signal()
}

// Working reports whether the pool accepts tasks.
func (p *Pool) Working() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workingLocked()
}

func (p *Pool) workingLocked() bool { return p.initialized && !p.terminated }

// SetPaused stops (or resumes) task dispatch; in-flight tasks finish.
func (p *Pool) SetPaused(paused bool) {
	p.mu.Lock()
	if !p.workingLocked() {
		p.mu.Unlock()
		return
	}
	p.paused = paused
	p.mu.Unlock()

	if !paused {
		p.taskCond.Broadcast()
	}
}

// IsPaused reports whether dispatch is paused.
func (p *Pool) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// SetReaderDuration updates the reader phase length; takes effect on the
// timer's next sleep.
func (p *Pool) SetReaderDuration(seconds float32) error {
	return p.setDuration(&p.readerDuration, seconds)
}

// SetWriterDuration updates the writer phase length; takes effect on the
// timer's next sleep.
func (p *Pool) SetWriterDuration(seconds float32) error {
	return p.setDuration(&p.writerDuration, seconds)
}

func (p *Pool) setDuration(target *float32, seconds float32) error {
	if seconds < durationFloor {
		return ErrDurationTooSmall
	}
	p.mu.Lock()
	*target = seconds
	p.mu.Unlock()
	return nil
}

// ReaderDuration returns the current reader phase length in seconds.
func (p *Pool) ReaderDuration() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readerDuration
}

// WriterDuration returns the current writer phase length in seconds.
func (p *Pool) WriterDuration() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writerDuration
}

// Stats is a point-in-time snapshot for diagnostics.
type Stats struct {
	ReaderQueue     int     `json:"reader_queue"`
	WriterQueue     int     `json:"writer_queue"`
	ReadersInFlight int     `json:"readers_in_flight"`
	WritersInFlight int     `json:"writers_in_flight"`
	WriterPhase     bool    `json:"writer_phase"`
	Paused          bool    `json:"paused"`
	ReaderDuration  float32 `json:"reader_duration"`
	WriterDuration  float32 `json:"writer_duration"`
}

// Snapshot returns current queue depths, counters and phase.
func (p *Pool) Snapshot() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		ReaderQueue:     p.readerTasks.len(),
		WriterQueue:     p.writerTasks.len(),
		ReadersInFlight: p.readersInFlight,
		WritersInFlight: p.writersInFlight,
		WriterPhase:     p.writerPhase,
		Paused:          p.paused,
		ReaderDuration:  p.readerDuration,
		WriterDuration:  p.writerDuration,
	}
}

// Terminate shuts the pool down and joins every worker and the timer. With
// immediately=false queued tasks are drained first; with immediately=true
// both queues are cleared. Idempotent.
func (p *Pool) Terminate(immediately bool) {
	p.mu.Lock()
	if !p.workingLocked() {
		p.mu.Unlock()
		return
	}
	p.terminated = true
	p.paused = false
	if immediately {
		p.readerTasks.clear()
		p.writerTasks.clear()
	}
	p.mu.Unlock()

	p.taskCond.Broadcast()
	p.timerCond.Broadcast()

	p.wg.Wait()

	p.mu.Lock()
	p.terminated = false
	p.initialized = false
	p.paused = false
	p.mu.Unlock()

	p.log.Info("pool terminated", zap.Bool("immediately", immediately))
}

// worker is the dispatch loop of one worker goroutine.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		p.mu.Lock()

		var (
			task     func()
			acquired bool
			isWriter bool
		)
		for {
			if !p.paused {
				active, other := &p.readerTasks, &p.writersInFlight
				if p.writerPhase {
					active, other = &p.writerTasks, &p.readersInFlight
				}
				isWriter = p.writerPhase

				if p.canInterlap || *other == 0 {
					task, acquired = active.pop()
				}

				// On graceful shutdown the phase gate no longer matters:
				// drain whichever queue still holds work.
				if p.terminated && !acquired {
					inactive := &p.writerTasks
					isWriter = true
					if p.writerPhase {
						inactive = &p.readerTasks
						isWriter = false
					}
					task, acquired = inactive.pop()
				}

				if p.terminated || acquired {
					break
				}
			}
			p.taskCond.Wait()
		}

		if p.terminated && !acquired {
			p.mu.Unlock()
			return
		}

		if isWriter {
			p.writersInFlight++
		} else {
			p.readersInFlight++
		}
		p.mu.Unlock()

		task()

		p.mu.Lock()
		if isWriter {
			p.writersInFlight--
		} else {
			p.readersInFlight--
		}
		p.mu.Unlock()

		p.timerCond.Signal()
	}
}

// timer is the phase-flipping loop. Duration updates are picked up on the
// next sleep.
func (p *Pool) timer() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		d := p.readerDuration
		if p.writerPhase {
			d = p.writerDuration
		}
		p.mu.Unlock()

		time.Sleep(time.Duration(float64(d) * float64(time.Second)))

		if p.canInterlap {
			p.mu.Lock()
			if p.terminated && p.readerTasks.len() == 0 && p.writerTasks.len() == 0 {
				p.mu.Unlock()
				return
			}
			// Nothing waiting on the other side: keep the current phase.
			if p.otherQueueLenLocked() > 0 {
				p.writerPhase = !p.writerPhase
			}
			p.mu.Unlock()

			p.taskCond.Broadcast()

			p.mu.Lock()
			// The outgoing phase keeps running alongside the new one until
			// its counter drains; the next sleep starts only after that.
			for p.outgoingInFlightLocked() != 0 {
				p.timerCond.Wait()
			}
			p.mu.Unlock()
		} else {
			p.mu.Lock()
			if p.otherQueueLenLocked() > 0 {
				p.writerPhase = !p.writerPhase
			} else if p.terminated {
				p.mu.Unlock()
				return
			}

			for p.outgoingInFlightLocked() != 0 {
				p.timerCond.Wait()
			}
			p.mu.Unlock()

			p.taskCond.Broadcast()
		}
	}
}

// otherQueueLenLocked returns the depth of the queue opposite the active
// phase. Caller holds the pool mutex.
func (p *Pool) otherQueueLenLocked() int {
	if p.writerPhase {
		return p.readerTasks.len()
	}
	return p.writerTasks.len()
}

// outgoingInFlightLocked returns the in-flight counter of the phase being
// left (the opposite of the now-active phase). Caller holds the pool mutex.
func (p *Pool) outgoingInFlightLocked() int {
	if p.writerPhase {
		return p.readersInFlight
	}
	return p.writersInFlight
}
