package workers

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// WorkerManager starts and stops a set of background workers
type WorkerManager struct {
	workers []Worker
	log     *logrus.Logger
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewWorkerManager creates a new worker manager
func NewWorkerManager(log *logrus.Logger) *WorkerManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerManager{
		workers: make([]Worker, 0),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add registers a worker to be started by StartAll
func (wm *WorkerManager) Add(worker Worker) {
	wm.workers = append(wm.workers, worker)
}

// StartAll starts every registered worker in its own goroutine
func (wm *WorkerManager) StartAll() {
	for _, worker := range wm.workers {
		wm.startWorker(worker)
	}
	wm.log.WithField("workers", len(wm.workers)).Info("Started workers")
}

// StopAll gracefully stops all workers and waits for them to return
func (wm *WorkerManager) StopAll() {
	wm.log.Info("Stopping all workers...")

	wm.cancel()
	for _, worker := range wm.workers {
		if err := worker.Stop(); err != nil {
			wm.log.WithError(err).WithField("worker_id", worker.GetWorkerID()).Error("Error stopping worker")
		}
	}

	wm.wg.Wait()
	wm.log.Info("All workers stopped")
}

func (wm *WorkerManager) startWorker(worker Worker) {
	wm.wg.Add(1)
	go func() {
		defer wm.wg.Done()
		if err := worker.Start(wm.ctx); err != nil && err != context.Canceled {
			wm.log.WithError(err).WithField("worker_id", worker.GetWorkerID()).Error("Worker stopped with error")
		}
	}()
}

// GetWorkerStatus reports whether each worker is running, keyed by ID
func (wm *WorkerManager) GetWorkerStatus() map[string]bool {
	status := make(map[string]bool, len(wm.workers))
	for _, worker := range wm.workers {
		status[worker.GetWorkerID()] = worker.IsRunning()
	}
	return status
}
