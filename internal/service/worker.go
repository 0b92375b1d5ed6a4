// internal/service/worker.go
package service

import (
    "log"
)

// ExecutorInterface defines the method the worker needs
type ExecutorInterface interface {
    Execute(executionID int) (*ExecutionResult, error)
}

// Worker processes due execution jobs
type Worker struct {
    Executor ExecutorInterface
    JobChan  <-chan int
}

// Constructor
func NewWorker(executor ExecutorInterface, jobChan <-chan int) *Worker {
    return &Worker{
        Executor: executor,
        JobChan:  jobChan,
    }
}

// Start begins processing jobs
func (w *Worker) Start() {
    for jobID := range w.JobChan {
        result, err := w.Executor.Execute(jobID)
        if err != nil {
            log.Println("Failed to execute followup:", err)
            continue
        }
        log.Printf("Execution %d finished with status %s\n", result.ExecutionID, result.Status)
    }
}
