// Package queue manages the asynchronous essay grading pipeline: an
// in-process job queue that accepts grading requests, drives each job
// through its state machine with a single drain loop, invokes the external
// grader, normalizes the response, and persists outcomes with per-job
// failure isolation. Completed and failed attempts live durably in the
// store; the queue itself is a working set that is lost on restart.
package queue
