// Package server hosts the interpreter behind editor tooling: a
// worker that serializes interpreter access, and an LSP server
// speaking the protocol over stdio.
package server

import (
	"errors"
	"fmt"

	"github.com/chazu/treepie/interp"
)

// ErrWorkerStopped reports a job submitted after Stop.
var ErrWorkerStopped = errors.New("eval worker stopped")

// evalRequest is one unit of work for the interpreter goroutine.
type evalRequest struct {
	fn   func(*interp.Interp) any
	done chan evalResult
}

// evalResult carries a job's return value.
type evalResult struct {
	value any
	err   error
}

// EvalWorker serializes all interpreter access through a single
// goroutine. Evaluation is strictly sequential, so every concurrent
// caller (each LSP handler runs on its own goroutine) must go
// through the worker. The worker owns the interpreter after
// construction.
type EvalWorker struct {
	in       *interp.Interp
	requests chan evalRequest
	quit     chan struct{}
}

// NewEvalWorker starts the processing goroutine around in.
func NewEvalWorker(in *interp.Interp) *EvalWorker {
	w := &EvalWorker{
		in:       in,
		requests: make(chan evalRequest),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *EvalWorker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs one job, recovering panics into errors so a bad job
// cannot take the worker goroutine down.
func (w *EvalWorker) execute(fn func(*interp.Interp) any) evalResult {
	var result evalResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.err = fmt.Errorf("interpreter job panicked: %v", r)
			}
		}()
		result.value = fn(w.in)
	}()
	return result
}

// Do submits fn for execution on the interpreter goroutine and blocks
// until it completes, returning the job's value and any error
// (including recovered panics). Once the loop accepts a request it
// always replies, so the unguarded receive below cannot hang.
func (w *EvalWorker) Do(fn func(*interp.Interp) any) (any, error) {
	req := evalRequest{
		fn:   fn,
		done: make(chan evalResult, 1),
	}
	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, ErrWorkerStopped
	}
	result := <-req.done
	return result.value, result.err
}

// Stop shuts down the worker goroutine. Safe to call once.
func (w *EvalWorker) Stop() {
	close(w.quit)
}
