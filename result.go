package kvclient

type resultState uint8

const (
	statePending resultState = iota
	stateResolved
	stateDiscarded
)

// Result is the outcome of a call. Direct calls return resolved results.
// Calls made inside a pipeline or a transaction return pending results
// that resolve when the batch is flushed, or are discarded with it.
//
// A Result belongs to the goroutine driving its batch.
type Result[T any] struct {
	state    resultState
	val      T
	err      error
	queueErr error
}

// Get returns the value and error of the call. Pending results return
// ErrNotResolved and discarded ones ErrDiscarded.
func (r *Result[T]) Get() (T, error) {
	var zero T
	switch r.state {
	case statePending:
		return zero, ErrNotResolved
	case stateDiscarded:
		return zero, ErrDiscarded
	}
	return r.val, r.err
}

// Val returns the value, or the zero value when the call failed or is not
// resolved.
func (r *Result[T]) Val() T {
	v, _ := r.Get()
	return v
}

func (r *Result[T]) Err() error {
	_, err := r.Get()
	return err
}

func (r *Result[T]) Resolved() bool {
	return r.state == stateResolved
}

func (r *Result[T]) Pending() bool {
	return r.state == statePending
}

// QueueErr is the error the server answered instead of queuing the command
// inside a transaction. It is set on the rejected commands of a failed
// transaction, in addition to the error returned by Get.
func (r *Result[T]) QueueErr() error {
	return r.queueErr
}

func (r *Result[T]) resolve(v T, err error) {
	r.val, r.err, r.state = v, err, stateResolved
}

func (r *Result[T]) fail(err error) {
	var zero T
	r.resolve(zero, err)
}

func (r *Result[T]) discard() {
	r.state = stateDiscarded
}

func failed[T any](err error) *Result[T] {
	r := &Result[T]{}
	r.fail(err)
	return r
}
