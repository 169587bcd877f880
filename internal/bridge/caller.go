package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds a call when the caller is built without one.
const DefaultTimeout = 30 * time.Second

// Caller sends a request to the background and waits for its response.
// Every call is bounded by a timeout.
type Caller interface {
	Call(ctx context.Context, req Request) (Response, error)
}

// LocalCaller dispatches in-process, one goroutine per call.
type LocalCaller struct {
	dispatcher *Dispatcher
	timeout    time.Duration
}

func NewLocalCaller(d *Dispatcher, timeout time.Duration) *LocalCaller {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &LocalCaller{dispatcher: d, timeout: timeout}
}

func (c *LocalCaller) Call(ctx context.Context, req Request) (Response, error) {
	if c == nil || c.dispatcher == nil {
		return Response{}, ErrUnavailable
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan Response, 1)
	go func() {
		done <- c.dispatcher.Dispatch(ctx, req)
	}()

	select {
	case resp := <-done:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctxErr(ctx)
	}
}

// ctxErr maps a finished context onto the bridge sentinels.
func ctxErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrUnavailable
}
