package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/raysh454/phishguard/internal/logging"
)

// HandlerFunc serves one action.
type HandlerFunc func(ctx context.Context, req Request) Response

// Dispatcher routes requests to the handler registered for their action.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Action]HandlerFunc
	logger   logging.Logger
}

func NewDispatcher(logger logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Dispatcher{
		handlers: make(map[Action]HandlerFunc),
		logger:   logger.With(logging.Field{Key: "component", Value: "bridge"}),
	}
}

// Register installs h for action, replacing any previous handler.
func (d *Dispatcher) Register(action Action, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[action] = h
}

// Dispatch runs the handler for req.Action. The response always carries
// req.ID; a panicking handler yields an error response.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (resp Response) {
	d.mu.RLock()
	h, ok := d.handlers[req.Action]
	d.mu.RUnlock()
	if !ok {
		return Failure(req.ID, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action))
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panicked",
				logging.Field{Key: "action", Value: string(req.Action)},
				logging.Field{Key: "panic", Value: fmt.Sprint(r)})
			resp = Failure(req.ID, fmt.Errorf("handler %s failed", req.Action))
		}
	}()

	resp = h(ctx, req)
	resp.ID = req.ID
	return resp
}
