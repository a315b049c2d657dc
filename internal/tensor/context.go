package tensor

import "github.com/substrate-ml/substrate/internal/compute"

// Context carries the execution context every operation dispatches onto: a
// backend queue (the stream plus its kernel entry points) and the default
// datatype for allocations. There is no ambient global; the context is an
// explicit argument to every entry point, and a nil context or nil queue
// fails immediately with a MissingContextError.
type Context struct {
	queue Queue
	dtype compute.DataType
}

// NewContext binds a queue with Float64 as the default datatype.
func NewContext(q Queue) *Context {
	return &Context{queue: q, dtype: compute.Float64}
}

// WithDType returns a copy of the context with a different default
// datatype.
func (c *Context) WithDType(dt compute.DataType) *Context {
	return &Context{queue: c.queue, dtype: dt}
}

// Queue returns the bound backend queue.
func (c *Context) Queue() Queue { return c.queue }

// DType returns the default datatype for allocations.
func (c *Context) DType() compute.DataType { return c.dtype }

// Device returns the device of the bound queue.
func (c *Context) Device() compute.Device { return c.queue.Device() }

func (c *Context) check(op string) error {
	if c == nil || c.queue == nil {
		return &compute.MissingContextError{Op: op}
	}
	return nil
}
