package executor

import (
	"context"
	"strings"
	"sync"
)

// Call is one command recorded by Fake.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// Line renders the call as a shell-like command line.
func (c Call) Line() string {
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Fake is an Executor test double. It records every call and delegates the
// outcome to Handler when set; otherwise every command succeeds.
type Fake struct {
	Handler func(call Call) (string, error)

	mu    sync.Mutex
	calls []Call
}

func (f *Fake) Execute(ctx context.Context, name string, args ...string) (string, error) {
	return f.ExecuteInDir(ctx, "", name, args...)
}

func (f *Fake) ExecuteInDir(ctx context.Context, dir string, name string, args ...string) (string, error) {
	call := Call{Dir: dir, Name: name, Args: append([]string(nil), args...)}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Handler == nil {
		return "", nil
	}
	return f.Handler(call)
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}
