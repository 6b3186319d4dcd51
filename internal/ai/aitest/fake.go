// Package aitest provides a scripted text-generation fake for tests.
package aitest

import (
	"context"
	"errors"
	"sync"

	"voyage/internal/ai"
)

// ErrScriptExhausted is returned once every scripted reply has been used.
var ErrScriptExhausted = errors.New("aitest: no scripted reply left")

type Reply struct {
	Text string
	Err  error
}

// Fake answers completions from a script or a function and records calls.
type Fake struct {
	mu      sync.Mutex
	respond func(req ai.Request) (string, error)
	script  []Reply
	calls   []ai.Request
}

// Scripted returns replies in order, one per call.
func Scripted(replies ...Reply) *Fake {
	return &Fake{script: replies}
}

// Func answers every call with fn.
func Func(fn func(req ai.Request) (string, error)) *Fake {
	return &Fake{respond: fn}
}

func (f *Fake) Complete(ctx context.Context, req ai.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.respond != nil {
		return f.respond(req)
	}
	if len(f.script) == 0 {
		return "", ErrScriptExhausted
	}
	r := f.script[0]
	f.script = f.script[1:]
	return r.Text, r.Err
}

// Calls returns a copy of the recorded requests.
func (f *Fake) Calls() []ai.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ai.Request(nil), f.calls...)
}

// CallsFor counts recorded requests with the given operation.
func (f *Fake) CallsFor(operation string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Operation == operation {
			n++
		}
	}
	return n
}
