package iox

import (
	"errors"
	"testing"
)

type spyCloser struct{ closed bool }

func (s *spyCloser) Close() error { s.closed = true; return errors.New("ignored") }

func TestDiscardClose(t *testing.T) {
	s := &spyCloser{}
	DiscardClose(s)
	if !s.closed {
		t.Fatal("Close was not called")
	}
}

func TestCloseFunc(t *testing.T) {
	s := &spyCloser{}
	fn := CloseFunc(s)
	if s.closed {
		t.Fatal("Close called before invoking returned func")
	}
	fn()
	if !s.closed {
		t.Fatal("Close was not called")
	}
}

func TestDiscardErr(t *testing.T) {
	called := false
	DiscardErr(func() error {
		called = true
		return errors.New("ignored")
	})
	if !called {
		t.Fatal("fn was not called")
	}
}

type failCloser struct {
	calls *[]string
	name  string
	err   error
}

func (f failCloser) Close() error {
	*f.calls = append(*f.calls, f.name)
	return f.err
}

func TestCloseAll(t *testing.T) {
	var calls []string
	errStore := errors.New("store")
	errHook := errors.New("hook")

	err := CloseAll(
		failCloser{&calls, "store", errStore},
		failCloser{&calls, "cache", nil},
		failCloser{&calls, "hook", errHook},
	)
	if len(calls) != 3 || calls[0] != "store" || calls[2] != "hook" {
		t.Errorf("calls = %v, want store, cache, hook", calls)
	}
	if !errors.Is(err, errStore) || !errors.Is(err, errHook) {
		t.Errorf("err = %v, want both close errors", err)
	}

	if err := CloseAll(); err != nil {
		t.Errorf("CloseAll() = %v, want nil", err)
	}
}
