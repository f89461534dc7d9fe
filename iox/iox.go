// Package iox holds cleanup helpers for files, stores and adapters.
package iox

import (
	"errors"
	"io"
)

// DiscardClose closes c and drops the error, for deferred closes of
// read-only handles where nothing can be done about a failure:
//
//	defer iox.DiscardClose(f)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc adapts c for t.Cleanup:
//
//	t.Cleanup(iox.CloseFunc(a))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// DiscardErr calls fn and drops the error, as for a deferred logger Sync.
func DiscardErr(fn func() error) { _ = fn() }

// CloseAll closes every closer, in order, even after a failure, and joins
// the errors.
func CloseAll(closers ...io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
