package errs_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/niamster/tgrep/internal/errs"
	"github.com/niamster/tgrep/internal/testsupport"
)

func TestErrorfCarriesMessageAndLocation(t *testing.T) {
	a := testsupport.NewAssert(t)
	err := errs.Errorf("boom %d", 42)
	a.True(strings.Contains(err.Error(), "boom 42"))
	a.True(strings.Contains(err.Error(), "errs_test.go"))
}

func TestWrapErrorfPreservesCauseForUnwrap(t *testing.T) {
	a := testsupport.NewAssert(t)
	cause := errors.New("underlying")
	wrapped := errs.WrapErrorf(cause, "context")
	a.ErrorIs(wrapped, cause)
	a.True(strings.Contains(wrapped.Error(), "context"))
	a.True(strings.Contains(wrapped.Error(), "underlying"))
}

func TestWrapErrorfChainsNestedWrappedErrors(t *testing.T) {
	a := testsupport.NewAssert(t)
	inner := errs.Errorf("inner")
	outer := errs.WrapErrorf(inner, "outer")
	s := outer.Error()
	a.True(strings.Contains(s, "outer"))
	a.True(strings.Contains(s, "Cause"))
	a.True(strings.Contains(s, "inner"))
}
