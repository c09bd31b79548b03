package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewAndRetryability(t *testing.T) {
	e := New(CodeValidationError, "bad sex value")
	if e.Code != CodeValidationError || e.Retryable {
		t.Errorf("New = %+v", e)
	}
	if IsRetryable(e) {
		t.Error("New must produce a non-retryable error")
	}

	r := NewRetryable(CodeStoreError, "write contended")
	if !IsRetryable(r) {
		t.Error("NewRetryable must produce a retryable error")
	}
	if IsRetryable(nil) || IsRetryable(errors.New("plain")) {
		t.Error("foreign and nil errors are never retryable")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	e := Wrap(cause, CodeBackendUnreachable, "could not reach backend")
	if !errors.Is(e, cause) {
		t.Error("wrapped cause must survive errors.Is")
	}
	if e.Retryable {
		t.Error("Wrap is non-retryable")
	}

	r := WrapRetryable(cause, CodeStoreError, "transient store failure")
	if !r.Retryable || !errors.Is(r, cause) {
		t.Errorf("WrapRetryable = %+v", r)
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(CodePlanNotFound, "nope")); got != CodePlanNotFound {
		t.Errorf("GetCode = %s", got)
	}
	if got := GetCode(errors.New("plain")); got != CodeInternalError {
		t.Errorf("foreign error code = %s", got)
	}
}

func TestIsMatchesOnCode(t *testing.T) {
	derived := ErrBackendTimeout.WithCause(fmt.Errorf("deadline exceeded")).WithMetadata("url", "http://x")
	if !errors.Is(derived, ErrBackendTimeout) {
		t.Error("derived error must still match its sentinel")
	}
	if errors.Is(derived, ErrBackendUnreachable) {
		t.Error("different codes must not match")
	}
}

func TestWithCauseDoesNotMutate(t *testing.T) {
	base := ErrStore
	derived := base.WithCause(errors.New("rpc failed")).WithMessage("list failed")
	if base.Cause != nil || base.Message != "document store error" {
		t.Errorf("sentinel mutated: %+v", base)
	}
	if derived.Message != "list failed" || derived.Cause == nil {
		t.Errorf("derived = %+v", derived)
	}
}
