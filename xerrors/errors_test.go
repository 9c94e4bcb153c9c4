package xerrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestInvalidConfigurationMatchesSentinel(t *testing.T) {
	err := InvalidConfiguration("steps", "steps must be positive, got %d", 0)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected errors.Is to match ErrInvalidConfig, got %v", err)
	}
	if err.Context["field"] != "steps" {
		t.Errorf("expected field context 'steps', got %v", err.Context["field"])
	}
	if !IsType(fmt.Errorf("wrapped: %w", err), ErrInvalidConfiguration) {
		t.Errorf("expected IsType to see through fmt wrapping")
	}
	if errors.Is(err, ErrEmptyDistribution) {
		t.Errorf("config error must not match the distribution sentinel")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{InvalidConfiguration("paths", "bad"), http.StatusBadRequest},
		{InvalidInput(ErrEmptyBatch, "no paths"), http.StatusBadRequest},
		{Canceled(context.Canceled), StatusClientClosedRequest},
		{Timeout(context.DeadlineExceeded), http.StatusGatewayTimeout},
		{Internal("boom", nil), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := c.err.HTTPStatus(); got != c.want {
			t.Errorf("%v: HTTPStatus() = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestWrapKeepsType(t *testing.T) {
	inner := InvalidInput(ErrEmptyDistribution, "variant lookback_call")
	outer := Wrap(inner, ErrInternal, "pricing failed")
	if outer.Type != ErrInvalidInput {
		t.Errorf("expected wrapped type InvalidInput, got %s", outer.Type)
	}
	if !errors.Is(outer, ErrEmptyDistribution) {
		t.Errorf("expected wrapped error to match sentinel")
	}
	if Wrap(nil, ErrInternal, "x") != nil {
		t.Errorf("Wrap(nil) must return nil")
	}
}

func TestCanceledUnwrapsContextError(t *testing.T) {
	err := Canceled(context.DeadlineExceeded)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected cause to be reachable via errors.Is")
	}
	if len(err.Stack) == 0 {
		t.Errorf("expected captured stack")
	}
}

func TestFromContextSeparatesTimeout(t *testing.T) {
	if err := FromContext(context.DeadlineExceeded); err.Type != ErrTimeout || err.Code != 504001 {
		t.Errorf("deadline: got %s %d, want Timeout 504001", err.Type, err.Code)
	}
	if err := FromContext(context.Canceled); err.Type != ErrCanceled || err.HTTPStatus() != StatusClientClosedRequest {
		t.Errorf("cancel: got %s %d", err.Type, err.HTTPStatus())
	}
	wrapped := fmt.Errorf("run: %w", context.DeadlineExceeded)
	if !errors.Is(FromContext(wrapped), ErrSimulationTimeout) {
		t.Errorf("wrapped deadline must map to the timeout sentinel")
	}
}
