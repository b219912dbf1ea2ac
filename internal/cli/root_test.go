package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gdmigrate/internal/domain"
)

func TestExitCode(t *testing.T) {
	readErr := &domain.FileError{Kind: domain.ReadError, Path: "a.gd", Err: errors.New("denied")}
	contractErr := &domain.FileError{Kind: domain.PreconditionViolation, Path: "b.gd", Err: domain.ErrPrecondition}

	tests := []struct {
		name     string
		failures []error
		unres    int
		runErr   error
		want     int
	}{
		{"clean", nil, 0, nil, ExitOK},
		{"unresolved", nil, 2, nil, ExitUnresolved},
		{"contract beats unresolved", []error{contractErr}, 1, nil, ExitContract},
		{"io beats contract", []error{contractErr, readErr}, 1, nil, ExitIO},
		{"cancelled", nil, 0, fmt.Errorf("walk: %w", context.Canceled), ExitIO},
		{"backup failure", nil, 0, &domain.FileError{Kind: domain.WriteError, Path: "x", Err: errors.New("full")}, ExitIO},
		{"setup error", nil, 0, errors.New("bad rule"), ExitContract},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := domain.NewSummary()
			for _, err := range tt.failures {
				s.Fail("f.gd", err)
			}
			s.Unresolved = tt.unres
			if got := exitCode(s, tt.runErr); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExitErrUnwraps(t *testing.T) {
	base := errors.New("boom")
	err := exitErr(ExitIO, base)
	if !errors.Is(err, base) {
		t.Error("exit error should unwrap to its cause")
	}
	var ee *exitError
	if !errors.As(err, &ee) || ee.code != ExitIO {
		t.Errorf("unexpected exit error %v", err)
	}
}
