package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/dealerops/agenda-api/internal/errors"
)

type lookupError struct{}

func (*lookupError) Error() string { return "lookup failed" }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "app error", err: fmt.Errorf("apply: %w", apperrors.NotFoundf("job %q", "j1")), want: "not_found"},
		{name: "deadline", err: fmt.Errorf("list: %w", context.DeadlineExceeded), want: "timeout"},
		{name: "canceled", err: context.Canceled, want: "canceled"},
		{name: "concrete type", err: fmt.Errorf("wrap: %w", &lookupError{}), want: "errors_lookuperror"},
		{name: "plain", err: goerrors.New("boom"), want: "errors_errorstring"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
