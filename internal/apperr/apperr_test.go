package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatus(t *testing.T) {
	tests := map[Kind]int{
		KindValidation: http.StatusBadRequest,
		KindAuth:       http.StatusUnauthorized,
		KindForbidden:  http.StatusForbidden,
		KindNotFound:   http.StatusNotFound,
		KindConflict:   http.StatusConflict,
		KindRateLimit:  http.StatusTooManyRequests,
		KindInternal:   http.StatusInternalServerError,
		Kind("other"):  http.StatusInternalServerError,
	}
	for kind, want := range tests {
		assert.Equal(t, want, kind.Status(), kind)
	}
}

func TestKindOf_WrappedChain(t *testing.T) {
	err := fmt.Errorf("service: %w", NotFound("URL"))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, "URL not found", As(err).Message)
}

func TestAs_UncategorizedIsInternal(t *testing.T) {
	cause := errors.New("connection refused")

	appErr := As(cause)

	assert.Equal(t, KindInternal, appErr.Kind)
	assert.ErrorIs(t, appErr, cause)
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestWithDetails_DoesNotMutate(t *testing.T) {
	base := Validation("bad input")

	withDetails := base.WithDetails([]string{"email: required"})

	assert.Nil(t, base.Details)
	assert.Equal(t, []string{"email: required"}, withDetails.Details)
}
