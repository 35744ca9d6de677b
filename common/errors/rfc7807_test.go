package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/halcyonex/assetadmin/internal/registry"
)

func TestFromErrorMapsRegistryKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{registry.ErrNotFound, http.StatusNotFound},
		{registry.ErrAlreadyExists, http.StatusConflict},
		{registry.ErrInvalidArgument, http.StatusBadRequest},
		{registry.ErrAuthorization, http.StatusForbidden},
		{registry.ErrArithmeticUnderflow, http.StatusUnprocessableEntity},
		{registry.ErrStaleData, http.StatusBadGateway},
	}
	for _, tc := range cases {
		problem := FromError(tc.err, "/v1/assets/1")
		assert.Equal(t, tc.status, problem.Status)
		assert.Equal(t, "/v1/assets/1", problem.Instance)
		assert.NotEmpty(t, problem.Type)
	}
}

func TestFromErrorHidesUnclassifiedDetails(t *testing.T) {
	problem := FromError(errors.New("pq: connection reset"), "/v1/assets")
	assert.Equal(t, http.StatusInternalServerError, problem.Status)
	assert.NotContains(t, problem.Detail, "pq:")
}
