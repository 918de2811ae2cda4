package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("op", "bad qty"), KindValidation},
		{"wrapped not found", fmt.Errorf("outer: %w", NotFound("op", "no log")), KindNotFound},
		{"plain error", errors.New("boom"), KindPersistence},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(MissingData("op", "job data is required")))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(Authentication("op", "User not found")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(InvalidTransition("op", "terminal is not RUNNING")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Persistence("op", errors.New("conn reset"))))
}

func TestMessage_HidesStorageDetails(t *testing.T) {
	err := Persistence("storage.mysql.InsertJobLog", errors.New("dial tcp 10.0.0.5:3306: refused"))

	assert.Equal(t, "storage error", Message(err))
	assert.Contains(t, err.Error(), "refused")
	assert.Equal(t, "User is inactive", Message(Authentication("op", "User is inactive")))
}
