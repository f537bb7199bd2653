package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Invalid("name", "El nombre es obligatorio"), http.StatusBadRequest},
		{"validation list", ValidationErrors{Invalid("a", "x"), Invalid("b", "y")}, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("submit: %w", Invalid("deposit", "bad")), http.StatusBadRequest},
		{"not found", &NotFoundError{Entity: "piece", ID: "1"}, http.StatusNotFound},
		{"missing row", &WriteError{Entity: "piece", Op: "update", Err: ErrNoRows}, http.StatusNotFound},
		{"write", &WriteError{Entity: "piece", Op: "update", Err: errors.New("boom")}, http.StatusBadGateway},
		{"fetch", &FetchError{Entity: "orders", Err: errors.New("boom")}, http.StatusBadGateway},
		{"unauthorized", fmt.Errorf("sign in: %w", ErrUnauthorized), http.StatusUnauthorized},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestValidationErrors_Err(t *testing.T) {
	var v ValidationErrors
	assert.NoError(t, v.Err())

	v = append(v, Invalid("client", "Debes seleccionar un cliente"))
	err := v.Err()
	assert.Error(t, err)
	assert.Equal(t, "Debes seleccionar un cliente", err.Error())
	assert.Len(t, Fields(err), 1)
}
