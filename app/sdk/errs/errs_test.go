package errs_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jcpaschoal/tenantauth/app/sdk/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ErrorEncode(t *testing.T) {
	err := errs.New(errs.NotFound, errors.New("user not found"))

	data, contentType, encErr := err.Encode()
	require.NoError(t, encErr)

	assert.Equal(t, "application/json", contentType)
	assert.JSONEq(t, `{"code":"not_found","message":"user not found"}`, string(data))
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus())
	assert.Contains(t, err.FileName, "errs_test.go")
}

func Test_HTTPStatus(t *testing.T) {
	tests := []struct {
		code   errs.ErrCode
		status int
	}{
		{errs.InvalidArgument, http.StatusBadRequest},
		{errs.AlreadyExists, http.StatusConflict},
		{errs.Unauthenticated, http.StatusUnauthorized},
		{errs.PermissionDenied, http.StatusForbidden},
		{errs.Internal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.status, errs.Errorf(tt.code, "x").HTTPStatus())
		})
	}
}

func Test_ErrCodeText(t *testing.T) {
	var ec errs.ErrCode
	require.NoError(t, ec.UnmarshalText([]byte("unauthenticated")))
	assert.True(t, ec.Equal(errs.Unauthenticated))

	assert.Error(t, ec.UnmarshalText([]byte("nope")))
}

func Test_GetError(t *testing.T) {
	wrapped := fmt.Errorf("layer: %w", errs.Errorf(errs.Aborted, "conflict"))

	assert.True(t, errs.IsError(wrapped))
	assert.Equal(t, errs.Aborted, errs.GetError(wrapped).Code)
	assert.Nil(t, errs.GetError(errors.New("plain")))
}

type signIn struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func Test_Check(t *testing.T) {
	err := errs.Check(signIn{Email: "not-an-email"})
	require.Error(t, err)

	fe := errs.GetFieldErrors(err)
	require.Len(t, fe, 2)

	fields := fe.Fields()
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")

	var decoded []map[string]string
	require.NoError(t, json.Unmarshal([]byte(fe.Error()), &decoded))
	assert.Len(t, decoded, 2)

	assert.NoError(t, errs.Check(signIn{Email: "a@x.com", Password: "secret"}))
}
