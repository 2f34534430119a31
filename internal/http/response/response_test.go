package response

import (
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	type form struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=6"`
		Photo    string `validate:"omitempty,url"`
	}

	err := validator.New().Struct(form{Email: "nope", Password: "abc", Photo: "::"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t,
		"field Email must be a valid email, field Password must be at least 6 characters, field Photo must be a valid url",
		resp.Error)
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, Response{Status: StatusOK}, OK())
	assert.Equal(t, Response{Status: StatusOK, Data: 1}, StatusOKWithData(1))
	assert.Equal(t, Response{Status: StatusError, Error: "x"}, Error("x"))
	assert.Equal(t, Response{Status: StatusError, Error: "x", Data: "d"}, ErrorWithData("x", "d"))
}
