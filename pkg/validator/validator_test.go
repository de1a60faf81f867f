package validator

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerInput struct {
	Username string `json:"username" binding:"required,min=3,max=50,username"`
	Password string `json:"password" binding:"required,min=6,max=100,password_policy"`
}

type postInput struct {
	Title    string `json:"title" binding:"required,min=5,max=200,notblank"`
	Category string `json:"name" binding:"omitempty,category_name"`
}

type changeInput struct {
	CurrentPassword    string `json:"currentPassword" binding:"required"`
	NewPassword        string `json:"newPassword" binding:"required,nefield=CurrentPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword" binding:"required,eqfield=NewPassword"`
}

func newValidate(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	v.SetTagName("binding")
	require.NoError(t, RegisterOn(v))
	return v
}

func TestCustomRules(t *testing.T) {
	v := newValidate(t)

	assert.NoError(t, v.Struct(registerInput{Username: "jane_doe", Password: "Secret1"}))

	errs := FormatValidationErrors(v.Struct(registerInput{Username: "jane doe", Password: "secret1"}))
	require.Len(t, errs, 2)
	assert.Equal(t, "Username can only contain letters, numbers, and underscores.", errs["username"])
	assert.Contains(t, errs["password"], "uppercase")

	errs = FormatValidationErrors(v.Struct(postInput{Title: "          ", Category: "C#"}))
	assert.Equal(t, "Title cannot be empty or whitespace.", errs["title"])
	assert.Contains(t, errs["name"], "ampersands")

	assert.NoError(t, v.Struct(postInput{Title: "Hello world", Category: "Tips & Tricks"}))
}

func TestCrossFieldMessages(t *testing.T) {
	v := newValidate(t)

	errs := FormatValidationErrors(v.Struct(changeInput{
		CurrentPassword:    "Same123",
		NewPassword:        "Same123",
		ConfirmNewPassword: "Other123",
	}))
	assert.Equal(t, "New password must be different from current password.", errs["newPassword"])
	assert.Equal(t, "Passwords do not match.", errs["confirmNewPassword"])
}

func TestLengthMessages(t *testing.T) {
	v := newValidate(t)

	errs := FormatValidationErrors(v.Struct(postInput{Title: "abc"}))
	assert.Equal(t, "Title must be at least 5 characters long.", errs["title"])

	errs = FormatValidationErrors(v.Struct(postInput{Title: strings.Repeat("a", 201)}))
	assert.Equal(t, "Title cannot exceed 200 characters.", errs["title"])
}

func TestFormatValidationErrorNonValidation(t *testing.T) {
	assert.Nil(t, FormatValidationErrors(assert.AnError))
	assert.Equal(t, assert.AnError.Error(), FormatValidationError(assert.AnError))
}

func TestIsAccountUsername(t *testing.T) {
	assert.True(t, IsAccountUsername("john.doe@example.com"))
	assert.True(t, IsAccountUsername("old-user+1"))
	assert.False(t, IsAccountUsername("john doe"))
	assert.False(t, IsAccountUsername(""))
}

func TestRegisterOnGinEngine(t *testing.T) {
	assert.NoError(t, Register())
	assert.NoError(t, Register())
}
