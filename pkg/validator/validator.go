package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"anoa.com/blogapp/pkg/password"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern        = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	accountUsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9\-._@+]+$`)
	categoryNamePattern    = regexp.MustCompile(`^[a-zA-Z0-9\s\-_&]+$`)

	registerOnce sync.Once
	registerErr  error
)

// Register installs the custom rules on gin's binding validator.
func Register() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin binding engine is not go-playground/validator")
			return
		}
		registerErr = RegisterOn(v)
	})
	return registerErr
}

// RegisterOn installs the custom rules and json field naming on v.
func RegisterOn(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonFieldName)

	rules := map[string]validator.Func{
		"username":        stringRule(usernamePattern.MatchString),
		"password_policy": stringRule(password.MeetsComplexity),
		"category_name":   stringRule(categoryNamePattern.MatchString),
		"notblank":        stringRule(func(s string) bool { return strings.TrimSpace(s) != "" }),
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

// IsAccountUsername reports whether s only uses characters allowed in
// account user names. It is looser than the registration rule so that
// legacy names keep working.
func IsAccountUsername(s string) bool {
	return accountUsernamePattern.MatchString(s)
}

func stringRule(fn func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return false
		}
		return fn(fl.Field().String())
	}
}

func jsonFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// FormatValidationErrors maps each failing field to a readable message.
// It returns nil when err is not a validation error.
func FormatValidationErrors(err error) map[string]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		out[fe.Field()] = getFieldErrorMessage(fe)
	}
	return out
}

// FormatValidationError joins all messages into one line.
func FormatValidationError(err error) string {
	fields := FormatValidationErrors(err)
	if fields == nil {
		return err.Error()
	}
	messages := make([]string, 0, len(fields))
	for _, m := range fields {
		messages = append(messages, m)
	}
	return strings.Join(messages, "; ")
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := getFieldName(fe.Field())
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", field)
	case "email":
		return "A valid email address is required."
	case "url":
		return fmt.Sprintf("%s must be a valid URL.", field)
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters long.", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s.", field, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s cannot exceed %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("%s cannot exceed %s.", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s.", field, fe.Param())
	case "username":
		return "Username can only contain letters, numbers, and underscores."
	case "password_policy":
		return fmt.Sprintf("%s must contain at least one uppercase letter, one lowercase letter, and one digit.", field)
	case "category_name":
		return "Category name can only contain letters, numbers, spaces, hyphens, underscores, and ampersands."
	case "notblank":
		return fmt.Sprintf("%s cannot be empty or whitespace.", field)
	case "eqfield":
		return "Passwords do not match."
	case "nefield":
		return "New password must be different from current password."
	default:
		return fmt.Sprintf("%s is invalid.", field)
	}
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"username":           "Username",
		"userName":           "Username",
		"email":              "Email",
		"emailOrUsername":    "Email or username",
		"password":           "Password",
		"currentPassword":    "Current password",
		"newPassword":        "New password",
		"confirmNewPassword": "Password confirmation",
		"bio":                "Bio",
		"profilePicture":     "Profile picture",
		"title":              "Title",
		"content":            "Content",
		"postId":             "Post ID",
		"userId":             "User ID",
		"name":               "Category name",
		"token":              "Reset token",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}
