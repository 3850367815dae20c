package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/perfume/backend/internal/domain/catalog"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"github.com/perfume/backend/internal/interfaces/http/dto"
)

var setupOnce sync.Once

// SetupValidator configures gin's validator: field names come from JSON tags
// and the slug and lang tags are registered. Safe to call more than once.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
		_ = v.RegisterValidation("slug", validateSlug)
		_ = v.RegisterValidation("lang", validateLang)
	})
}

func validateSlug(fl validator.FieldLevel) bool {
	return catalog.ValidateSlug(fl.Field().String()) == nil
}

func validateLang(fl validator.FieldLevel) bool {
	_, ok := valueobject.NormalizeLanguage(fl.Field().String())
	return ok
}

// FormatValidationErrors formats validation errors into a standard response
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   fieldPath(e),
				Message: getValidationMessage(e),
			})
		}
	}

	return dto.NewValidationErrorResponse(
		"Request validation failed",
		requestID,
		details,
	)
}

// HandleBindingError writes the response for a failed ShouldBind call:
// validation details, a malformed body, or an oversized body
func HandleBindingError(c *gin.Context, err error) {
	requestID := GetRequestID(c)

	var validationErrors validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &validationErrors):
		c.AbortWithStatusJSON(http.StatusBadRequest, FormatValidationErrors(err, requestID))
	case errors.As(err, &maxBytesErr):
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeRequestTooLarge, "Request body is too large", requestID))
	case errors.As(err, &typeErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
			"Request validation failed", requestID,
			[]dto.ValidationDetail{{Field: typeErr.Field, Message: "Must be of type " + typeErr.Type.String()}}))
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInvalidJSON, "Request body is not valid JSON", requestID))
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeBadRequest, err.Error(), requestID))
	}
}

// fieldPath drops the struct name from the namespace so nested fields read
// as "shipping.city" or "items[0].quantity"
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice || e.Kind() == reflect.Map {
			return "Must contain at least " + e.Param() + " items"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice || e.Kind() == reflect.Map {
			return "Must contain at most " + e.Param() + " items"
		}
		return "Must be at most " + e.Param()
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "lt":
		return "Must be less than " + e.Param()
	case "url", "http_url":
		return "Invalid URL format"
	case "slug":
		return "Must be lowercase letters, digits and single dashes"
	case "lang":
		return "Unsupported language: " + strings.Join(valueobject.SupportedLanguages(), ", ")
	case "dive", "keys":
		return "Invalid entry"
	default:
		return "Invalid value"
	}
}
