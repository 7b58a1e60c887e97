package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/coproject/backend/errs"
	"github.com/coproject/backend/models"
	"github.com/go-playground/validator/v10"
)

const maxJSONBodySize = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names rather than Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("projectstate", func(fl validator.FieldLevel) bool {
		return models.State(fl.Field().String()).IsValid()
	})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		p := sl.Current().Interface().(models.ProjectCreate)
		if !boundsValid(p.Min, p.Max) {
			sl.ReportError(p.Min, "min", "Min", "lteMax", "")
		}
	}, models.ProjectCreate{})

	return v
}

func boundsValid(lower, upper *int) bool {
	return lower == nil || upper == nil || *lower <= *upper
}

// validateStruct turns the first validation failure into a 400 naming the field
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return errs.NewBadRequestErrorWithDetails("validation failed", err.Error())
	}

	e := validationErrs[0]
	field := e.Field()
	switch e.Tag() {
	case "required":
		return errs.NewMissingRequiredFieldError(field)
	case "email":
		return errs.NewInvalidFieldError(field, "invalid email format")
	case "projectstate":
		return errs.NewInvalidFieldError(field, fmt.Sprintf("must be one of %s", strings.Join(stateNames(), ", ")))
	case "lteMax":
		return errs.NewInvalidFieldError(field, "must not exceed max")
	case "gte":
		return errs.NewInvalidFieldError(field, fmt.Sprintf("must be greater than or equal to %s", e.Param()))
	case "min":
		return errs.NewInvalidFieldError(field, fmt.Sprintf("must be at least %s characters", e.Param()))
	default:
		return errs.NewInvalidFieldError(field, "is invalid")
	}
}

func stateNames() []string {
	return []string{
		models.StateOpen.String(),
		models.StateHidden.String(),
		models.StateClosed.String(),
		models.StateDeleted.String(),
	}
}

// decodeJSON reads a size limited JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	data, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errs.NewMaxBodySizeExceededError(maxJSONBodySize)
		}
		return errs.NewMalformedPayloadError("request", err)
	}
	if len(data) == 0 {
		return errs.NewMalformedPayloadError("empty", nil)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errs.NewInvalidJSONError(err)
	}
	return nil
}
