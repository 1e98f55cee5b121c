package utils

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// UseJSONFieldNames makes gin's validator report fields by their json tag,
// so error maps use the same keys as request bodies.
func UseJSONFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
}

// IsMalformedBody reports whether a bind error means the body could not be
// parsed as JSON at all, as opposed to a field failing validation.
func IsMalformedBody(err error) bool {
	var syntaxErr *json.SyntaxError
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.As(err, &syntaxErr)
}

// ValidationFields converts a bind error into per-field messages.
func ValidationFields(err error) map[string][]string {
	fields := map[string][]string{}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, fe := range validationErrs {
			field := fe.Field()
			fields[field] = append(fields[field], fieldMessage(fe))
		}
		return fields
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		fields[typeErr.Field] = []string{"The " + label(typeErr.Field) + " field must be of type " + jsonKind(typeErr.Type) + "."}
		return fields
	}

	fields["body"] = []string{err.Error()}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	field := label(fe.Field())
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return "The " + field + " field is required."
	case "min":
		return "The " + field + " field must be at least " + param + " characters."
	case "max":
		return "The " + field + " field must not be greater than " + param + " characters."
	case "email":
		return "The " + field + " field must be a valid email address."
	case "eqfield":
		return "The " + label(strings.ToLower(param)) + " field confirmation does not match."
	default:
		return "The " + field + " field is invalid."
	}
}

func label(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.String:
		return "string"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Bool:
		return "boolean"
	default:
		return "number"
	}
}
