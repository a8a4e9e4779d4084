package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const maxRequestBodyBytes int64 = 8 << 20

var registerValidationsOnce sync.Once

func EnableStrictJSONDecoding() {
	gin.EnableJsonDecoderDisallowUnknownFields()
}

// RegisterValidations adds the custom binding rules used by request types.
func RegisterValidations() {
	registerValidationsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		if err := v.RegisterValidation("nondecreasing", nonDecreasing); err != nil {
			panic(fmt.Sprintf("register nondecreasing validation: %v", err))
		}
	})
}

// nonDecreasing accepts int and float slices whose elements never decrease.
func nonDecreasing(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice {
		return false
	}
	for i := 1; i < field.Len(); i++ {
		prev, cur := field.Index(i-1), field.Index(i)
		switch cur.Kind() {
		case reflect.Int, reflect.Int64:
			if cur.Int() < prev.Int() {
				return false
			}
		case reflect.Float64:
			if cur.Float() < prev.Float() {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func jsonFieldName(field reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}

// bindJSON decodes the body into req and writes the error response itself
// when decoding fails. An empty body is accepted when allowEmpty is set.
func bindJSON(c *gin.Context, req any, allowEmpty bool) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBodyBytes)

	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	if allowEmpty && errors.Is(err, io.EOF) {
		if verr := binding.Validator.ValidateStruct(req); verr != nil {
			writeError(c, http.StatusBadRequest, describeBindError(verr, req))
			return false
		}
		return true
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		writeError(c, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	writeError(c, http.StatusBadRequest, describeBindError(err, req))
	return false
}

// describeBindError turns the first validation failure into a message that
// names fields as they appear on the wire. req is the value that was bound.
func describeBindError(err error, req any) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "nondecreasing":
		return fmt.Sprintf("%s must be sorted in non-decreasing order", fe.Field())
	case "excluded_with":
		return fmt.Sprintf("%s cannot be combined with %s", fe.Field(), wireFieldName(req, fe.Param()))
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// wireFieldName resolves the Go field name used in a validation param, such
// as excluded_with, to its json name on req. Promoted fields are found too.
func wireFieldName(req any, goName string) string {
	t := reflect.TypeOf(req)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return goName
	}
	field, ok := t.FieldByName(goName)
	if !ok {
		return goName
	}
	return jsonFieldName(field)
}

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
