package utils

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// DetailResponse is the body of every error response.
type DetailResponse struct {
	Detail any `json:"detail"`
}

// FieldError describes one rejected request parameter.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// Detail aborts the request with {"detail": message}.
func Detail(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, DetailResponse{Detail: message})
}

// ValidationError aborts with 422. Validator failures are reported per field
// under the given location ("query", "path"); anything else, such as a value
// that does not parse, is reported as a single message.
func ValidationError(ctx *gin.Context, loc string, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Loc:  []string{loc, fe.Field()},
				Msg:  fe.Error(),
				Type: fe.Tag(),
			})
		}
		ctx.AbortWithStatusJSON(http.StatusUnprocessableEntity, DetailResponse{Detail: fields})
		return
	}
	ctx.AbortWithStatusJSON(http.StatusUnprocessableEntity, DetailResponse{
		Detail: []FieldError{{Loc: []string{loc}, Msg: err.Error(), Type: "value_error"}},
	})
}

// UseFormTagNames makes validator errors report the form/uri parameter name
// (page_size) instead of the Go field name (PageSize).
func UseFormTagNames() {
	tagNamesOnce.Do(registerFormTagNames)
}

var tagNamesOnce sync.Once

func registerFormTagNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "uri", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
}
