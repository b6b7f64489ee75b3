package middleware

import (
	stderrors "errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/careprep/ai-service/internal/model"
	"github.com/careprep/ai-service/pkg/httputil"
)

// ValidationConfig represents validation middleware configuration
type ValidationConfig struct {
	CustomValidators    map[string]validator.Func
	CustomErrorMessages map[string]string
}

func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		CustomValidators: map[string]validator.Func{
			"chatmode": func(fl validator.FieldLevel) bool {
				return model.ChatMode(fl.Field().String()).Valid()
			},
		},
		CustomErrorMessages: map[string]string{
			"required": "Field is required",
			"min":      "Value is too small",
			"max":      "Value is too large",
			"chatmode": "Mode must be pre_visit or post_visit",
		},
	}
}

// RegisterValidators installs the custom validators and the json tag name
// function on gin's validator engine.
func RegisterValidators(config ValidationConfig) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	for tag, fn := range config.CustomValidators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return nil
}

// Validation renders validator errors attached to the context as a 400 with
// one entry per invalid field. The first entry doubles as the error message.
func Validation(config ValidationConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		var details []httputil.FieldError
		for _, err := range c.Errors {
			var errs validator.ValidationErrors
			if !stderrors.As(err.Err, &errs) {
				continue
			}
			for _, e := range errs {
				msg := config.CustomErrorMessages[e.Tag()]
				if msg == "" {
					msg = e.Error()
				}
				details = append(details, httputil.FieldError{
					Field:   fieldPath(e.Namespace()),
					Message: msg,
				})
			}
		}

		if len(details) > 0 {
			httputil.RespondWithFieldErrors(c, details[0].Message, details)
		}
	}
}

// fieldPath drops the struct name from a namespace such as
// "chatRequest.context.symptoms[0].severity".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
