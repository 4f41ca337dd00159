package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	apperrors "eagle-eye.io/fieldagent/internal/pkg/errors"
)

// bindAgentID parses the {id} path parameter.
func bindAgentID(c *gin.Context) (int64, error) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		return 0, badFormat("id", err)
	}
	return id, nil
}

// bindQueryInt binds an optional integer query parameter; nil means absent.
func bindQueryInt(c *gin.Context, name string) (*int, error) {
	var v *int
	if err := runtime.BindQueryParameter("form", true, false, name, c.Request.URL.Query(), &v); err != nil {
		return nil, badFormat(name, err)
	}
	return v, nil
}

// bindQueryString binds an optional string query parameter.
func bindQueryString(c *gin.Context, name string) (*string, error) {
	var v *string
	if err := runtime.BindQueryParameter("form", true, false, name, c.Request.URL.Query(), &v); err != nil {
		return nil, badFormat(name, err)
	}
	return v, nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func badFormat(field string, err error) error {
	return apperrors.ErrInvalidInput(apperrors.FieldError{
		Field:   field,
		Code:    apperrors.ReasonBadFormat,
		Message: err.Error(),
	})
}
