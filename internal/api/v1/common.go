package v1

import (
	"github.com/gin-gonic/gin"
	ierr "github.com/shopbench/shopbench/internal/errors"
)

// pathID reads a required path parameter, attaching a validation error when it is blank
func pathID(c *gin.Context, name, hint string) (string, bool) {
	id := c.Param(name)
	if id == "" {
		c.Error(ierr.NewErrorf("%s is required", name).
			WithHint(hint).
			Mark(ierr.ErrValidation))
		return "", false
	}
	return id, true
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, filter any) bool {
	if err := c.ShouldBindQuery(filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid query parameters").
			Mark(ierr.ErrValidation))
		return false
	}
	return true
}
