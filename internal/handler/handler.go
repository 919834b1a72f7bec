package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/serenemind/clinic-api/pkg/errors"
)

// Registrar is implemented by every entity handler.
type Registrar interface {
	RegisterRoutes(r *gin.RouterGroup)
}

// ParseID parses a UUID path parameter.
func ParseID(c *gin.Context, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return uuid.Nil, errors.NewFieldValidation(param, "must be a valid UUID")
	}
	return id, nil
}

// ParseQueryID parses a UUID query value.
func ParseQueryID(value, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, errors.NewFieldValidation(name, "must be a valid UUID")
	}
	return id, nil
}
