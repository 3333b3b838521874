package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/ridemeter/pkg/common"
	"github.com/richxcame/ridemeter/pkg/validation"
)

// BindJSON binds and validates the request body. On failure it writes a 400
// envelope, aborts, and returns false.
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request format: "+err.Error())
		c.Abort()
		return false
	}
	if err := validation.ValidateStruct(req); err != nil {
		RespondWithValidationError(c, err)
		return false
	}
	return true
}

// RespondWithValidationError sends a standardized validation error response
func RespondWithValidationError(c *gin.Context, err error) {
	var valErr *validation.ValidationError
	if errors.As(err, &valErr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    http.StatusBadRequest,
				"message": "validation failed",
				"fields":  valErr.Errors,
			},
		})
		return
	}
	common.ErrorResponse(c, http.StatusBadRequest, err.Error())
	c.Abort()
}
