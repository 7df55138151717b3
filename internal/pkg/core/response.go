// Package core holds tiny HTTP response helpers shared by the v1 handlers.
//
// Reconstructed locally for the same reason as pkg/errorx: the
// WriteResponse(c, err, data) convention the handlers are written against
// comes from the unfetchable github.com/kiosk404/eidolon module.
package core

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corvid-labs/noema/pkg/errorx"
)

// WriteResponse writes err as a coded JSON error (deriving the HTTP status
// from its registered Coder) if non-nil, otherwise writes data as a 200 OK
// JSON body.
func WriteResponse(c *gin.Context, err error, data interface{}) {
	if err == nil {
		c.JSON(http.StatusOK, data)
		return
	}

	coded, ok := err.(*errorx.CodedError)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": err.Error()}})
		return
	}

	c.JSON(coded.Coder.HTTPStatus(), gin.H{
		"error": gin.H{
			"code":    coded.Coder.Code(),
			"message": coded.Message,
		},
	})
}
