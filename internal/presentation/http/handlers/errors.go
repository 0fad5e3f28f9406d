// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kirtipatel215/IMS-sub000/internal/domain/portal"
)

// respondError maps a service error onto an HTTP status and a uniform error
// body. Unknown errors are reported as internal without leaking detail.
func respondError(c *gin.Context, err error) {
	var (
		authErr      *portal.AuthError
		validateErr  *portal.ValidationError
		collisionErr *portal.CollisionError
		timeoutErr   *portal.TimeoutError
		networkErr   *portal.NetworkError
		dbErr        *portal.DatabaseError
	)

	switch {
	case errors.As(err, &validateErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validateErr.Error(), "class": validateErr.Class()})
	case errors.As(err, &authErr):
		status := http.StatusForbidden
		if authErr.Reason == "no active session" {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"error": authErr.Error(), "class": authErr.Class()})
	case errors.As(err, &collisionErr):
		c.JSON(http.StatusConflict, gin.H{"error": collisionErr.Error(), "class": collisionErr.Class()})
	case errors.As(err, &timeoutErr):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": timeoutErr.Error(), "class": timeoutErr.Class()})
	case errors.As(err, &networkErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": networkErr.Error(), "class": networkErr.Class()})
	case errors.As(err, &dbErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure", "class": dbErr.Class()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// respondResult writes a read envelope: the payload plus its provenance so
// the frontend can flag degraded data.
func respondResult[T any](c *gin.Context, result portal.Result[T]) {
	body := gin.H{
		"data":     result.Value,
		"source":   result.Source,
		"degraded": result.Degraded(),
	}
	c.JSON(http.StatusOK, body)
}
