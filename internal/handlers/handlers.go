// Package handlers adapts HTTP requests to the service layer.
package handlers

import (
	"medibook-server/internal/middleware"
	"medibook-server/internal/policy"
	"medibook-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// requireCaller returns the authenticated caller or writes a 401.
func requireCaller(c *gin.Context) (policy.Caller, bool) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		utils.Unauthorized(c, "Authentication required")
		return policy.Caller{}, false
	}
	return caller, true
}
