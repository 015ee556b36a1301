package controllers

import (
	"strconv"

	"dormitory/middleware"
	"dormitory/response"
	"dormitory/services"

	"github.com/gin-gonic/gin"
)

// currentActor reads the caller stored by AuthMiddleware. It writes a 401
// and returns false when the route was mounted without authentication.
func currentActor(c *gin.Context) (services.Actor, bool) {
	rawID, ok := c.Get(middleware.UserIDKey)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return services.Actor{}, false
	}
	rawRole, ok := c.Get(middleware.UserRoleKey)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return services.Actor{}, false
	}
	id, idOK := rawID.(uint)
	role, roleOK := rawRole.(int)
	if !idOK || !roleOK {
		response.Unauthorized(c, "Authentication required")
		return services.Actor{}, false
	}
	return services.Actor{ID: id, Role: role}, true
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}
