package http

import (
	"github.com/gin-gonic/gin"
)

// Module is a domain module that mounts its own HTTP routes. The router
// stays ignorant of individual endpoints; each module owns its slice of
// the URL space.
type Module interface {
	// Name identifies the module in logs.
	Name() string
	// RegisterRoutes mounts the module's endpoints on the shared groups.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext hands modules the route groups they may mount on.
type RouterContext struct {
	// Protected is the authenticated group under /api/v1.
	Protected *gin.RouterGroup
	// Public is the unauthenticated intake group under /api/v1/public,
	// behind the stricter webhook rate limiter.
	Public *gin.RouterGroup
}
