package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes is the single entry-point that wires up the public catalog,
// the JWT-protected user routes, and the API-key-protected admin routes.
func SetupRoutes(r *gin.Engine, db *gorm.DB) {
	SetupPublicRoutes(r, db)
	SetupUserRoutes(r, db)
	SetupAdminRoutes(r, db)
}
