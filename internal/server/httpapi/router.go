package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestIDMiddleware(), s.loggingMiddleware(), s.recoveryMiddleware())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Detail: "not found"})
	})

	r.GET("/health", s.health)

	r.POST("/users/register", s.register)
	r.POST("/users/login", s.login)
	r.POST("/users/refresh", s.refresh)
	r.POST("/auth/token", s.formLogin)

	protected := r.Group("")
	protected.Use(s.authMiddleware())

	protected.POST("/users/logout", s.logout)
	protected.GET("/users/me", s.me)
	protected.GET("/users/:id", s.getUser)
	protected.PUT("/users/:id", s.updateUser)
	protected.DELETE("/users/:id", s.deleteUser)
	protected.POST("/users/:id/change-password", s.changePassword)
	protected.POST("/users/:id/deactivate", s.deactivateUser)

	protected.GET("/calculations", s.browseCalculations)
	protected.POST("/calculations", s.addCalculation)
	protected.DELETE("/calculations", s.clearCalculations)
	protected.GET("/calculations/summary", s.calculationSummary)
	protected.POST("/calculations/export", s.exportCalculations)
	protected.GET("/calculations/:id", s.readCalculation)
	protected.PUT("/calculations/:id", s.editCalculation)
	protected.DELETE("/calculations/:id", s.deleteCalculation)

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
