package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS allows cross-origin calls from the given origins ("*" allows any).
// Preflight requests are answered directly with 204.
func CORS(origins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			if allowAll {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, X-Requested-With")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RegisterRoutes mounts the records API under /api.
func RegisterRoutes(router *gin.Engine, h *APIHandler) {
	api := router.Group("/api")
	{
		// Student routes
		api.GET("/students", h.GetAllStudents)
		api.GET("/getStudent/:id", h.GetStudent)
		api.POST("/create", h.CreateStudent)
		api.PUT("/edit/:id", h.UpdateStudent)
		api.DELETE("/delete/:id", h.DeleteStudent)

		// Catalogue routes
		api.GET("/courses", h.GetAllCourses)
		api.POST("/courses", h.AddCourse)
		api.GET("/classes", h.GetAllClasses)
		api.POST("/classes", h.AddClass)
		api.GET("/classes/:classId/students", h.GetStudentsByClass)

		// Import route
		api.POST("/import/students", h.ImportStudents)

		api.GET("/ping", PingHandler)
	}
}
