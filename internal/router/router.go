package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/suivi-academique-api/internal/handler"
	"github.com/noah-isme/suivi-academique-api/internal/middleware"
	"github.com/noah-isme/suivi-academique-api/internal/models"
)

// Handlers groups every HTTP handler mounted by Register.
type Handlers struct {
	Auth        *handler.AuthHandler
	Bookings    *handler.BookingHandler
	Rooms       *handler.RoomHandler
	Courses     *handler.CourseHandler
	Staff       *handler.StaffHandler
	Assignments *handler.AssignmentHandler
	Metrics     *handler.MetricsHandler
}

// Options tweak route registration.
type Options struct {
	Docs bool
}

// Register mounts ops, auth and the protected catalog and booking routes.
func Register(r *gin.Engine, h Handlers, tokens middleware.TokenValidator, opts Options) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	r.GET("/metrics/summary", h.Metrics.Summary)
	if opts.Docs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := r.Group("/api/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/register", middleware.OptionalJWT(tokens), h.Auth.Register)
	auth.GET("/me", middleware.JWT(tokens), h.Auth.Me)

	api := r.Group("/")
	api.Use(middleware.JWT(tokens), middleware.WithResponseMeta())

	registerBookings(api, h.Bookings)
	registerRooms(api, h.Rooms)
	registerCourses(api, h.Courses)
	registerStaff(api, h.Staff)
	registerAssignments(api, h.Assignments)
}

func registerBookings(g *gin.RouterGroup, h *handler.BookingHandler) {
	b := g.Group("/programmations")
	b.GET("", h.List)
	b.POST("", h.Create)
	b.GET("/conflicts", h.Conflicts)
	b.GET("/available-rooms", h.AvailableRooms)
	b.GET("/stats", h.Stats)
	b.GET("/export", h.Export)
	b.GET("/:id", h.Get)
	b.PUT("/:id", h.Update)
	b.DELETE("/:id", h.Delete)
	b.POST("/:id/review", middleware.RequireRoles(models.RoleAcademicLead), h.Review)
}

func registerRooms(g *gin.RouterGroup, h *handler.RoomHandler) {
	s := g.Group("/salle")
	s.GET("", h.List)
	s.POST("", h.Create)
	s.GET("/:code", h.Get)
	s.PUT("/:code", h.Update)
	s.PATCH("/:code/status", h.UpdateStatus)
	s.DELETE("/:code", h.Delete)
}

func registerCourses(g *gin.RouterGroup, h *handler.CourseHandler) {
	c := g.Group("/cours")
	c.GET("", h.List)
	c.POST("", h.Create)
	c.GET("/:code", h.Get)
	c.PUT("/:code", h.Update)
	c.DELETE("/:code", h.Delete)
}

func registerStaff(g *gin.RouterGroup, h *handler.StaffHandler) {
	lead := middleware.RequireRoles(models.RolePersonnelLead)
	p := g.Group("/personnel")
	p.GET("", h.List)
	p.POST("", lead, h.Create)
	p.GET("/:code", h.Get)
	p.PUT("/:code", middleware.RBAC(string(models.RolePersonnelLead), "SELF"), h.Update)
	p.DELETE("/:code", lead, h.Delete)
}

func registerAssignments(g *gin.RouterGroup, h *handler.AssignmentHandler) {
	a := g.Group("/affectation")
	a.GET("", h.List)
	a.POST("", h.Create)
	a.DELETE("/:courseCode/:staffCode", h.Delete)
}
