// Package server contain implementation of go-gin-server and each route handlers
package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	// Init swagger doc
	_ "live-placement-backend/docs"
	"live-placement-backend/internal/controller"
	"live-placement-backend/internal/controller/company"
	"live-placement-backend/internal/controller/offer"
	"live-placement-backend/internal/controller/shortlist"
	"live-placement-backend/internal/middleware"
	"live-placement-backend/internal/model"
	"live-placement-backend/internal/realtime"
	"live-placement-backend/internal/utilities"
)

// RegisterRoutes will register each http endpoint routes to bound Server instance
func (s *MyServer) RegisterRoutes() http.Handler {
	r := gin.Default()

	wc := controller.NewWorkflowController(s.DB, s.Engine, s.Audit)
	sc := shortlist.NewShortlistController(wc)
	oc := offer.NewOfferController(wc)
	cc := company.NewCompanyController(wc)

	corsConfig := cors.Config{
		AllowOrigins:     s.cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true, // Enable cookies/auth
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	r.Use(cors.New(corsConfig), middleware.SafeHeader(), middleware.Tracing())

	r.GET("/health", s.healthHandler)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	v1 := r.Group("/api/v1")
	{
		v1.Use(
			middleware.RequireAuth(s.DB, s.cfg.SecretKey),
			middleware.RateLimiterMiddleware(uint(s.cfg.RateLimitPerSecond)),
			middleware.SizeLimit(middleware.DefaultBodyLimit),
		)

		// Any authenticated role
		v1.GET("/ws", s.websocketHandler)
		v1.GET("/students/:student_id/shortlist", middleware.CheckRole(model.RoleAdmin, model.RoleStudent), sc.GetStudentShortlist)

		staff := v1.Group("", middleware.CheckRole(model.RoleAdmin, model.RolePOC))
		{
			shortlistRoute := staff.Group("/shortlist")
			{
				shortlistRoute.POST("", sc.AddToShortlist)
				shortlistRoute.PATCH("/:student_id/:company_id/stage", sc.AdvanceStage)
				shortlistRoute.POST("/:student_id/:company_id/undo-rejection", sc.UndoRejection)
				shortlistRoute.PATCH("/:student_id/:company_id/status", sc.UpdateStatus)
				shortlistRoute.DELETE("/:student_id/:company_id", sc.RemoveFromShortlist)
			}

			offerRoute := staff.Group("/offers")
			{
				offerRoute.POST("", oc.CreateOffer)
				offerRoute.DELETE("/:student_id/:company_id", oc.RevertOffer)
				offerRoute.PATCH("/:offer_id/decision", middleware.CheckRole(model.RoleAdmin), oc.DecideOffer)
			}

			companyRoute := staff.Group("/companies")
			{
				companyRoute.GET("", cc.GetCompanies)
				companyRoute.GET("/:company_id/shortlist", sc.GetCompanyShortlist)
				companyRoute.PATCH("/:company_id/process", middleware.CheckRole(model.RoleAdmin), cc.SetProcessCompleted)
			}
		}
	}

	return r
}

func (s *MyServer) healthHandler(c *gin.Context) {
	stats := s.DB.Health()
	if stats["status"] != "up" {
		c.JSON(http.StatusServiceUnavailable, stats)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// websocketHandler hands the authenticated request over to the session gateway.
func (s *MyServer) websocketHandler(c *gin.Context) {
	principal, err := utilities.ExtractPrincipal(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}
	s.Gateway.ServeHTTP(c.Writer, c.Request.WithContext(realtime.WithPrincipal(c.Request.Context(), principal)))
}
