package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"admindash/admin-service/internal/app/admin/entity"
	"admindash/pkg/logger"
	"admindash/pkg/metrics"
)

const serviceName = "admin-service"

// SetupRoutes настраивает все маршруты Admin Service
// Публичным остается только сокращенное дерево категорий
func SetupRoutes(
	categoryHandler *CategoryHandler,
	localeHandler *LocaleHandler,
	userHandler *UserHandler,
	authMiddleware *AuthMiddleware,
	allowedOrigins []string,
) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())

	// JSON logging middleware для HTTP-запросов (ELK Stack)
	router.Use(logger.GinLoggerMiddleware())

	router.Use(metrics.GinPrometheusMiddleware(serviceName))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/categories", categoryHandler.ListPublic)

	// Админ-панель - только для администраторов
	admin := router.Group("/admin")
	admin.Use(authMiddleware.Authenticate())
	admin.Use(authMiddleware.RequireRole(entity.RoleAdmin))
	{
		categories := admin.Group("/categories")
		categories.GET("", categoryHandler.List)
		categories.POST("", categoryHandler.Create)
		categories.PATCH("/:id", categoryHandler.Update)
		categories.DELETE("/:id", categoryHandler.Delete)

		locales := admin.Group("/locales")
		locales.GET("", localeHandler.List)
		locales.POST("", localeHandler.Create)
		locales.PUT("/:id", localeHandler.Update)
		locales.DELETE("/:id", localeHandler.Delete)
		locales.GET("/:id/secrets", localeHandler.RevealSecrets) // пишет запись аудита

		users := admin.Group("/users")
		users.GET("", userHandler.List)
		users.POST("", userHandler.Create)
		users.GET("/:id", userHandler.Get)
		users.PUT("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Delete)
	}

	return router
}
