package routes

import (
	"net/http"

	"catalog-sync-service/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the sync API under /api/sync.
func RegisterRoutes(r *gin.Engine, sc *controllers.SyncController) {
	sync := r.Group("/api/sync")
	{
		sync.GET("/catalogs", sc.ListCatalogs)
		sync.GET("/status", sc.Status)

		sync.POST("/import/batch", sc.ProcessBatch)
		sync.POST("/import/stop", sc.StopImport)
		sync.POST("/removal/batch", sc.RemoveBatch)

		sync.POST("/jobs", sc.EnqueueJob)
		sync.GET("/jobs/:id", sc.GetJob)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
}
