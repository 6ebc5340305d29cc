package server

import "github.com/gin-gonic/gin"

func (h *handler) registerRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/topics", h.listTopics)
	r.GET("/topics/:topic", h.getTopic)
	r.GET("/topics/:topic/:subtopic", h.getSubtopic)
	r.POST("/topics/:topic/:subtopic/measures", h.createMeasure)
	r.GET("/topics/:topic/:subtopic/:measure/:version", h.getMeasureVersion)

	r.GET("/measures/latest", h.listLatestMeasures)

	r.PUT("/measure-versions/:id", h.updateMeasureVersion)
	r.POST("/measure-versions/:id/versions", h.createNewVersion)
	r.POST("/measure-versions/:id/next-state", h.nextState)
	r.POST("/measure-versions/:id/reject", h.reject)
	r.POST("/measure-versions/:id/publish", h.publish)
	r.POST("/measure-versions/:id/unpublish", h.unpublish)

	r.POST("/measure-versions/:id/dimensions", h.createDimension)
	r.PUT("/dimensions/:guid", h.updateDimension)
	r.DELETE("/dimensions/:guid", h.deleteDimension)

	r.POST("/measure-versions/:id/uploads", h.createUpload)
	r.GET("/uploads/:guid/download", h.downloadUpload)
	r.DELETE("/uploads/:guid", h.deleteUpload)

	r.GET("/review/:token", h.getReviewPage)
}
