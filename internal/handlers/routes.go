package handlers

import "github.com/gin-gonic/gin"

type Routes struct {
	Surveys *SurveysHandler
	Admin   *AdminHandler
	Images  *ImagesHandler
	DB      Pinger
}

// Register mounts /health without auth and everything else under /api/v1
// behind auth.
func (r Routes) Register(router *gin.Engine, auth gin.HandlerFunc) {
	router.GET("/health", HealthHandler(r.DB))

	api := router.Group("/api/v1")
	api.Use(auth)

	// Surveys
	api.POST("/surveys", r.Surveys.CreateSurvey)
	api.GET("/surveys", r.Surveys.ListSurveys)
	api.GET("/surveys/:id", r.Surveys.GetSurvey)
	api.PATCH("/surveys/:id", r.Surveys.UpdateSurvey)
	api.POST("/surveys/:id/submit", r.Surveys.SubmitSurvey)
	api.POST("/surveys/:id/review", r.Surveys.ReviewSurvey)

	// Approval workflow
	admin := api.Group("/admin/surveys")
	admin.GET("", r.Admin.ListSurveys)
	admin.GET("/stats", r.Admin.Stats)
	admin.GET("/export", r.Admin.Export)
	admin.POST("/:property_id/approve", r.Admin.Approve)
	admin.POST("/:property_id/reject", r.Admin.Reject)

	// Images
	api.POST("/images", r.Images.UploadImage)
	api.GET("/images/:id", r.Images.GetImage)
	api.DELETE("/images/:id", r.Images.DeleteImage)
	api.GET("/properties/:property_id/images", r.Images.ListImages)
}
