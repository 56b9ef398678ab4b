package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/shared/config"
	"coverletter-backend/internal/shared/server/respond"
	"coverletter-backend/letter"
)

// registerCapabilityRoutes exposes the option lists and feature switches a
// client needs to render the submission form. Theme and template lists are
// only present when presentation templates are enabled, so clients can treat
// the payload as authoritative.
func registerCapabilityRoutes(rg *gin.RouterGroup, cfg config.Config) {
	rg.GET("/capabilities", func(c *gin.Context) {
		payload := gin.H{
			"industryDefault":       letter.DefaultIndustry,
			"tones":                 letter.Tones(),
			"visionExtraction":      cfg.VisionExtraction,
			"presentationTemplates": cfg.PresentationTemplates,
		}
		if cfg.PresentationTemplates {
			payload["themes"] = letter.Themes()
			payload["templates"] = letter.Templates()
		}
		respond.JSON(c, http.StatusOK, payload)
	})
}
