package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sohae-kim/portfolio-chat/config"
	"github.com/sohae-kim/portfolio-chat/internal/store"
)

// OpsHandler serves the health and diagnostic endpoints.
type OpsHandler struct {
	Cfg   *config.Config
	Store *store.Store
}

// Register mounts the ops routes on g.
func (h *OpsHandler) Register(g *echo.Group) {
	g.GET("/health", h.health)
	g.GET("/diagnostic", h.diagnostic)
}

func (h *OpsHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// diagnostic reports what the process actually loaded, for debugging a
// deployment without shell access.
func (h *OpsHandler) diagnostic(c echo.Context) error {
	sampleIDs := []string{}
	for i, ch := range h.Store.All() {
		if i >= 3 {
			break
		}
		sampleIDs = append(sampleIDs, ch.ID)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"embeddings": map[string]interface{}{
			"count":      h.Store.Len(),
			"dimension":  h.Store.Dim(),
			"sample_ids": sampleIDs,
		},
		"environment": map[string]interface{}{
			"openai_api_key_set":    h.Cfg.Providers.OpenAI.APIKey != "",
			"anthropic_api_key_set": h.Cfg.Providers.Anthropic.APIKey != "",
		},
	})
}
