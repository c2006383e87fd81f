package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vidmem/vidmem/internal/server/middleware"
)

// GetGraphHandler returns summary statistics of one ingested graph.
func GetGraphHandler(c echo.Context) error {
	type identitySummary struct {
		ID        string `json:"id"`
		Name      string `json:"name,omitempty"`
		Aliases   int    `json:"aliases"`
		FirstSeen int    `json:"first_seen"`
		LastSeen  int    `json:"last_seen"`
	}

	type graphResponse struct {
		Message    string            `json:"message,omitempty"`
		Clips      int               `json:"clips"`
		Identities []identitySummary `json:"identities"`
		Unresolved []string          `json:"unresolved,omitempty"`
	}

	appCtx := middleware.GetAppContext(c)

	entry, err := appCtx.Graphs.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, graphResponse{
			Message: "Graph not found",
		})
	}

	res := graphResponse{
		Clips:      entry.Graph.ClipCount(),
		Identities: make([]identitySummary, 0),
		Unresolved: entry.Graph.UnresolvedAliases(),
	}
	for ident := range entry.Graph.IdentityNodes() {
		res.Identities = append(res.Identities, identitySummary{
			ID:        ident.ID,
			Name:      ident.Name,
			Aliases:   len(ident.Aliases),
			FirstSeen: ident.FirstSeen,
			LastSeen:  ident.LastSeen,
		})
	}

	return c.JSON(http.StatusOK, res)
}
