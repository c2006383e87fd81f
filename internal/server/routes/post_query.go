package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vidmem/vidmem/internal/server/middleware"
	"github.com/vidmem/vidmem/pkg/logger"
	"github.com/vidmem/vidmem/pkg/retrieve"
)

// QueryGraphHandler answers a question against one ingested graph.
func QueryGraphHandler(c echo.Context) error {
	type queryBody struct {
		Question    string `json:"question"`
		QueryNum    int    `json:"query_num"`
		TopK        int    `json:"topk"`
		Mode        string `json:"mode"`
		TokenBudget int    `json:"token_budget"`
	}

	type queryResponse struct {
		Message string            `json:"message,omitempty"`
		Answer  *retrieve.Answer  `json:"answer,omitempty"`
		Session *retrieve.Session `json:"session,omitempty"`
	}

	graphID := c.Param("id")

	data := new(queryBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}
	if data.Question == "" {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "question is required",
		})
	}
	if data.QueryNum == 0 {
		data.QueryNum = 3
	}
	if data.TopK == 0 {
		data.TopK = 10
	}

	appCtx := middleware.GetAppContext(c)

	entry, err := appCtx.Graphs.Get(c.Request().Context(), graphID)
	if err != nil {
		return c.JSON(http.StatusNotFound, queryResponse{
			Message: "Graph not found",
		})
	}

	engine, err := retrieve.NewEngine(retrieve.NewEngineParams{
		AIClient: appCtx.AIClient,
		Graph:    entry.Graph,
		Index:    entry.Index,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, queryResponse{
			Message: "Failed to build retrieval engine",
		})
	}

	answer, session, err := engine.AnswerWithRetrieval(
		c.Request().Context(),
		data.Question,
		retrieve.Params{
			QueryNum:    data.QueryNum,
			TopK:        data.TopK,
			Mode:        retrieve.Mode(data.Mode),
			TokenBudget: data.TokenBudget,
		},
	)
	if err != nil {
		if errors.Is(err, retrieve.ErrInvalidParams) {
			return c.JSON(http.StatusBadRequest, queryResponse{
				Message: err.Error(),
			})
		}
		logger.Error("[Server] Query failed", "graph_id", graphID, "err", err)
		return c.JSON(http.StatusInternalServerError, queryResponse{
			Message: "Query failed",
			Session: session,
		})
	}

	return c.JSON(http.StatusOK, queryResponse{
		Answer:  &answer,
		Session: session,
	})
}
