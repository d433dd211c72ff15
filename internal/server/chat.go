package server

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sohae-kim/portfolio-chat/config"
	"github.com/sohae-kim/portfolio-chat/internal/guard"
	"github.com/sohae-kim/portfolio-chat/internal/provider"
	"github.com/sohae-kim/portfolio-chat/internal/retrieval"
	"github.com/sohae-kim/portfolio-chat/internal/store"
)

const (
	msgEmptyQuestion   = "Your question seems to be empty. Please provide a question about Sohae's career."
	msgInjection       = "I'm sorry, but I can only answer questions about Sohae's career and experience. Could you please ask a question related to her professional background?"
	msgUnsafe          = "I'm sorry, but I can't process this request. Please ask a question related to Sohae's professional background."
	msgProcessingError = "Sorry, I couldn't process your question. Please try again."
)

// ChatHandler serves the /api/chat endpoint: question in, answer plus
// section references out.
type ChatHandler struct {
	Cfg       *config.Config
	Store     *store.Store
	Embedder  provider.Embedder
	Generator provider.Generator
	Limiter   Limiter
	Logger    *log.Logger
	SecLogger *log.Logger
}

// Register mounts the chat route on g.
func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/chat", h.chat)
}

type chatRequest struct {
	Question string `json:"question"`
}

type referenceItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type chatResponse struct {
	Answer     string          `json:"answer"`
	References []referenceItem `json:"references"`
}

func (h *ChatHandler) chat(c echo.Context) error {
	chatRequestsTotal.Inc()
	ip := c.RealIP()
	reqID := uuid.NewString()

	if allowed, reason := h.Limiter.Allow(ip); !allowed {
		rateLimitedTotal.Inc()
		h.Logger.Printf("req=%s rate limited ip=%s: %s", reqID, ip, reason)
		return echo.NewHTTPError(http.StatusTooManyRequests, reason)
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	question := guard.Sanitize(req.Question)
	if question == "" {
		return c.JSON(http.StatusOK, chatResponse{Answer: msgEmptyQuestion, References: []referenceItem{}})
	}
	if guard.DetectInjection(question) {
		guardRejectedTotal.WithLabelValues("injection").Inc()
		h.SecLogger.Printf("PROMPT_INJECTION ip=%s req=%s question=%q", ip, reqID, req.Question)
		return c.JSON(http.StatusOK, chatResponse{Answer: msgInjection, References: []referenceItem{}})
	}
	if !guard.Safe(question) {
		guardRejectedTotal.WithLabelValues("unsafe").Inc()
		h.SecLogger.Printf("UNSAFE_CONTENT ip=%s req=%s question=%q", ip, reqID, req.Question)
		return c.JSON(http.StatusOK, chatResponse{Answer: msgUnsafe, References: []referenceItem{}})
	}

	ctx := c.Request().Context()

	queryVec, err := h.Embedder.Embed(ctx, question)
	if err != nil {
		providerFailuresTotal.WithLabelValues("embed").Inc()
		h.Logger.Printf("req=%s embed failed: %v", reqID, err)
		return echo.NewHTTPError(http.StatusInternalServerError, msgProcessingError)
	}

	results, err := retrieval.Rank(queryVec, h.Store, h.Cfg.Retrieval.TopK, h.Cfg.Retrieval.MinScore)
	if err != nil {
		h.Logger.Printf("req=%s rank failed: %v", reqID, err)
		return echo.NewHTTPError(http.StatusInternalServerError, msgProcessingError)
	}
	retrievedChunks.Observe(float64(len(results)))

	contextText, refs := retrieval.Assemble(results, h.Cfg.Retrieval.MaxContextChars)

	// An empty context still goes to the generator: its prompt tells it to
	// admit it has nothing rather than invent an answer.
	answer, err := h.Generator.Generate(ctx, question, contextText)
	if err != nil {
		providerFailuresTotal.WithLabelValues("generate").Inc()
		h.Logger.Printf("req=%s generate failed: %v", reqID, err)
		return echo.NewHTTPError(http.StatusInternalServerError, msgProcessingError)
	}

	references := make([]referenceItem, 0, len(refs))
	for _, ref := range refs {
		references = append(references, referenceItem{
			Title: ref.Title,
			URL:   h.Cfg.Server.SiteBaseURL + "#" + ref.ID,
		})
	}

	h.Logger.Printf("req=%s ip=%s retrieved=%d answered", reqID, ip, len(results))
	return c.JSON(http.StatusOK, chatResponse{Answer: answer, References: references})
}
