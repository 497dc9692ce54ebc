package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/aversoft/b24sync/pkg/models"
	"github.com/aversoft/b24sync/pkg/services"
)

// DealLinker is the part of the service layer the webhook needs.
type DealLinker interface {
	LinkDeal(ctx context.Context, dealID string) (*services.LinkResult, error)
}

// Server exposes the deal-link webhook over HTTP.
type Server struct {
	linker DealLinker
	engine *gin.Engine
}

// New builds the HTTP server around the given linker.
func New(linker DealLinker) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{linker: linker, engine: engine}
	engine.POST("/webhook", s.handleWebhook)
	return s
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	log.Info().Str("addr", addr).Msg("Starting webhook server")
	return s.engine.Run(addr)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleWebhook(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	dealID := extractDealID(payload)
	if dealID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no deal_id in payload"})
		return
	}

	result, err := s.linker.LinkDeal(c.Request.Context(), dealID)
	if err != nil {
		log.Error().Err(err).Str("deal", dealID).Msg("Deal link failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// extractDealID digs the deal identifier out of the payload shapes the
// portal sends: a flat {"deal_id": ...}, the event envelope
// {"data": {"FIELDS": {"ID": ...}}} and the bare {"FIELDS": {"ID": ...}}.
func extractDealID(payload map[string]any) string {
	if id := models.AsString(payload["deal_id"]); id != "" {
		return id
	}
	if data, ok := payload["data"].(map[string]any); ok {
		if id := fieldsID(data); id != "" {
			return id
		}
		if id := models.AsString(data["ID"]); id != "" {
			return id
		}
		if id := models.AsString(data["FIELDS_ID"]); id != "" {
			return id
		}
	}
	return fieldsID(payload)
}

func fieldsID(m map[string]any) string {
	if fields, ok := m["FIELDS"].(map[string]any); ok {
		return models.AsString(fields["ID"])
	}
	return ""
}
