package rest

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KevinKickass/mtconnect-core/internal/formatter"
	"github.com/KevinKickass/mtconnect-core/internal/storage"
	"github.com/KevinKickass/mtconnect-core/internal/types"
)

// GET /api/v1/formats
func (s *Server) listFormats(c *gin.Context) {
	registry := s.agent.Registry()
	response := make([]gin.H, 0)
	for _, id := range registry.IDs() {
		f, err := registry.Get(id)
		if err != nil {
			continue
		}
		response = append(response, gin.H{
			"id":           f.ID(),
			"content_type": f.ContentType(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"formats": response, "default": s.defaultFormat})
}

// inputFormat picks the request body format: the from query parameter, then
// the Content-Type header.
func (s *Server) inputFormat(c *gin.Context, param string) (string, error) {
	if id := c.Query(param); id != "" {
		return id, nil
	}
	f, err := s.agent.Registry().ForContentType(c.ContentType())
	if err != nil {
		return "", err
	}
	return f.ID(), nil
}

// outputFormat picks the response format: the query parameter, then the
// first Accept entry naming a registered media type, then the default.
func (s *Server) outputFormat(c *gin.Context, param string) string {
	if id := c.Query(param); id != "" {
		return id
	}
	for _, accept := range strings.Split(c.GetHeader("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(accept))
		if err != nil || mediaType == "*/*" {
			continue
		}
		if f, err := s.agent.Registry().ForContentType(mediaType); err == nil {
			return f.ID()
		}
	}
	return s.defaultFormat
}

func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, types.NewErrorResponse("DOCUMENT_413", "Failed to read request body", err.Error()))
		return nil, false
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("DOCUMENT_400", "Empty request body", nil))
		return nil, false
	}
	return body, true
}

func (s *Server) documentError(c *gin.Context, err error) {
	if errors.Is(err, formatter.ErrUnknownFormat) {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("FORMAT_400", "Unknown format", err.Error()))
		return
	}
	c.JSON(http.StatusUnprocessableEntity, types.NewErrorResponse("DOCUMENT_422", "Invalid streams document", err.Error()))
}

// POST /api/v1/convert?from=JSON&to=XML
func (s *Server) convert(c *gin.Context) {
	from, err := s.inputFormat(c, "from")
	if err != nil {
		s.documentError(c, err)
		return
	}
	to := s.outputFormat(c, "to")

	body, ok := s.readBody(c)
	if !ok {
		return
	}

	out, contentType, err := s.agent.Convert(from, to, body)
	if err != nil {
		s.documentError(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, out)
}

// POST /api/v1/ingest?format=JSON
func (s *Server) ingest(c *gin.Context) {
	format, err := s.inputFormat(c, "format")
	if err != nil {
		s.documentError(c, err)
		return
	}

	body, ok := s.readBody(c)
	if !ok {
		return
	}

	result, err := s.agent.Ingest(c.Request.Context(), format, body)
	if err != nil {
		s.documentError(c, err)
		return
	}

	s.logger.Debug("Ingested document",
		zap.String("format", format),
		zap.Int("observations", result.Observations))
	c.JSON(http.StatusAccepted, result)
}

// GET /api/v1/current?format=XML
func (s *Server) getCurrent(c *gin.Context) {
	out, contentType, err := s.agent.Current(c.Request.Context(), s.outputFormat(c, "format"))
	if err != nil {
		if errors.Is(err, formatter.ErrUnknownFormat) {
			s.documentError(c, err)
			return
		}
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("CURRENT_500", "Failed to render current values", err.Error()))
		return
	}
	c.Data(http.StatusOK, contentType, out)
}

// GET /api/v1/current/:device/:dataItem
func (s *Server) getCurrentValue(c *gin.Context) {
	out, err := s.agent.CurrentValue(c.Request.Context(), c.Param("device"), c.Param("dataItem"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, types.NewErrorResponse("CURRENT_404", "No current value", err.Error()))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("CURRENT_500", "Failed to load current value", err.Error()))
		return
	}
	c.JSON(http.StatusOK, out)
}
