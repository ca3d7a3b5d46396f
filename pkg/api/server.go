// Package api provides the REST API server for structure2daw
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/analysis"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/export"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/timecode"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/tracks"
)

// MaxBodySize caps request bodies at 50 MB
const MaxBodySize = 50 * 1024 * 1024

// @title Structure2DAW API
// @version 1.0
// @description API for exporting music-structure analyses as MIDI markers and DAW templates
// @host localhost:8080
// @BasePath /api/v1

// ExportRequest is the JSON body of the export endpoints
type ExportRequest struct {
	Name   string           `json:"name"`
	Result *analysis.Result `json:"result" binding:"required"`
}

// Server serves exports over HTTP
type Server struct {
	exporter *export.Exporter
}

// NewServer creates a server around an exporter
func NewServer(exporter *export.Exporter) *Server {
	return &Server{exporter: exporter}
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.Use(requestID(), limitBody(MaxBodySize))

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/exports", listExports)
		v1.GET("/instruments", s.listInstruments)
		v1.POST("/export/markers", s.handleMarkers)
		v1.POST("/export/template", s.handleTemplate)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// Handler wraps the router with CORS handling
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-ID"},
	})
	return c.Handler(s.Router())
}

// StartServer starts the API server on the specified port
func StartServer(port int, exporter *export.Exporter) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: NewServer(exporter).Handler(),
	}
	return srv.ListenAndServe()
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "structure2daw",
	})
}

// listExports godoc
// @Summary List export types
// @Description Returns the artifacts the API can build
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/exports [get]
func listExports(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"exports":  []string{string(export.KindMarkers), string(export.KindTemplate)},
		"patterns": tracks.PatternNames(),
	})
}

// listInstruments godoc
// @Summary List template instruments
// @Description Returns the instrument tracks placed in the template archive
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]map[string]any
// @Router /api/v1/instruments [get]
func (s *Server) listInstruments(c *gin.Context) {
	var out []gin.H
	for _, in := range s.exporter.Instruments() {
		out = append(out, gin.H{
			"name":    in.Name,
			"channel": in.Channel,
			"program": in.Program,
			"file":    export.InstrumentFileName(in.Name),
		})
	}
	c.JSON(http.StatusOK, gin.H{"instruments": out})
}

// handleMarkers godoc
// @Summary Export structure markers
// @Description Post an analysis result and receive a MIDI marker file
// @Tags export
// @Accept json
// @Accept multipart/form-data
// @Produce audio/midi
// @Param request body ExportRequest false "Analysis result and original audio file name"
// @Param file formData file false "Analysis JSON/YAML file"
// @Param name formData string false "Original audio file name"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/export/markers [post]
func (s *Server) handleMarkers(c *gin.Context) {
	s.handleExport(c, export.KindMarkers)
}

// handleTemplate godoc
// @Summary Export DAW template
// @Description Post an analysis result and receive a zip with the marker file and placeholder instrument tracks
// @Tags export
// @Accept json
// @Accept multipart/form-data
// @Produce application/zip
// @Param request body ExportRequest false "Analysis result and original audio file name"
// @Param file formData file false "Analysis JSON/YAML file"
// @Param name formData string false "Original audio file name"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/export/template [post]
func (s *Server) handleTemplate(c *gin.Context) {
	s.handleExport(c, export.KindTemplate)
}

func (s *Server) handleExport(c *gin.Context, kind export.Kind) {
	result, name, err := readRequest(c)
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	var a export.Artifact
	switch kind {
	case export.KindMarkers:
		a, err = s.exporter.MarkerFile(result, name)
	case export.KindTemplate:
		a, err = s.exporter.TemplateArchive(result, name)
	}
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Name))
	c.Data(http.StatusOK, a.ContentType, a.Data)
}

// readRequest accepts either a JSON ExportRequest or a multipart upload of
// an analysis file
func readRequest(c *gin.Context) (*analysis.Result, string, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			return nil, "", errors.New("no analysis file uploaded")
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read file: %w", err)
		}
		result, err := analysis.Decode(data, analysis.DetectFormat(header.Filename))
		if err != nil {
			return nil, "", err
		}
		name := c.PostForm("name")
		if name == "" {
			name = header.Filename
		}
		return result, name, nil
	}

	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, "", fmt.Errorf("invalid request: %w", err)
	}
	return req.Result, req.Name, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, timecode.ErrInvalidTempo),
		errors.Is(err, timecode.ErrInvalidTime),
		errors.Is(err, analysis.ErrEmptyStructure),
		errors.Is(err, analysis.ErrInvalidSection):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
