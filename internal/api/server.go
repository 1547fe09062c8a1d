// internal/api/server.go
//
// HTTP surface of the bot. Chat transports deliver turn events to
// POST /v1/events; the reply payload carries everything a transport
// needs to render the response, including rich block hints.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"itbot/internal/common/config"
	"itbot/internal/common/logger"
	"itbot/internal/conversation"
	"itbot/internal/models"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xeipuuv/gojsonschema"
)

// TurnProcessor runs one delivered turn end to end.
type TurnProcessor interface {
	Process(ctx context.Context, in conversation.TurnInput) *models.ActionResult
}

const eventSchema = `{
	"type": "object",
	"required": ["user_id", "channel_id", "text", "source_timestamp"],
	"properties": {
		"user_id":          {"type": "string", "minLength": 1},
		"channel_id":       {"type": "string", "minLength": 1},
		"text":             {"type": "string"},
		"source_timestamp": {"type": "string", "minLength": 1},
		"selected_option":  {"type": "string"}
	},
	"additionalProperties": false
}`

var compiledEventSchema = gojsonschema.NewStringLoader(eventSchema)

type Server struct {
	processor TurnProcessor
	logger    logger.Logger
	server    *http.Server
}

type eventResponse struct {
	Action       models.Action          `json:"action"`
	Response     string                 `json:"response"`
	ResponseType models.ResponseType    `json:"response_type,omitempty"`
	BlocksConfig *models.BlocksConfig   `json:"blocks_config,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func NewServer(cfg config.HTTPConfig, processor TurnProcessor, log logger.Logger) *Server {
	s := &Server{
		processor: processor,
		logger:    log.WithFields(map[string]interface{}{"component": "http-api"}),
	}

	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/events", s.handleEvent)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle(metricsPath, promhttp.Handler())

	s.server = &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.server.Addr})
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	validation, err := gojsonschema.Validate(compiledEventSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if !validation.Valid() {
		fields := make([]string, 0, len(validation.Errors()))
		for _, e := range validation.Errors() {
			fields = append(fields, e.String())
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "event validation failed", Fields: fields})
		return
	}

	var in conversation.TurnInput
	if err := json.Unmarshal(raw, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	result := s.processor.Process(r.Context(), in)

	writeJSON(w, http.StatusOK, eventResponse{
		Action:       result.Action,
		Response:     result.Response,
		ResponseType: result.ResponseType,
		BlocksConfig: result.BlocksConfig,
		Details:      result.Details,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
