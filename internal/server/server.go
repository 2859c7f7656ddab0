package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/iwvelando/desking/internal/config"
	"github.com/iwvelando/desking/internal/desk"
	"github.com/iwvelando/desking/internal/optimizer"
	"github.com/iwvelando/desking/pkg/constants"
	"github.com/iwvelando/desking/pkg/deal"
	"github.com/iwvelando/desking/pkg/documents"
	"github.com/iwvelando/desking/pkg/output"
	"github.com/iwvelando/desking/pkg/validation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed static/*
var staticFiles embed.FS

// Options wires the handler to its collaborators. Zero values fall back to
// defaults: an uncached desk, in-memory snapshots and the default dealer name.
type Options struct {
	MaxUploadSize int64
	Version       string
	DealerName    string
	Desk          *desk.Desk
	Snapshots     *SnapshotStore
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	dealerName    string
	desk          *desk.Desk
	snapshots     *SnapshotStore
	now           func() time.Time
}

// NewHandler constructs the HTTP handler that serves the web UI and desking API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		dealerName:    opts.DealerName,
		desk:          opts.Desk,
		snapshots:     opts.Snapshots,
		now:           time.Now,
	}
	if strings.TrimSpace(h.dealerName) == "" {
		h.dealerName = constants.DefaultDealerName
	}
	if h.desk == nil {
		h.desk = desk.New(logger, nil, 0)
	}
	if h.snapshots == nil {
		h.snapshots = NewSnapshotStore(desk.NewMemoryCache(),
			time.Duration(constants.DefaultSnapshotTTLSeconds)*time.Second)
	}

	mux := http.NewServeMux()

	// Worksheet API endpoint (file upload)
	mux.HandleFunc("/api/worksheet", h.handleWorksheet)

	// Worksheet API endpoint for editor-driven updates
	mux.HandleFunc("/api/editor/worksheet", h.handleWorksheetEditor)

	// Config serialization endpoint for editor downloads
	mux.HandleFunc("/api/editor/export", h.handleConfigExport)

	mux.HandleFunc("/api/acknowledgment", h.handleAcknowledgment)

	// Solve the cash down or price for a target payment
	mux.HandleFunc("/api/target", h.handleTarget)

	// Documents
	mux.HandleFunc("/api/documents/pencil", h.handlePencil)
	mux.HandleFunc("/api/documents/bundle", h.handleBundle)

	// Snapshot handoff to the print view
	mux.HandleFunc("/api/snapshots", h.handleSnapshotCreate)
	mux.HandleFunc("GET /api/snapshots/{id}", h.handleSnapshotGet)
	mux.HandleFunc("GET /print/pencil/{id}", h.handlePrintPencil)

	// Version endpoint for UI metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	// Static assets (web UI)
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	fileServer := http.FileServer(http.FS(sub))
	mux.Handle("/", fileServer)

	return mux
}

type worksheetResponse struct {
	Worksheet  desk.Worksheet         `json:"worksheet"`
	CSV        string                 `json:"csv"`
	Warnings   []string               `json:"warnings,omitempty"`
	Duration   string                 `json:"duration"`
	Config     map[string]interface{} `json:"config,omitempty"`
	ConfigYAML string                 `json:"configYaml,omitempty"`
}

type acknowledgmentRequest struct {
	Config         map[string]interface{} `json:"config"`
	Acknowledgment deal.Acknowledgment    `json:"acknowledgment"`
}

type targetRequest struct {
	Config map[string]interface{} `json:"config"`
	Target optimizer.Target       `json:"target"`
}

type pencilRequest struct {
	documents.Pencil
	Config map[string]interface{} `json:"config,omitempty"`
	Term   int                    `json:"term,omitempty"`
	Bundle string                 `json:"bundle,omitempty"`
}

type bundleRequest struct {
	Customer documents.Customer `json:"customer"`
	Deal     documents.Vehicle  `json:"deal"`
	Mode     string             `json:"mode"`
	Stamp    *bool              `json:"stamp"`
}

type snapshotResponse struct {
	ID       string           `json:"id"`
	PrintURL string           `json:"printUrl"`
	Pencil   documents.Pencil `json:"pencil"`
}

func (h *handler) handleWorksheet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize))
			return
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing configuration file")
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", "server.handleWorksheet"),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err))
		return
	}

	configBytes := buf.Bytes()
	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("error reading config data, %v", err))
		return
	}

	h.runWorksheet(w, r, configBytes, configMap, start, "server.handleWorksheet")
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleWorksheetEditor(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleWorksheetEditor"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()

	var payload map[string]interface{}
	if err := h.decodeJSON(w, r, &payload); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode configuration: %v", err), op)
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	configPayload := payload
	if rawConfig, ok := payload["config"]; ok {
		cfgMap, ok := rawConfig.(map[string]interface{})
		if !ok {
			h.respondErrorWithOp(w, http.StatusBadRequest, "invalid config payload: expected object", op)
			return
		}
		configPayload = cfgMap
	}

	configBytes, err := yaml.Marshal(configPayload)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse configuration: %v", err), op)
		return
	}

	h.runWorksheet(w, r, configBytes, configMap, start, op)
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var payload map[string]interface{}
	if err := h.decodeJSON(w, r, &payload); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode configuration: %v", err), "server.handleConfigExport")
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	yamlBytes, err := marshalOrderedConfigYAML(payload)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), "server.handleConfigExport")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

func (h *handler) handleAcknowledgment(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAcknowledgment"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var payload acknowledgmentRequest
	if err := h.decodeJSON(w, r, &payload); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode acknowledgment: %v", err), op)
		return
	}

	ws, err := h.worksheetFromMap(r, payload.Config)
	if err != nil {
		h.respondComputeError(w, err, op)
		return
	}

	result, err := deal.Acknowledge(ws.Menu, payload.Acknowledgment, h.now())
	if err != nil {
		h.respondComputeError(w, err, op)
		return
	}

	h.logger.Info("menu acknowledged",
		zap.String("op", op),
		zap.Int("term", result.Term),
		zap.String("bundle", result.Bundle),
	)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *handler) handleTarget(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleTarget"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var payload targetRequest
	if err := h.decodeJSON(w, r, &payload); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode target: %v", err), op)
		return
	}

	ws, err := h.worksheetFromMap(r, payload.Config)
	if err != nil {
		h.respondComputeError(w, err, op)
		return
	}
	if payload.Target.Term == 0 && len(ws.Request.Terms) > 0 {
		payload.Target.Term = ws.Request.Terms[0]
	}

	runner, err := optimizer.NewRunner(h.logger, ws.Request)
	if err != nil {
		h.respondComputeError(w, err, op)
		return
	}
	summary, err := runner.Run(payload.Target)
	if err != nil {
		h.respondComputeError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *handler) handlePencil(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePencil"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	pencil, err := h.decodePencil(w, r)
	if err != nil {
		h.respondComputeError(w, err, op)
		return
	}

	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "html":
		h.writePencilHTML(w, pencil, op)
	case "pdf":
		var buf bytes.Buffer
		if err := documents.RenderPencilPDF(&buf, pencil, h.now()); err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render pencil: %v", err), op)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `inline; filename="pencil.pdf"`)
		_, _ = w.Write(buf.Bytes())
	default:
		h.respondErrorWithOp(w, http.StatusBadRequest, "format must be html or pdf", op)
	}
}

func (h *handler) handleBundle(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleBundle"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var payload bundleRequest
	if err := h.decodeJSON(w, r, &payload); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode bundle request: %v", err), op)
		return
	}

	stamp := true
	if payload.Stamp != nil {
		stamp = *payload.Stamp
	}

	var buf bytes.Buffer
	err := documents.RenderBundle(&buf, documents.BundleRequest{
		Customer:   payload.Customer,
		Vehicle:    payload.Deal,
		Mode:       payload.Mode,
		Stamp:      stamp,
		DealerName: h.dealerName,
		Date:       h.now(),
	})
	if err != nil {
		h.respondComputeError(w, err, op)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="sales-bundle.pdf"`)
	_, _ = w.Write(buf.Bytes())
}

func (h *handler) handleSnapshotCreate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSnapshotCreate"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	pencil, err := h.decodePencil(w, r)
	if err != nil {
		h.respondComputeError(w, err, op)
		return
	}

	id, saved, err := h.snapshots.Save(r.Context(), pencil)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusCreated, snapshotResponse{
		ID:       id,
		PrintURL: "/print/pencil/" + id,
		Pencil:   saved,
	})
}

func (h *handler) handleSnapshotGet(w http.ResponseWriter, r *http.Request) {
	pencil, ok := h.loadSnapshot(w, r, "server.handleSnapshotGet")
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, pencil)
}

func (h *handler) handlePrintPencil(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePrintPencil"
	pencil, ok := h.loadSnapshot(w, r, op)
	if !ok {
		return
	}
	h.writePencilHTML(w, pencil, op)
}

func (h *handler) loadSnapshot(w http.ResponseWriter, r *http.Request, op string) (documents.Pencil, bool) {
	pencil, err := h.snapshots.Load(r.Context(), r.PathValue("id"))
	switch {
	case err == nil:
		return pencil, true
	case errors.Is(err, ErrSnapshotNotFound):
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
	default:
		h.respondComputeError(w, err, op)
	}
	return documents.Pencil{}, false
}

func (h *handler) writePencilHTML(w http.ResponseWriter, pencil documents.Pencil, op string) {
	var buf bytes.Buffer
	if err := documents.RenderPencilHTML(&buf, pencil, h.now()); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render pencil: %v", err), op)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// decodePencil reads a pencil request. When it carries a deal config, the
// figures for the chosen term and bundle are computed and merged over any
// figures sent by the client.
func (h *handler) decodePencil(w http.ResponseWriter, r *http.Request) (documents.Pencil, error) {
	var payload pencilRequest
	if err := h.decodeJSON(w, r, &payload); err != nil {
		return documents.Pencil{}, validation.Invalid("failed to decode pencil: %v", err)
	}

	pencil := payload.Pencil
	if pencil.DealerName == "" {
		pencil.DealerName = h.dealerName
	}
	if payload.Config == nil {
		return pencil, nil
	}

	ws, err := h.worksheetFromMap(r, payload.Config)
	if err != nil {
		return documents.Pencil{}, err
	}
	computed, err := pencilFigures(ws, payload.Term, payload.Bundle)
	if err != nil {
		return documents.Pencil{}, err
	}
	if pencil.Figures == nil {
		pencil.Figures = make(map[string]string, len(computed))
	}
	for k, v := range computed {
		pencil.Figures[k] = v
	}
	return pencil, nil
}

func pencilFigures(ws desk.Worksheet, term int, bundleKey string) (map[string]string, error) {
	if bundleKey == "" {
		bundleKey = constants.BundleBase
	}
	if term == 0 && len(ws.Request.Terms) > 0 {
		term = ws.Request.Terms[0]
	}

	bundle, ok := ws.Menu.Bundle(bundleKey)
	if !ok {
		return nil, validation.Invalid("unknown menu option %q", bundleKey)
	}
	cell, ok := ws.Menu.Lookup(term, bundleKey)
	if !ok {
		return nil, validation.Invalid("term %d months is not on the menu", term)
	}

	scenario, err := deal.BuildScenario(ws.Menu.Down, bundle.AddonsAmount, ws.Request.Inputs, ws.Request.Tax)
	if err != nil {
		return nil, err
	}
	figures := documents.DealFigures(ws.Request.Inputs, scenario, ws.Menu.Down, term, cell.Payment)
	if bundle.Key != constants.BundleBase {
		figures["products"] = bundle.Label
	}
	return figures, nil
}

func (h *handler) worksheetFromMap(r *http.Request, configMap map[string]interface{}) (desk.Worksheet, error) {
	if configMap == nil {
		configMap = make(map[string]interface{})
	}
	configBytes, err := yaml.Marshal(configMap)
	if err != nil {
		return desk.Worksheet{}, validation.Invalid("failed to encode configuration: %v", err)
	}
	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		return desk.Worksheet{}, validation.Invalid("%v", err)
	}
	return h.desk.Compute(r.Context(), cfg.ToRequest())
}

func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range []string{"logging", "output", "deal", "tax", "grid", "addons", "customer", "vehicle", "documents"} {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	ordered := orderedConfig{items: items}
	return yaml.Marshal(ordered)
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}

func (h *handler) runWorksheet(w http.ResponseWriter, r *http.Request, configBytes []byte, configMap map[string]interface{}, start time.Time, op string) {
	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	warnings := cfg.ValidateConfiguration()

	ws, err := h.desk.Compute(r.Context(), cfg.ToRequest())
	if err != nil {
		h.respondComputeError(w, err, op)
		return
	}

	elapsed := time.Since(start)

	if configMap == nil {
		configMap = make(map[string]interface{})
	}

	response := worksheetResponse{
		Worksheet:  ws,
		CSV:        output.CsvString(ws),
		Warnings:   warnings,
		Duration:   elapsed.String(),
		Config:     configMap,
		ConfigYAML: string(configBytes),
	}

	h.logger.Info("worksheet computed",
		zap.String("op", op),
		zap.Int("terms", len(ws.Grid.Terms)),
		zap.Int("downs", len(ws.Grid.Downs)),
		zap.Int("bundles", len(ws.Menu.Bundles)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	return json.NewDecoder(body).Decode(dst)
}

func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return make(map[string]interface{}), nil
	}

	var result map[string]interface{}
	if err := yaml.Unmarshal(trimmed, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]interface{})
	}
	return result, nil
}

func (h *handler) respondComputeError(w http.ResponseWriter, err error, op string) {
	status := http.StatusInternalServerError
	if errors.Is(err, validation.ErrInvalidArgument) {
		status = http.StatusBadRequest
	}
	h.respondErrorWithOp(w, status, err.Error(), op)
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondErrorWithOp(w, status, msg, "server.handleWorksheet")
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("desking request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
