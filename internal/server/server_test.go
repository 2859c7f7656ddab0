package server

import (
	"bytes"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/desking/internal/desk"
	"github.com/iwvelando/desking/pkg/constants"
	"github.com/iwvelando/desking/pkg/deal"
	"github.com/iwvelando/desking/pkg/documents"
	"github.com/iwvelando/desking/pkg/optimization"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newTestHandler() http.Handler {
	return NewHandler(zap.NewNop(), Options{MaxUploadSize: constants.DefaultMaxUploadSizeBytes, Version: "test"})
}

func loadTestConfigMap(t *testing.T) map[string]interface{} {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("..", "..", "test", "test_config.yaml"))
	if err != nil {
		t.Fatalf("failed to read test config: %v", err)
	}
	var cfg map[string]interface{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("failed to parse test config: %v", err)
	}
	return cfg
}

func TestHandleWorksheetSuccess(t *testing.T) {
	handler := newTestHandler()

	data, err := os.ReadFile(filepath.Join("..", "..", "test", "test_config.yaml"))
	if err != nil {
		t.Fatalf("failed to read test config: %v", err)
	}

	rr := performUpload(t, handler, string(data), "test_config.yaml")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp worksheetResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Worksheet.Grid.Rows) != 3 {
		t.Fatalf("expected 3 grid rows, got %d", len(resp.Worksheet.Grid.Rows))
	}
	cell, ok := resp.Worksheet.Grid.Cell(72, 1)
	if !ok {
		t.Fatal("expected a grid cell at 72 months, second down")
	}
	if math.Abs(cell.Payment-679.95) > 0.001 {
		t.Errorf("expected 72 month payment 679.95, got %.2f", cell.Payment)
	}
	if len(resp.Worksheet.Menu.Bundles) != 7 {
		t.Errorf("expected 7 menu bundles, got %d", len(resp.Worksheet.Menu.Bundles))
	}
	if resp.CSV == "" {
		t.Fatal("expected CSV data in response")
	}
	if resp.Duration == "" {
		t.Fatal("expected duration in response")
	}
	if resp.Config == nil {
		t.Fatal("expected config data in response")
	}
	if resp.ConfigYAML == "" {
		t.Fatal("expected config YAML in response")
	}
}

func TestHandleWorksheetEditorSuccess(t *testing.T) {
	handler := newTestHandler()

	cfg := loadTestConfigMap(t)
	cfg["tax"] = map[string]interface{}{"mode": "simple"}

	rr := performEditorJSON(t, handler, map[string]interface{}{"config": cfg}, "/api/editor/worksheet")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp worksheetResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Worksheet.Request.Tax.Mode != "simple" {
		t.Fatalf("expected simple tax mode, got %q", resp.Worksheet.Request.Tax.Mode)
	}

	// Taxes are 38037 * 0.0975 = 3708.61 on top of 38143 due before taxes.
	expected := []float64{41851.61, 40851.61, 39851.61}
	for i, financed := range expected {
		cell, ok := resp.Worksheet.Grid.Cell(60, i)
		if !ok {
			t.Fatalf("expected a grid cell at 60 months, down index %d", i)
		}
		if math.Abs(cell.AmountFinanced-financed) > 0.001 {
			t.Errorf("down %.0f: expected amount financed %.2f, got %.2f", cell.Down, financed, cell.AmountFinanced)
		}
	}
}

func TestHandleWorksheetEditorRejectsHugeTerm(t *testing.T) {
	handler := newTestHandler()

	cfg := loadTestConfigMap(t)
	cfg["grid"] = map[string]interface{}{"terms": []interface{}{int64(1) << 40}, "downs": []interface{}{0}}

	rr := performEditorJSON(t, handler, map[string]interface{}{"config": cfg}, "/api/editor/worksheet")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "at most 360 months") {
		t.Errorf("expected the term limit in the error, got %s", rr.Body.String())
	}
}

func TestHandleWorksheetEditorRejectsInvalidDeal(t *testing.T) {
	handler := newTestHandler()

	cfg := loadTestConfigMap(t)
	cfg["grid"] = map[string]interface{}{"terms": []interface{}{0}, "downs": []interface{}{0}}

	rr := performEditorJSON(t, handler, map[string]interface{}{"config": cfg}, "/api/editor/worksheet")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleWorksheetEditorRejectsNonObjectConfig(t *testing.T) {
	handler := newTestHandler()

	rr := performEditorJSON(t, handler, map[string]interface{}{"config": "nope"}, "/api/editor/worksheet")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleConfigExport(t *testing.T) {
	handler := newTestHandler()

	payload := map[string]interface{}{
		"addons": []interface{}{
			map[string]interface{}{
				"key":    "gap",
				"amount": 1198.0,
			},
		},
		"deal": map[string]interface{}{
			"salePrice": 34240.0,
		},
		"output": map[string]interface{}{
			"format": "pretty",
		},
		"logging": map[string]interface{}{
			"level": "info",
		},
	}

	rr := performEditorJSON(t, handler, payload, "/api/editor/export")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	yamlStr := resp["configYaml"]
	if yamlStr == "" {
		t.Fatal("expected configYaml in response")
	}

	var topLevel []string
	for _, line := range strings.Split(strings.TrimRight(yamlStr, "\n"), "\n") {
		if line == "" || strings.HasPrefix(line, " ") || strings.HasPrefix(line, "-") {
			continue
		}
		topLevel = append(topLevel, strings.SplitN(line, ":", 2)[0])
	}

	expected := []string{"logging", "output", "deal", "addons"}
	if strings.Join(topLevel, ",") != strings.Join(expected, ",") {
		t.Fatalf("expected top-level keys %v, got %v", expected, topLevel)
	}
}

func TestHandleWorksheetMethodNotAllowed(t *testing.T) {
	handler := newTestHandler()

	for _, path := range []string{"/api/worksheet", "/api/editor/worksheet", "/api/acknowledgment", "/api/documents/bundle"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected status 405, got %d", path, rr.Code)
		}
	}
}

func TestHandleWorksheetUploadTooLarge(t *testing.T) {
	handler := NewHandler(zap.NewNop(), Options{MaxUploadSize: 64})

	rr := performUpload(t, handler, strings.Repeat("a", 128), "deal.yaml")
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if !strings.Contains(resp["error"], "upload exceeds limit") {
		t.Fatalf("expected upload limit error message, got %q", resp["error"])
	}
}

func TestHandleWorksheetMissingFile(t *testing.T) {
	handler := newTestHandler()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/worksheet", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp["error"] != "missing configuration file" {
		t.Fatalf("expected missing file error, got %q", resp["error"])
	}
}

func TestHandleWorksheetInvalidYAML(t *testing.T) {
	handler := newTestHandler()

	rr := performUpload(t, handler, "deal: [", "deal.yaml")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if !strings.Contains(resp["error"], "error reading config data") {
		t.Fatalf("expected parse error message, got %q", resp["error"])
	}
}

func TestHandleWorksheetNegativePrice(t *testing.T) {
	handler := newTestHandler()

	rr := performUpload(t, handler, "deal:\n  salePrice: -5\n", "deal.yaml")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleAcknowledgment(t *testing.T) {
	handler := newTestHandler()

	payload := map[string]interface{}{
		"config": loadTestConfigMap(t),
		"acknowledgment": map[string]interface{}{
			"customerName": "Jordan Avery",
			"term":         72,
			"bundle":       constants.BundleCombo,
			"signature":    "data:image/png;base64,AAAA",
		},
	}

	rr := performEditorJSON(t, handler, payload, "/api/acknowledgment")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var result deal.AcknowledgmentResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if math.Abs(result.Payment-734.48) > 0.001 {
		t.Errorf("expected payment 734.48, got %.2f", result.Payment)
	}
	if result.AcknowledgedAt.IsZero() {
		t.Error("expected acknowledgment time to be set")
	}
}

func TestHandleAcknowledgmentRejectsUnknownTerm(t *testing.T) {
	handler := newTestHandler()

	payload := map[string]interface{}{
		"config": loadTestConfigMap(t),
		"acknowledgment": map[string]interface{}{
			"customerName": "Jordan Avery",
			"term":         36,
			"bundle":       constants.BundleBase,
			"signature":    "sig",
		},
	}

	rr := performEditorJSON(t, handler, payload, "/api/acknowledgment")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleTarget(t *testing.T) {
	handler := newTestHandler()

	payload := map[string]interface{}{
		"config": loadTestConfigMap(t),
		"target": map[string]interface{}{
			"field":   "cashDown",
			"payment": 679.95,
			"term":    72,
		},
	}

	rr := performEditorJSON(t, handler, payload, "/api/target")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var summary optimization.Summary
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !summary.Converged || summary.Value < 999 || summary.Value > 1000 {
		t.Errorf("expected a cash down just under 1000, got %+v", summary)
	}
}

func TestHandleTargetRejectsUnknownField(t *testing.T) {
	handler := newTestHandler()

	payload := map[string]interface{}{
		"config": loadTestConfigMap(t),
		"target": map[string]interface{}{"field": "apr", "payment": 500},
	}

	rr := performEditorJSON(t, handler, payload, "/api/target")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandlePencilHTMLWithComputedFigures(t *testing.T) {
	handler := newTestHandler()

	payload := map[string]interface{}{
		"customer": map[string]interface{}{"firstName": "Jordan", "lastName": "Avery"},
		"deal":     map[string]interface{}{"year": "2024", "make": "Honda", "model": "Accord"},
		"config":   loadTestConfigMap(t),
		"term":     72,
	}

	rr := performEditorJSON(t, handler, payload, "/api/documents/pencil")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected HTML content type, got %q", ct)
	}

	body := rr.Body.String()
	for _, want := range []string{"Jordan Avery", "2024 Honda Accord", "$679.95", "$39,893.59", "72 months"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected pencil to contain %q", want)
		}
	}
}

func TestHandlePencilPDF(t *testing.T) {
	handler := newTestHandler()

	payload := map[string]interface{}{
		"customer": map[string]interface{}{"firstName": "Jordan", "lastName": "Avery"},
		"figures":  map[string]interface{}{"payment": "$500.00"},
	}

	rr := performEditorJSON(t, handler, payload, "/api/documents/pencil?format=pdf")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", ct)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("expected a PDF body")
	}
}

func TestHandlePencilUnknownFormat(t *testing.T) {
	handler := newTestHandler()

	rr := performEditorJSON(t, handler, map[string]interface{}{}, "/api/documents/pencil?format=docx")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandlePencilUnknownBundle(t *testing.T) {
	handler := newTestHandler()

	payload := map[string]interface{}{
		"config": loadTestConfigMap(t),
		"term":   72,
		"bundle": "tint",
	}

	rr := performEditorJSON(t, handler, payload, "/api/documents/pencil")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleBundle(t *testing.T) {
	handler := newTestHandler()

	payload := map[string]interface{}{
		"customer": map[string]interface{}{"firstName": "Jordan", "lastName": "Avery"},
		"deal":     map[string]interface{}{"vin": "1HGCY1F30RA000000"},
		"mode":     constants.DocumentModeBlank,
		"stamp":    false,
	}

	rr := performEditorJSON(t, handler, payload, "/api/documents/bundle")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("expected a PDF body")
	}
}

func TestHandleBundleUnknownMode(t *testing.T) {
	handler := newTestHandler()

	rr := performEditorJSON(t, handler, map[string]interface{}{"mode": "draft"}, "/api/documents/bundle")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	handler := newTestHandler()

	payload := map[string]interface{}{
		"customer": map[string]interface{}{"firstName": "Jordan", "lastName": "Avery"},
		"config":   loadTestConfigMap(t),
		"term":     72,
		"bundle":   constants.BundleCombo,
	}

	rr := performEditorJSON(t, handler, payload, "/api/snapshots")
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var created snapshotResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.ID == "" || created.PrintURL != "/print/pencil/"+created.ID {
		t.Fatalf("unexpected snapshot response %+v", created)
	}
	if created.Pencil.Figures["payment"] != "$734.48" {
		t.Errorf("expected combo payment $734.48, got %q", created.Pencil.Figures["payment"])
	}
	if created.Pencil.Figures["products"] != "Selected Combo" {
		t.Errorf("expected products Selected Combo, got %q", created.Pencil.Figures["products"])
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/snapshots/"+created.ID, nil)
	getRR := httptest.NewRecorder()
	handler.ServeHTTP(getRR, getReq)
	if getRR.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", getRR.Code, getRR.Body.String())
	}
	var loaded documents.Pencil
	if err := json.Unmarshal(getRR.Body.Bytes(), &loaded); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if loaded.Customer.FullName() != "Jordan Avery" {
		t.Errorf("expected customer Jordan Avery, got %q", loaded.Customer.FullName())
	}

	printReq := httptest.NewRequest(http.MethodGet, created.PrintURL, nil)
	printRR := httptest.NewRecorder()
	handler.ServeHTTP(printRR, printReq)
	if printRR.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", printRR.Code)
	}
	if !strings.Contains(printRR.Body.String(), "$734.48") {
		t.Error("expected print view to contain the combo payment")
	}
}

func TestSnapshotNotFound(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/snapshots/0f8fad5b-d9cb-469f-a165-70867728950e", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/print/pencil/not-a-uuid", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for malformed id, got %d", rr.Code)
	}
}

func TestHandlerUsesSharedDesk(t *testing.T) {
	cache := desk.NewMemoryCache()
	handler := NewHandler(zap.NewNop(), Options{Desk: desk.New(zap.NewNop(), cache, 0)})

	rr := performEditorJSON(t, handler, map[string]interface{}{"config": loadTestConfigMap(t)}, "/api/editor/worksheet")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if cache.Len() != 1 {
		t.Fatalf("expected the worksheet to be cached, cache holds %d entries", cache.Len())
	}
}

func TestHandleVersion(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["version"] != "test" {
		t.Fatalf("expected version test, got %q", resp["version"])
	}
}

func TestStaticAssetsServed(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 for index, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Desking Worksheet") {
		t.Fatalf("expected HTML body to contain title, got %q", rr.Body.String())
	}

	cssReq := httptest.NewRequest(http.MethodGet, "/styles.css", nil)
	cssRR := httptest.NewRecorder()
	handler.ServeHTTP(cssRR, cssReq)

	if cssRR.Code != http.StatusOK {
		t.Fatalf("expected status 200 for css, got %d", cssRR.Code)
	}
	if !strings.Contains(cssRR.Body.String(), ":root") {
		t.Fatalf("expected CSS body to contain styles, got %q", cssRR.Body.String())
	}
}

func performUpload(t *testing.T, handler http.Handler, content, filename string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/worksheet", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}

func performEditorJSON(t *testing.T, handler http.Handler, payload map[string]interface{}, path string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}
