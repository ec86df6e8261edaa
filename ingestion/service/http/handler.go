package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"roadmon/evidence"
	"roadmon/export"
	core "roadmon/ingestion/service/core"
	"roadmon/internal/models"
)

// Handler encapsulates the logic for handling HTTP telemetry requests
type Handler struct {
	svc      *core.Service
	exporter *export.ExcelExporter
	archive  *evidence.Archive
	webDir   string
	logger   *log.Logger
}

// NewHandler creates a new Handler
func NewHandler(svc *core.Service, exporter *export.ExcelExporter, archive *evidence.Archive, webDir string, logger *log.Logger) *Handler {
	return &Handler{svc: svc, exporter: exporter, archive: archive, webDir: webDir, logger: logger}
}

// Register attaches all routes to the given mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/sensor-data", h.SubmitReading)
	mux.HandleFunc("/get-latest", h.LatestReadings)
	mux.HandleFunc("/road-quality", h.RoadQuality)
	mux.HandleFunc("/devices", h.ListDevices)
	mux.HandleFunc("/clear-data", h.ClearData)
	mux.HandleFunc("/export-excel", h.ExportExcel)
	mux.HandleFunc("/upload-image", h.UploadImage)
	mux.HandleFunc("/upload-video", h.UploadVideo)
	mux.HandleFunc("/get-images", h.ListImages)
	mux.HandleFunc("/get-videos", h.ListVideos)
	mux.HandleFunc("/image/", h.ServeImage)
	mux.HandleFunc("/video/", h.ServeVideo)
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/", h.Dashboard)
}

// SubmitReading handles POST /sensor-data requests
func (h *Handler) SubmitReading(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	// Request size limit
	if r.ContentLength > 1*1024*1024 { // 1MB limit
		h.respondError(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	raw := map[string]interface{}{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Printf("HTTP Handler: Failed to parse JSON request: %v", err)
		h.respondError(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if _, err := h.svc.SubmitReading(r.Context(), raw); err != nil {
		h.logger.Printf("HTTP Handler: Failed to persist reading: %v", err)
		h.respondError(w, "Failed to store sensor data", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, map[string]interface{}{"status": "success"}, http.StatusOK)
}

// LatestReadings handles GET /get-latest requests
func (h *Handler) LatestReadings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	records := h.svc.LatestReadings(r.Context(), r.URL.Query().Get("deviceId"))
	if records == nil {
		records = []models.Record{}
	}
	h.respondJSON(w, records, http.StatusOK)
}

// RoadQuality handles GET /road-quality requests
func (h *Handler) RoadQuality(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	assessment := h.svc.RoadQuality(r.Context(), r.URL.Query().Get("deviceId"))
	h.respondJSON(w, assessment, http.StatusOK)
}

// ListDevices handles GET /devices requests
func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	devices := h.svc.ListDevices(r.Context())
	h.respondJSON(w, map[string]interface{}{"devices": devices}, http.StatusOK)
}

// ClearData handles POST /clear-data requests
func (h *Handler) ClearData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.svc.ClearReadings(r.Context()); err != nil {
		h.logger.Printf("HTTP Handler: Failed to clear data: %v", err)
		h.respondError(w, "Failed to clear data", http.StatusInternalServerError)
		return
	}
	h.respondJSON(w, map[string]interface{}{"status": "success", "message": "Data cleared"}, http.StatusOK)
}

// ExportExcel handles GET /export-excel requests
func (h *Handler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.exporter == nil {
		h.respondError(w, "Excel export is unavailable", http.StatusInternalServerError)
		return
	}

	records := h.svc.LatestReadings(r.Context(), r.URL.Query().Get("deviceId"))
	if len(records) == 0 {
		h.respondError(w, "No data to export", http.StatusNotFound)
		return
	}

	buf, filename, err := h.exporter.Export(records)
	if err != nil {
		h.logger.Printf("HTTP Handler: Excel export failed: %v", err)
		h.respondError(w, "Excel export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Printf("HTTP Handler: Failed to stream workbook: %v", err)
	}
}

// UploadImage handles POST /upload-image requests
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "image", "No image file provided", h.archive.SaveImage)
}

// UploadVideo handles POST /upload-video requests
func (h *Handler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "video", "No video file provided", h.archive.SaveVideo)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request, field, missingMsg string,
	save func(deviceID, originalName string, src io.Reader) (string, error)) {

	if r.Method != http.MethodPost {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		h.respondError(w, missingMsg, http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		h.respondError(w, "Empty filename", http.StatusBadRequest)
		return
	}

	// deviceId may arrive as a form field or a query parameter
	deviceID := r.FormValue("deviceId")

	filename, err := save(deviceID, header.Filename, file)
	if err != nil {
		h.logger.Printf("HTTP Handler: Failed to store %s upload: %v", field, err)
		h.respondError(w, "Failed to store uploaded file", http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"status": "success",
		"file":   filename,
	}
	if deviceID != "" {
		resp["deviceId"] = deviceID
	} else {
		resp["deviceId"] = nil
	}
	h.respondJSON(w, resp, http.StatusOK)
}

// ListImages handles GET /get-images requests
func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	files, err := h.archive.ListImages(r.URL.Query().Get("deviceId"))
	if err != nil {
		h.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.respondJSON(w, map[string]interface{}{"images": files}, http.StatusOK)
}

// ListVideos handles GET /get-videos requests
func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	files, err := h.archive.ListVideos(r.URL.Query().Get("deviceId"))
	if err != nil {
		h.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.respondJSON(w, map[string]interface{}{"videos": files}, http.StatusOK)
}

// ServeImage handles GET /image/<path> requests
func (h *Handler) ServeImage(w http.ResponseWriter, r *http.Request) {
	h.serveBlob(w, r, "/image/", h.archive.ImagePath)
}

// ServeVideo handles GET /video/<path> requests
func (h *Handler) ServeVideo(w http.ResponseWriter, r *http.Request) {
	h.serveBlob(w, r, "/video/", h.archive.VideoPath)
}

func (h *Handler) serveBlob(w http.ResponseWriter, r *http.Request, prefix string, resolve func(string) string) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, prefix)
	if rest == "" {
		h.respondError(w, "File not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, resolve(rest))
}

// HealthCheck handles GET /health requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	h.respondJSON(w, map[string]interface{}{"status": "Server running"}, http.StatusOK)
}

// Dashboard serves the static dashboard assets
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		http.ServeFile(w, r, filepath.Join(h.webDir, "dashboard.html"))
	case "/styles.css":
		http.ServeFile(w, r, filepath.Join(h.webDir, "styles.css"))
	default:
		h.respondError(w, "Not Found", http.StatusNotFound)
	}
}

// respondJSON sends JSON response
func (h *Handler) respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("HTTP Handler: Failed to encode JSON response: %v", err)
		// Cannot send error to client at this point
	}
}

// respondError sends error response
func (h *Handler) respondError(w http.ResponseWriter, message string, statusCode int) {
	h.respondJSON(w, map[string]interface{}{"error": message}, statusCode)
}
