package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"roadmon/evidence"
	"roadmon/export"
	core "roadmon/ingestion/service/core"
	"roadmon/storage/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	dir := t.TempDir()

	fs, err := store.NewFileStore(filepath.Join(dir, "road_data.json"), 1000, logger)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	archive, err := evidence.NewArchive(filepath.Join(dir, "images"), filepath.Join(dir, "videos"), logger)
	if err != nil {
		t.Fatalf("NewArchive: %v", err)
	}

	svc := core.NewService(fs, archive, logger)
	h := NewHandler(svc, export.NewExcelExporter(logger), archive, filepath.Join(dir, "web"), logger)

	mux := http.NewServeMux()
	h.Register(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestSubmitAndFetchReading(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/sensor-data", `{"deviceId":"dev-1","x":1,"y":2,"z":3,"accelerometer":3.74,"note":"bump"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var submitResp map[string]interface{}
	decodeBody(t, resp, &submitResp)
	if submitResp["status"] != "success" {
		t.Errorf("status field = %v, want success", submitResp["status"])
	}

	resp, err := http.Get(ts.URL + "/get-latest")
	if err != nil {
		t.Fatalf("GET /get-latest: %v", err)
	}
	var records []map[string]interface{}
	decodeBody(t, resp, &records)
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	rec := records[0]
	if rec["accelX"] != 1.0 || rec["accelY"] != 2.0 || rec["accelZ"] != 3.0 {
		t.Errorf("accel fields = %v/%v/%v, want 1/2/3", rec["accelX"], rec["accelY"], rec["accelZ"])
	}
	if rec["accelMagnitude"] != 3.74 {
		t.Errorf("accelMagnitude = %v, want 3.74", rec["accelMagnitude"])
	}
	if rec["note"] != "bump" {
		t.Errorf("note = %v, want bump (pass-through)", rec["note"])
	}
	if rec["timestamp"] == nil || rec["timestamp"] == "" {
		t.Error("timestamp missing from stored record")
	}
}

func TestGetLatestFiltersByDevice(t *testing.T) {
	ts := newTestServer(t)

	for _, dev := range []string{"a", "b", "a"} {
		resp := postJSON(t, ts.URL+"/sensor-data", `{"deviceId":"`+dev+`"}`)
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/get-latest?deviceId=a")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var records []map[string]interface{}
	decodeBody(t, resp, &records)
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	for _, rec := range records {
		if rec["deviceId"] != "a" {
			t.Errorf("deviceId = %v, want a", rec["deviceId"])
		}
	}
}

func TestGetLatestEmptyStoreReturnsEmptyArray(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/get-latest")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestRoadQualityEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/road-quality")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var empty map[string]interface{}
	decodeBody(t, resp, &empty)
	if empty["quality"] != "No data" {
		t.Errorf("quality = %v, want \"No data\"", empty["quality"])
	}
	if _, ok := empty["avgVibration"]; ok {
		t.Error("avgVibration should be omitted when there is no data")
	}

	postJSON(t, ts.URL+"/sensor-data", `{"accelMagnitude":3}`).Body.Close()
	postJSON(t, ts.URL+"/sensor-data", `{"accelMagnitude":4}`).Body.Close()

	resp, err = http.Get(ts.URL + "/road-quality")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var quality map[string]interface{}
	decodeBody(t, resp, &quality)
	if quality["quality"] != "Good" {
		t.Errorf("quality = %v, want Good", quality["quality"])
	}
	if quality["avgVibration"] != 3.5 {
		t.Errorf("avgVibration = %v, want 3.5", quality["avgVibration"])
	}
	if quality["totalReadings"] != 2.0 {
		t.Errorf("totalReadings = %v, want 2", quality["totalReadings"])
	}
}

func TestClearData(t *testing.T) {
	ts := newTestServer(t)

	postJSON(t, ts.URL+"/sensor-data", `{"deviceId":"dev-1"}`).Body.Close()

	resp := postJSON(t, ts.URL+"/clear-data", "")
	var clearResp map[string]interface{}
	decodeBody(t, resp, &clearResp)
	if clearResp["status"] != "success" || clearResp["message"] != "Data cleared" {
		t.Errorf("clear response = %v", clearResp)
	}

	resp, err := http.Get(ts.URL + "/get-latest")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var records []map[string]interface{}
	decodeBody(t, resp, &records)
	if len(records) != 0 {
		t.Errorf("len(records) after clear = %d, want 0", len(records))
	}
}

func TestDevicesEndpoint(t *testing.T) {
	ts := newTestServer(t)

	postJSON(t, ts.URL+"/sensor-data", `{"deviceId":"beta"}`).Body.Close()
	postJSON(t, ts.URL+"/sensor-data", `{"deviceId":"alpha"}`).Body.Close()

	resp, err := http.Get(ts.URL + "/devices")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var devResp struct {
		Devices []string `json:"devices"`
	}
	decodeBody(t, resp, &devResp)
	want := []string{"alpha", "beta"}
	if len(devResp.Devices) != 2 || devResp.Devices[0] != want[0] || devResp.Devices[1] != want[1] {
		t.Errorf("devices = %v, want %v", devResp.Devices, want)
	}
}

func TestUploadImageErrors(t *testing.T) {
	ts := newTestServer(t)

	// No multipart body at all
	resp, err := http.Post(ts.URL+"/upload-image", "multipart/form-data", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	var errResp map[string]interface{}
	decodeBody(t, resp, &errResp)
	if errResp["error"] != "No image file provided" {
		t.Errorf("error = %v, want \"No image file provided\"", errResp["error"])
	}
}

func TestUploadListAndServeImage(t *testing.T) {
	ts := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("deviceId", "dev-1"); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	part, err := mw.CreateFormFile("image", "pothole.jpg")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte("fake-jpeg-bytes")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	mw.Close()

	resp, err := http.Post(ts.URL+"/upload-image", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d, want 200", resp.StatusCode)
	}
	var upResp map[string]interface{}
	decodeBody(t, resp, &upResp)
	filename, _ := upResp["file"].(string)
	if !strings.HasPrefix(filename, "image_") || !strings.HasSuffix(filename, ".jpg") {
		t.Errorf("file = %q, want image_*.jpg", filename)
	}

	resp, err = http.Get(ts.URL + "/get-images?deviceId=dev-1")
	if err != nil {
		t.Fatalf("GET /get-images: %v", err)
	}
	var listResp struct {
		Images []struct {
			Filename string  `json:"filename"`
			DeviceID *string `json:"deviceId"`
			URL      string  `json:"url"`
			Size     int64   `json:"size"`
		} `json:"images"`
	}
	decodeBody(t, resp, &listResp)
	if len(listResp.Images) != 1 {
		t.Fatalf("len(images) = %d, want 1", len(listResp.Images))
	}
	img := listResp.Images[0]
	if img.DeviceID == nil || *img.DeviceID != "dev-1" {
		t.Errorf("deviceId = %v, want dev-1", img.DeviceID)
	}
	if img.Size != int64(len("fake-jpeg-bytes")) {
		t.Errorf("size = %d, want %d", img.Size, len("fake-jpeg-bytes"))
	}

	resp, err = http.Get(ts.URL + img.URL)
	if err != nil {
		t.Fatalf("GET %s: %v", img.URL, err)
	}
	defer resp.Body.Close()
	served, _ := io.ReadAll(resp.Body)
	if string(served) != "fake-jpeg-bytes" {
		t.Errorf("served bytes = %q, want original upload", served)
	}
}

func TestExportExcel(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/export-excel")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status with no data = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()

	postJSON(t, ts.URL+"/sensor-data", `{"deviceId":"dev-1","accelMagnitude":2}`).Body.Close()

	resp, err = http.Get(ts.URL + "/export-excel")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q, want spreadsheet", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "road_monitoring_") {
		t.Errorf("Content-Disposition = %q, want road_monitoring_ filename", cd)
	}
	data, _ := io.ReadAll(resp.Body)
	if len(data) == 0 {
		t.Error("empty workbook body")
	}
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var health map[string]interface{}
	decodeBody(t, resp, &health)
	if health["status"] != "Server running" {
		t.Errorf("status = %v, want \"Server running\"", health["status"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/sensor-data")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /sensor-data status = %d, want 405", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/get-latest", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST /get-latest status = %d, want 405", resp.StatusCode)
	}
}
