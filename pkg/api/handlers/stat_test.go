package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// probe runs one GET /stat request and returns the decoded result payload.
func probe(t *testing.T, handler *StatHandler, url string) (int, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest("GET", url, nil)
	w := httptest.NewRecorder()

	handler.Probe(w, req)

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	data, _ := resp.Data.(map[string]interface{})
	return w.Code, data
}

func TestStatProbe_MissingPath_Returns400(t *testing.T) {
	handler := NewStatHandler(newTestMachine(t))
	req := httptest.NewRequest("GET", "/stat", nil)
	w := httptest.NewRecorder()

	handler.Probe(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestStatProbe_RegularFile(t *testing.T) {
	handler := NewStatHandler(newTestMachine(t))

	code, data := probe(t, handler, "/stat?path=/report.txt")

	if code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, code)
	}
	if data["syscall"] != "newfstatat" {
		t.Errorf("Expected syscall 'newfstatat', got '%s'", data["syscall"])
	}
	if data["ret"].(float64) != 0 {
		t.Fatalf("Expected ret 0, got %v", data["ret"])
	}

	st, ok := data["stat"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected stat record in response")
	}
	if st["mode"] != "0100644" {
		t.Errorf("Expected mode '0100644', got '%s'", st["mode"])
	}
	if st["size"].(float64) != 18 {
		t.Errorf("Expected size 18, got %v", st["size"])
	}
	if st["nlink"].(float64) != 1 {
		t.Errorf("Expected nlink 1, got %v", st["nlink"])
	}
}

func TestStatProbe_Directory(t *testing.T) {
	handler := NewStatHandler(newTestMachine(t))

	code, data := probe(t, handler, "/stat?path=/data")

	if code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, code)
	}

	st, ok := data["stat"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected stat record in response")
	}
	if st["mode"] != "040755" {
		t.Errorf("Expected mode '040755', got '%s'", st["mode"])
	}
}

func TestStatProbe_RelativePathResolvesFromRoot(t *testing.T) {
	handler := NewStatHandler(newTestMachine(t))

	code, data := probe(t, handler, "/stat?path=report.txt")

	if code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, code)
	}
	if data["ret"].(float64) != 0 {
		t.Errorf("Expected ret 0, got %v", data["ret"])
	}
}

func TestStatProbe_MissingFile_ReportsErrno(t *testing.T) {
	handler := NewStatHandler(newTestMachine(t))

	code, data := probe(t, handler, "/stat?path=/no/such/file")

	if code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, code)
	}
	if data["errno"] != "ENOENT" {
		t.Errorf("Expected errno 'ENOENT', got '%s'", data["errno"])
	}
	if data["ret"].(float64) != -2 {
		t.Errorf("Expected ret -2, got %v", data["ret"])
	}
	if _, ok := data["stat"]; ok {
		t.Error("Expected no stat record on a failed call")
	}
}

func TestStatProbe_Statx(t *testing.T) {
	handler := NewStatHandler(newTestMachine(t))

	code, data := probe(t, handler, "/stat?path=/report.txt&statx=1")

	if code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, code)
	}
	if data["syscall"] != "statx" {
		t.Errorf("Expected syscall 'statx', got '%s'", data["syscall"])
	}

	st, ok := data["statx"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected statx record in response")
	}
	if st["mode"] != "0100644" {
		t.Errorf("Expected mode '0100644', got '%s'", st["mode"])
	}
	if st["mask"].(float64) != 0 {
		t.Errorf("Expected mask 0, got %v", st["mask"])
	}
	if st["size"].(float64) != 18 {
		t.Errorf("Expected size 18, got %v", st["size"])
	}
}

func TestStatProbe_ReleasesProbeTask(t *testing.T) {
	machine := newTestMachine(t)
	handler := NewStatHandler(machine)

	code, _ := probe(t, handler, "/stat?path=/report.txt")
	if code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, code)
	}

	if got := len(machine.Tasks()); got != 0 {
		t.Errorf("Expected probe task to be released, %d tasks remain", got)
	}
}

func TestStatProbe_NoMachine_Returns500(t *testing.T) {
	handler := NewStatHandler(nil)
	req := httptest.NewRequest("GET", "/stat?path=/", nil)
	w := httptest.NewRecorder()

	handler.Probe(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}
