package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMountsList_ReturnsTable(t *testing.T) {
	handler := NewMountsHandler(newTestMachine(t))
	req := httptest.NewRequest("GET", "/mounts", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", resp.Status)
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected Data to be a map, got %T", resp.Data)
	}

	mounts, ok := data["mounts"].([]interface{})
	if !ok {
		t.Fatalf("Expected mounts to be an array")
	}
	if len(mounts) != 1 {
		t.Fatalf("Expected 1 mount, got %d", len(mounts))
	}

	entry := mounts[0].(map[string]interface{})
	if entry["point"] != "/" {
		t.Errorf("Expected point '/', got '%s'", entry["point"])
	}
	if entry["backend"] != "mem" {
		t.Errorf("Expected backend 'mem', got '%s'", entry["backend"])
	}
}

func TestMountsList_NoMachine_Returns500(t *testing.T) {
	handler := NewMountsHandler(nil)
	req := httptest.NewRequest("GET", "/mounts", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}
