package tools

import (
	"encoding/json"
	"testing"

	"github.com/reminia/task-tracker/internal/linear"
)

func TestEnvelopeOmitsErrorFieldsOnSuccess(t *testing.T) {
	resp := CreateTaskResponse{
		Envelope: OK(),
		Task:     &linear.Issue{ID: "issue-1", Identifier: "ENG-1", Title: "Fix login bug", Status: linear.StatusTodo},
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal CreateTaskResponse: %v", err)
	}

	var jsonMap map[string]interface{}
	if err := json.Unmarshal(data, &jsonMap); err != nil {
		t.Fatalf("Failed to unmarshal JSON into map: %v", err)
	}

	if jsonMap["status"] != "success" {
		t.Errorf("Expected status='success', got %v", jsonMap["status"])
	}
	// Error fields must be omitted when empty
	if _, exists := jsonMap["error"]; exists {
		t.Error("Expected 'error' field to be omitted on success")
	}
	if _, exists := jsonMap["code"]; exists {
		t.Error("Expected 'code' field to be omitted on success")
	}

	task, ok := jsonMap["task"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected task object, got %v", jsonMap["task"])
	}
	if task["identifier"] != "ENG-1" || task["status"] != "todo" {
		t.Errorf("Unexpected task payload: %v", task)
	}
}

func TestEnvelopeErrorShape(t *testing.T) {
	resp := StartTrackingResponse{
		Envelope: Envelope{
			Status: "error",
			Code:   "CONFLICT",
			Error:  "an entry is already being tracked",
		},
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal StartTrackingResponse: %v", err)
	}

	var jsonMap map[string]interface{}
	if err := json.Unmarshal(data, &jsonMap); err != nil {
		t.Fatalf("Failed to unmarshal JSON into map: %v", err)
	}

	if jsonMap["status"] != "error" || jsonMap["code"] != "CONFLICT" {
		t.Errorf("Unexpected envelope: %v", jsonMap)
	}
	// The entry is omitted when the call failed
	if _, exists := jsonMap["entry"]; exists {
		t.Error("Expected 'entry' field to be omitted on error")
	}
}

func TestStopTrackingResponseKeepsStoppedField(t *testing.T) {
	resp := StopTrackingResponse{Envelope: OK(), Stopped: false}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal StopTrackingResponse: %v", err)
	}

	var jsonMap map[string]interface{}
	if err := json.Unmarshal(data, &jsonMap); err != nil {
		t.Fatalf("Failed to unmarshal JSON into map: %v", err)
	}

	// stopped is always present so a no-op stop is distinguishable
	if stopped, exists := jsonMap["stopped"]; !exists || stopped != false {
		t.Errorf("Expected stopped=false in payload, got %v", jsonMap)
	}
}
