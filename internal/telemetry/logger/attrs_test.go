package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/yndnr/aerosense-go/internal/core/domain"
)

func TestReplaceAttr_DomainErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantMsg  string
	}{
		{
			name:     "domain error",
			err:      domain.ErrSessionNotFound,
			wantCode: "AS-SESS-4040",
			wantMsg:  "[AS-SESS-4040] session not found",
		},
		{
			name:     "wrapped domain error",
			err:      fmt.Errorf("delete: %w", domain.ErrStorageUnavailable),
			wantCode: "AS-STOR-5030",
			wantMsg:  "delete: [AS-STOR-5030] storage unavailable",
		},
		{
			name:    "plain error",
			err:     errors.New("disk on fire"),
			wantMsg: "disk on fire",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(Config{Level: "info", Format: "json", Output: &buf})
			if err != nil {
				t.Fatal(err)
			}
			l.Error("operation failed", "error", tt.err)

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("Failed to parse JSON log: %v", err)
			}

			if tt.wantCode == "" {
				if entry["error"] != tt.wantMsg {
					t.Errorf("error = %v, want %q", entry["error"], tt.wantMsg)
				}
				return
			}
			group, ok := entry["error"].(map[string]any)
			if !ok {
				t.Fatalf("error attribute = %v, want a group", entry["error"])
			}
			if group["code"] != tt.wantCode {
				t.Errorf("error.code = %v, want %s", group["code"], tt.wantCode)
			}
			if group["msg"] != tt.wantMsg {
				t.Errorf("error.msg = %v, want %q", group["msg"], tt.wantMsg)
			}
		})
	}
}

func TestReplaceAttr_LeavesOtherValues(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	l.Info("probe", "missing", []int{1, 3}, "state", "READY")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["state"] != "READY" {
		t.Errorf("state = %v", entry["state"])
	}
	if list, ok := entry["missing"].([]any); !ok || len(list) != 2 {
		t.Errorf("missing = %v", entry["missing"])
	}
}
