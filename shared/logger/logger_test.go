// Copyright 2025 CostPilot
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
	"time"
)

func captureEntry(t *testing.T, emit func(l *Logger)) LogEntry {
	t.Helper()

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	emit(New("test-component"))

	output := buf.String()
	jsonStart := strings.Index(output, "{")
	if jsonStart == -1 {
		t.Fatalf("no JSON found in log output: %q", output)
	}

	var entry LogEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(output[jsonStart:])), &entry); err != nil {
		t.Fatalf("failed to parse log entry: %v\noutput: %s", err, output)
	}
	return entry
}

func TestNew(t *testing.T) {
	t.Setenv("INSTANCE_ID", "instance-123")

	l := New("report")
	if l.Component != "report" {
		t.Errorf("expected component report, got %s", l.Component)
	}
	if l.InstanceID != "instance-123" {
		t.Errorf("expected instance-123, got %s", l.InstanceID)
	}
	if l.Container == "" {
		t.Error("expected container to be set from hostname")
	}
}

func TestNewDefaultsInstanceID(t *testing.T) {
	t.Setenv("INSTANCE_ID", "")

	if l := New("report"); l.InstanceID != "unknown" {
		t.Errorf("expected unknown, got %s", l.InstanceID)
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name    string
		logFunc func(*Logger, string, string, string, map[string]interface{})
		level   LogLevel
	}{
		{"info", (*Logger).Info, INFO},
		{"warn", (*Logger).Warn, WARN},
		{"error", (*Logger).Error, ERROR},
		{"debug", (*Logger).Debug, DEBUG},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := captureEntry(t, func(l *Logger) {
				tt.logFunc(l, "111122223333", "req-456", "message under test", map[string]interface{}{"key": "value"})
			})

			if entry.Level != tt.level {
				t.Errorf("expected level %s, got %s", tt.level, entry.Level)
			}
			if entry.AccountID != "111122223333" {
				t.Errorf("expected account id 111122223333, got %s", entry.AccountID)
			}
			if entry.RequestID != "req-456" {
				t.Errorf("expected request id req-456, got %s", entry.RequestID)
			}
			if entry.Message != "message under test" {
				t.Errorf("unexpected message %q", entry.Message)
			}
			if entry.Fields["key"] != "value" {
				t.Errorf("expected field key=value, got %v", entry.Fields["key"])
			}
			if _, err := time.Parse(time.RFC3339Nano, entry.Timestamp); err != nil {
				t.Errorf("invalid timestamp %q: %v", entry.Timestamp, err)
			}
		})
	}
}

func TestInfoWithDuration(t *testing.T) {
	entry := captureEntry(t, func(l *Logger) {
		l.InfoWithDuration("111122223333", "req-456", "request completed", 123.45, map[string]interface{}{
			"endpoint": "/cost-optimization",
		})
	})

	if entry.Fields["duration_ms"] != 123.45 {
		t.Errorf("expected duration_ms 123.45, got %v", entry.Fields["duration_ms"])
	}
	if entry.Fields["endpoint"] != "/cost-optimization" {
		t.Errorf("expected endpoint to be preserved, got %v", entry.Fields["endpoint"])
	}
	if entry.Level != INFO {
		t.Errorf("expected INFO, got %s", entry.Level)
	}
}

func TestErrorWithCode(t *testing.T) {
	entry := captureEntry(t, func(l *Logger) {
		l.ErrorWithCode("111122223333", "req-456", "request failed", 500,
			errors.New("database connection failed"), nil)
	})

	status, ok := entry.Fields["status_code"].(float64)
	if !ok || int(status) != 500 {
		t.Errorf("expected status_code 500, got %v", entry.Fields["status_code"])
	}
	if entry.Fields["error"] != "database connection failed" {
		t.Errorf("unexpected error field %v", entry.Fields["error"])
	}
	if entry.Level != ERROR {
		t.Errorf("expected ERROR, got %s", entry.Level)
	}
}

func TestJSONMarshalError(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	// Channels cannot be marshaled to JSON.
	New("test-component").Info("", "", "bad payload", map[string]interface{}{
		"channel": make(chan int),
	})

	if !strings.Contains(buf.String(), "Failed to marshal log entry") {
		t.Error("expected a marshal failure message")
	}
}
