package logging

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)
	logger.SetLevel(LevelInfo)

	// Debug should be filtered
	logger.Debug("debug message")
	if buf.Len() > 0 {
		t.Error("debug message should be filtered at INFO level")
	}

	// Info should pass
	logger.Info("info message")
	if buf.Len() == 0 {
		t.Error("info message should be logged")
	}

	output := buf.String()
	if !strings.Contains(output, "INFO") {
		t.Error("log should contain INFO level")
	}
	if !strings.Contains(output, "info message") {
		t.Error("log should contain the message")
	}
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New().WithComponent("orchestrator")
	logger.SetOutput(&buf)

	logger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, "[orchestrator]") {
		t.Errorf("expected component 'orchestrator' in log, got: %s", output)
	}
}

func TestLogger_WithRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New().WithRequestID("req-123")
	logger.SetOutput(&buf)

	logger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, "request=req-123") {
		t.Errorf("expected request ID in log, got: %s", output)
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.Info("commit", map[string]interface{}{"version": 4})

	output := buf.String()
	if !strings.Contains(output, "version=4") {
		t.Errorf("expected field in log, got: %s", output)
	}
}

func TestLogger_RouteDone(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.RouteDone("doc-1", "editor", 50*time.Millisecond, nil)
	if !strings.Contains(buf.String(), "route_done") {
		t.Errorf("expected route_done, got: %s", buf.String())
	}

	buf.Reset()
	logger.RouteDone("doc-1", "editor", time.Millisecond, fmt.Errorf("boom"))
	output := buf.String()
	if !strings.Contains(output, "route_failed") || !strings.Contains(output, "error=boom") {
		t.Errorf("expected route_failed with error, got: %s", output)
	}
}

func TestLogger_ApplyCommitted(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.ApplyCommitted("doc-1", 4, 2, time.Millisecond)

	output := buf.String()
	if !strings.Contains(output, "apply_committed") || !strings.Contains(output, "version=4") {
		t.Errorf("unexpected output: %s", output)
	}
}
