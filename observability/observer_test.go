package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/garygangwu/tax-copilot/observability"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		name  string
		level observability.Level
		want  string
	}{
		{name: "trace range", level: 1, want: "TRACE"},
		{name: "verbose maps to DEBUG", level: observability.LevelVerbose, want: "DEBUG"},
		{name: "info maps to INFO", level: observability.LevelInfo, want: "INFO"},
		{name: "warning maps to WARN", level: observability.LevelWarning, want: "WARN"},
		{name: "error maps to ERROR", level: observability.LevelError, want: "ERROR"},
		{name: "fatal range", level: 21, want: "FATAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
			}
		})
	}
}

func TestLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level observability.Level
		want  slog.Level
	}{
		{name: "verbose maps to Debug", level: observability.LevelVerbose, want: slog.LevelDebug},
		{name: "info maps to Info", level: observability.LevelInfo, want: slog.LevelInfo},
		{name: "warning maps to Warn", level: observability.LevelWarning, want: slog.LevelWarn},
		{name: "error maps to Error", level: observability.LevelError, want: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.SlogLevel(); got != tt.want {
				t.Errorf("Level(%d).SlogLevel() = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestLevel_OTelAlignment(t *testing.T) {
	if observability.LevelVerbose != 5 {
		t.Errorf("LevelVerbose = %d, want 5 (OTel DEBUG range)", observability.LevelVerbose)
	}
	if observability.LevelInfo != 9 {
		t.Errorf("LevelInfo = %d, want 9 (OTel INFO range)", observability.LevelInfo)
	}
	if observability.LevelWarning != 13 {
		t.Errorf("LevelWarning = %d, want 13 (OTel WARN range)", observability.LevelWarning)
	}
	if observability.LevelError != 17 {
		t.Errorf("LevelError = %d, want 17 (OTel ERROR range)", observability.LevelError)
	}
}

func TestDiscard(t *testing.T) {
	observability.Discard.OnEvent(context.Background(), observability.Event{
		Type:      "test.event",
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "test",
		Data:      map[string]any{"key": "value"},
	})
}

func TestTee(t *testing.T) {
	obs1 := &observability.Recorder{}
	obs2 := &observability.Recorder{}

	tee := observability.Tee(obs1, nil, obs2)
	tee.OnEvent(context.Background(), observability.Event{Type: "test.event", Level: observability.LevelInfo})

	if len(obs1.Events()) != 1 || len(obs2.Events()) != 1 {
		t.Errorf("received %d and %d events, want 1 each", len(obs1.Events()), len(obs2.Events()))
	}

	if observability.Tee(nil, nil) != nil {
		t.Error("Tee() of only nil observers should be nil")
	}
	if got := observability.Tee(nil, obs1); got != observability.Observer(obs1) {
		t.Errorf("Tee() of one observer = %T, want the observer itself", got)
	}
}

func TestAtLeast(t *testing.T) {
	rec := &observability.Recorder{}
	obs := observability.AtLeast(observability.LevelWarning, rec)

	for _, level := range []observability.Level{
		observability.LevelVerbose,
		observability.LevelInfo,
		observability.LevelWarning,
		observability.LevelError,
	} {
		observability.Emit(context.Background(), obs, "test.event", level, "test", nil)
	}

	if n := len(rec.Events()); n != 2 {
		t.Errorf("forwarded %d events, want 2", n)
	}
	if observability.AtLeast(observability.LevelInfo, nil) != nil {
		t.Error("AtLeast(nil) should be nil")
	}
}

func TestCounter(t *testing.T) {
	var c observability.Counter
	ctx := context.Background()

	observability.Emit(ctx, &c, "interview.turn", observability.LevelInfo, "test", nil)
	observability.Emit(ctx, &c, "interview.turn", observability.LevelInfo, "test", nil)
	observability.Emit(ctx, &c, "interview.fallback", observability.LevelError, "test", nil)

	if c.Count("interview.turn") != 2 || c.Count("missing") != 0 {
		t.Errorf("Count() = %d, %d", c.Count("interview.turn"), c.Count("missing"))
	}

	s := c.Snapshot()
	if s.Total != 3 || s.Types["interview.fallback"] != 1 || s.Levels["INFO"] != 2 || s.Levels["ERROR"] != 1 {
		t.Errorf("Snapshot() = %+v", s)
	}

	observability.Emit(ctx, &c, "interview.turn", observability.LevelInfo, "test", nil)
	if s.Types["interview.turn"] != 2 {
		t.Error("Snapshot() should not change after later events")
	}
}

func TestSlogObserver_LevelMapping(t *testing.T) {
	tests := []struct {
		name      string
		level     observability.Level
		minLevel  slog.Level
		expectLog bool
	}{
		{name: "verbose at debug handler", level: observability.LevelVerbose, minLevel: slog.LevelDebug, expectLog: true},
		{name: "verbose at info handler", level: observability.LevelVerbose, minLevel: slog.LevelInfo, expectLog: false},
		{name: "info at info handler", level: observability.LevelInfo, minLevel: slog.LevelInfo, expectLog: true},
		{name: "info at warn handler", level: observability.LevelInfo, minLevel: slog.LevelWarn, expectLog: false},
		{name: "warning at warn handler", level: observability.LevelWarning, minLevel: slog.LevelWarn, expectLog: true},
		{name: "error at error handler", level: observability.LevelError, minLevel: slog.LevelError, expectLog: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
				Level: tt.minLevel,
			}))

			obs := observability.NewSlogObserver(logger)
			obs.OnEvent(context.Background(), observability.Event{
				Type:      "test.event",
				Level:     tt.level,
				Timestamp: time.Now(),
				Source:    "test",
			})

			hasOutput := buf.Len() > 0
			if hasOutput != tt.expectLog {
				t.Errorf("log output = %v, want %v (buf: %q)", hasOutput, tt.expectLog, buf.String())
			}
		})
	}
}

func TestSlogObserver_EventTypeAsMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	obs := observability.NewSlogObserver(logger)
	obs.OnEvent(context.Background(), observability.Event{
		Type:      "interview.turn.start",
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "interview.ProcessUserInput",
		Data: map[string]any{
			"session_id": "sess_20240101_000000_abc",
			"state":      "COLLECTING_INCOME",
		},
	})

	output := buf.String()
	if !strings.Contains(output, "interview.turn.start") {
		t.Errorf("expected event type as log message, got: %s", output)
	}
	if !strings.Contains(output, "source=interview.ProcessUserInput") {
		t.Errorf("expected source attribute, got: %s", output)
	}
	if !strings.Contains(output, "state=COLLECTING_INCOME") {
		t.Errorf("expected data attributes, got: %s", output)
	}
	if strings.Index(output, "session_id=") > strings.Index(output, "state=") {
		t.Errorf("expected data attributes in key order, got: %s", output)
	}
}

func TestRegistry_New(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "noop exists", key: "noop"},
		{name: "slog exists", key: "slog"},
		{name: "warnings exists", key: "warnings"},
		{name: "unknown fails", key: "nonexistent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := observability.New(tt.key, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if !tt.wantErr && obs == nil {
				t.Errorf("New(%q) returned nil observer", tt.key)
			}
		})
	}
}

func TestRegistry_WarningsFiltersInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	obs, err := observability.New("warnings", logger)
	if err != nil {
		t.Fatal(err)
	}
	observability.Emit(context.Background(), obs, "interview.turn", observability.LevelInfo, "test", nil)
	observability.Emit(context.Background(), obs, "interview.fallback", observability.LevelWarning, "test", nil)

	out := buf.String()
	if strings.Contains(out, "interview.turn") || !strings.Contains(out, "interview.fallback") {
		t.Errorf("output = %q", out)
	}
}

func TestRegistry_Register(t *testing.T) {
	custom := &observability.Recorder{}
	observability.Register("test-custom", func(*slog.Logger) observability.Observer { return custom })

	obs, err := observability.New("test-custom", nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	obs.OnEvent(context.Background(), observability.Event{Type: "test.event", Level: observability.LevelInfo})

	if n := len(custom.Events()); n != 1 {
		t.Errorf("received %d events, want 1", n)
	}
	if !slices.Contains(observability.Names(), "test-custom") {
		t.Errorf("Names() = %v", observability.Names())
	}
}

func TestEmit(t *testing.T) {
	rec := &observability.Recorder{}
	before := time.Now()

	observability.Emit(context.Background(), rec, "session.save", observability.LevelVerbose, "session.Store.Save", map[string]any{"id": "x"})

	events := rec.Events()
	if len(events) != 1 {
		t.Fatalf("recorded %d events, want 1", len(events))
	}
	e := events[0]
	if e.Type != "session.save" || e.Source != "session.Store.Save" || e.Level != observability.LevelVerbose {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.Timestamp.Before(before) {
		t.Errorf("Timestamp = %v, want >= %v", e.Timestamp, before)
	}
	if !rec.Has("session.save") || rec.Has("session.load") {
		t.Errorf("Has() mismatch: %v", rec.Types())
	}
}

func TestEmit_NilObserver(t *testing.T) {
	observability.Emit(context.Background(), nil, "x", observability.LevelInfo, "test", nil)
}
