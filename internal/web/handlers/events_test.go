package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/campus-attendance/internal/events"
)

// nextSSEEvent reads lines until a complete event and returns its type and data.
func nextSSEEvent(t *testing.T, scanner *bufio.Scanner) (string, string) {
	t.Helper()
	var eventType, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && eventType != "":
			return eventType, data
		}
	}
	t.Fatalf("stream ended before a complete event: %v", scanner.Err())
	return "", ""
}

func TestEventsHandler_StreamsPublishedEvents(t *testing.T) {
	hub := events.NewHub()
	server := httptest.NewServer(http.HandlerFunc(NewEventsHandler(hub).Stream))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, "GET", server.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected Content-Type text/event-stream, got %s", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	if typ, _ := nextSSEEvent(t, scanner); typ != "ready" {
		t.Fatalf("expected ready event, got %s", typ)
	}

	sent := events.Event{
		Type:      events.TypeAttendanceMarked,
		StudentID: "S001",
		Date:      "2024-03-05",
		Timestamp: fixedNow,
	}
	if err := hub.Publish(ctx, sent); err != nil {
		t.Fatalf("publish: %v", err)
	}

	typ, data := nextSSEEvent(t, scanner)
	if typ != events.TypeAttendanceMarked {
		t.Errorf("expected %s event, got %s", events.TypeAttendanceMarked, typ)
	}
	var got events.Event
	if err := json.Unmarshal([]byte(data), &got); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if got.StudentID != "S001" || got.Date != "2024-03-05" || !got.Timestamp.Equal(fixedNow) {
		t.Errorf("unexpected event: %+v", got)
	}
}

func TestEventsHandler_UnsubscribesOnDisconnect(t *testing.T) {
	hub := events.NewHub()
	server := httptest.NewServer(http.HandlerFunc(NewEventsHandler(hub).Stream))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, "GET", server.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	nextSSEEvent(t, bufio.NewScanner(resp.Body))
	if hub.Len() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.Len())
	}

	cancel()
	resp.Body.Close()

	deadline := time.Now().Add(5 * time.Second)
	for hub.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber was not removed after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
