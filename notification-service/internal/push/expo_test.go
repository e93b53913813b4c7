package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendPostsBatch(t *testing.T) {
	var got []Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing access token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"data":[{"status":"ok","id":"t1"},{"status":"error","message":"not registered","details":{"error":"DeviceNotRegistered"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	tickets, err := c.Send(context.Background(), []Message{
		{To: "ExponentPushToken[a]", Body: "hi"},
		{To: "ExponentPushToken[b]", Body: "hi"},
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if len(got) != 2 || got[0].To != "ExponentPushToken[a]" {
		t.Fatalf("unexpected request body %+v", got)
	}
	if !tickets[0].OK() || tickets[1].OK() || tickets[1].Details.Error != "DeviceNotRegistered" {
		t.Fatalf("unexpected tickets %+v", tickets)
	}
}

func TestSendErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if _, err := c.Send(context.Background(), []Message{{To: "x", Body: "y"}}); err == nil {
		t.Fatal("expected error for non-200 status")
	}
	if _, err := c.Send(context.Background(), make([]Message, MaxBatch+1)); err == nil {
		t.Fatal("expected error for oversized batch")
	}
	if tickets, err := c.Send(context.Background(), nil); err != nil || tickets != nil {
		t.Fatalf("expected no-op for empty batch, got %v %v", tickets, err)
	}
}
