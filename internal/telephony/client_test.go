package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kiranshivaraju/recruitflow/internal/config"
)

// --- helpers ---

func newTestDialer(t *testing.T, baseURL string) *HTTPDialer {
	t.Helper()
	return NewHTTPDialer(config.TelephonyConfig{
		BaseURL:       baseURL,
		InstanceID:    "instance-1",
		ContactFlowID: "flow-1",
		APIToken:      "secret-token",
		Timeout:       5 * time.Second,
	})
}

// --- StartCall tests ---

func TestStartCall_ValidResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/contact/outbound-voice" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPut {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("unexpected authorization header: %q", got)
		}

		var req outboundRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.InstanceID != "instance-1" || req.ContactFlowID != "flow-1" {
			t.Errorf("unexpected routing: %+v", req)
		}
		if req.DestinationPhoneNumber != "+15550100" {
			t.Errorf("unexpected phone: %s", req.DestinationPhoneNumber)
		}
		if req.Attributes["interviewScript"] != "Hello!" {
			t.Errorf("script not passed as attribute: %v", req.Attributes)
		}
		if req.Attributes["candidateId"] != "cand-7" {
			t.Errorf("candidate id not passed as attribute: %v", req.Attributes)
		}

		_ = json.NewEncoder(w).Encode(outboundResponse{ContactID: "contact-123"})
	}))
	defer ts.Close()

	d := newTestDialer(t, ts.URL)
	contactID, err := d.StartCall(context.Background(), Call{PhoneNumber: "+15550100", Script: "Hello!", CandidateID: "cand-7"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contactID != "contact-123" {
		t.Errorf("expected contact-123, got %s", contactID)
	}
}

func TestStartCall_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := newTestDialer(t, ts.URL).StartCall(context.Background(), Call{PhoneNumber: "+1"})
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got %v", err)
	}
}

func TestStartCall_Rejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("DestinationPhoneNumber is not valid"))
	}))
	defer ts.Close()

	_, err := newTestDialer(t, ts.URL).StartCall(context.Background(), Call{PhoneNumber: "nope"})
	if !errors.Is(err, ErrCallRejected) {
		t.Fatalf("expected ErrCallRejected, got %v", err)
	}
	if !strings.Contains(err.Error(), "not valid") {
		t.Errorf("expected body in error, got %v", err)
	}
}

func TestStartCall_EmptyContactID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	_, err := newTestDialer(t, ts.URL).StartCall(context.Background(), Call{PhoneNumber: "+1"})
	if !errors.Is(err, ErrCallRejected) {
		t.Errorf("expected ErrCallRejected, got %v", err)
	}
}

func TestStartCall_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestDialer(t, ts.URL).StartCall(ctx, Call{PhoneNumber: "+1"})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestStartCall_Unreachable(t *testing.T) {
	_, err := newTestDialer(t, "http://127.0.0.1:1").StartCall(context.Background(), Call{PhoneNumber: "+1"})
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got %v", err)
	}
}

// --- Results tests ---

func TestResultsOutcome(t *testing.T) {
	no := false
	tests := []struct {
		name       string
		results    Results
		wantPassed bool
		wantNotes  string
	}{
		{"completed defaults to pass", Results{CallStatus: "COMPLETED"}, true, "Candidate performed well in the phone interview."},
		{"completed explicit fail", Results{CallStatus: "COMPLETED", Passed: &no, Notes: "Could not explain goroutines"}, false, "Could not explain goroutines"},
		{"no answer", Results{CallStatus: "NO_ANSWER"}, false, "call ended with status NO_ANSWER"},
		{"duration appended", Results{CallStatus: "completed", CallDuration: 300, Notes: "Good"}, true, "Good (duration 5m0s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passed, notes := tt.results.Outcome()
			if passed != tt.wantPassed {
				t.Errorf("passed = %v, want %v", passed, tt.wantPassed)
			}
			if notes != tt.wantNotes {
				t.Errorf("notes = %q, want %q", notes, tt.wantNotes)
			}
		})
	}
}
