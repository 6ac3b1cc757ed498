package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kiranshivaraju/recruitflow/internal/config"
)

// Sentinel errors for dialer failures.
var (
	ErrUnreachable  = errors.New("telephony service unreachable")
	ErrTimeout      = errors.New("telephony request timeout")
	ErrCallRejected = errors.New("telephony service rejected call")
)

// Call describes one outbound interview call. CandidateID travels with the
// contact as an attribute so the completion callback can be correlated.
type Call struct {
	PhoneNumber string
	Script      string
	CandidateID string
}

// Dialer places outbound calls. Completion is reported later through a
// callback, never through the return value.
type Dialer interface {
	StartCall(ctx context.Context, call Call) (string, error)
}

// HTTPDialer implements Dialer against a contact-center outbound voice API.
type HTTPDialer struct {
	baseURL       string
	instanceID    string
	contactFlowID string
	token         string
	client        *http.Client
}

// NewHTTPDialer creates a dialer from telephony config.
func NewHTTPDialer(cfg config.TelephonyConfig) *HTTPDialer {
	return &HTTPDialer{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		instanceID:    cfg.InstanceID,
		contactFlowID: cfg.ContactFlowID,
		token:         cfg.APIToken,
		client:        &http.Client{Timeout: cfg.Timeout},
	}
}

var _ Dialer = (*HTTPDialer)(nil)

type outboundRequest struct {
	InstanceID             string            `json:"InstanceId"`
	ContactFlowID          string            `json:"ContactFlowId"`
	DestinationPhoneNumber string            `json:"DestinationPhoneNumber"`
	Attributes             map[string]string `json:"Attributes"`
}

type outboundResponse struct {
	ContactID string `json:"ContactId"`
}

// StartCall asks the contact center to dial the candidate and returns the
// contact id assigned to the call.
func (d *HTTPDialer) StartCall(ctx context.Context, call Call) (string, error) {
	body, err := json.Marshal(outboundRequest{
		InstanceID:             d.instanceID,
		ContactFlowID:          d.contactFlowID,
		DestinationPhoneNumber: call.PhoneNumber,
		Attributes: map[string]string{
			"interviewScript": call.Script,
			"candidateId":     call.CandidateID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encoding outbound request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, d.baseURL+"/contact/outbound-voice", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	d.setHeaders(httpReq)

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return "", classifyError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return "", fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrCallRejected, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out outboundResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding outbound response: %w", err)
	}
	if out.ContactID == "" {
		return "", fmt.Errorf("%w: empty contact id", ErrCallRejected)
	}
	return out.ContactID, nil
}

func (d *HTTPDialer) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

// Results is what the contact flow reports when a call ends.
type Results struct {
	ContactID    string `json:"contactId"`
	CallStatus   string `json:"callStatus"`
	CallDuration int    `json:"callDuration"`
	RecordingURL string `json:"callRecordingUrl,omitempty"`
	Passed       *bool  `json:"passed,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// CallStatusCompleted is reported when the candidate answered and the flow ran to the end.
const CallStatusCompleted = "COMPLETED"

// Outcome reduces results to pass/fail. A call that did not complete is a
// fail; a completed call without an explicit verdict passes.
func (r Results) Outcome() (bool, string) {
	if !strings.EqualFold(r.CallStatus, CallStatusCompleted) {
		notes := r.Notes
		if notes == "" {
			notes = fmt.Sprintf("call ended with status %s", r.CallStatus)
		}
		return false, notes
	}
	passed := true
	if r.Passed != nil {
		passed = *r.Passed
	}
	notes := r.Notes
	if notes == "" && passed {
		notes = "Candidate performed well in the phone interview."
	}
	if r.CallDuration > 0 {
		notes = fmt.Sprintf("%s (duration %s)", notes, time.Duration(r.CallDuration)*time.Second)
	}
	return passed, strings.TrimSpace(notes)
}
