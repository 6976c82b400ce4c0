package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"agritrace/internal/domain"
	"agritrace/pkg/platform/sentinel"
)

// HTTPGateway talks to an external ledger service over its fixed wire
// contract. Connection problems map to sentinel.ErrUnavailable so callers
// can tell "ledger down" from "no record".
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type attestResponse struct {
	OK            bool   `json:"ok"`
	AttestationID string `json:"attestation_id"`
	BlockRef      string `json:"block_ref"`
	Timestamp     string `json:"timestamp"`
	Error         string `json:"error"`
}

func (g *HTTPGateway) Attest(ctx context.Context, summary Summary) (Receipt, error) {
	body, err := json.Marshal(summary)
	if err != nil {
		return Receipt{}, fmt.Errorf("encode attest request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/attest", bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("build attest request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("ledger attest: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return Receipt{}, fmt.Errorf("ledger attest: status %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	var decoded attestResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Receipt{}, fmt.Errorf("decode attest response: %w", err)
	}
	if !decoded.OK {
		return Receipt{}, fmt.Errorf("ledger rejected attestation: %s", decoded.Error)
	}
	return Receipt{
		AttestationID: decoded.AttestationID,
		BlockRef:      decoded.BlockRef,
		Timestamp:     parseLedgerTime(decoded.Timestamp),
	}, nil
}

type lookupResponse struct {
	Found         bool   `json:"found"`
	AttestationID string `json:"attestation_id"`
	BlockRef      string `json:"block_ref"`
	Timestamp     string `json:"timestamp"`
	History       []struct {
		Step      string `json:"step"`
		Location  string `json:"location"`
		Timestamp string `json:"timestamp"`
	} `json:"history"`
}

func (g *HTTPGateway) Lookup(ctx context.Context, identifier string) (*domain.Attestation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.baseURL+"/lookup/"+url.PathEscape(identifier), nil)
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ledger lookup: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, sentinel.ErrNotFound
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("ledger lookup: status %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	var decoded lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}
	if !decoded.Found {
		return nil, sentinel.ErrNotFound
	}

	att := &domain.Attestation{
		ID:        decoded.AttestationID,
		BlockRef:  decoded.BlockRef,
		Timestamp: parseLedgerTime(decoded.Timestamp),
	}
	for _, step := range decoded.History {
		att.History = append(att.History, domain.HistoryStep{
			Step:      step.Step,
			Location:  step.Location,
			Timestamp: parseLedgerTime(step.Timestamp),
		})
	}
	return att, nil
}

// parseLedgerTime tolerates missing or malformed timestamps; a zero time
// sorts those steps last in the merged journey rather than failing the call.
func parseLedgerTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
