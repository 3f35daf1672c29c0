package booking

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// TransferLedger answers whether a settled bank transfer matching a refund
// reference exists. It is the actual arbiter of reconciliation: the commit
// path asks it before honoring a PENDING_REFUND -> CANCELLED transition.
type TransferLedger interface {
	// FindSettledTransfer returns nil when a settled transfer carrying the
	// reference exists, ErrReconciliationNotFound when it does not yet, and a
	// TransientError on connectivity or server faults.
	FindSettledTransfer(ctx context.Context, reference string) error
}

// HTTPTransferLedger queries the banking service over REST.
type HTTPTransferLedger struct {
	BaseURL string
	Client  *http.Client
	Logger  *zap.Logger
}

func NewHTTPTransferLedger(baseURL string, logger *zap.Logger) *HTTPTransferLedger {
	return &HTTPTransferLedger{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
		Logger:  logger,
	}
}

func (l *HTTPTransferLedger) FindSettledTransfer(ctx context.Context, reference string) error {
	endpoint := fmt.Sprintf("%s/api/v1/transfers/settled?reference=%s", l.BaseURL, url.QueryEscape(reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &TransientError{Err: err}
	}

	resp, err := l.Client.Do(req)
	if err != nil {
		return &TransientError{Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		// The steady state until the customer's transfer settles.
		return ErrReconciliationNotFound
	default:
		l.Logger.Warn("bank ledger returned unexpected status",
			zap.Int("status", resp.StatusCode), zap.String("reference", reference))
		return &TransientError{Err: fmt.Errorf("bank ledger returned status %d", resp.StatusCode)}
	}
}
