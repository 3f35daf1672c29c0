package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tourvia/models"
)

// RemoteCommitter is the Committer used by out-of-process sessions: it calls
// the commit-transition endpoint over REST, mapping the server's error codes
// back onto the local taxonomy so the poller and gate behave identically
// whether they run in-process or against a remote deployment.
type RemoteCommitter struct {
	BaseURL   string
	AuthToken string
	Client    *http.Client
}

func NewRemoteCommitter(baseURL, authToken string) *RemoteCommitter {
	return &RemoteCommitter{
		BaseURL:   baseURL,
		AuthToken: authToken,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type commitTransitionRequest struct {
	BookingStatus string `json:"bookingStatus"`
	CancelReason  string `json:"cancelReason,omitempty"`
}

type commitTransitionError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *RemoteCommitter) CommitTransition(ctx context.Context, bookingID int64, target models.BookingStatus, actor Actor, reason string) (*models.Booking, error) {
	body, err := json.Marshal(commitTransitionRequest{
		BookingStatus: target.String(),
		CancelReason:  reason,
	})
	if err != nil {
		return nil, &TransientError{Err: err}
	}

	endpoint := fmt.Sprintf("%s/api/bookings/%d/status", c.BaseURL, bookingID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var booking models.Booking
		if err := json.NewDecoder(resp.Body).Decode(&booking); err != nil {
			return nil, &TransientError{Err: err}
		}
		return &booking, nil
	}

	var domainErr commitTransitionError
	_ = json.NewDecoder(resp.Body).Decode(&domainErr)
	switch domainErr.Code {
	case ErrCodeTransferNotFound:
		return nil, ErrReconciliationNotFound
	case ErrCodeTransitionRejected:
		return nil, &TransitionRejectedError{To: target}
	case ErrCodeValidation:
		return nil, NewValidationError("request", domainErr.Message)
	case ErrCodeNotFound:
		return nil, ErrBookingNotFound
	}
	return nil, &TransientError{Err: fmt.Errorf("commit endpoint returned status %d", resp.StatusCode)}
}
