package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tourvia/models"
)

func TestRemoteCommitterSuccess(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		var body commitTransitionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "CANCELLED", body.BookingStatus)

		json.NewEncoder(w).Encode(models.Booking{BookingID: 1, Status: models.StatusCancelled})
	}))
	defer srv.Close()

	c := NewRemoteCommitter(srv.URL, "token-123")
	b, err := c.CommitTransition(context.Background(), 1, models.StatusCancelled, ActorCustomer, "")
	require.NoError(t, err)
	require.Equal(t, models.StatusCancelled, b.Status)
	require.Equal(t, "/api/bookings/1/status", gotPath)
	require.Equal(t, "Bearer token-123", gotAuth)
}

func TestRemoteCommitterMapsDomainErrors(t *testing.T) {
	cases := []struct {
		code   string
		status int
		check  func(t *testing.T, err error)
	}{
		{ErrCodeTransferNotFound, http.StatusNotFound, func(t *testing.T, err error) {
			require.ErrorIs(t, err, ErrReconciliationNotFound)
		}},
		{ErrCodeTransitionRejected, http.StatusConflict, func(t *testing.T, err error) {
			require.True(t, IsTransitionRejected(err))
		}},
		{ErrCodeValidation, http.StatusBadRequest, func(t *testing.T, err error) {
			require.True(t, IsValidation(err))
		}},
		{ErrCodeNotFound, http.StatusNotFound, func(t *testing.T, err error) {
			require.ErrorIs(t, err, ErrBookingNotFound)
		}},
		{"", http.StatusBadGateway, func(t *testing.T, err error) {
			require.True(t, IsTransient(err))
		}},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			json.NewEncoder(w).Encode(commitTransitionError{Code: tc.code, Message: "nope"})
		}))
		c := NewRemoteCommitter(srv.URL, "")
		_, err := c.CommitTransition(context.Background(), 1, models.StatusCancelled, ActorCustomer, "")
		tc.check(t, err)
		srv.Close()
	}
}

func TestRemoteCommitterDrivesPoller(t *testing.T) {
	// End to end over the wire: the poller retries while the server reports
	// the transfer missing and commits once it settles.
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(commitTransitionError{Code: ErrCodeTransferNotFound})
			return
		}
		json.NewEncoder(w).Encode(models.Booking{BookingID: 5, Status: models.StatusCancelled})
	}))
	defer srv.Close()

	p := NewPoller(5, ActorCustomer, NewRemoteCommitter(srv.URL, ""), instantClock{}, zap.NewNop())
	result := <-p.Start(context.Background())
	require.Equal(t, PollSucceeded, result.Outcome)
	require.Equal(t, 3, result.Attempts)
}
