package payments

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stripe/stripe-go/v79"
)

func TestMapStripeError(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		invalid     bool
		unavailable bool
	}{
		{name: "invalid request", err: &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: http.StatusBadRequest, Msg: "Invalid email address"}, invalid: true},
		{name: "idempotency mismatch", err: &stripe.Error{Type: stripe.ErrorTypeIdempotency, HTTPStatusCode: http.StatusBadRequest}, invalid: true},
		{name: "bad api key", err: &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: http.StatusUnauthorized}, unavailable: true},
		{name: "api error", err: &stripe.Error{Type: stripe.ErrorTypeAPI, HTTPStatusCode: http.StatusInternalServerError}, unavailable: true},
		{name: "network", err: errors.New("connection reset by peer"), unavailable: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapStripeError("test", tc.err)
			if IsInvalidRequest(got) != tc.invalid || IsProviderUnavailable(got) != tc.unavailable {
				t.Fatalf("unexpected classification for %v: invalid=%v unavailable=%v", got, IsInvalidRequest(got), IsProviderUnavailable(got))
			}
		})
	}
}
