package airline

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Domenick1991/airorders/internal/domain"
)

type APIErrorItem struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// APIError is a non-2xx answer from the airline API.
type APIError struct {
	StatusCode int
	Errors     []APIErrorItem
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("airline api: status %d", e.StatusCode)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		parts = append(parts, strings.TrimSpace(item.Code+" "+item.Message))
	}
	return fmt.Sprintf("airline api: status %d: %s", e.StatusCode, strings.Join(parts, "; "))
}

// hasCode reports whether any error item carries one of codes.
func (e *APIError) hasCode(codes map[string]bool) bool {
	for _, item := range e.Errors {
		if codes[strings.ToLower(strings.TrimSpace(item.Code))] {
			return true
		}
	}
	return false
}

func decodeAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var body struct {
		Errors []APIErrorItem `json:"errors"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Errors = body.Errors
	}
	if len(apiErr.Errors) == 0 && len(raw) > 0 {
		apiErr.Errors = []APIErrorItem{{Message: string(raw)}}
	}
	return apiErr
}

func codeSet(codes ...string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return set
}

var (
	offerExpiredCodes       = codeSet("offer_no_longer_available", "offer_expired", "order_change_offer_expired", "order_change_offer_no_longer_available")
	alreadyCancelledCodes   = codeSet("already_cancelled", "order_already_cancelled")
	serviceUnavailableCodes = codeSet("seat_unavailable", "seat_not_available", "service_unavailable", "service_not_available", "sold_out")
	paymentCodes            = codeSet("payment_required", "insufficient_balance")
)

// IsAlreadyCancelled reports whether the airline refused a cancellation because it already happened.
func IsAlreadyCancelled(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.hasCode(alreadyCancelledCodes)
}

// Classify maps any client error onto the closed error taxonomy.
func Classify(err error) *domain.Error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return domain.WrapError(domain.CodeUpstreamFailure, "airline api unreachable", err)
	}

	status := apiErr.StatusCode
	switch {
	case status >= http.StatusInternalServerError:
		return domain.WrapError(domain.CodeUpstreamFailure, "airline api failure", err)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.WrapError(domain.CodeUpstreamFailure, "airline api rejected our credentials", err)
	case status == http.StatusNotFound:
		return domain.WrapError(domain.CodeNotFound, "not found at airline", err)
	case status == http.StatusGone || apiErr.hasCode(offerExpiredCodes):
		return domain.WrapError(domain.CodeOfferExpired, "offer is no longer available", err)
	case apiErr.hasCode(serviceUnavailableCodes):
		return domain.WrapError(domain.CodeServiceUnavailable, "requested service is no longer available", err)
	case status == http.StatusPaymentRequired || apiErr.hasCode(paymentCodes):
		return domain.WrapError(domain.CodePaymentRequired, "payment required", err)
	case status == http.StatusConflict:
		return domain.WrapError(domain.CodeServiceUnavailable, "conflicting change at airline", err)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return domain.WrapError(domain.CodeValidation, "airline rejected the request", err)
	default:
		return domain.WrapError(domain.CodeUpstreamFailure, "airline api failure", err)
	}
}
