// Package payment normalizes failures from the payment gateway into a closed
// taxonomy that the rest of the checkout flow can dispatch on.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
)

// ErrorKind is the closed set of failure categories.
type ErrorKind string

const (
	KindCard           ErrorKind = "card_error"
	KindValidation     ErrorKind = "validation_error"
	KindAPI            ErrorKind = "api_error"
	KindNetwork        ErrorKind = "network_error"
	KindRateLimit      ErrorKind = "rate_limit_error"
	KindAuthentication ErrorKind = "authentication_error"
	KindInvalidRequest ErrorKind = "invalid_request_error"
	KindUnknown        ErrorKind = "unknown_error"
)

// ErrorRecord is a classified failure. UserMessage is always populated and is
// the only field safe to show to a shopper; Message keeps the original
// technical detail for diagnostics.
type ErrorRecord struct {
	Kind        ErrorKind `json:"kind"`
	Code        string    `json:"code,omitempty"`
	Message     string    `json:"message"`
	UserMessage string    `json:"user_message"`
	DeclineCode string    `json:"decline_code,omitempty"`
	Field       string    `json:"field,omitempty"`
	Suggestion  string    `json:"suggestion,omitempty"`
}

// Error implements the error interface with the technical message.
func (r ErrorRecord) Error() string {
	if r.Code != "" {
		return fmt.Sprintf("%s (%s): %s", r.Kind, r.Code, r.Message)
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

// Retryable reports whether blindly re-invoking the failed operation is
// expected to plausibly succeed. The allow-list covers correctable input
// errors, network faults, timeouts, and transient gateway conditions.
func (r ErrorRecord) Retryable() bool {
	switch r.Kind {
	case KindNetwork, KindRateLimit:
		return true
	}
	switch r.Code {
	case CodeIncorrectCVC, CodeIncorrectNumber, CodeProcessingError, CodeTimeout:
		return true
	}
	return false
}

// RequiresNewPaymentMethod reports whether the failure can only be resolved
// with a different payment instrument. Never true for a Retryable record.
func (r ErrorRecord) RequiresNewPaymentMethod() bool {
	switch r.Code {
	case CodeCardDeclined, CodeExpiredCard, CodeInsufficientFunds, CodeLostCard, CodeStolenCard:
		return true
	}
	return false
}

// GatewayError is the structured error shape returned by the payment
// gateway's API.
type GatewayError struct {
	Type        string `json:"type"`
	Code        string `json:"code"`
	Message     string `json:"message"`
	DeclineCode string `json:"decline_code,omitempty"`
	Param       string `json:"param,omitempty"`
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s/%s: %s", e.Type, e.Code, e.Message)
}

// Fine-grained gateway error codes.
const (
	CodeCardDeclined      = "card_declined"
	CodeExpiredCard       = "expired_card"
	CodeIncorrectCVC      = "incorrect_cvc"
	CodeIncorrectNumber   = "incorrect_number"
	CodeInsufficientFunds = "insufficient_funds"
	CodeLostCard          = "lost_card"
	CodeStolenCard        = "stolen_card"
	CodeProcessingError   = "processing_error"
	CodeRateLimit         = "rate_limit"
	CodeTimeout           = "timeout"
)

const (
	genericUserMessage = "Something went wrong while processing your payment. Please try again."
	networkUserMessage = "We could not reach the payment service. Check your connection and try again."
	timeoutUserMessage = "The payment service took too long to respond. Please try again."
)

type codeDetail struct {
	userMessage string
	suggestion  string
}

// codeDetails maps gateway codes to shopper-facing text. Lost and stolen
// cards deliberately reuse the generic decline wording.
var codeDetails = map[string]codeDetail{
	CodeCardDeclined: {
		userMessage: "Your card was declined.",
		suggestion:  "Try a different payment method or contact your bank.",
	},
	CodeExpiredCard: {
		userMessage: "Your card has expired.",
		suggestion:  "Use a card with a valid expiration date.",
	},
	CodeIncorrectCVC: {
		userMessage: "The security code you entered is incorrect.",
		suggestion:  "Check the 3-digit code on the back of your card.",
	},
	CodeIncorrectNumber: {
		userMessage: "The card number you entered is incorrect.",
		suggestion:  "Check the card number and try again.",
	},
	CodeInsufficientFunds: {
		userMessage: "Your card has insufficient funds.",
		suggestion:  "Try a different payment method.",
	},
	CodeLostCard: {
		userMessage: "Your card was declined.",
		suggestion:  "Try a different payment method or contact your bank.",
	},
	CodeStolenCard: {
		userMessage: "Your card was declined.",
		suggestion:  "Try a different payment method or contact your bank.",
	},
	CodeProcessingError: {
		userMessage: "An error occurred while processing your card. Please try again.",
	},
	CodeRateLimit: {
		userMessage: "Too many payment attempts. Please wait a moment and try again.",
	},
	CodeTimeout: {
		userMessage: timeoutUserMessage,
	},
}

var gatewayKinds = map[string]ErrorKind{
	"card_error":            KindCard,
	"validation_error":      KindValidation,
	"api_error":             KindAPI,
	"rate_limit_error":      KindRateLimit,
	"authentication_error":  KindAuthentication,
	"invalid_request_error": KindInvalidRequest,
}

// Classify turns any failure into an ErrorRecord. It never returns an empty
// UserMessage: unmapped codes keep their kind and code for diagnostics but
// fall back to the generic wording. Full card numbers never reach this layer,
// so logging the record is safe.
func Classify(err error) ErrorRecord {
	record := classify(err)

	slog.Debug("classified payment error",
		"kind", record.Kind,
		"code", record.Code,
		"message", record.Message,
	)

	return record
}

func classify(err error) ErrorRecord {
	if err == nil {
		return ErrorRecord{
			Kind:        KindUnknown,
			Message:     "no error provided",
			UserMessage: genericUserMessage,
		}
	}

	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return classifyGateway(gwErr)
	}

	if isTimeout(err) {
		return ErrorRecord{
			Kind:        KindAPI,
			Code:        CodeTimeout,
			Message:     err.Error(),
			UserMessage: timeoutUserMessage,
		}
	}

	if isNetworkFault(err) {
		return ErrorRecord{
			Kind:        KindNetwork,
			Message:     err.Error(),
			UserMessage: networkUserMessage,
		}
	}

	return ErrorRecord{
		Kind:        KindUnknown,
		Message:     err.Error(),
		UserMessage: genericUserMessage,
	}
}

func classifyGateway(gwErr *GatewayError) ErrorRecord {
	kind, ok := gatewayKinds[gwErr.Type]
	if !ok {
		kind = KindUnknown
	}

	record := ErrorRecord{
		Kind:        kind,
		Code:        gwErr.Code,
		Message:     gwErr.Message,
		DeclineCode: gwErr.DeclineCode,
		Field:       gwErr.Param,
		UserMessage: genericUserMessage,
	}

	if detail, ok := codeDetails[gwErr.Code]; ok {
		record.UserMessage = detail.userMessage
		record.Suggestion = detail.suggestion
	}

	return record
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") ||
		strings.Contains(msg, "deadline exceeded")
}

func isNetworkFault(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, signature := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network is unreachable",
		"broken pipe",
		"eof",
	} {
		if strings.Contains(msg, signature) {
			return true
		}
	}
	return false
}
