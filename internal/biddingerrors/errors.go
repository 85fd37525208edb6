package biddingerrors

import (
	"errors"
	"fmt"
)

// Repository-level errors
var (
	ErrItemNotFound = errors.New("item not found")
	ErrDuplicateID  = errors.New("duplicate item id")
)

// Admission errors
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrBidTooLow      = errors.New("bid amount too low")
	ErrAuctionClosed  = errors.New("auction closed")
)

// Rejection is the error returned for every bid the admission controller refuses.
// Message is safe to show to the bidder; Reason is one of the sentinels above.
type Rejection struct {
	Reason  error
	ItemID  int
	Message string
}

// Reject builds a Rejection with a formatted user-facing message.
func Reject(reason error, itemID int, format string, args ...any) *Rejection {
	return &Rejection{
		Reason:  reason,
		ItemID:  itemID,
		Message: fmt.Sprintf(format, args...),
	}
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Reason, r.Message)
}

func (r *Rejection) Unwrap() error {
	return r.Reason
}

// AsRejection extracts the Rejection from err, if any.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// UserMessage returns the message a bidder should see for err.
func UserMessage(err error) string {
	if r, ok := AsRejection(err); ok {
		return r.Message
	}
	return err.Error()
}
