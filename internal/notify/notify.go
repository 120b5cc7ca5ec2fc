// Package notify is the delivery boundary: the scheduler hands a due
// reminder to a Sender and does not care about the transport behind it.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/adnanqureshi/dosealert/internal/models"
)

// Sender delivers one reminder notification. localTime is the reminder's
// time-of-day already localized for display ("HH:MM" in the scheduler's
// timezone).
type Sender interface {
	Send(ctx context.Context, user *models.User, medicineName, dosage, localTime string) error
}

// DeliveryError wraps a failed delivery attempt. Permanent failures (for
// example a recipient with no address for this transport) are not worth
// retrying; transient transport faults are, and the poller leaves the
// reminder pending for the next cycle.
type DeliveryError struct {
	Permanent bool
	Err       error
}

func (e *DeliveryError) Error() string {
	if e.Permanent {
		return fmt.Sprintf("notify: permanent delivery failure: %v", e.Err)
	}
	return fmt.Sprintf("notify: delivery failure: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// IsPermanent reports whether err is a delivery failure that retrying
// cannot fix.
func IsPermanent(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de) && de.Permanent
}

// Fanout sends through each configured transport in order and succeeds as
// soon as one of them does.
type Fanout []Sender

func (f Fanout) Send(ctx context.Context, user *models.User, medicineName, dosage, localTime string) error {
	if len(f) == 0 {
		return &DeliveryError{Permanent: true, Err: errors.New("no senders configured")}
	}
	var last error
	for _, sender := range f {
		if err := sender.Send(ctx, user, medicineName, dosage, localTime); err != nil {
			last = err
			continue
		}
		return nil
	}
	return last
}
