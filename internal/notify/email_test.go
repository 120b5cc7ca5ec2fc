package notify

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/adnanqureshi/dosealert/internal/models"
)

// A listener that accepts connections but never sends the SMTP greeting,
// so any client without a read deadline blocks forever.
func hungSMTPServer(t *testing.T) *net.TCPAddr {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()
	return ln.Addr().(*net.TCPAddr)
}

func TestEmailSendReturnsOnContextDeadline(t *testing.T) {
	addr := hungSMTPServer(t)

	sender := NewEmailSender(EmailConfig{
		Host: "127.0.0.1",
		Port: addr.Port,
		From: "reminders@dosealert.local",
	}, zerolog.Nop())

	user := &models.User{UserID: 1, Email: "adnan@example.com"}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- sender.Send(ctx, user, "Panadol", "500mg", "09:00")
	}()

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected an error from a server that never responds")
		}
		var derr *DeliveryError
		if !errors.As(err, &derr) {
			t.Fatalf("want *DeliveryError, got %T: %v", err, err)
		}
		if derr.Permanent {
			t.Error("a timed-out delivery should be retryable, not permanent")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Send still blocked long after the context deadline expired")
	}
}

func TestEmailSendRejectsUserWithoutAddress(t *testing.T) {
	sender := NewEmailSender(EmailConfig{Host: "127.0.0.1", Port: 2525}, zerolog.Nop())

	err := sender.Send(context.Background(), &models.User{UserID: 1}, "Panadol", "500mg", "09:00")
	if !IsPermanent(err) {
		t.Fatalf("want a permanent delivery error, got %v", err)
	}
}
