//go:generate mockgen -source=contracts.go -destination=notify_mocks_test.go -package=notify_test

package notify

import "context"

// PhoneBook resolves a driver's phone number. Unknown drivers yield "".
type PhoneBook interface {
	Phone(ctx context.Context, driverID string) (string, error)
}

// Sender delivers a text message.
type Sender interface {
	Send(ctx context.Context, phone, text string) error
}
