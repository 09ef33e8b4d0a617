// Package smtp provides the SMTP transport used by the notification sender.
package smtp

import "io"

// Client is the subset of an SMTP session the sender needs.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface is implemented by Transport.
type TransportInterface interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
