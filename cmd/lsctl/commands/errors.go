package commands

import (
	"context"
	"crypto/x509"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

// Describe turns an error into a message with guidance for the user.
// Transport failures are told apart so the hint matches the cause.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	hint := hintFor(err)
	if hint == "" {
		return err.Error()
	}

	return err.Error() + "\n" + hint
}

//nolint:cyclop
func hintFor(err error) string {
	var (
		dnsErr      *net.DNSError
		unknownCA   x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		certErr     x509.CertificateInvalidError
		netErr      net.Error
	)

	switch {
	case errors.Is(err, logstream.ErrUnauthorized):
		return "The server rejected the credentials. Update the password with 'lsctl connections add' or check the username."
	case errors.Is(err, logstream.ErrInvalidURL):
		return "The connection URL is not valid. It must look like https://logs.example.com."
	case errors.Is(err, logstream.ErrInvalidResponse):
		return "The server did not answer with valid HTTP. Check that the URL points at the log server and not at a proxy or another service."
	case errors.Is(err, logstream.ErrDecoding):
		return "The server answered in an unexpected format. The server version may not be supported."
	case logstream.IsNotFound(err):
		return "The resource does not exist on this server."
	case errors.As(err, &dnsErr):
		return "The host name could not be resolved. Check the URL and your DNS settings."
	case errors.Is(err, syscall.ECONNREFUSED):
		return "The connection was refused. Check that the server is running and the port is correct."
	case errors.Is(err, syscall.ENETUNREACH), errors.Is(err, syscall.EHOSTUNREACH):
		return "The network is unreachable. Check your internet connection."
	case errors.As(err, &unknownCA), errors.As(err, &hostnameErr), errors.As(err, &certErr),
		strings.Contains(err.Error(), "tls:"):
		return "The TLS handshake failed. Check the server certificate, or use --skip-tls-verify for development servers."
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "The request timed out. The server may be overloaded, or the query range may be too large."
	default:
		return ""
	}
}
