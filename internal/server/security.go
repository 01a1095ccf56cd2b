package server

import (
	"crypto/tls"
	"fmt"
	"net"

	"github.com/dtroode/erp-sessions/internal/config"
	"github.com/dtroode/erp-sessions/internal/model"
)

var (
	_ model.SecurityLayer = (*TLSListener)(nil)
	_ model.SecurityLayer = (*PlainListener)(nil)
)

// NewSecurityLayer picks the listener for the gRPC endpoint from configuration.
// TLS is used when EnableHTTPS is set, a plain listener otherwise.
//
// Parameters:
//   - cfg: The gRPC configuration with the HTTPS flag and key pair paths
//
// Returns the security layer to start the gRPC server with.
func NewSecurityLayer(cfg config.GRPC) model.SecurityLayer {
	if cfg.EnableHTTPS {
		return NewTLSListener(cfg.CertFileName, cfg.PrivateKeyFileName)
	}
	return NewPlainListener()
}

// TLSListener represents a TLS-enabled network listener.
// It opens TLS listeners from a certificate and key on disk.
type TLSListener struct {
	certFileName       string
	privateKeyFileName string
}

// NewTLSListener creates a new TLSListener instance.
// The key pair is read on every Listen call, not here.
//
// Parameters:
//   - certFileName: Path to the TLS certificate file
//   - privateKeyFileName: Path to the private key file
//
// Returns a pointer to the newly created TLSListener instance.
func NewTLSListener(certFileName, privateKeyFileName string) *TLSListener {
	return &TLSListener{
		certFileName:       certFileName,
		privateKeyFileName: privateKeyFileName,
	}
}

// Listen creates a TLS-enabled network listener.
// It loads the key pair and accepts TLS 1.2 or newer with h2 negotiated over ALPN.
//
// Parameters:
//   - protocol: The network protocol (typically "tcp")
//   - addr: The address to listen on
//
// Returns a TLS-enabled network listener or an error if setup fails.
func (l *TLSListener) Listen(protocol, addr string) (net.Listener, error) {
	cert, err := tls.LoadX509KeyPair(l.certFileName, l.privateKeyFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}
	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		NextProtos:   []string{"h2"},
	}
	return tls.Listen(protocol, addr, tlsConfig)
}

// PlainListener opens unencrypted listeners.
type PlainListener struct{}

// NewPlainListener creates a new PlainListener instance.
func NewPlainListener() *PlainListener {
	return &PlainListener{}
}

// Listen creates a plain network listener.
//
// Parameters:
//   - protocol: The network protocol (typically "tcp")
//   - addr: The address to listen on
//
// Returns a plain network listener or an error if setup fails.
func (l *PlainListener) Listen(protocol, addr string) (net.Listener, error) {
	return net.Listen(protocol, addr)
}
