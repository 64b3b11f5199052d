//go:build !unix

package web

import (
	"crypto/tls"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// CertReloader serves a TLS keypair. On platforms without SIGHUP the pair
// is loaded once and never rotated.
type CertReloader struct {
	cert     atomic.Pointer[tls.Certificate]
	certPath string
	keyPath  string
}

// NewCertReloader loads the keypair.
func NewCertReloader(certPath, keyPath string, logger *log.Logger) (*CertReloader, error) {
	cr := &CertReloader{
		certPath: certPath,
		keyPath:  keyPath,
	}

	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, err
	}
	cr.cert.Store(&cert)

	return cr, nil
}

// GetCertificateFunc returns a callback for tls.Config.GetCertificate.
func (cr *CertReloader) GetCertificateFunc() func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
		return cr.cert.Load(), nil
	}
}
