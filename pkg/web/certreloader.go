//go:build unix

package web

import (
	"crypto/tls"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/charmbracelet/log"
)

// CertReloader serves a TLS keypair and swaps it in place when the process
// receives SIGHUP, so certificates can be rotated without a restart.
type CertReloader struct {
	cert     atomic.Pointer[tls.Certificate]
	certPath string
	keyPath  string
}

// NewCertReloader loads the keypair and starts listening for SIGHUP.
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

	go func() {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		for range hup {
			logger.Info("reloading TLS keypair", "cert", certPath, "key", keyPath)
			if err := cr.reload(); err != nil {
				logger.Error("TLS keypair reload failed, keeping current certificate", "err", err)
			}
		}
	}()

	return cr, nil
}

func (cr *CertReloader) reload() error {
	cert, err := tls.LoadX509KeyPair(cr.certPath, cr.keyPath)
	if err != nil {
		return err
	}
	cr.cert.Store(&cert)
	return nil
}

// GetCertificateFunc returns a callback for tls.Config.GetCertificate that
// always serves the most recently loaded keypair.
func (cr *CertReloader) GetCertificateFunc() func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
		return cr.cert.Load(), nil
	}
}
