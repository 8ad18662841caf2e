// Package certs keeps the self-signed certificate used when metrics are
// served over HTTPS.
package certs

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/facebookgo/clock"
)

// Validity is how long a generated certificate lasts.
const Validity = 365 * 24 * time.Hour

// Store loads a certificate from dir, generating one when it is missing,
// unreadable, expired or not valid for the configured host.
type Store struct {
	clock    clock.Clock
	certFile string
	keyFile  string
	host     string
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for validity checks.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithHost sets the name the certificate must cover. Defaults to localhost.
func WithHost(host string) Option {
	return func(s *Store) { s.host = host }
}

// NewStore creates a store backed by dir.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{
		clock:    clock.New(),
		certFile: filepath.Join(dir, "metrics.crt"),
		keyFile:  filepath.Join(dir, "metrics.key"),
		host:     "localhost",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Certificate returns a usable certificate.
func (s *Store) Certificate() (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(s.certFile, s.keyFile)
	if err == nil {
		if err = s.verify(cert); err == nil {
			return cert, nil
		}
	}
	if !errors.Is(err, os.ErrNotExist) {
		if rmErr := s.remove(); rmErr != nil {
			return tls.Certificate{}, rmErr
		}
	}
	return s.generate()
}

// TLSConfig wraps Certificate for an HTTP server.
func (s *Store) TLSConfig() (*tls.Config, error) {
	cert, err := s.Certificate()
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func (s *Store) generate() (tls.Certificate, error) {
	if err := os.MkdirAll(filepath.Dir(s.certFile), 0o700); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate directory: %w", err)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate private key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate serial number: %w", err)
	}

	now := s.clock.Now()
	template := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{Organization: []string{"smsledger"}, CommonName: s.host},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(Validity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	if ip := net.ParseIP(s.host); ip != nil {
		template.IPAddresses = []net.IP{ip}
	} else {
		template.DNSNames = []string{s.host}
	}
	if s.host == "localhost" {
		template.IPAddresses = append(template.IPAddresses, net.IPv4(127, 0, 0, 1), net.IPv6loopback)
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate: %w", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to encode private key: %w", err)
	}

	if err := writePEM(s.certFile, "CERTIFICATE", der); err != nil {
		return tls.Certificate{}, err
	}
	if err := writePEM(s.keyFile, "EC PRIVATE KEY", keyDER); err != nil {
		return tls.Certificate{}, err
	}

	return tls.LoadX509KeyPair(s.certFile, s.keyFile)
}

func (s *Store) verify(cert tls.Certificate) error {
	if len(cert.Certificate) == 0 {
		return errors.New("no certificates found")
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}

	now := s.clock.Now()
	if now.Before(leaf.NotBefore) || now.After(leaf.NotAfter) {
		return fmt.Errorf("certificate valid from %s to %s", leaf.NotBefore, leaf.NotAfter)
	}
	if err := leaf.VerifyHostname(s.host); err != nil {
		return fmt.Errorf("certificate not valid for %s: %w", s.host, err)
	}
	return nil
}

func (s *Store) remove() error {
	for _, f := range []string{s.certFile, s.keyFile} {
		if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", f, err)
		}
	}
	return nil
}

func writePEM(path, blockType string, der []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
