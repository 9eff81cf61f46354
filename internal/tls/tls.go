package tls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"do-todo/internal/config"
	"do-todo/internal/logging"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrPlaintextConnection is returned when TLS is required but the connection string turns it off
var ErrPlaintextConnection = errors.New("database connection string disables TLS")

// Config is the TLS policy for connections to the database server
type Config struct {
	Mode         string // libpq sslmode: disable, allow, prefer, require, verify-ca, verify-full
	RootCertFile string // CA bundle used to verify the server
	CertFile     string // Client certificate, optional
	KeyFile      string // Client key, optional
	MinVersion   uint16
}

// NewConfigFromEnv creates the database TLS policy for the given sslmode
func NewConfigFromEnv(mode string) *Config {
	return &Config{
		Mode:         mode,
		RootCertFile: config.GetEnv("DB_SSL_ROOT_CERT", ""),
		CertFile:     config.GetEnv("DB_SSL_CERT", ""),
		KeyFile:      config.GetEnv("DB_SSL_KEY", ""),
		MinVersion:   parseTLSVersion(config.GetEnv("DB_TLS_MIN_VERSION", "1.2")),
	}
}

// Required reports whether plaintext connections must be refused
func (c *Config) Required() bool {
	switch c.Mode {
	case "", "disable", "allow", "prefer":
		return false
	default:
		return true
	}
}

// Apply tightens the TLS settings pgconn derived from the connection string.
// Plaintext fallbacks are dropped and every attempt gets the minimum version,
// CA bundle and client certificate configured here.
func (c *Config) Apply(pc *pgconn.Config) error {
	if !c.Required() {
		return nil
	}

	if pc.TLSConfig == nil {
		return fmt.Errorf("%w (DB_SSL_MODE=%s)", ErrPlaintextConnection, c.Mode)
	}

	fallbacks := pc.Fallbacks[:0]
	for _, fb := range pc.Fallbacks {
		if fb.TLSConfig != nil {
			fallbacks = append(fallbacks, fb)
		}
	}
	pc.Fallbacks = fallbacks

	var roots *x509.CertPool
	if c.RootCertFile != "" {
		pem, err := os.ReadFile(c.RootCertFile)
		if err != nil {
			return fmt.Errorf("failed to read root certificate: %w", err)
		}
		roots = x509.NewCertPool()
		if !roots.AppendCertsFromPEM(pem) {
			return fmt.Errorf("no certificates found in %s", c.RootCertFile)
		}
	}

	var clientCerts []tls.Certificate
	if c.CertFile != "" || c.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return fmt.Errorf("failed to load client certificate: %w", err)
		}
		clientCerts = []tls.Certificate{cert}
	}

	c.tighten(pc.TLSConfig, roots, clientCerts)
	for _, fb := range pc.Fallbacks {
		c.tighten(fb.TLSConfig, roots, clientCerts)
	}

	logging.Logger.WithFields(map[string]interface{}{
		"sslmode":     c.Mode,
		"min_version": tlsVersionString(c.MinVersion),
		"custom_ca":   roots != nil,
		"client_cert": clientCerts != nil,
	}).Info("Database TLS configured")

	return nil
}

// tighten applies the policy to one connection attempt. With a CA bundle, attempts
// that skip hostname checks (require, verify-ca) still verify the chain, as libpq does.
func (c *Config) tighten(cfg *tls.Config, roots *x509.CertPool, certs []tls.Certificate) {
	cfg.MinVersion = c.MinVersion
	if roots != nil {
		cfg.RootCAs = roots
		if cfg.InsecureSkipVerify {
			cfg.VerifyPeerCertificate = verifyChain(roots)
		}
	}
	if certs != nil {
		cfg.Certificates = certs
	}
}

func verifyChain(roots *x509.CertPool) func([][]byte, [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return errors.New("server presented no certificate")
		}
		certs := make([]*x509.Certificate, len(rawCerts))
		for i, raw := range rawCerts {
			cert, err := x509.ParseCertificate(raw)
			if err != nil {
				return fmt.Errorf("failed to parse server certificate: %w", err)
			}
			certs[i] = cert
		}

		opts := x509.VerifyOptions{Roots: roots, Intermediates: x509.NewCertPool()}
		for _, cert := range certs[1:] {
			opts.Intermediates.AddCert(cert)
		}
		_, err := certs[0].Verify(opts)
		return err
	}
}

// parseTLSVersion parses TLS version string to uint16
func parseTLSVersion(version string) uint16 {
	switch version {
	case "1.2":
		return tls.VersionTLS12
	case "1.3":
		return tls.VersionTLS13
	default:
		logging.Logger.Warnf("Unsupported TLS version '%s', using TLS 1.2", version)
		return tls.VersionTLS12
	}
}

func tlsVersionString(version uint16) string {
	switch version {
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return fmt.Sprintf("Unknown (0x%04x)", version)
	}
}
