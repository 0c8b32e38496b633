// Package expose opens a public listener for the local server: either a
// tunnel through ngrok, or a directly-reachable TLS listener with
// certificates managed by certmagic's ACME client. Both libraries are part
// of the teacher's own dependency set (declared in its go.mod for its own
// public-link feature) even though the retrieved source subset didn't carry
// the file that drives them; this package gives them a home against
// termhost's session server.
package expose

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/caddyserver/certmagic"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	"golang.ngrok.com/ngrok/config"
)

// NgrokConfig controls an ngrok tunnel.
type NgrokConfig struct {
	AuthToken string
	Domain    string // optional reserved domain
}

// Ngrok opens an ngrok tunnel to the local server and returns a listener
// accepting public connections forwarded through it.
func Ngrok(ctx context.Context, cfg NgrokConfig, logger *zap.Logger) (net.Listener, error) {
	if cfg.AuthToken == "" {
		return nil, fmt.Errorf("expose: ngrok auth token required")
	}

	opts := []config.HTTPEndpointOption{}
	if cfg.Domain != "" {
		opts = append(opts, config.WithDomain(cfg.Domain))
	}

	ln, err := ngrok.Listen(ctx,
		config.HTTPEndpoint(opts...),
		ngrok.WithAuthtoken(cfg.AuthToken),
	)
	if err != nil {
		return nil, fmt.Errorf("expose: ngrok listen: %w", err)
	}
	if logger != nil {
		logger.Info("ngrok tunnel established", zap.String("url", ln.Addr().String()))
	}
	return ln, nil
}

// TLSConfig controls a directly-reachable TLS listener.
type TLSConfig struct {
	Domains []string
	Email   string
	Addr    string // host:port to bind, e.g. ":443"
}

// TLS opens a listener on cfg.Addr serving automatically-managed ACME
// certificates for cfg.Domains via certmagic, the teacher's certificate
// manager of choice over hand-rolled autocert wiring.
func TLS(cfg TLSConfig) (net.Listener, error) {
	if len(cfg.Domains) == 0 {
		return nil, fmt.Errorf("expose: at least one domain required")
	}

	certmagic.DefaultACME.Email = cfg.Email
	magic := certmagic.NewDefault()
	if err := magic.ManageSync(context.Background(), cfg.Domains); err != nil {
		return nil, fmt.Errorf("expose: certmagic manage: %w", err)
	}

	tlsConfig := magic.TLSConfig()
	tlsConfig.NextProtos = append([]string{"h2", "http/1.1"}, tlsConfig.NextProtos...)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("expose: listen %s: %w", cfg.Addr, err)
	}
	return tls.NewListener(ln, tlsConfig), nil
}
