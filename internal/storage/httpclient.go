package storage

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"golang.org/x/net/proxy"

	"github.com/act3-ai/forge/internal/logutil"
)

// newHTTPClient builds the outbound client for a remote blob service:
// environment-aware proxying, per-host TLS certificate discovery, and request
// logging at high verbosity.
func newHTTPClient(hostName string) (*http.Client, error) {
	nd := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           nd.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	certLocation, err := resolveTLSCertLocation(standardCertLocations(hostName))
	if err != nil {
		return nil, err
	}

	ssl, err := fetchCertsFromLocation(certLocation)
	if err != nil {
		return nil, err
	}
	transport.TLSClientConfig = ssl

	if dialer := proxy.FromEnvironment(); dialer != nil {
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}

	return &http.Client{
		Transport: &logutil.LoggingTransport{Base: transport},
	}, nil
}

// resolveTLSCertLocation returns the first cert directory that exists, or an
// empty string when there is none.
func resolveTLSCertLocation(paths []string) (string, error) {
	for _, certPath := range paths {
		_, err := os.Stat(certPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("error accessing the TLS certificates in %s: %w", certPath, err)
		}
		return certPath, nil
	}
	return "", nil
}

func fetchCertsFromLocation(certDir string) (*tls.Config, error) {
	tlscfg := &tls.Config{}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		return nil, fmt.Errorf("fetching system certs: %w", err)
	}

	if certDir != "" {
		cert, err := tls.LoadX509KeyPair(filepath.Join(certDir, "cert.pem"), filepath.Join(certDir, "key.pem"))
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("error reading the certificate and key files: %w", err)
			}
		} else {
			tlscfg.Certificates = []tls.Certificate{cert}
		}

		caCert, err := os.ReadFile(filepath.Join(certDir, "ca.pem"))
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("error reading the caFile: %w", err)
			}
		} else {
			// only trust this CA for this host
			caCertPool.AppendCertsFromPEM(caCert)
		}
	}

	tlscfg.RootCAs = caCertPool

	return tlscfg, nil
}

// standardCertLocations lists the directories searched for per-host TLS
// certificates, modeled after containerd's hosts.d layout with docker's two
// locations as fallbacks.
func standardCertLocations(hostName string) []string {
	return []string{
		filepath.Join("/etc/containerd/certs.d", hostName),
		filepath.Join("/etc/docker/certs.d", hostName),
		filepath.Join(xdg.Home, ".docker/certs.d", hostName),
	}
}
