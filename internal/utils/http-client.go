package utils

import (
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

type HTTPClientConfig struct {
	ConnectTimeout time.Duration
	KATimeout      time.Duration
	UserAgent      string
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type PartgetHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

// NewPartgetHTTPClient builds a client whose timeout only bounds connection setup;
// part bodies may stream for as long as the server keeps sending.
func NewPartgetHTTPClient(cfg HTTPClientConfig) *PartgetHTTPClient {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.KATimeout == 0 {
		cfg.KATimeout = DefaultKATimeout
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
			Control:   tuneSocket,
		}).DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		IdleConnTimeout:     cfg.KATimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		DisableCompression:  true,
	}
	return &PartgetHTTPClient{
		client: &http.Client{Transport: transport},
		config: cfg,
	}
}

// tuneSocket enlarges kernel socket buffers so a single part stream is not window-bound.
func tuneSocket(network, address string, c syscall.RawConn) error {
	return c.Control(func(fd uintptr) {
		if err := setSocketBuffers(fd, SocketBufferSize); err != nil {
			log.Debug().Str("op", "utils/http-client").Str("address", address).Err(err).Msg("could not resize socket buffers")
		}
	})
}

func (d *PartgetHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if d.config.UserAgent != "" {
		req.Header.Set("User-Agent", d.config.UserAgent)
	} else {
		req.Header.Set("User-Agent", ToolUserAgent)
	}
	return d.client.Do(req)
}
