// Package server is a fixture for provider tests.
package server

import (
	"net/http"
	"time"
)

type Server struct {
	host    string
	port    int
	timeout time.Duration
	handler http.Handler
	tags    []string
}

// NewServer returns a server listening on host:port.
//
// The handler may be nil.
//
//stepgen:builder
//stepgen:optional timeout 30 * time.Second
//stepgen:nullable handler
//stepgen:check port range 1,65535
//stepgen:check host pattern ^[a-z.]+$
func NewServer(host string, port int, timeout time.Duration, handler http.Handler, tags ...string) (*Server, error) {
	return &Server{host: host, port: port, timeout: timeout, handler: handler, tags: tags}, nil
}

// ClientBuilder is declared by hand.
type ClientBuilder struct{}

type Client struct{}

//stepgen:builder name=ClientBuilder version=1
func NewClient(addr string) *Client {
	return &Client{}
}
