// Package dnsresolver implements resolver.Resolver with direct DNS queries
// through github.com/miekg/dns.
package dnsresolver

import (
	"bucketscan/pkg/resolver"
	"bucketscan/pkg/serrors"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

const (
	// DefaultResolvConf is where the system resolvers are read from when no
	// servers are configured.
	DefaultResolvConf = "/etc/resolv.conf"
	// DefaultTimeout bounds a single DNS exchange.
	DefaultTimeout = 5 * time.Second
)

// Options configure the resolver.
type Options struct {
	// Servers are the DNS servers to query in order, as host or host:port.
	// When empty the servers from ResolvConf are used.
	Servers []string
	// ResolvConf overrides DefaultResolvConf.
	ResolvConf string
	// Timeout bounds a single exchange with one server.
	Timeout time.Duration
}

// Resolver queries CNAME records against a fixed list of servers, falling
// through to the next server when one fails.
type Resolver struct {
	client    *dns.Client
	tcpClient *dns.Client
	servers   []string
}

// CNAME implements resolver.Resolver. NXDOMAIN and empty answers are final and
// reported as resolver.ErrNoCNAME; any other rcode or transport failure moves
// on to the next server and, once all servers failed, is returned as an error.
func (r *Resolver) CNAME(ctx context.Context, host string) ([]string, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), dns.TypeCNAME)

	var errs []error
	for _, server := range r.servers {
		in, err := r.exchange(ctx, m, server)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", server, err))

			continue
		}

		switch in.Rcode {
		case dns.RcodeSuccess, dns.RcodeNameError:
		default:
			errs = append(errs, fmt.Errorf("%s: %s", server, dns.RcodeToString[in.Rcode]))

			continue
		}

		var targets []string
		for _, rr := range in.Answer {
			if cname, ok := rr.(*dns.CNAME); ok {
				targets = append(targets, cname.Target)
			}
		}
		if len(targets) == 0 {
			return nil, fmt.Errorf("%s (%s): %w", host, dns.RcodeToString[in.Rcode], resolver.ErrNoCNAME)
		}

		return targets, nil
	}

	return nil, fmt.Errorf("could not resolve CNAME for %s: %w", host, errors.Join(errs...))
}

func (r *Resolver) exchange(ctx context.Context, m *dns.Msg, server string) (*dns.Msg, error) {
	in, _, err := r.client.ExchangeContext(ctx, m, server)
	if err != nil {
		return nil, err //nolint: wrapcheck
	}
	// retry truncated UDP answers over TCP
	if in.Truncated {
		in, _, err = r.tcpClient.ExchangeContext(ctx, m, server)
		if err != nil {
			return nil, err //nolint: wrapcheck
		}
	}

	return in, nil
}

// Servers returns the servers queried, in order.
func (r *Resolver) Servers() []string { return r.servers }

// Ensure Resolver conforms to the resolver.Resolver interface at compile time.
var _ resolver.Resolver = (*Resolver)(nil)

// New constructs a Resolver from options.
func New(options Options) (*Resolver, error) {
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}

	servers := make([]string, 0, len(options.Servers))
	for _, s := range options.Servers {
		servers = append(servers, withPort(s, "53"))
	}

	if len(servers) == 0 {
		path := options.ResolvConf
		if path == "" {
			path = DefaultResolvConf
		}
		cfg, err := dns.ClientConfigFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read resolver config: %w", err)
		}
		for _, s := range cfg.Servers {
			servers = append(servers, withPort(s, cfg.Port))
		}
	}

	if len(servers) == 0 {
		return nil, serrors.With(serrors.ErrBadRequest, "no DNS servers configured")
	}

	return &Resolver{
		client:    &dns.Client{Net: "udp", Timeout: options.Timeout},
		tcpClient: &dns.Client{Net: "tcp", Timeout: options.Timeout},
		servers:   servers,
	}, nil
}

func withPort(server, port string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}

	return net.JoinHostPort(server, port)
}
