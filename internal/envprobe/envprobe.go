// Package envprobe fingerprints the host a benchmark runs on.
package envprobe

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/pion/stun/v3"

	"xferbench/internal/model"
)

const (
	NATTypeUnknown          = "unknown"
	NATTypeSymmetric        = "symmetric"
	NATTypeConeOrRestricted = "cone_or_restricted"
)

// Detect returns the local host fingerprint. When STUN servers are given the
// public mapped address and a NAT guess are added; STUN failures are logged
// and leave those fields empty.
func Detect(ctx context.Context, servers []string, timeout time.Duration) model.Host {
	host := Local()
	if len(servers) == 0 {
		return host
	}
	addr, nat, err := PublicAddr(ctx, servers, timeout)
	if err != nil {
		log.Printf("STUN probe failed: %v", err)
		return host
	}
	host.PublicAddr = addr
	host.NATType = nat
	return host
}

// Local returns hostname, OS and architecture.
func Local() model.Host {
	name, err := os.Hostname()
	if err != nil {
		name = "unknown"
	}
	return model.Host{Hostname: name, OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// PublicAddr queries STUN servers for the public mapped address.
func PublicAddr(ctx context.Context, servers []string, timeout time.Duration) (string, string, error) {
	if len(servers) == 0 {
		return "", NATTypeUnknown, fmt.Errorf("no STUN servers provided")
	}

	mapped := make([]string, 0, len(servers))
	var lastErr error
	for _, server := range servers {
		addr, err := bindingRequest(ctx, server, timeout)
		if err != nil {
			lastErr = err
			continue
		}
		mapped = append(mapped, addr)
	}

	if len(mapped) == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("STUN probe failed")
		}
		return "", NATTypeUnknown, lastErr
	}
	return mapped[0], Classify(mapped), nil
}

// Classify infers NAT type by comparing mapped addresses from multiple servers.
func Classify(addrs []string) string {
	if len(addrs) < 2 {
		return NATTypeUnknown
	}
	for _, addr := range addrs[1:] {
		if addr != addrs[0] {
			return NATTypeSymmetric
		}
	}
	return NATTypeConeOrRestricted
}

func stunURI(server string) (*stun.URI, error) {
	s := strings.TrimSpace(server)
	if s == "" {
		return nil, fmt.Errorf("empty STUN server")
	}
	if !strings.HasPrefix(s, "stun:") {
		s = "stun:" + s
	}
	return stun.ParseURI(s)
}

func bindingRequest(ctx context.Context, server string, timeout time.Duration) (string, error) {
	uri, err := stunURI(server)
	if err != nil {
		return "", err
	}

	client, err := stun.DialURI(uri, &stun.DialConfig{})
	if err != nil {
		return "", err
	}
	defer client.Close()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	msg := stun.MustBuild(stun.TransactionID, stun.BindingRequest)
	return awaitBinding(ctx, func(f func(stun.Event)) error {
		return client.Do(msg, f)
	})
}

type bindingOutcome struct {
	addr string
	err  error
}

// awaitBinding runs one transaction through do and waits for its mapped
// address. do must invoke the handler before returning. The worker sends
// exactly once on a buffered channel, so it exits even when ctx wins.
func awaitBinding(ctx context.Context, do func(func(stun.Event)) error) (string, error) {
	done := make(chan bindingOutcome, 1)

	go func() {
		var out bindingOutcome
		seen := false
		err := do(func(res stun.Event) {
			if seen {
				return
			}
			seen = true
			if res.Error != nil {
				out.err = res.Error
				return
			}
			var addr stun.XORMappedAddress
			if err := addr.GetFrom(res.Message); err != nil {
				out.err = err
				return
			}
			out.addr = addr.String()
		})
		if !seen {
			out.err = err
			if out.err == nil {
				out.err = fmt.Errorf("STUN transaction finished without a response")
			}
		}
		done <- out
	}()

	select {
	case out := <-done:
		return out.addr, out.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
