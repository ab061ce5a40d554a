package connectivity

import (
	"context"
	"net"
	"time"
)

// InterfacesUp reports whether any non-loopback network interface is up.
// It errs on the side of "up" when the interfaces cannot be listed; the
// connectivity check decides reachability anyway.
func InterfacesUp() bool {
	ifs, err := net.Interfaces()
	if err != nil {
		return true
	}
	for _, f := range ifs {
		if f.Flags&net.FlagUp != 0 && f.Flags&net.FlagLoopback == 0 {
			return true
		}
	}
	return false
}

// WatchLink polls linkUp every interval and forwards changes to NotifyLink
// until ctx is done. A link that comes back is confirmed with a connectivity check.
func (m *Monitor) WatchLink(ctx context.Context, interval time.Duration, linkUp func() bool) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := true
	for {
		select {
		case <-ticker.C:
			up := linkUp()
			if up == last {
				continue
			}
			last = up
			m.log.Debug(ctx, "network link changed", "up", up)
			m.NotifyLink(up)
			if up {
				m.CheckConnectivity(ctx)
			}
		case <-ctx.Done():
			return
		}
	}
}
