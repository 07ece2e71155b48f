// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package selector decides which backend serves each store operation.

A Monitor tracks the durable store through the states

	connecting -> ready
	connecting -> degraded
	ready <-> degraded

Start pings once as a handshake, then optionally pings every
HealthInterval while ready. Any failure, whether from a ping or reported
by a caller through ReportFailure, moves the monitor to degraded and starts
one bounded reconnect run using a retry.Policy. When the run is exhausted
the monitor stays degraded until Reconnect is called or the process
restarts.

A Selector asks the Monitor for the state on every call: ready routes to
the durable backend, anything else to the in-process fallback.

	served, err := sel.Do(ctx, func(b store.Backend) error {
		blob, found, err = b.GetConfig(ctx)
		return err
	})

# Limitations

Writes served by the fallback while degraded are not copied to the
durable store after recovery. The two stores are never reconciled.
*/
package selector
