/*
Package workers sizes and bounds the preview service's concurrent work.

# Sizing

runtime.NumCPU reports the host's CPUs even inside a container with a CPU
limit. The helpers here use GOMAXPROCS instead, which Go sets from the
cgroup quota:

	n := workers.ForCPU(8)    // one per CPU, at most 8
	n := workers.ForIO(16)    // two per CPU
	n := workers.ForMixed(12) // one and a half per CPU
	n := workers.Count(3, 0)  // custom multiplier, no cap

Preview generation spawns an external process, waits on it, then decodes
and encodes an image, so the service sizes its pool with ForMixed.

The PREVIEW_WORKERS environment variable overrides the computed value for
every helper, still subject to the caller's cap:

	env:
	- name: PREVIEW_WORKERS
	  value: "4"

# Limiting

A Limiter is a counting semaphore whose Acquire honours context
cancellation, so a client that disconnects while queued gives up its place:

	lim := workers.NewLimiter(workers.ForMixed(8))
	release, err := lim.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

WithObserver reports queue wait and occupancy, which the service exports as
Prometheus metrics.
*/
package workers
