// Package memory keeps the preview service inside its container memory
// limit.
//
// Unlike GOMAXPROCS, which Go derives from the cgroup CPU quota, GOMEMLIMIT
// must be configured explicitly. [ConfigureFromEnv] sets it from the
// container limit:
//
//   - GOMEMLIMIT: standard Go variable; takes precedence when set.
//   - MEMORY_LIMIT: container limit in bytes, usually from the Kubernetes
//     Downward API.
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the Go heap (default
//     0.75). libvips allocates outside the Go heap and every preview runs
//     an exiftool process, so the reserve is larger than usual.
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//
// # Backpressure
//
// A [Monitor] samples heap usage. Above the critical mark it holds new
// preview requests in [Monitor.Wait] until usage drops below the high-water
// mark:
//
//	mon := memory.NewMonitor(memory.DefaultConfig())
//	mon.Start()
//	defer mon.Stop()
//
//	if err := mon.Wait(r.Context()); err != nil {
//	    return // client went away
//	}
package memory
