// Package memory sets the Go soft memory limit of the helper from its
// container limit and sizes the libvips cache to match.
//
// Go follows cgroup CPU limits on its own but not memory limits, so the
// helper reads MEMORY_LIMIT (bytes, typically from the Kubernetes Downward
// API) and gives MEMORY_RATIO of it (default 0.85) to the heap. The rest
// stays available to libvips and ffprobe. An explicit GOMEMLIMIT wins.
//
//	env:
//	  - name: MEMORY_LIMIT
//	    valueFrom:
//	      resourceFieldRef:
//	        resource: limits.memory
package memory
