// Package workers sizes and runs small goroutine pools.
//
// The helper uses a pool to sum folder sizes when the folder settings ask
// for a full walk: subdirectories are handed to free workers and walked
// inline when every worker is busy, so the recursion never deadlocks.
//
// The worker count follows GOMAXPROCS and can be set with WALK_WORKERS.
package workers
