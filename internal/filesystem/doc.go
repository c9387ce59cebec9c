/*
Package filesystem provides filesystem operations with retry logic for
transient errors on network volumes.

Inspected items frequently live on NFS or SMB mounts, where a stat or open can
fail with ESTALE (stale file handle) or EINTR while the mount recovers. The
helpers in this package retry those errors with exponential backoff and pass
every other error straight through.

# Usage

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
	    return err
	}

	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
	    return err
	}
	defer filesystem.CloseLogged(f, path)

# Metrics

Retries are counted in media_inspector_filesystem_retries_total, labelled by
operation (stat, open, readdir, read) and outcome (attempt, success,
failure). Total time spent per operation, retries included, is recorded in
media_inspector_filesystem_operation_duration_seconds.
*/
package filesystem
