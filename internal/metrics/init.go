package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics(tags []string) {
	for _, tag := range tags {
		for _, status := range []string{"success", "no_info", "error"} {
			ExtractionsTotal.WithLabelValues(tag, status)
		}
		ExtractionDuration.WithLabelValues(tag)
	}

	for _, d := range []string{"probe", "netpbm", "webp", "bpg", "svg"} {
		DecoderAttemptsTotal.WithLabelValues(d, "success")
		DecoderAttemptsTotal.WithLabelValues(d, "failure")
	}

	for _, e := range []string{"ffmpeg", "mp4"} {
		ContainerProbesTotal.WithLabelValues(e, "success")
		ContainerProbesTotal.WithLabelValues(e, "empty")
	}

	for _, a := range []string{"open", "open_with", "launch", "exec"} {
		ActionsTotal.WithLabelValues(a, "success")
		ActionsTotal.WithLabelValues(a, "error")
	}

	for _, op := range []string{"stat", "open", "readdir", "read"} {
		for _, outcome := range []string{"attempt", "success", "failure"} {
			FilesystemRetriesTotal.WithLabelValues(op, outcome)
		}
		FilesystemRetryDuration.WithLabelValues(op)
	}

	for _, op := range []string{"initialize_schema", "load_settings", "save_settings", "settings_history"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	SettingsReloadsTotal.WithLabelValues("success")
	SettingsReloadsTotal.WithLabelValues("error")
}
