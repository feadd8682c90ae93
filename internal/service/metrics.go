package service

import "github.com/prometheus/client_golang/prometheus"

var (
	attachmentUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "garage_attachment_uploads_total", Help: "Attachment writes to the image sink"},
		[]string{"result"},
	)
	attachmentCleanupFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "garage_attachment_cleanup_failures_total", Help: "Best-effort attachment deletions that failed"},
	)
)

func init() { prometheus.MustRegister(attachmentUploads, attachmentCleanupFailures) }
