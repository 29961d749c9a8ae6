package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "filebackup"

	metricLabelHandler = "handler"
	metricLabelStatus  = "status"
	metricLabelReason  = "reason"
)

var (
	// BackupsCreatedCounter count the number of backups written
	BackupsCreatedCounter = newCounterVec(
		"backups_created_count",
		"Number of backups that were successfully created",
	)
	// BackupsFailedCounter count the number of failed backup attempts
	BackupsFailedCounter = newCounterVec(
		"backups_failed_count",
		"Number of backups that failed, by reason",
		metricLabelReason,
	)
	// RestoresCounter count the number of restores
	RestoresCounter = newCounterVec(
		"restores_count",
		"Number of restores, by status",
		metricLabelStatus,
	)
	// CleanupDeletedCounter count the number of expired backups removed
	CleanupDeletedCounter = newCounterVec(
		"cleanup_deleted_count",
		"Number of expired backups removed by cleanup",
	)
	// CleanupSkippedCounter count the number of entries cleanup refused to touch
	CleanupSkippedCounter = newCounterVec(
		"cleanup_skipped_count",
		"Number of backup like entries kept because their timestamp did not parse or deletion failed",
		metricLabelReason,
	)
	// CleanupDuration observe the duration of each cleanup sweep
	CleanupDuration = newSummaryVec(
		"cleanup_duration_seconds",
		"Duration in seconds for each cleanup sweep",
	)
	// ServiceRequestCounter count the number of requests for each handler
	ServiceRequestCounter = newCounterVec(
		"service_request_count",
		"Count of requests for each handler",
		metricLabelHandler, metricLabelStatus,
	)
	// ServiceRequestDuration observe the duration of requests for each handler
	ServiceRequestDuration = newSummaryVec(
		"service_request_duration_seconds",
		"Seconds to unmarshal requests, execute a handler and marshal its reponses",
		metricLabelHandler, metricLabelStatus,
	)
)

func newSummaryVec(name, help string, labels ...string) *prometheus.SummaryVec {
	vec := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}
