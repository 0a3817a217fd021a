// Package metrics defines the custom Prometheus metrics of the accounts API.
// All metrics register with the default registry at package init through
// promauto, and are served by the echoprometheus handler on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accounts"

// ── Authentication ────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "inactive" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokensRevokedTotal counts refresh tokens added to the blacklist.
// Label:
//   - reason: "logout" or "rotation"
var TokensRevokedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_revoked_total",
		Help:      "Total number of refresh tokens revoked.",
	},
	[]string{"reason"},
)

// ── Accounts ──────────────────────────────────────────────────────────────────

var SignupsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of accounts created.",
	},
)

// PasswordResetsTotal counts accepted recovery requests, known emails or not.
var PasswordResetsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Total number of password recovery requests accepted.",
	},
)

// ── Background jobs ───────────────────────────────────────────────────────────

// JobsProcessedTotal counts executed jobs.
// Labels:
//   - job: the job name (e.g. "send_password_reset_email")
//   - status: "SUCCESS" or "FAILURE"
var JobsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_processed_total",
		Help:      "Total number of background jobs executed, by job and outcome.",
	},
	[]string{"job", "status"},
)

var JobDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Duration of a background job from dequeue to recorded result.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"job"},
)

// JobsQueueDepth tracks jobs waiting in each dispatcher worker channel.
var JobsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "jobs_queue_depth",
		Help:      "Current number of jobs pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
