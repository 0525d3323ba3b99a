package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		telegramCommandsReceivedTotal,
		telegramRateLimitTriggeredTotal,
		telegramResumesTotal,
	)
}

var (
	telegramCommandsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Counts incoming messages and commands from users.",
		},
		[]string{"command"},
	)

	telegramRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Total number of times users have been rate-limited.",
		},
	)

	telegramResumesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_resumes_total",
			Help: "Résumés received through the bot, by kind and outcome.",
		},
		[]string{"kind", "outcome"}, // kind: 'pdf', 'docx', 'text'
	)
)

func IncTelegramCommand(command string) {
	telegramCommandsReceivedTotal.WithLabelValues(norm(command)).Inc()
}

func IncRateLimitTriggered() {
	telegramRateLimitTriggeredTotal.Inc()
}

func IncTelegramResume(kind, outcome string) {
	telegramResumesTotal.WithLabelValues(norm(kind), norm(outcome)).Inc()
}
