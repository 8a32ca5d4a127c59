package observability

// Metric name prefixes
const (
	MetricPrefix = "starsbot"
)

// Metric names
const (
	// Tournament metrics
	SettlementsTotal  = MetricPrefix + ".tournaments.settlements_total"
	TrophiesAwarded   = MetricPrefix + ".tournaments.trophies_awarded_total"
	SweepRunsTotal    = MetricPrefix + ".tournaments.sweep_runs_total"
	BroadcastsSent    = MetricPrefix + ".tournaments.broadcast_messages_total"
	SettlementLatency = MetricPrefix + ".tournaments.settlement_duration"

	// Referral metrics
	ReferralsTotal = MetricPrefix + ".referrals.processed_total"

	// Notification metrics
	NotificationsTotal = MetricPrefix + ".notifications.sent_total"

	// NATS metrics
	NATSMessagesReceivedTotal  = MetricPrefix + ".nats.messages_received_total"
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"

	// Balance metrics
	BalanceTransactionsTotal = MetricPrefix + ".balance.transactions_total"
)

// Label keys
const (
	LabelType      = "type"
	LabelEventType = "event_type"
	LabelOutcome   = "outcome"
	LabelTrigger   = "trigger"
)

// Outcomes
const (
	OutcomeSuccess        = "success"
	OutcomeAlreadySettled = "already_settled"
	OutcomeDuplicate      = "duplicate"
	OutcomeError          = "error"
)

// Settlement triggers
const (
	TriggerSweep  = "sweep"
	TriggerManual = "manual"
)
