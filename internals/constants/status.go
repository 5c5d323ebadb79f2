package constants

// Status submission
const (
	SubmissionSubmitted     = "submitted"
	SubmissionGraded        = "graded"
	SubmissionGradingFailed = "grading_failed"
	SubmissionPublished     = "published"
)

// Plan & status subscription
const (
	PlanFree    = "free"
	PlanBasic   = "basic"
	PlanPremium = "premium"

	SubscriptionPending  = "pending"
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
	SubscriptionExpired  = "expired"
)
