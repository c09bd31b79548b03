package shared

const (
	ProjectID = "fitplan-project" // Can be overridden by env var in main if needed

	TopicSubmissionCompleted = "topic-submission-completed"

	CollectionUsers       = "users"
	CollectionUploads     = "uploads"
	CollectionPredictions = "predictions"
	CollectionPlans       = "plans"
)
