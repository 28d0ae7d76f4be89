package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending
// email. Plain-text only; the request path publishes and forgets,
// delivery is the worker's problem.
type EmailJob struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}
