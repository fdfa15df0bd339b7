package email

// Email is one outgoing message.
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// TemplateData is the base payload shared by all templates.
type TemplateData struct {
	UserName     string
	Subject      string
	Message      string
	ActionURL    string
	ActionText   string
	SupportEmail string
}

// PasswordResetData feeds the password_reset template.
type PasswordResetData struct {
	TemplateData
	ResetURL  string
	ExpiresIn string
}

// SubmissionConfirmationData feeds the submission_confirmation template.
type SubmissionConfirmationData struct {
	TemplateData
	ReferenceNumber string
	ExamName        string
	TrackURL        string
}

// ResponseNotificationData feeds the response_notification template.
type ResponseNotificationData struct {
	TemplateData
	ReferenceNumber string
	ResponderName   string
	ResponseText    string
	ComplaintURL    string
}

// StatusChangeData feeds the status_change template.
type StatusChangeData struct {
	TemplateData
	ReferenceNumber string
	NewStatus       string
	ComplaintURL    string
}

// Sender is the outgoing-mail interface services depend on.
type Sender interface {
	Send(email *Email) error
	SendTemplate(to []string, subject, templateName string, data interface{}) error
	SendPasswordReset(to, userName, resetURL string) error
	SendSubmissionConfirmation(to, userName, referenceNumber, examName, trackURL string) error
	SendResponseNotification(to, userName, referenceNumber, responderName, responseText, complaintURL string) error
	SendStatusChange(to, userName, referenceNumber, newStatus, complaintURL string) error
}
