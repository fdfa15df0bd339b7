package services

import (
	"fmt"
	"sync"
	"time"

	"excos_backend/internal/auth"
	"excos_backend/internal/email"
	"excos_backend/internal/models"
	"excos_backend/internal/repositories"

	"gorm.io/gorm"
)

// In-memory repository fakes for service-level tests. They honor the same
// sentinel-error contracts as the real implementations.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
	seq   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) WithTx(tx *gorm.DB) repositories.UserRepository { return r }

func (r *fakeUserRepo) FindByID(id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) FindByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) FindByStudentID(studentID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.StudentID == studentID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrUserAlreadyExists
		}
	}
	if user.ID == "" {
		r.seq++
		user.ID = fmt.Sprintf("user-%d", r.seq)
	}
	user.CreatedAt = time.Now()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Update(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) UpdatePassword(userID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) UpdateProfileImage(userID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.ProfileImageURL = url
	return nil
}

func (r *fakeUserRepo) FindByRole(role models.UserRole, limit, offset int) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) CountByRole(role models.UserRole) (int64, error) {
	users, _ := r.FindByRole(role, 0, 0)
	return int64(len(users)), nil
}

type fakeComplaintRepo struct {
	mu         sync.Mutex
	complaints map[string]*models.Complaint
	history    []models.ComplaintStatusHistory
	responses  []models.ComplaintResponse
	seq        int

	// users receives first-time submitters, mirroring the transactional
	// insert of the real repository.
	users *fakeUserRepo

	// failCreates forces the first N inserts to report a reference
	// collision.
	failCreates int
}

func newFakeComplaintRepo(users *fakeUserRepo) *fakeComplaintRepo {
	return &fakeComplaintRepo{
		complaints: make(map[string]*models.Complaint),
		users:      users,
	}
}

func (r *fakeComplaintRepo) WithTx(tx *gorm.DB) repositories.ComplaintRepository { return r }

// CreateWithSubmitter checks for collisions before touching the user
// table, matching the all-or-nothing semantics of the real transaction.
func (r *fakeComplaintRepo) CreateWithSubmitter(submitter *models.User, complaint *models.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreates > 0 {
		r.failCreates--
		return repositories.ErrDuplicateReference
	}
	for _, c := range r.complaints {
		if c.ReferenceNumber == complaint.ReferenceNumber {
			return repositories.ErrDuplicateReference
		}
	}
	if submitter != nil {
		if err := r.users.Create(submitter); err != nil {
			return err
		}
		complaint.UserID = submitter.ID
	}
	r.seq++
	complaint.ID = fmt.Sprintf("complaint-%d", r.seq)
	complaint.CreatedAt = time.Now()
	copied := *complaint
	r.complaints[complaint.ID] = &copied
	return nil
}

func (r *fakeComplaintRepo) FindByID(id string) (*models.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.complaints[id]
	if !ok {
		return nil, repositories.ErrComplaintNotFound
	}
	return r.withTrails(c), nil
}

func (r *fakeComplaintRepo) FindByReference(referenceNumber string) (*models.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.complaints {
		if c.ReferenceNumber == referenceNumber {
			return r.withTrails(c), nil
		}
	}
	return nil, repositories.ErrComplaintNotFound
}

func (r *fakeComplaintRepo) withTrails(c *models.Complaint) *models.Complaint {
	copied := *c
	for _, h := range r.history {
		if h.ComplaintID == c.ID {
			copied.StatusHistory = append(copied.StatusHistory, h)
		}
	}
	for _, resp := range r.responses {
		if resp.ComplaintID == c.ID {
			copied.Responses = append(copied.Responses, resp)
		}
	}
	return &copied
}

func (r *fakeComplaintRepo) FindScoped(scope auth.Scope, filter repositories.ComplaintFilter) ([]models.Complaint, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Complaint
	for _, c := range r.complaints {
		if !scope.Allows(c) {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *fakeComplaintRepo) UpdateStatus(id string, newStatus models.ComplaintStatus, changedBy, note string) (*models.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.complaints[id]
	if !ok {
		return nil, repositories.ErrComplaintNotFound
	}
	r.history = append(r.history, models.ComplaintStatusHistory{
		ComplaintID: id,
		OldStatus:   c.Status,
		NewStatus:   newStatus,
		ChangedBy:   changedBy,
		Note:        note,
	})
	c.Status = newStatus
	copied := *c
	return &copied, nil
}

func (r *fakeComplaintRepo) AppendResponse(response *models.ComplaintResponse, moveToUnderReview bool) (*models.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.complaints[response.ComplaintID]
	if !ok {
		return nil, repositories.ErrComplaintNotFound
	}
	r.responses = append(r.responses, *response)
	if moveToUnderReview && c.Status == models.StatusPending {
		r.history = append(r.history, models.ComplaintStatusHistory{
			ComplaintID: c.ID,
			OldStatus:   models.StatusPending,
			NewStatus:   models.StatusUnderReview,
			ChangedBy:   response.AuthorID,
		})
		c.Status = models.StatusUnderReview
	}
	copied := *c
	return &copied, nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []*models.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo { return &fakeNotificationRepo{} }

func (r *fakeNotificationRepo) WithTx(tx *gorm.DB) repositories.NotificationRepository { return r }

func (r *fakeNotificationRepo) Create(n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *n
	r.notifications = append(r.notifications, &copied)
	return nil
}

func (r *fakeNotificationRepo) FindByID(id string) (*models.Notification, error) {
	return nil, repositories.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) FindByUser(userID string, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.notifications {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, *n)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeNotificationRepo) CountUnread(userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkRead(id, userID string) error    { return nil }
func (r *fakeNotificationRepo) MarkAllRead(userID string) error     { return nil }
func (r *fakeNotificationRepo) Delete(id, userID string) error      { return nil }
func (r *fakeNotificationRepo) DeleteReadOlderThan(cutoff time.Time) (int64, error) {
	return 0, nil
}

// fakeSender swallows emails; the services treat delivery as best-effort.
type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *fakeSender) record(template string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, template)
}

func (s *fakeSender) Send(e *email.Email) error { return nil }
func (s *fakeSender) SendTemplate(to []string, subject, templateName string, data interface{}) error {
	s.record(templateName)
	return nil
}
func (s *fakeSender) SendPasswordReset(to, userName, resetURL string) error {
	s.record("password_reset")
	return nil
}
func (s *fakeSender) SendSubmissionConfirmation(to, userName, referenceNumber, examName, trackURL string) error {
	s.record("submission_confirmation")
	return nil
}
func (s *fakeSender) SendResponseNotification(to, userName, referenceNumber, responderName, responseText, complaintURL string) error {
	s.record("response_notification")
	return nil
}
func (s *fakeSender) SendStatusChange(to, userName, referenceNumber, newStatus, complaintURL string) error {
	s.record("status_change")
	return nil
}
