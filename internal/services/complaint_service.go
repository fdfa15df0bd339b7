package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"excos_backend/internal/auth"
	"excos_backend/internal/email"
	"excos_backend/internal/logger"
	"excos_backend/internal/models"
	"excos_backend/internal/repositories"
	"excos_backend/internal/services/dto"
	"excos_backend/pkg/apperrors"
	"excos_backend/pkg/metrics"
)

// referenceMaxAttempts bounds the regenerate-and-retry loop on
// reference-number collisions.
const referenceMaxAttempts = 3

type ComplaintService interface {
	Create(ctx context.Context, claims *auth.SessionClaims, req *dto.CreateComplaintRequest) (*dto.ComplaintResponse, error)
	List(ctx context.Context, claims *auth.SessionClaims, query *dto.ComplaintListQuery) (*dto.ComplaintListResponse, error)
	GetByID(ctx context.Context, claims *auth.SessionClaims, id string) (*dto.ComplaintResponse, error)
	TrackByReference(ctx context.Context, referenceNumber string) (*dto.ComplaintResponse, error)
	UpdateStatus(ctx context.Context, claims *auth.SessionClaims, id string, req *dto.UpdateStatusRequest) (*dto.ComplaintResponse, error)
	Respond(ctx context.Context, claims *auth.SessionClaims, id string, req *dto.RespondRequest) (*dto.ComplaintResponse, error)
}

type complaintService struct {
	complaintRepo    repositories.ComplaintRepository
	userRepo         repositories.UserRepository
	notificationRepo repositories.NotificationRepository
	auditRepo        repositories.AuditLogRepository
	emailSender      email.Sender
	appBaseURL       string
}

func NewComplaintService(
	complaintRepo repositories.ComplaintRepository,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	auditRepo repositories.AuditLogRepository,
	emailSender email.Sender,
	appBaseURL string,
) ComplaintService {
	return &complaintService{
		complaintRepo:    complaintRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		auditRepo:        auditRepo,
		emailSender:      emailSender,
		appBaseURL:       appBaseURL,
	}
}

// GenerateReferenceNumber produces a REF-NNNNNN tracking number with six
// random digits. Uniqueness is enforced by the database index; callers
// retry on collision.
func GenerateReferenceNumber() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand failing means the platform is broken; fall back to
		// a time-derived number rather than aborting the submission.
		return fmt.Sprintf("REF-%06d", time.Now().UnixNano()%1000000)
	}
	return fmt.Sprintf("REF-%06d", n.Int64())
}

func (s *complaintService) Create(ctx context.Context, claims *auth.SessionClaims, req *dto.CreateComplaintRequest) (*dto.ComplaintResponse, error) {
	user, isNew, err := s.resolveSubmitter(claims, req)
	if err != nil {
		return nil, err
	}

	complaint := &models.Complaint{
		UserID:            user.ID,
		ExamName:          req.ExamName,
		ExamType:          req.ExamType,
		ExamDate:          req.ExamDate,
		CourseCode:        req.CourseCode,
		Description:       req.Description,
		DesiredResolution: req.DesiredResolution,
		EvidenceURL:       req.EvidenceURL,
		Status:            models.StatusPending,
		Department:        firstNonEmpty(req.Department, user.Department),
		Faculty:           firstNonEmpty(req.Faculty, user.Faculty),
	}

	// First-time submitters are inserted in the same transaction as the
	// complaint, so a failed insert leaves no orphaned user row.
	var submitter *models.User
	if isNew {
		submitter = user
	}

	for attempt := 1; ; attempt++ {
		complaint.ReferenceNumber = GenerateReferenceNumber()
		err = s.complaintRepo.CreateWithSubmitter(submitter, complaint)
		if err == nil {
			break
		}
		if errors.Is(err, repositories.ErrDuplicateReference) && attempt < referenceMaxAttempts {
			logger.CtxWarn(ctx, "reference number collision, regenerating",
				"reference_number", complaint.ReferenceNumber, "attempt", attempt)
			continue
		}
		return nil, apperrors.InternalError(err)
	}

	metrics.IncrementComplaintSubmitted(complaint.ExamType)
	logger.CtxInfo(ctx, "complaint submitted",
		"complaint_id", complaint.ID, "reference_number", complaint.ReferenceNumber)

	if err := s.notificationRepo.Create(repositories.NewComplaintNotification(
		complaint.UserID,
		"complaint_submitted",
		"Complaint received",
		fmt.Sprintf("Your complaint %s has been received and is pending review.", complaint.ReferenceNumber),
		complaint.ID,
		complaint.ReferenceNumber,
	)); err != nil {
		logger.CtxWarn(ctx, "failed to create submission notification", "error", err)
	}

	// Confirmation email is best-effort; the complaint is already stored.
	trackURL := fmt.Sprintf("%s/track?ref=%s", s.appBaseURL, complaint.ReferenceNumber)
	go func(to, name, ref, exam string) {
		if err := s.emailSender.SendSubmissionConfirmation(to, name, ref, exam, trackURL); err != nil {
			logger.Error("failed to send submission confirmation", "reference_number", ref, "error", err)
		}
	}(user.Email, user.FullName(), complaint.ReferenceNumber, complaint.ExamName)

	complaint.User = user
	return dto.NewComplaintResponse(complaint, false), nil
}

// resolveSubmitter returns the owning student record. Authenticated
// students submit as themselves; otherwise the contact fields look up the
// student account, or describe a new one to be inserted alongside the
// complaint.
func (s *complaintService) resolveSubmitter(claims *auth.SessionClaims, req *dto.CreateComplaintRequest) (*models.User, bool, error) {
	if claims != nil {
		if claims.Role != models.UserRoleStudent {
			return nil, false, apperrors.ErrInvalidUserRole
		}
		user, err := s.userRepo.FindByID(claims.UserID)
		if err != nil {
			return nil, false, apperrors.InternalError(err)
		}
		return user, false, nil
	}

	if req.Email == "" {
		return nil, false, apperrors.ValidationError(map[string]string{
			"email": "This field is required when not signed in",
		})
	}

	user, err := s.userRepo.FindByEmail(req.Email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, false, apperrors.InternalError(err)
	}

	user = &models.User{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Role:       models.UserRoleStudent,
		StudentID:  req.StudentID,
		Department: req.Department,
		Faculty:    req.Faculty,
	}
	return user, true, nil
}

func (s *complaintService) List(ctx context.Context, claims *auth.SessionClaims, query *dto.ComplaintListQuery) (*dto.ComplaintListResponse, error) {
	scope := auth.ScopeFor(claims)

	filter := repositories.ComplaintFilter{
		Status:   models.ComplaintStatus(query.Status),
		ExamType: query.ExamType,
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if query.DateFrom != "" {
		if t, err := time.Parse("2006-01-02", query.DateFrom); err == nil {
			filter.DateFrom = &t
		}
	}
	if query.DateTo != "" {
		if t, err := time.Parse("2006-01-02", query.DateTo); err == nil {
			end := t.Add(24*time.Hour - time.Nanosecond)
			filter.DateTo = &end
		}
	}

	complaints, total, err := s.complaintRepo.FindScoped(scope, filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	resp := &dto.ComplaintListResponse{
		Complaints: make([]dto.ComplaintSummary, 0, len(complaints)),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
	for i := range complaints {
		resp.Complaints = append(resp.Complaints, dto.NewComplaintSummary(&complaints[i]))
	}

	return resp, nil
}

func (s *complaintService) GetByID(ctx context.Context, claims *auth.SessionClaims, id string) (*dto.ComplaintResponse, error) {
	complaint, err := s.complaintRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrComplaintNotFound) {
			return nil, apperrors.ErrComplaintNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	scope := auth.ScopeFor(claims)
	if !scope.Allows(complaint) {
		// Existence is not leaked outside the caller's scope.
		return nil, apperrors.ErrComplaintNotFound
	}

	includeSubmitter := claims.Role == models.UserRoleAdmin
	return dto.NewComplaintResponse(complaint, includeSubmitter), nil
}

// TrackByReference serves the public tracking endpoint. Holding the
// reference number is treated as authorization; the submitter identity is
// not included.
func (s *complaintService) TrackByReference(ctx context.Context, referenceNumber string) (*dto.ComplaintResponse, error) {
	complaint, err := s.complaintRepo.FindByReference(referenceNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrComplaintNotFound) {
			return nil, apperrors.ErrComplaintNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	return dto.NewComplaintResponse(complaint, false), nil
}

func (s *complaintService) UpdateStatus(ctx context.Context, claims *auth.SessionClaims, id string, req *dto.UpdateStatusRequest) (*dto.ComplaintResponse, error) {
	if !models.ValidStatuses[req.Status] {
		return nil, apperrors.ErrInvalidComplaintStatus
	}

	complaint, err := s.authorizeAdminAccess(claims, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.complaintRepo.UpdateStatus(complaint.ID, req.Status, claims.UserID, req.Note)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	metrics.IncrementStatusChange(string(req.Status))
	logger.CtxInfo(ctx, "complaint status updated",
		"complaint_id", complaint.ID, "new_status", req.Status, "changed_by", claims.UserID)

	entry := repositories.NewAuditEntry(claims.UserID, "update_status", "complaint", complaint.ID, "",
		map[string]interface{}{
			"old_status": string(complaint.Status),
			"new_status": string(req.Status),
		})
	if err := s.auditRepo.Create(entry); err != nil {
		logger.CtxWarn(ctx, "failed to write status change audit entry", "error", err)
	}

	s.notifyStatusChange(ctx, updated, req.Status)

	return s.GetByID(ctx, claims, complaint.ID)
}

func (s *complaintService) Respond(ctx context.Context, claims *auth.SessionClaims, id string, req *dto.RespondRequest) (*dto.ComplaintResponse, error) {
	complaint, err := s.authorizeAdminAccess(claims, id)
	if err != nil {
		return nil, err
	}

	author, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	response := &models.ComplaintResponse{
		ComplaintID: complaint.ID,
		AuthorID:    author.ID,
		AuthorName:  author.FullName(),
		Message:     req.Message,
	}

	updated, err := s.complaintRepo.AppendResponse(response, true)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "complaint response added",
		"complaint_id", complaint.ID, "author_id", author.ID)

	s.notifyResponse(ctx, updated, author.FullName(), req.Message)

	return s.GetByID(ctx, claims, complaint.ID)
}

// authorizeAdminAccess loads a complaint and verifies the admin caller's
// scope covers it. Out-of-scope rows surface as not found.
func (s *complaintService) authorizeAdminAccess(claims *auth.SessionClaims, id string) (*models.Complaint, error) {
	if claims == nil || claims.Role != models.UserRoleAdmin {
		return nil, apperrors.ErrInsufficientPermissions
	}

	complaint, err := s.complaintRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrComplaintNotFound) {
			return nil, apperrors.ErrComplaintNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	scope := auth.ScopeFor(claims)
	if !scope.Allows(complaint) {
		return nil, apperrors.ErrComplaintNotFound
	}

	return complaint, nil
}

func (s *complaintService) notifyStatusChange(ctx context.Context, complaint *models.Complaint, newStatus models.ComplaintStatus) {
	if err := s.notificationRepo.Create(repositories.NewComplaintNotification(
		complaint.UserID,
		"status_change",
		"Complaint status updated",
		fmt.Sprintf("Complaint %s is now %s.", complaint.ReferenceNumber, newStatus),
		complaint.ID,
		complaint.ReferenceNumber,
	)); err != nil {
		logger.CtxWarn(ctx, "failed to create status change notification", "error", err)
	}

	owner, err := s.userRepo.FindByID(complaint.UserID)
	if err != nil {
		logger.CtxWarn(ctx, "failed to load complaint owner for email", "error", err)
		return
	}

	complaintURL := fmt.Sprintf("%s/track?ref=%s", s.appBaseURL, complaint.ReferenceNumber)
	go func(to, name, ref, status string) {
		if err := s.emailSender.SendStatusChange(to, name, ref, status, complaintURL); err != nil {
			logger.Error("failed to send status change email", "reference_number", ref, "error", err)
		}
	}(owner.Email, owner.FullName(), complaint.ReferenceNumber, string(newStatus))
}

func (s *complaintService) notifyResponse(ctx context.Context, complaint *models.Complaint, responderName, message string) {
	if err := s.notificationRepo.Create(repositories.NewComplaintNotification(
		complaint.UserID,
		"new_response",
		"New response on your complaint",
		fmt.Sprintf("%s responded to complaint %s.", responderName, complaint.ReferenceNumber),
		complaint.ID,
		complaint.ReferenceNumber,
	)); err != nil {
		logger.CtxWarn(ctx, "failed to create response notification", "error", err)
	}

	owner, err := s.userRepo.FindByID(complaint.UserID)
	if err != nil {
		logger.CtxWarn(ctx, "failed to load complaint owner for email", "error", err)
		return
	}

	complaintURL := fmt.Sprintf("%s/track?ref=%s", s.appBaseURL, complaint.ReferenceNumber)
	go func(to, name, ref string) {
		if err := s.emailSender.SendResponseNotification(to, name, ref, responderName, message, complaintURL); err != nil {
			logger.Error("failed to send response notification email", "reference_number", ref, "error", err)
		}
	}(owner.Email, owner.FullName(), complaint.ReferenceNumber)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
