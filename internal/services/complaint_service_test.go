package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"excos_backend/internal/auth"
	"excos_backend/internal/models"
	"excos_backend/internal/repositories"
	"excos_backend/internal/services/dto"
	"excos_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var referencePattern = regexp.MustCompile(`^REF-\d{6}$`)

type complaintFixture struct {
	svc           ComplaintService
	users         *fakeUserRepo
	complaints    *fakeComplaintRepo
	notifications *fakeNotificationRepo
	audit         *fakeAuditRepo
	sender        *fakeSender
}

func newComplaintFixture(t *testing.T) *complaintFixture {
	t.Helper()
	users := newFakeUserRepo()
	f := &complaintFixture{
		users:         users,
		complaints:    newFakeComplaintRepo(users),
		notifications: newFakeNotificationRepo(),
		audit:         &fakeAuditRepo{},
		sender:        &fakeSender{},
	}
	f.svc = NewComplaintService(f.complaints, f.users, f.notifications, f.audit, f.sender, "http://localhost:3000")
	return f
}

func (f *complaintFixture) addStudent(t *testing.T, id, email, department, faculty string) *models.User {
	t.Helper()
	u := &models.User{
		FirstName:  "Ada",
		LastName:   "Obi",
		Email:      email,
		Role:       models.UserRoleStudent,
		Department: department,
		Faculty:    faculty,
	}
	u.ID = id
	f.users.users[id] = u
	return u
}

func (f *complaintFixture) addAdmin(t *testing.T, id string, position models.AdminPosition, department, faculty string) *auth.SessionClaims {
	t.Helper()
	u := &models.User{
		FirstName:  "Dan",
		LastName:   "Eze",
		Email:      id + "@excos.edu",
		Role:       models.UserRoleAdmin,
		Position:   position,
		Department: department,
		Faculty:    faculty,
	}
	u.ID = id
	f.users.users[id] = u
	return &auth.SessionClaims{
		UserID:     id,
		Role:       models.UserRoleAdmin,
		Position:   position,
		Department: department,
		Faculty:    faculty,
	}
}

func validCreateRequest() *dto.CreateComplaintRequest {
	return &dto.CreateComplaintRequest{
		ExamName:    "CSC301 Final",
		ExamType:    "final",
		ExamDate:    time.Now().AddDate(0, 0, -3),
		CourseCode:  "CSC301",
		Description: "My script was marked with the wrong answer key for section B.",
	}
}

func TestGenerateReferenceNumber(t *testing.T) {
	for i := 0; i < 50; i++ {
		assert.Regexp(t, referencePattern, GenerateReferenceNumber())
	}
}

func TestCreateComplaint(t *testing.T) {
	t.Run("authenticated student submits as themselves", func(t *testing.T) {
		f := newComplaintFixture(t)
		f.addStudent(t, "student-1", "ada@student.edu", "Computer Science", "Engineering")
		claims := &auth.SessionClaims{UserID: "student-1", Role: models.UserRoleStudent}

		resp, err := f.svc.Create(context.Background(), claims, validCreateRequest())
		require.NoError(t, err)

		assert.Regexp(t, referencePattern, resp.ReferenceNumber)
		assert.Equal(t, models.StatusPending, resp.Status)
		// Scoping columns are denormalized from the student record
		assert.Equal(t, "Computer Science", resp.Department)
		assert.Equal(t, "Engineering", resp.Faculty)

		// A submission notification is written for the student
		count, _ := f.notifications.CountUnread("student-1")
		assert.Equal(t, int64(1), count)
	})

	t.Run("anonymous submission creates the student record", func(t *testing.T) {
		f := newComplaintFixture(t)

		req := validCreateRequest()
		req.Email = "new@student.edu"
		req.FirstName = "New"
		req.LastName = "Student"
		req.StudentID = "STU-001"

		resp, err := f.svc.Create(context.Background(), nil, req)
		require.NoError(t, err)
		assert.Regexp(t, referencePattern, resp.ReferenceNumber)

		user, err := f.users.FindByEmail("new@student.edu")
		require.NoError(t, err)
		assert.Equal(t, models.UserRoleStudent, user.Role)
		assert.Equal(t, "STU-001", user.StudentID)
	})

	t.Run("anonymous submission without email is rejected", func(t *testing.T) {
		f := newComplaintFixture(t)

		_, err := f.svc.Create(context.Background(), nil, validCreateRequest())
		require.Error(t, err)

		var appErr *apperrors.AppError
		require.True(t, apperrors.As(err, &appErr))
		assert.Equal(t, 400, appErr.HTTPCode)
	})

	t.Run("reference collision is retried", func(t *testing.T) {
		f := newComplaintFixture(t)
		f.addStudent(t, "student-1", "ada@student.edu", "", "")
		f.complaints.failCreates = 2
		claims := &auth.SessionClaims{UserID: "student-1", Role: models.UserRoleStudent}

		resp, err := f.svc.Create(context.Background(), claims, validCreateRequest())
		require.NoError(t, err)
		assert.Regexp(t, referencePattern, resp.ReferenceNumber)
	})

	t.Run("persistent collisions fail after three attempts", func(t *testing.T) {
		f := newComplaintFixture(t)
		f.addStudent(t, "student-1", "ada@student.edu", "", "")
		f.complaints.failCreates = 3
		claims := &auth.SessionClaims{UserID: "student-1", Role: models.UserRoleStudent}

		_, err := f.svc.Create(context.Background(), claims, validCreateRequest())
		assert.Error(t, err)
	})

	t.Run("failed anonymous submission leaves no user row behind", func(t *testing.T) {
		f := newComplaintFixture(t)
		f.complaints.failCreates = 3

		req := validCreateRequest()
		req.Email = "new@student.edu"
		req.FirstName = "New"
		req.LastName = "Student"

		_, err := f.svc.Create(context.Background(), nil, req)
		require.Error(t, err)

		// The student insert rides the complaint transaction, so the
		// rollback must take the user with it.
		_, err = f.users.FindByEmail("new@student.edu")
		assert.ErrorIs(t, err, repositories.ErrUserNotFound)
	})

	t.Run("admins cannot submit complaints", func(t *testing.T) {
		f := newComplaintFixture(t)
		claims := f.addAdmin(t, "admin-1", models.PositionLecturer, "CS", "Engineering")

		_, err := f.svc.Create(context.Background(), claims, validCreateRequest())
		assert.Error(t, err)
	})
}

func TestComplaintVisibility(t *testing.T) {
	setup := func(t *testing.T) (*complaintFixture, string) {
		f := newComplaintFixture(t)
		f.addStudent(t, "student-1", "ada@student.edu", "Computer Science", "Engineering")
		claims := &auth.SessionClaims{UserID: "student-1", Role: models.UserRoleStudent}
		resp, err := f.svc.Create(context.Background(), claims, validCreateRequest())
		require.NoError(t, err)
		return f, resp.ID
	}

	t.Run("owner sees own complaint", func(t *testing.T) {
		f, id := setup(t)
		claims := &auth.SessionClaims{UserID: "student-1", Role: models.UserRoleStudent}
		_, err := f.svc.GetByID(context.Background(), claims, id)
		assert.NoError(t, err)
	})

	t.Run("other students get not found", func(t *testing.T) {
		f, id := setup(t)
		f.addStudent(t, "student-2", "ben@student.edu", "Computer Science", "Engineering")
		claims := &auth.SessionClaims{UserID: "student-2", Role: models.UserRoleStudent}

		_, err := f.svc.GetByID(context.Background(), claims, id)
		assert.ErrorIs(t, err, apperrors.ErrComplaintNotFound)
	})

	t.Run("lecturer in the same department sees it", func(t *testing.T) {
		f, id := setup(t)
		claims := f.addAdmin(t, "admin-1", models.PositionLecturer, "Computer Science", "Engineering")

		_, err := f.svc.GetByID(context.Background(), claims, id)
		assert.NoError(t, err)
	})

	t.Run("lecturer in another department gets not found", func(t *testing.T) {
		f, id := setup(t)
		claims := f.addAdmin(t, "admin-1", models.PositionLecturer, "Mathematics", "Engineering")

		_, err := f.svc.GetByID(context.Background(), claims, id)
		assert.ErrorIs(t, err, apperrors.ErrComplaintNotFound)
	})

	t.Run("dean of the faculty sees it", func(t *testing.T) {
		f, id := setup(t)
		claims := f.addAdmin(t, "admin-1", models.PositionDean, "History", "Engineering")

		_, err := f.svc.GetByID(context.Background(), claims, id)
		assert.NoError(t, err)
	})

	t.Run("system administrator sees everything", func(t *testing.T) {
		f, id := setup(t)
		claims := f.addAdmin(t, "admin-1", models.PositionSystemAdmin, "", "")

		_, err := f.svc.GetByID(context.Background(), claims, id)
		assert.NoError(t, err)
	})

	t.Run("list is scoped the same way", func(t *testing.T) {
		f, _ := setup(t)
		outOfScope := f.addAdmin(t, "admin-1", models.PositionLecturer, "Mathematics", "Engineering")
		inScope := f.addAdmin(t, "admin-2", models.PositionLecturer, "Computer Science", "Engineering")

		empty, err := f.svc.List(context.Background(), outOfScope, &dto.ComplaintListQuery{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), empty.Total)

		visible, err := f.svc.List(context.Background(), inScope, &dto.ComplaintListQuery{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), visible.Total)
	})
}

func TestTrackByReference(t *testing.T) {
	f := newComplaintFixture(t)
	f.addStudent(t, "student-1", "ada@student.edu", "CS", "Engineering")
	claims := &auth.SessionClaims{UserID: "student-1", Role: models.UserRoleStudent}
	created, err := f.svc.Create(context.Background(), claims, validCreateRequest())
	require.NoError(t, err)

	t.Run("known reference returns the complaint without submitter", func(t *testing.T) {
		resp, err := f.svc.TrackByReference(context.Background(), created.ReferenceNumber)
		require.NoError(t, err)
		assert.Equal(t, created.ReferenceNumber, resp.ReferenceNumber)
		assert.Nil(t, resp.Submitter)
	})

	t.Run("unknown reference is not found", func(t *testing.T) {
		_, err := f.svc.TrackByReference(context.Background(), "REF-000000")
		assert.ErrorIs(t, err, apperrors.ErrComplaintNotFound)
	})
}

func TestUpdateStatus(t *testing.T) {
	setup := func(t *testing.T) (*complaintFixture, *auth.SessionClaims, string) {
		f := newComplaintFixture(t)
		f.addStudent(t, "student-1", "ada@student.edu", "Computer Science", "Engineering")
		studentClaims := &auth.SessionClaims{UserID: "student-1", Role: models.UserRoleStudent}
		created, err := f.svc.Create(context.Background(), studentClaims, validCreateRequest())
		require.NoError(t, err)
		admin := f.addAdmin(t, "admin-1", models.PositionSystemAdmin, "", "")
		return f, admin, created.ID
	}

	t.Run("writes a history row on every transition", func(t *testing.T) {
		f, admin, id := setup(t)

		resp, err := f.svc.UpdateStatus(context.Background(), admin, id, &dto.UpdateStatusRequest{
			Status: models.StatusResolved,
			Note:   "remarked and corrected",
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusResolved, resp.Status)
		require.Len(t, resp.StatusHistory, 1)
		assert.Equal(t, models.StatusPending, resp.StatusHistory[0].OldStatus)
		assert.Equal(t, models.StatusResolved, resp.StatusHistory[0].NewStatus)
	})

	t.Run("last writer wins with no transition rules", func(t *testing.T) {
		f, admin, id := setup(t)

		_, err := f.svc.UpdateStatus(context.Background(), admin, id, &dto.UpdateStatusRequest{Status: models.StatusResolved})
		require.NoError(t, err)

		// Reopening a resolved complaint straight to rejected is allowed
		resp, err := f.svc.UpdateStatus(context.Background(), admin, id, &dto.UpdateStatusRequest{Status: models.StatusRejected})
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, resp.Status)
		assert.Len(t, resp.StatusHistory, 2)
	})

	t.Run("no-op transition still writes history", func(t *testing.T) {
		f, admin, id := setup(t)

		resp, err := f.svc.UpdateStatus(context.Background(), admin, id, &dto.UpdateStatusRequest{Status: models.StatusPending})
		require.NoError(t, err)
		require.Len(t, resp.StatusHistory, 1)
		assert.Equal(t, models.StatusPending, resp.StatusHistory[0].NewStatus)
	})

	t.Run("invalid status is rejected", func(t *testing.T) {
		f, admin, id := setup(t)

		_, err := f.svc.UpdateStatus(context.Background(), admin, id, &dto.UpdateStatusRequest{Status: "archived"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidComplaintStatus)
	})

	t.Run("students cannot change status", func(t *testing.T) {
		f, _, id := setup(t)
		studentClaims := &auth.SessionClaims{UserID: "student-1", Role: models.UserRoleStudent}

		_, err := f.svc.UpdateStatus(context.Background(), studentClaims, id, &dto.UpdateStatusRequest{Status: models.StatusResolved})
		assert.ErrorIs(t, err, apperrors.ErrInsufficientPermissions)
	})

	t.Run("out-of-scope admin gets not found", func(t *testing.T) {
		f, _, id := setup(t)
		outOfScope := f.addAdmin(t, "admin-2", models.PositionLecturer, "Mathematics", "Engineering")

		_, err := f.svc.UpdateStatus(context.Background(), outOfScope, id, &dto.UpdateStatusRequest{Status: models.StatusResolved})
		assert.ErrorIs(t, err, apperrors.ErrComplaintNotFound)
	})

	t.Run("writes an audit entry for the transition", func(t *testing.T) {
		f, admin, id := setup(t)

		_, err := f.svc.UpdateStatus(context.Background(), admin, id, &dto.UpdateStatusRequest{Status: models.StatusResolved})
		require.NoError(t, err)

		require.Len(t, f.audit.entries, 1)
		entry := f.audit.entries[0]
		assert.Equal(t, "update_status", entry.Action)
		assert.Equal(t, "complaint", entry.Entity)
		assert.Equal(t, id, entry.EntityID)
		assert.Equal(t, admin.UserID, entry.UserID)
		assert.Contains(t, string(entry.Details), `"new_status":"resolved"`)
	})

	t.Run("student is notified of the change", func(t *testing.T) {
		f, admin, id := setup(t)
		before, _ := f.notifications.CountUnread("student-1")

		_, err := f.svc.UpdateStatus(context.Background(), admin, id, &dto.UpdateStatusRequest{Status: models.StatusResolved})
		require.NoError(t, err)

		after, _ := f.notifications.CountUnread("student-1")
		assert.Equal(t, before+1, after)
	})
}

func TestRespond(t *testing.T) {
	setup := func(t *testing.T) (*complaintFixture, *auth.SessionClaims, string) {
		f := newComplaintFixture(t)
		f.addStudent(t, "student-1", "ada@student.edu", "Computer Science", "Engineering")
		studentClaims := &auth.SessionClaims{UserID: "student-1", Role: models.UserRoleStudent}
		created, err := f.svc.Create(context.Background(), studentClaims, validCreateRequest())
		require.NoError(t, err)
		admin := f.addAdmin(t, "admin-1", models.PositionLecturer, "Computer Science", "Engineering")
		return f, admin, created.ID
	}

	t.Run("first response moves pending to under-review", func(t *testing.T) {
		f, admin, id := setup(t)

		resp, err := f.svc.Respond(context.Background(), admin, id, &dto.RespondRequest{
			Message: "We are looking into the marking of section B.",
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusUnderReview, resp.Status)
		require.Len(t, resp.Responses, 1)
		assert.Equal(t, "Dan Eze", resp.Responses[0].AuthorName)
		require.Len(t, resp.StatusHistory, 1)
		assert.Equal(t, models.StatusUnderReview, resp.StatusHistory[0].NewStatus)
	})

	t.Run("responses after review do not change status", func(t *testing.T) {
		f, admin, id := setup(t)

		_, err := f.svc.Respond(context.Background(), admin, id, &dto.RespondRequest{Message: "first"})
		require.NoError(t, err)

		resp, err := f.svc.Respond(context.Background(), admin, id, &dto.RespondRequest{Message: "second"})
		require.NoError(t, err)
		assert.Equal(t, models.StatusUnderReview, resp.Status)
		assert.Len(t, resp.Responses, 2)
		assert.Len(t, resp.StatusHistory, 1)
	})

	t.Run("students cannot respond", func(t *testing.T) {
		f, _, id := setup(t)
		studentClaims := &auth.SessionClaims{UserID: "student-1", Role: models.UserRoleStudent}

		_, err := f.svc.Respond(context.Background(), studentClaims, id, &dto.RespondRequest{Message: "hello"})
		assert.ErrorIs(t, err, apperrors.ErrInsufficientPermissions)
	})
}
