package users

import (
	"context"
	"testing"

	"github.com/goback-io/goback/internal/domain/user"
	svcerrors "github.com/goback-io/goback/internal/errors"
	"github.com/goback-io/goback/internal/storage/memory"
)

func newTestService() *Service {
	return NewService(memory.New())
}

func validCreate() user.CreateRequest {
	return user.CreateRequest{
		Email:     "jane@example.com",
		Password:  "password123",
		FirstName: "Jane",
		LastName:  "Doe",
	}
}

func TestCreateUser(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreate())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Error("created user has empty ID")
	}
	if !created.IsActive {
		t.Error("created user is not active")
	}
	if created.HashedPassword == "password123" {
		t.Error("password stored in plain text")
	}
	if !VerifyPassword("password123", created.HashedPassword) {
		t.Error("stored hash does not verify the original password")
	}
}

func TestCreateNormalizesEmail(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	req := validCreate()
	req.Email = "  Jane@Example.COM "
	created, err := svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Email != "jane@example.com" {
		t.Errorf("Email = %q, want jane@example.com", created.Email)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, validCreate()); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := svc.Create(ctx, validCreate())
	svcErr := svcerrors.GetServiceError(err)
	if svcErr == nil || svcErr.Code != svcerrors.CodeConflict {
		t.Fatalf("second Create error = %v, want CONFLICT", err)
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*user.CreateRequest)
	}{
		{"empty email", func(r *user.CreateRequest) { r.Email = "" }},
		{"malformed email", func(r *user.CreateRequest) { r.Email = "not-an-email" }},
		{"short password", func(r *user.CreateRequest) { r.Password = "short" }},
		{"long password", func(r *user.CreateRequest) { r.Password = "0123456789012345678901234567890" }},
		{"blank password", func(r *user.CreateRequest) { r.Password = "        " }},
		{"short first name", func(r *user.CreateRequest) { r.FirstName = "J" }},
		{"blank last name", func(r *user.CreateRequest) { r.LastName = "   " }},
	}

	svc := newTestService()
	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate()
			tt.mutate(&req)
			_, err := svc.Create(ctx, req)
			svcErr := svcerrors.GetServiceError(err)
			if svcErr == nil || svcErr.Code != svcerrors.CodeValidation {
				t.Fatalf("Create error = %v, want VALIDATION_ERROR", err)
			}
		})
	}
}

func TestGetMissingUser(t *testing.T) {
	svc := newTestService()
	_, err := svc.Get(context.Background(), "no-such-id")
	svcErr := svcerrors.GetServiceError(err)
	if svcErr == nil || svcErr.Code != svcerrors.CodeNotFound {
		t.Fatalf("Get error = %v, want NOT_FOUND", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, validCreate())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	first := "Janet"
	updated, err := svc.Update(ctx, created.ID, user.UpdateRequest{FirstName: &first})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.FirstName != "Janet" {
		t.Errorf("FirstName = %q, want Janet", updated.FirstName)
	}
	if updated.LastName != "Doe" {
		t.Errorf("LastName = %q, want Doe (unchanged)", updated.LastName)
	}

	bad := "X"
	if _, err := svc.Update(ctx, created.ID, user.UpdateRequest{LastName: &bad}); err == nil {
		t.Error("Update accepted a one-character last name")
	}
}

func TestUpdatePassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, validCreate())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.UpdatePassword(ctx, created.ID, "newpassword1"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	u, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !VerifyPassword("newpassword1", u.HashedPassword) {
		t.Error("new password does not verify")
	}
	if VerifyPassword("password123", u.HashedPassword) {
		t.Error("old password still verifies")
	}
}

func TestDeleteIsSoft(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, validCreate())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// the row survives deactivation
	u, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if u.IsActive {
		t.Error("user still active after delete")
	}

	active, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("ListActive returned %d users, want 0", len(active))
	}

	if err := svc.Reactivate(ctx, created.ID); err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
	active, err = svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 {
		t.Errorf("ListActive returned %d users after reactivate, want 1", len(active))
	}
}
