package service

import (
	"context"
	"testing"
	"time"

	"dgbcommerce-api/internal/core/domain"
	"dgbcommerce-api/internal/core/ports/mocks"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"
)

func TestAuditService_Log_PersistsToRepo(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockAuditRepository(ctrl)
	svc := NewAuditService(mockRepo, newTestLogger())

	merchantID := uuid.New()
	done := make(chan struct{})
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, log *domain.AuditLog) error {
			defer close(done)
			if log.Action != domain.AuditActionChangePassword {
				t.Errorf("expected CHANGE_PASSWORD, got %s", log.Action)
			}
			if log.ID == uuid.Nil || log.CreatedAt.IsZero() {
				t.Errorf("expected id and timestamp to be filled in")
			}
			if log.MerchantID == nil || *log.MerchantID != merchantID {
				t.Errorf("merchant id not carried through")
			}
			return nil
		},
	)

	svc.Log(context.Background(), &domain.AuditLog{
		MerchantID:   &merchantID,
		Action:       domain.AuditActionChangePassword,
		ResourceType: "merchant",
		IPAddress:    "127.0.0.1",
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("audit log not persisted in time")
	}
}

func TestAuditService_Log_NilRepo(t *testing.T) {
	svc := NewAuditService(nil, newTestLogger())

	// Should not panic
	svc.Log(context.Background(), &domain.AuditLog{
		Action:       domain.AuditActionAuthenticate,
		ResourceType: "session",
		IPAddress:    "127.0.0.1",
	})

	time.Sleep(50 * time.Millisecond) // let goroutine run
}
