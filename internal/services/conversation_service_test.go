package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supporthub/backend-go/internal/errors"
	"github.com/supporthub/backend-go/internal/models"
)

func TestCreateConversation_GeneratesGuestID(t *testing.T) {
	db, mock := newMockDB(t)
	service := &ConversationService{db: db}

	mock.ExpectQuery(`INSERT INTO "conversations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	conversation, err := service.CreateConversation(context.Background(), &CreateConversationRequest{})
	require.NoError(t, err)
	assert.Contains(t, conversation.CustomerID, "guest-")
	assert.Equal(t, models.ConversationActive, conversation.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateConversation_KeepsProvidedCustomerID(t *testing.T) {
	db, mock := newMockDB(t)
	service := &ConversationService{db: db}

	mock.ExpectQuery(`INSERT INTO "conversations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	conversation, err := service.CreateConversation(context.Background(), &CreateConversationRequest{
		CustomerID: "cust-042",
	})
	require.NoError(t, err)
	assert.Equal(t, "cust-042", conversation.CustomerID)
}

func TestReviewDraft_ApproveMakesFinal(t *testing.T) {
	db, mock := newMockDB(t)
	service := &ConversationService{db: db}

	mock.ExpectQuery(`SELECT \* FROM "messages"`).
		WillReturnRows(draftRow(10, 3))
	mock.ExpectExec(`UPDATE "messages"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "agent_actions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	message, err := service.ReviewDraft(context.Background(), 10, "agent-1", &ReviewDraftRequest{
		Action: models.ActionApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MessageFinal, message.MessageType)
	assert.Empty(t, message.OriginalAIContent, "approve不改写内容")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewDraft_EditPreservesOriginal(t *testing.T) {
	db, mock := newMockDB(t)
	service := &ConversationService{db: db}

	mock.ExpectQuery(`SELECT \* FROM "messages"`).
		WillReturnRows(draftRow(10, 3))
	mock.ExpectExec(`UPDATE "messages"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "agent_actions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	message, err := service.ReviewDraft(context.Background(), 10, "agent-1", &ReviewDraftRequest{
		Action:  models.ActionEdit,
		Content: "修正后的回复",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MessageAgentEdited, message.MessageType)
	assert.Equal(t, "修正后的回复", message.Content)
	assert.Equal(t, "AI draft content", message.OriginalAIContent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewDraft_EditRequiresContent(t *testing.T) {
	db, mock := newMockDB(t)
	service := &ConversationService{db: db}

	mock.ExpectQuery(`SELECT \* FROM "messages"`).
		WillReturnRows(draftRow(10, 3))

	_, err := service.ReviewDraft(context.Background(), 10, "agent-1", &ReviewDraftRequest{
		Action: models.ActionEdit,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingRequired))
}

func TestReviewDraft_RejectsNonDraft(t *testing.T) {
	db, mock := newMockDB(t)
	service := &ConversationService{db: db}

	mock.ExpectQuery(`SELECT \* FROM "messages"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "content", "message_type"}).
			AddRow(11, 3, "hello", models.MessageCustomer))

	_, err := service.ReviewDraft(context.Background(), 11, "agent-1", &ReviewDraftRequest{
		Action: models.ActionApprove,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
}

func TestReviewDraft_InvalidAction(t *testing.T) {
	db, _ := newMockDB(t)
	service := &ConversationService{db: db}

	_, err := service.ReviewDraft(context.Background(), 10, "agent-1", &ReviewDraftRequest{
		Action: "delete",
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
}
