package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"legislative-ai-assist/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository handles database operations for conversations
// and their messages.
type ConversationRepository struct {
	db *pgxpool.Pool
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create inserts a new conversation.
func (r *ConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO conversations (id, title)
		VALUES ($1, $2)
		RETURNING created_at, updated_at`,
		conv.ID, conv.Title,
	).Scan(&conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// GetByID fetches a conversation.
func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.QueryRow(ctx, `
		SELECT id, title, created_at, updated_at
		FROM conversations WHERE id = $1`, id,
	).Scan(&conv.ID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

// AddMessage stores one message and bumps the conversation timestamp.
func (r *ConversationRepository) AddMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	sourcesJSON, err := json.Marshal(msg.Sources)
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, sources, confidence, language, model, token_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		msg.ID, msg.ConversationID, msg.Role, msg.Content, sourcesJSON, msg.Confidence, msg.Language, msg.Model, msg.TokenCount,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add message: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		UPDATE conversations SET updated_at = NOW() WHERE id = $1`, msg.ConversationID)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}

// GetMessages returns the most recent messages of a conversation in
// chronological order. The newest `limit` messages are selected, then
// reversed so callers can replay them oldest first.
func (r *ConversationRepository) GetMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, conversation_id, role, content, sources, confidence, language, model, token_count, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		var sourcesJSON []byte
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &sourcesJSON, &msg.Confidence, &msg.Language, &msg.Model, &msg.TokenCount, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if len(sourcesJSON) > 0 {
			if err := json.Unmarshal(sourcesJSON, &msg.Sources); err != nil {
				return nil, fmt.Errorf("failed to unmarshal sources: %w", err)
			}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Delete removes a conversation and, via cascade, its messages.
func (r *ConversationRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConversationNotFound
	}
	return nil
}
