package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"legislative-ai-assist/config"
	"legislative-ai-assist/llm"
	"legislative-ai-assist/models"
	"legislative-ai-assist/pipeline"
	"legislative-ai-assist/repository"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrEmptyMessage         = errors.New("message must not be empty")
)

// historyLimit bounds how many stored messages are loaded per turn;
// the generator applies its own, tighter window on top.
const historyLimit = 20

// ConversationStore persists conversations and their messages.
// *repository.ConversationRepository is the production implementation.
type ConversationStore interface {
	Create(ctx context.Context, conv *models.Conversation) error
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	GetMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
	AddMessage(ctx context.Context, msg *models.Message) error
	Delete(ctx context.Context, id string) error
}

// ChatService runs the full chat pipeline for one message: route the
// query, retrieve evidence, generate and verify the answer, and persist
// both turns of the conversation.
type ChatService struct {
	conversationRepo ConversationStore
	auditRepo        pipeline.Auditor
	router           *pipeline.Router
	retriever        *pipeline.Retriever
	generator        *pipeline.Generator
	llmClient        *llm.Client
	detector         pipeline.LanguageDetector
	cfg              *config.Config
}

// ChatServiceOption is a functional option for ChatService
type ChatServiceOption func(*ChatService)

// ChatWithConversationRepository sets the conversation store
func ChatWithConversationRepository(store ConversationStore) ChatServiceOption {
	return func(s *ChatService) {
		s.conversationRepo = store
	}
}

// ChatWithAuditRepository sets the audit sink
func ChatWithAuditRepository(audit pipeline.Auditor) ChatServiceOption {
	return func(s *ChatService) {
		s.auditRepo = audit
	}
}

// ChatWithRouter sets the query router
func ChatWithRouter(router *pipeline.Router) ChatServiceOption {
	return func(s *ChatService) {
		s.router = router
	}
}

// ChatWithRetriever sets the retriever
func ChatWithRetriever(retriever *pipeline.Retriever) ChatServiceOption {
	return func(s *ChatService) {
		s.retriever = retriever
	}
}

// ChatWithGenerator sets the generator
func ChatWithGenerator(generator *pipeline.Generator) ChatServiceOption {
	return func(s *ChatService) {
		s.generator = generator
	}
}

// ChatWithLLMClient sets the model gateway used for direct answers
func ChatWithLLMClient(client *llm.Client) ChatServiceOption {
	return func(s *ChatService) {
		s.llmClient = client
	}
}

// ChatWithDetector sets the language detector
func ChatWithDetector(detector pipeline.LanguageDetector) ChatServiceOption {
	return func(s *ChatService) {
		s.detector = detector
	}
}

// ChatWithConfig sets the configuration
func ChatWithConfig(cfg *config.Config) ChatServiceOption {
	return func(s *ChatService) {
		s.cfg = cfg
	}
}

// NewChatService creates a new chat service
func NewChatService(opts ...ChatServiceOption) *ChatService {
	s := &ChatService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ChatResult is the reply to one chat message.
type ChatResult struct {
	Response       string              `json:"response"`
	ConversationID string              `json:"conversation_id"`
	Sources        []models.SourceInfo `json:"sources"`
	Confidence     float64             `json:"confidence"`
	Language       string              `json:"language"`
	Verified       bool                `json:"verified"`
}

// ProcessChat handles one user message. An empty conversationID starts
// a new conversation; language "" is auto-detected. Both the user
// message and the assistant reply are persisted before returning.
func (s *ChatService) ProcessChat(ctx context.Context, message, conversationID, language string) (*ChatResult, error) {
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if language == "" {
		language = s.detector.Detect(message)
	}

	conversationID, history, err := s.loadConversation(ctx, conversationID, message)
	if err != nil {
		return nil, err
	}

	classification := s.router.Route(ctx, message, history)
	language = classification.Language
	log.Printf("Chat: intent=%s complexity=%s lang=%s skip_search=%v",
		classification.Intent, classification.Complexity, language, classification.SkipSearch)

	if classification.SkipSearch {
		return s.answerDirect(ctx, message, conversationID, language, classification)
	}

	bundle, err := s.retriever.RetrieveWithCases(ctx, classification.RewrittenQuery,
		classification.NeedsEU, classification.NeedsSK, 0, true)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	genResult, err := s.generator.GenerateAndVerify(ctx, message, bundle.Chunks, bundle.Cases,
		language, history, classification.Complexity)
	if err != nil {
		return nil, err
	}

	assistant := models.Message{
		ConversationID: conversationID,
		Role:           "assistant",
		Content:        genResult.Response,
		Sources:        genResult.Sources,
		Confidence:     genResult.Confidence,
		Language:       language,
		Model:          genResult.Model,
		TokenCount:     genResult.OutputTokens,
	}
	if err := s.persistTurn(ctx, conversationID, message, language, assistant); err != nil {
		return nil, err
	}

	s.auditRepo.Log(ctx, models.AuditRecord{
		Operation:    "chat",
		Provider:     genResult.Provider,
		Model:        genResult.Model,
		InputTokens:  genResult.InputTokens,
		OutputTokens: genResult.OutputTokens,
		CostEstimate: repository.EstimateCost(genResult.Model, genResult.InputTokens, genResult.OutputTokens),
		LatencyMS:    genResult.LatencyMS,
		Metadata: map[string]interface{}{
			"intent":      classification.Intent,
			"complexity":  classification.Complexity,
			"chunks_used": len(bundle.Chunks),
			"verified":    genResult.Verified,
		},
	})

	return &ChatResult{
		Response:       genResult.Response,
		ConversationID: conversationID,
		Sources:        genResult.Sources,
		Confidence:     genResult.Confidence,
		Language:       language,
		Verified:       genResult.Verified,
	}, nil
}

// answerDirect replies without retrieval: greetings and off-topic
// queries get a canned reply in the user's language, anything else the
// router deemed unsearchable gets a direct light-model answer.
func (s *ChatService) answerDirect(ctx context.Context, message, conversationID, language string, classification models.Classification) (*ChatResult, error) {
	var response string
	switch classification.Intent {
	case models.IntentGreeting:
		response = s.cannedResponse(s.cfg.Prompts.GreetingResponse, language)
	case models.IntentOfftopic:
		response = s.cannedResponse(s.cfg.Prompts.OfftopicResponse, language)
	default:
		system := s.cfg.Prompts.SystemPrompts.Base + s.cfg.Prompts.SystemPrompts.LanguageSuffix[language]
		result, err := s.llmClient.Call(ctx, "light", system,
			[]llm.Message{{Role: "user", Content: message}})
		if err != nil {
			return nil, fmt.Errorf("direct answer failed: %w", err)
		}
		response = result.Content
	}

	assistant := models.Message{
		ConversationID: conversationID,
		Role:           "assistant",
		Content:        response,
		Language:       language,
	}
	if err := s.persistTurn(ctx, conversationID, message, language, assistant); err != nil {
		return nil, err
	}

	return &ChatResult{
		Response:       response,
		ConversationID: conversationID,
		Sources:        []models.SourceInfo{},
		Confidence:     0.0,
		Language:       language,
		Verified:       true,
	}, nil
}

func (s *ChatService) cannedResponse(byLanguage map[string]string, language string) string {
	if response, ok := byLanguage[language]; ok {
		return response
	}
	return byLanguage["en"]
}

// loadConversation resolves the conversation and its recent history,
// creating a fresh conversation titled after the first message when no
// ID was given.
func (s *ChatService) loadConversation(ctx context.Context, conversationID, message string) (string, []models.Message, error) {
	if conversationID == "" {
		conv := &models.Conversation{Title: truncate(message, 100)}
		if err := s.conversationRepo.Create(ctx, conv); err != nil {
			return "", nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		return conv.ID, nil, nil
	}

	if _, err := s.conversationRepo.GetByID(ctx, conversationID); err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return "", nil, ErrConversationNotFound
		}
		return "", nil, err
	}

	history, err := s.conversationRepo.GetMessages(ctx, conversationID, historyLimit)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load history: %w", err)
	}
	return conversationID, history, nil
}

func (s *ChatService) persistTurn(ctx context.Context, conversationID, userMessage, language string, assistant models.Message) error {
	user := models.Message{
		ConversationID: conversationID,
		Role:           "user",
		Content:        userMessage,
		Language:       language,
	}
	if err := s.conversationRepo.AddMessage(ctx, &user); err != nil {
		return fmt.Errorf("failed to store user message: %w", err)
	}
	if err := s.conversationRepo.AddMessage(ctx, &assistant); err != nil {
		return fmt.Errorf("failed to store assistant message: %w", err)
	}
	return nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// GetHistory returns a conversation with its messages in chronological
// order.
func (s *ChatService) GetHistory(ctx context.Context, conversationID string) (*models.Conversation, []models.Message, error) {
	conv, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return nil, nil, ErrConversationNotFound
		}
		return nil, nil, err
	}
	messages, err := s.conversationRepo.GetMessages(ctx, conversationID, historyLimit)
	if err != nil {
		return nil, nil, err
	}
	return conv, messages, nil
}

// DeleteConversation removes a conversation and its messages.
func (s *ChatService) DeleteConversation(ctx context.Context, conversationID string) error {
	err := s.conversationRepo.Delete(ctx, conversationID)
	if errors.Is(err, repository.ErrConversationNotFound) {
		return ErrConversationNotFound
	}
	return err
}
