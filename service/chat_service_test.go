package service

import (
	"context"
	"testing"

	"legislative-ai-assist/config"
	"legislative-ai-assist/llm"
	"legislative-ai-assist/models"
	"legislative-ai-assist/pipeline"
	"legislative-ai-assist/repository"
)

// memoryConversationStore keeps conversations and messages in memory so
// chat flows can run without a database.
type memoryConversationStore struct {
	conversations map[string]*models.Conversation
	messages      []models.Message
}

func newMemoryConversationStore() *memoryConversationStore {
	return &memoryConversationStore{conversations: make(map[string]*models.Conversation)}
}

func (s *memoryConversationStore) Create(_ context.Context, conv *models.Conversation) error {
	if conv.ID == "" {
		conv.ID = "conv-1"
	}
	s.conversations[conv.ID] = conv
	return nil
}

func (s *memoryConversationStore) GetByID(_ context.Context, id string) (*models.Conversation, error) {
	conv, ok := s.conversations[id]
	if !ok {
		return nil, repository.ErrConversationNotFound
	}
	return conv, nil
}

func (s *memoryConversationStore) GetMessages(_ context.Context, conversationID string, limit int) ([]models.Message, error) {
	var out []models.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *memoryConversationStore) AddMessage(_ context.Context, msg *models.Message) error {
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *memoryConversationStore) Delete(_ context.Context, id string) error {
	if _, ok := s.conversations[id]; !ok {
		return repository.ErrConversationNotFound
	}
	delete(s.conversations, id)
	return nil
}

type recordingAuditor struct {
	records []models.AuditRecord
}

func (r *recordingAuditor) Log(_ context.Context, record models.AuditRecord) {
	r.records = append(r.records, record)
}

type stubDetector struct{ lang string }

func (d stubDetector) Detect(string) string { return d.lang }

// scriptedCaller replays canned model responses in order.
type scriptedCaller struct {
	t         *testing.T
	responses []string
}

func (c *scriptedCaller) Call(_ context.Context, role, system string, messages []llm.Message, opts ...llm.CallOption) (*llm.Result, error) {
	if len(c.responses) == 0 {
		c.t.Fatalf("unexpected model call with role %q", role)
	}
	content := c.responses[0]
	c.responses = c.responses[1:]
	return &llm.Result{Content: content, Model: "test-model", Provider: "test"}, nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

type stubChunkSearcher struct{ chunks []models.ScoredChunk }

func (s stubChunkSearcher) HybridSearch(_ context.Context, _ []float32, _, _ string, _ int, _, _ float64, _ int) ([]models.ScoredChunk, error) {
	return s.chunks, nil
}

type stubCaseSearcher struct{}

func (stubCaseSearcher) SearchCases(context.Context, string, string, string, string, int) []models.ExternalCase {
	return nil
}

func TestProcessChatGreetingPersistsLanguage(t *testing.T) {
	cfg := config.Defaults()
	store := newMemoryConversationStore()
	caller := &scriptedCaller{t: t} // a model call would fail the test

	svc := NewChatService(
		ChatWithConversationRepository(store),
		ChatWithAuditRepository(&recordingAuditor{}),
		ChatWithRouter(pipeline.NewRouter(caller, stubDetector{"sk"}, &recordingAuditor{}, cfg)),
		ChatWithDetector(stubDetector{"sk"}),
		ChatWithConfig(cfg),
	)

	result, err := svc.ProcessChat(context.Background(), "Ahoj", "", "")
	if err != nil {
		t.Fatalf("ProcessChat failed: %v", err)
	}
	if result.Language != "sk" {
		t.Errorf("language = %q, want sk", result.Language)
	}

	if len(store.messages) != 2 {
		t.Fatalf("got %d stored messages, want 2", len(store.messages))
	}
	for _, msg := range store.messages {
		if msg.Language != "sk" {
			t.Errorf("%s message language = %q, want sk", msg.Role, msg.Language)
		}
	}
	if store.messages[0].Role != "user" || store.messages[1].Role != "assistant" {
		t.Errorf("stored roles = %q, %q", store.messages[0].Role, store.messages[1].Role)
	}
}

func TestProcessChatAuditCarriesMetadata(t *testing.T) {
	cfg := config.Defaults()
	store := newMemoryConversationStore()
	audit := &recordingAuditor{}
	caller := &scriptedCaller{t: t, responses: []string{
		`{"intent": "question", "complexity": "simple", "needs_eu": false, "needs_sk": true, "rewritten_query": "kartel zakaz"}`,
		"Kartely sú zakázané podľa § 4 [SK].",
		`{"verified": true}`,
	}}

	chunks := []models.ScoredChunk{{Content: "Zákaz dohôd obmedzujúcich súťaž.", Jurisdiction: "SK", RRFScore: 0.01}}
	retriever := pipeline.NewRetriever(stubEmbedder{}, stubChunkSearcher{chunks: chunks}, stubCaseSearcher{}, cfg.Search)
	generator := pipeline.NewGenerator(caller, audit, cfg)

	svc := NewChatService(
		ChatWithConversationRepository(store),
		ChatWithAuditRepository(audit),
		ChatWithRouter(pipeline.NewRouter(caller, stubDetector{"sk"}, audit, cfg)),
		ChatWithRetriever(retriever),
		ChatWithGenerator(generator),
		ChatWithDetector(stubDetector{"sk"}),
		ChatWithConfig(cfg),
	)

	result, err := svc.ProcessChat(context.Background(), "Sú kartelové dohody zakázané?", "", "")
	if err != nil {
		t.Fatalf("ProcessChat failed: %v", err)
	}
	if !result.Verified {
		t.Error("expected verified result")
	}

	var chat *models.AuditRecord
	for i := range audit.records {
		if audit.records[i].Operation == "chat" {
			chat = &audit.records[i]
		}
	}
	if chat == nil {
		t.Fatalf("no chat audit record in %d records", len(audit.records))
	}
	if chat.Metadata["intent"] != "question" || chat.Metadata["complexity"] != "simple" {
		t.Errorf("metadata = %v", chat.Metadata)
	}
	if chat.Metadata["chunks_used"] != 1 {
		t.Errorf("chunks_used = %v, want 1", chat.Metadata["chunks_used"])
	}
	if chat.Metadata["verified"] != true {
		t.Errorf("verified = %v, want true", chat.Metadata["verified"])
	}

	for _, msg := range store.messages {
		if msg.Language != "sk" {
			t.Errorf("%s message language = %q, want sk", msg.Role, msg.Language)
		}
	}
}
