package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"legislative-ai-assist/config"
	"legislative-ai-assist/llm"
	"legislative-ai-assist/models"
	"legislative-ai-assist/repository"
	"legislative-ai-assist/storage"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
)

var (
	ErrDocumentNotFound    = errors.New("document not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyDocument       = errors.New("document contains no extractable text")
)

// DocumentService ingests legal documents: store the original, extract
// and chunk the text, embed the chunks, and index them for search.
type DocumentService struct {
	documentRepo *repository.DocumentRepository
	chunkRepo    *repository.ChunkRepository
	storage      storage.Storage
	llmClient    *llm.Client
	search       config.SearchConfig
}

// DocumentServiceOption is a functional option for DocumentService
type DocumentServiceOption func(*DocumentService)

// DocumentWithRepository sets the document repository
func DocumentWithRepository(repo *repository.DocumentRepository) DocumentServiceOption {
	return func(s *DocumentService) {
		s.documentRepo = repo
	}
}

// DocumentWithChunkRepository sets the chunk repository
func DocumentWithChunkRepository(repo *repository.ChunkRepository) DocumentServiceOption {
	return func(s *DocumentService) {
		s.chunkRepo = repo
	}
}

// DocumentWithStorage sets the original-file store
func DocumentWithStorage(store storage.Storage) DocumentServiceOption {
	return func(s *DocumentService) {
		s.storage = store
	}
}

// DocumentWithLLMClient sets the embedding client
func DocumentWithLLMClient(client *llm.Client) DocumentServiceOption {
	return func(s *DocumentService) {
		s.llmClient = client
	}
}

// DocumentWithSearchConfig sets the chunking parameters
func DocumentWithSearchConfig(search config.SearchConfig) DocumentServiceOption {
	return func(s *DocumentService) {
		s.search = search
	}
}

// NewDocumentService creates a new document service
func NewDocumentService(opts ...DocumentServiceOption) *DocumentService {
	s := &DocumentService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadRequest describes one document to ingest.
type UploadRequest struct {
	Filename     string
	Data         []byte
	Title        string
	Jurisdiction string
	SourceRef    string
	DocType      string
}

// UploadAndProcess stores the original file, extracts and chunks its
// text, embeds every chunk, and indexes the result. The document row
// is created before chunking so a failed ingest is visible with
// chunk_count 0.
func (s *DocumentService) UploadAndProcess(ctx context.Context, req UploadRequest) (*models.Document, error) {
	text, err := ExtractText(req.Filename, req.Data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	documentID := uuid.New().String()
	storagePath, err := s.storage.Upload(ctx, documentID, req.Filename, bytes.NewReader(req.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to store original: %w", err)
	}

	title := req.Title
	if title == "" {
		title = strings.TrimSuffix(req.Filename, filepath.Ext(req.Filename))
	}
	doc := &models.Document{
		ID:           documentID,
		Title:        title,
		Jurisdiction: req.Jurisdiction,
		SourceRef:    req.SourceRef,
		DocType:      req.DocType,
		StoragePath:  storagePath,
	}
	if err := s.documentRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	pieces := ChunkText(text, s.search.ChunkSize, s.search.ChunkOverlap)
	embeddings, err := s.llmClient.EmbedBatch(ctx, pieces)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}

	chunks := make([]models.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = models.Chunk{
			DocumentID: documentID,
			Content:    piece,
			ChunkIndex: i,
			Embedding:  embeddings[i],
		}
	}
	if err := s.chunkRepo.InsertChunks(ctx, documentID, chunks); err != nil {
		return nil, fmt.Errorf("failed to index chunks: %w", err)
	}
	if err := s.documentRepo.UpdateChunkCount(ctx, documentID, len(chunks)); err != nil {
		return nil, fmt.Errorf("failed to update chunk count: %w", err)
	}
	doc.ChunkCount = len(chunks)

	log.Printf("Ingested document %s (%d chunks)", documentID, len(chunks))
	return doc, nil
}

// Get returns one document.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return nil, ErrDocumentNotFound
	}
	return doc, err
}

// Download streams the stored original of a document. The caller must
// close the returned reader.
func (s *DocumentService) Download(ctx context.Context, id string) (io.ReadCloser, *models.Document, error) {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, nil, ErrDocumentNotFound
		}
		return nil, nil, err
	}
	if doc.StoragePath == "" {
		return nil, nil, ErrDocumentNotFound
	}

	reader, err := s.storage.Download(ctx, doc.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read stored original: %w", err)
	}
	return reader, doc, nil
}

// List returns documents, optionally filtered by jurisdiction.
func (s *DocumentService) List(ctx context.Context, jurisdiction string, limit, offset int) ([]*models.Document, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.documentRepo.List(ctx, jurisdiction, limit, offset)
}

// Delete removes a document, its chunks, and the stored original. A
// missing original is logged, not fatal: the index entry is what
// matters.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}

	if doc.StoragePath != "" {
		if err := s.storage.Delete(ctx, doc.StoragePath); err != nil {
			log.Printf("Warning: failed to delete stored original %s: %v", doc.StoragePath, err)
		}
	}
	return s.documentRepo.Delete(ctx, id)
}

// ExtractText pulls plain text from an uploaded file. Plain text and
// markdown pass through; PDFs are parsed page by page.
func ExtractText(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md":
		return string(data), nil
	case ".pdf":
		return extractPDFText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, filepath.Ext(filename))
	}
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return buf.String(), nil
}

// ChunkText splits text into overlapping chunks of roughly chunkSize
// runes, preferring to break at paragraph, then sentence, then word
// boundaries near the target size.
func ChunkText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= chunkSize {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:])))
			break
		}

		cut := findBreak(runes, start, end)
		chunk := strings.TrimSpace(string(runes[start:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - overlap
		if next <= start {
			// Overlap must never stall the scan.
			next = cut
		}
		start = next
	}
	return chunks
}

// findBreak scans backwards from end for the best split point:
// paragraph break, sentence end, then any whitespace. Falls back to a
// hard cut when the window has no boundary at all.
func findBreak(runes []rune, start, end int) int {
	minCut := start + (end-start)/2

	for i := end; i > minCut; i-- {
		if i < len(runes)-1 && runes[i] == '\n' && runes[i+1] == '\n' {
			return i
		}
	}
	for i := end - 1; i > minCut; i-- {
		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			return i + 1
		}
	}
	for i := end; i > minCut; i-- {
		if runes[i] == ' ' || runes[i] == '\n' {
			return i
		}
	}
	return end
}
