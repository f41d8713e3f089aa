package edge

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Document is one retrievable knowledge entry.
type Document struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	AddedAt time.Time `json:"added_at"`
}

// ScoredDocument pairs a document with its relevance to a query.
type ScoredDocument struct {
	Document
	Score float64 `json:"score"`
}

// RAGStore is an in-memory keyword-scored document store. Relevance is
// simple substring scoring: the whole query matching content or title
// weighs most, then individual query words.
type RAGStore struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewRAGStore() *RAGStore {
	return &RAGStore{docs: make(map[string]Document)}
}

// Add stores a document and returns its generated ID.
func (s *RAGStore) Add(title, content string) Document {
	doc := Document{
		ID:      uuid.NewString(),
		Title:   title,
		Content: content,
		AddedAt: time.Now(),
	}
	s.mu.Lock()
	s.docs[doc.ID] = doc
	s.mu.Unlock()
	return doc
}

// Delete removes a document by ID.
func (s *RAGStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return false
	}
	delete(s.docs, id)
	return true
}

func (s *RAGStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Search returns the topK most relevant documents, best first. Ties
// break by title so results are stable.
func (s *RAGStore) Search(query string, topK int) []ScoredDocument {
	if topK <= 0 {
		topK = 3
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	words := strings.Fields(q)

	s.mu.RLock()
	var scored []ScoredDocument
	for _, doc := range s.docs {
		content := strings.ToLower(doc.Content)
		title := strings.ToLower(doc.Title)
		var score float64
		if strings.Contains(content, q) {
			score += 0.5
		}
		if strings.Contains(title, q) {
			score += 0.3
		}
		for _, w := range words {
			if strings.Contains(content, w) {
				score += 0.1
			}
		}
		if score > 0 {
			scored = append(scored, ScoredDocument{Document: doc, Score: score})
		}
	}
	s.mu.RUnlock()

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Title < scored[j].Title
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}
