package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string][]byte
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockOpenFoodFactsClient serves canned search pages keyed by category and page
type MockOpenFoodFactsClient struct {
	pages       map[string][][]any
	searchError map[string]error
	calls       []domain.SearchQuery
}

func NewMockOpenFoodFactsClient() *MockOpenFoodFactsClient {
	return &MockOpenFoodFactsClient{
		pages:       make(map[string][][]any),
		searchError: make(map[string]error),
	}
}

func (m *MockOpenFoodFactsClient) SearchProducts(ctx context.Context, query domain.SearchQuery) ([]any, error) {
	m.calls = append(m.calls, query)
	if err := m.searchError[query.Category]; err != nil {
		return nil, err
	}
	pages := m.pages[query.Category]
	if query.Page < 1 || query.Page > len(pages) {
		return nil, nil
	}
	return pages[query.Page-1], nil
}

func (m *MockOpenFoodFactsClient) GetProduct(ctx context.Context, code string) (map[string]any, error) {
	return nil, domain.ErrProductNotFound
}

// MockRawStore keeps raw documents in memory
type MockRawStore struct {
	docs        []domain.RawDocument
	inserted    [][]map[string]any
	insertError error
	listError   error
	onlyNew     bool
}

func (m *MockRawStore) InsertBatch(ctx context.Context, payloads []map[string]any, source string) (int, error) {
	if m.insertError != nil {
		return 0, m.insertError
	}
	m.inserted = append(m.inserted, payloads)
	return len(payloads), nil
}

func (m *MockRawStore) ListForEnrichment(ctx context.Context, limit int, onlyNew bool) ([]domain.RawDocument, error) {
	m.onlyNew = onlyNew
	if m.listError != nil {
		return nil, m.listError
	}
	if limit > 0 && limit < len(m.docs) {
		return m.docs[:limit], nil
	}
	return m.docs, nil
}

func (m *MockRawStore) Count(ctx context.Context) (int64, error) {
	return int64(len(m.docs)), nil
}

// MockEnrichedStore records saved documents
type MockEnrichedStore struct {
	saved      []*domain.EnrichedDocument
	listed     []domain.EnrichedDocument
	saveError  error
	countError error
	lastQuery  domain.EnrichmentStatus
}

func (m *MockEnrichedStore) Save(ctx context.Context, doc *domain.EnrichedDocument) error {
	if m.saveError != nil {
		return m.saveError
	}
	m.saved = append(m.saved, doc)
	return nil
}

func (m *MockEnrichedStore) CountByStatus(ctx context.Context) (map[domain.EnrichmentStatus]int64, error) {
	if m.countError != nil {
		return nil, m.countError
	}
	counts := make(map[domain.EnrichmentStatus]int64)
	for _, doc := range m.saved {
		counts[doc.Status]++
	}
	return counts, nil
}

func (m *MockEnrichedStore) ListByStatus(ctx context.Context, status domain.EnrichmentStatus, limit int) ([]domain.EnrichedDocument, error) {
	m.lastQuery = status
	return m.listed, nil
}

// MockResolver hands out sequential ids per (kind, name) and counts backend hits
type MockResolver struct {
	mu     sync.Mutex
	ids    map[string]int64
	next   int64
	calls  int
	failOn map[string]bool
}

func NewMockResolver() *MockResolver {
	return &MockResolver{ids: make(map[string]int64), failOn: make(map[string]bool)}
}

func (m *MockResolver) ResolveOrCreate(ctx context.Context, kind domain.EntityKind, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failOn[name] {
		return 0, fmt.Errorf("resolver unavailable for %q", name)
	}
	key := string(kind) + ":" + name
	if id, ok := m.ids[key]; ok {
		return id, nil
	}
	m.next++
	m.ids[key] = m.next
	return m.next, nil
}

func (m *MockResolver) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockProductWriter stores write-sets by code and fails batches holding a bad code
type MockProductWriter struct {
	mu        sync.Mutex
	rows      map[string]domain.WriteSet
	failCodes map[string]bool
	batches   int
}

func NewMockProductWriter() *MockProductWriter {
	return &MockProductWriter{rows: make(map[string]domain.WriteSet), failCodes: make(map[string]bool)}
}

func (m *MockProductWriter) UpsertProducts(ctx context.Context, batch []domain.WriteSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches++
	for _, ws := range batch {
		if m.failCodes[ws.Product.Code] {
			return errors.New("constraint violation")
		}
	}
	for _, ws := range batch {
		m.rows[ws.Product.Code] = ws
	}
	return nil
}

// MockCatalogRepository is a mock implementation of domain.CatalogRepository
type MockCatalogRepository struct {
	page       *domain.ItemPage
	item       *domain.ItemDetail
	stats      *domain.CatalogStats
	err        error
	lastFilter domain.ItemFilter
	itemCalls  int
	statsCalls int
}

func (m *MockCatalogRepository) ListItems(ctx context.Context, filter domain.ItemFilter) (*domain.ItemPage, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return m.page, nil
}

func (m *MockCatalogRepository) GetItem(ctx context.Context, id int64) (*domain.ItemDetail, error) {
	m.itemCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.item, nil
}

func (m *MockCatalogRepository) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	m.statsCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }
