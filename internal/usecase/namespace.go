package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
)

type namespaceKey struct {
	kind domain.EntityKind
	name string
}

// Namespace memoizes brand and category ids for one ETL run. It is passed to
// the mapper explicitly and serializes lookup-or-create, so two records racing
// on the same name always get the same id.
type Namespace struct {
	backend domain.Resolver

	mu  sync.Mutex
	ids map[namespaceKey]int64
}

// NewNamespace wraps backend with a per-run id cache
func NewNamespace(backend domain.Resolver) *Namespace {
	return &Namespace{
		backend: backend,
		ids:     make(map[namespaceKey]int64),
	}
}

// ResolveOrCreate implements domain.Resolver.
func (n *Namespace) ResolveOrCreate(ctx context.Context, kind domain.EntityKind, name string) (int64, error) {
	key := namespaceKey{kind: kind, name: name}

	n.mu.Lock()
	defer n.mu.Unlock()

	if id, ok := n.ids[key]; ok {
		return id, nil
	}
	id, err := n.backend.ResolveOrCreate(ctx, kind, name)
	if err != nil {
		return 0, err
	}
	n.ids[key] = id
	return id, nil
}

// Prime resolves every distinct brand and category name of products up front,
// in sorted order. Records whose names fail to resolve are left for the mapper
// to report individually.
func (n *Namespace) Prime(ctx context.Context, products []domain.EnrichedProduct) {
	brands := make(map[string]bool)
	categories := make(map[string]bool)
	for i := range products {
		if b := NormalizeBrand(products[i].Brand); b != "" {
			brands[b] = true
		}
		categories[CategoryKey(products[i].CategoryGroup)] = true
	}

	for _, name := range sortedKeys(categories) {
		_, _ = n.ResolveOrCreate(ctx, domain.EntityCategory, name)
	}
	for _, name := range sortedKeys(brands) {
		_, _ = n.ResolveOrCreate(ctx, domain.EntityBrand, name)
	}
}

// Size returns the number of cached ids
func (n *Namespace) Size() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.ids)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
