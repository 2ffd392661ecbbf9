package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryProvider keeps objects in a map. It is safe for concurrent use.
type MemoryProvider struct {
	mu      sync.RWMutex
	objects map[string]*Object
	now     func() time.Time
}

// NewMemoryProvider creates an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		objects: make(map[string]*Object),
		now:     time.Now,
	}
}

// Name returns the provider name.
func (*MemoryProvider) Name() string {
	return "memory"
}

// Put stores a copy of data under key.
func (p *MemoryProvider) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.objects[key] = &Object{
		ObjectInfo: ObjectInfo{
			Key:          key,
			Size:         int64(len(buf)),
			LastModified: p.now(),
		},
		ContentType: contentType,
		Data:        buf,
	}
	return nil
}

// List returns objects under prefix sorted by key.
func (p *MemoryProvider) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]ObjectInfo, 0)
	for key, obj := range p.objects {
		if strings.HasPrefix(key, prefix) {
			result = append(result, obj.ObjectInfo)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

// Get returns a copy of the object stored under key.
func (p *MemoryProvider) Get(ctx context.Context, key string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	obj, ok := p.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	out := *obj
	out.Data = append([]byte(nil), obj.Data...)
	return &out, nil
}

// Close is a no-op for the memory provider.
func (*MemoryProvider) Close() error {
	return nil
}

// Verify interface compliance.
var _ Provider = (*MemoryProvider)(nil)
