package storage

import "context"

// Provider is a durable key/value blob store with prefix listing.
// S3 and Badger implement this; MemoryProvider backs tests and local runs.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Put writes data under key, replacing any previous object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// List returns every object whose key starts with prefix, in key order.
	// Implementations exhaust paginated listings before returning.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Get fetches a single object. Returns ErrObjectNotFound when missing.
	Get(ctx context.Context, key string) (*Object, error)

	// Close releases resources.
	Close() error
}

// Pinger is implemented by providers that can check connectivity cheaply.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks p when it implements Pinger and reports healthy otherwise.
func Ping(ctx context.Context, p Provider) error {
	if pinger, ok := p.(Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}
