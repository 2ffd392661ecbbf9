package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/iamharada/stepwise-system/pkg/storage"
)

// Store is the activity log over an object store. Envelopes are only ever
// appended; nothing is updated or deleted.
type Store struct {
	provider storage.Provider
	logger   *slog.Logger
}

// NewStore creates a Store. A nil logger uses slog.Default().
func NewStore(provider storage.Provider, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{provider: provider, logger: logger}
}

// Append encodes env and writes it under its key. The object is written in
// a single Put, so readers never see a partial envelope.
func (s *Store) Append(ctx context.Context, env Envelope) (string, error) {
	if err := (Scope{UserID: env.UserID, TaskNumber: env.TaskNumber}).validate(); err != nil {
		return "", err
	}
	key := env.Key()

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding envelope: %w", err)
	}
	if err := s.provider.Put(ctx, key, data, storage.ContentTypeJSON); err != nil {
		return "", &StorageError{Op: "put", Key: key, Err: err}
	}

	s.logger.Debug("activity appended", "key", key, "event", env.Event)
	return key, nil
}

// ListPartition returns every key in the partition in key order.
func (s *Store) ListPartition(ctx context.Context, userID string, taskNumber int) ([]string, error) {
	prefix := PartitionPrefix(userID, taskNumber)
	objs, err := s.provider.List(ctx, prefix)
	if err != nil {
		return nil, &StorageError{Op: "list", Key: prefix, Err: err}
	}
	keys := make([]string, 0, len(objs))
	for _, o := range objs {
		keys = append(keys, o.Key)
	}
	return keys, nil
}

// ResolveLatest returns the code of the latest envelope in the partition
// that carries code. A partition without one yields ErrNotFound.
func (s *Store) ResolveLatest(ctx context.Context, userID string, taskNumber int) (string, error) {
	env, err := s.Latest(ctx, userID, taskNumber)
	if err != nil {
		return "", err
	}
	return env.Code, nil
}

// Latest returns the envelope with the greatest timestamp in the
// partition, ties going to the greatest key. Saves whose body has no
// string code are passed over.
func (s *Store) Latest(ctx context.Context, userID string, taskNumber int) (*Envelope, error) {
	infos, err := s.partition(ctx, userID, taskNumber)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(infos)

	for _, k := range infos {
		env, err := s.load(ctx, k.Key)
		if err != nil {
			return nil, err
		}
		if env.HasCode() {
			return env, nil
		}
		s.logger.Debug("skipping save without code", "key", k.Key)
	}
	return nil, ErrNotFound
}

// History returns up to limit envelopes from the partition, newest first.
// A limit <= 0 returns everything. Objects that fail to decode are logged
// and left out.
func (s *Store) History(ctx context.Context, userID string, taskNumber, limit int) ([]Envelope, error) {
	infos, err := s.partition(ctx, userID, taskNumber)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(infos)

	out := make([]Envelope, 0, len(infos))
	for _, k := range infos {
		if limit > 0 && len(out) == limit {
			break
		}
		env, err := s.load(ctx, k.Key)
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			s.logger.Error("skipping unreadable activity envelope", "key", k.Key, "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *env)
	}
	return out, nil
}

func sortNewestFirst(infos []keyInfo) {
	slices.SortFunc(infos, func(a, b keyInfo) int {
		switch {
		case a.after(b):
			return -1
		case b.after(a):
			return 1
		default:
			return 0
		}
	})
}

// partition lists the partition and keeps keys that follow the naming
// scheme.
func (s *Store) partition(ctx context.Context, userID string, taskNumber int) ([]keyInfo, error) {
	keys, err := s.ListPartition(ctx, userID, taskNumber)
	if err != nil {
		return nil, err
	}
	prefix := PartitionPrefix(userID, taskNumber)
	infos := make([]keyInfo, 0, len(keys))
	for _, key := range keys {
		info, ok := parseKey(prefix, key)
		if !ok {
			s.logger.Debug("ignoring foreign key in activity partition", "key", key)
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *Store) load(ctx context.Context, key string) (*Envelope, error) {
	obj, err := s.provider.Get(ctx, key)
	if err != nil {
		// A listed key that is gone is a store fault too; the log never deletes.
		return nil, &StorageError{Op: "get", Key: key, Err: err}
	}

	var env Envelope
	if err := json.Unmarshal(obj.Data, &env); err != nil {
		return nil, &ParseError{Key: key, Err: err}
	}
	return &env, nil
}
