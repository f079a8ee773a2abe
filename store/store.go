// Package store persists fitted pipelines so the API can serve them.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"taxifare/models"
	"taxifare/pipeline"
)

// Store saves and loads fitted pipelines by name.
type Store interface {
	Save(ctx context.Context, name string, p *pipeline.Pipeline) error
	Load(ctx context.Context, name string) (*pipeline.Pipeline, error)
}

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

func checkName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: model name %q", models.ErrInvalidConfig, name)
	}
	return nil
}

func encode(p *pipeline.Pipeline) ([]byte, error) {
	if p == nil || !p.Fitted() {
		return nil, models.ErrNotFitted
	}
	return json.Marshal(p)
}

func decode(raw []byte) (*pipeline.Pipeline, error) {
	var p pipeline.Pipeline
	if err := json.Unmarshal(raw, &p); err != nil {
		if errors.Is(err, models.ErrCorruptArtifact) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", models.ErrCorruptArtifact, err)
	}
	if !p.Fitted() {
		return nil, fmt.Errorf("%w: stored pipeline is not fitted", models.ErrCorruptArtifact)
	}
	return &p, nil
}

// FileStore keeps one JSON artifact per model under Dir.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore { return &FileStore{Dir: dir} }

func (s *FileStore) path(name string) string {
	return filepath.Join(s.Dir, name+".json")
}

// Save writes through a temp file and a rename, so a failed save never
// leaves a partial artifact behind.
func (s *FileStore) Save(ctx context.Context, name string, p *pipeline.Pipeline) error {
	if err := checkName(name); err != nil {
		return err
	}
	raw, err := encode(p)
	if err != nil {
		return errors.Wrapf(err, "save %s", name)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return errors.Wrap(err, "create store dir")
	}
	tmp, err := os.CreateTemp(s.Dir, "."+name+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp artifact")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write artifact")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "sync artifact")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close artifact")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path(name)), "publish artifact")
}

func (s *FileStore) Load(ctx context.Context, name string) (*pipeline.Pipeline, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", models.ErrNoModel, s.path(name))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	return decode(raw)
}

// KeyPrefix namespaces model artifacts in Redis.
const KeyPrefix = "taxifare:model:"

// RedisStore keeps artifacts as plain string values.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func (s *RedisStore) Save(ctx context.Context, name string, p *pipeline.Pipeline) error {
	if err := checkName(name); err != nil {
		return err
	}
	raw, err := encode(p)
	if err != nil {
		return errors.Wrapf(err, "save %s", name)
	}
	return errors.Wrapf(s.rdb.Set(ctx, KeyPrefix+name, raw, 0).Err(), "save %s", name)
}

func (s *RedisStore) Load(ctx context.Context, name string) (*pipeline.Pipeline, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	raw, err := s.rdb.Get(ctx, KeyPrefix+name).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: key %s", models.ErrNoModel, KeyPrefix+name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", name)
	}
	return decode(raw)
}
