package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/logstream-client/internal/constants"
)

// credentialsFile is the on-disk layout of a FileCredentialStore.
type credentialsFile struct {
	Secrets map[string]string `yaml:"secrets"`
}

// FileCredentialStore keeps secrets in a YAML file readable only by the
// owner. Writes replace the file atomically.
type FileCredentialStore struct {
	path  string
	mutex sync.Mutex
}

// NewFileCredentialStore creates a store backed by path. The file is created
// on the first save.
func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

// Path returns the backing file.
func (s *FileCredentialStore) Path() string {
	return s.path
}

// LoadSecret implements logstream.CredentialStore.
func (s *FileCredentialStore) LoadSecret(ctx context.Context, id string) (string, bool, error) {
	if id == "" {
		return "", false, constants.ErrEmptyConnectionID
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	file, err := s.read()
	if err != nil {
		return "", false, err
	}

	secret, ok := file.Secrets[id]

	return secret, ok, nil
}

// SaveSecret implements logstream.CredentialStore.
func (s *FileCredentialStore) SaveSecret(ctx context.Context, id, secret string) error {
	if id == "" {
		return constants.ErrEmptyConnectionID
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	file, err := s.read()
	if err != nil {
		return err
	}

	file.Secrets[id] = secret

	return s.write(file)
}

// DeleteSecret implements logstream.CredentialStore.
func (s *FileCredentialStore) DeleteSecret(ctx context.Context, id string) error {
	if id == "" {
		return constants.ErrEmptyConnectionID
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	file, err := s.read()
	if err != nil {
		return err
	}

	if _, ok := file.Secrets[id]; !ok {
		return nil
	}

	delete(file.Secrets, id)

	return s.write(file)
}

func (s *FileCredentialStore) read() (*credentialsFile, error) {
	file := &credentialsFile{Secrets: make(map[string]string)}

	// #nosec G304 -- path comes from the CLI configuration directory
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return file, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}

	err = yaml.Unmarshal(data, file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", constants.ErrCredentialsFile, s.path, err)
	}

	if file.Secrets == nil {
		file.Secrets = make(map[string]string)
	}

	return file, nil
}

func (s *FileCredentialStore) write(file *credentialsFile) error {
	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	dir := filepath.Dir(s.path)

	err = os.MkdirAll(dir, constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*.yml")
	if err != nil {
		return fmt.Errorf("failed to create temporary credentials file: %w", err)
	}

	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	err = tmp.Chmod(constants.ConfigFilePerm)
	if err == nil {
		_, err = tmp.Write(data)
	}

	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	err = os.Rename(tmpName, s.path)
	if err != nil {
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}

	return nil
}
