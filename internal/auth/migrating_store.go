package auth

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

// MigratingStore moves secrets from a legacy store into a primary one the
// first time they are read. Once moved, a secret only lives in the primary
// store.
type MigratingStore struct {
	primary logstream.CredentialStore
	legacy  logstream.CredentialStore
	logger  logstream.Logger
}

// NewMigratingStore creates a migrating store. logger may be nil.
func NewMigratingStore(primary, legacy logstream.CredentialStore, logger logstream.Logger) *MigratingStore {
	return &MigratingStore{
		primary: primary,
		legacy:  legacy,
		logger:  logger,
	}
}

// LoadSecret implements logstream.CredentialStore.
func (s *MigratingStore) LoadSecret(ctx context.Context, id string) (string, bool, error) {
	secret, found, err := s.primary.LoadSecret(ctx, id)
	if err != nil {
		return "", false, fmt.Errorf("loading secret: %w", err)
	}

	if found || s.legacy == nil {
		return secret, found, nil
	}

	secret, found, err = s.legacy.LoadSecret(ctx, id)
	if err != nil {
		return "", false, fmt.Errorf("loading legacy secret: %w", err)
	}

	if !found {
		return "", false, nil
	}

	s.migrate(ctx, id, secret)

	return secret, true, nil
}

// SaveSecret implements logstream.CredentialStore. Any legacy copy is removed.
func (s *MigratingStore) SaveSecret(ctx context.Context, id, secret string) error {
	err := s.primary.SaveSecret(ctx, id, secret)
	if err != nil {
		return fmt.Errorf("saving secret: %w", err)
	}

	if s.legacy != nil {
		err = s.legacy.DeleteSecret(ctx, id)
		if err != nil {
			s.warn("failed to remove legacy secret", id, err)
		}
	}

	return nil
}

// DeleteSecret implements logstream.CredentialStore.
func (s *MigratingStore) DeleteSecret(ctx context.Context, id string) error {
	err := s.primary.DeleteSecret(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting secret: %w", err)
	}

	if s.legacy != nil {
		err = s.legacy.DeleteSecret(ctx, id)
		if err != nil {
			return fmt.Errorf("deleting legacy secret: %w", err)
		}
	}

	return nil
}

// MigrateAll migrates the given ids eagerly and reports how many moved.
func (s *MigratingStore) MigrateAll(ctx context.Context, ids []string) (int, error) {
	if s.legacy == nil {
		return 0, nil
	}

	migrated := 0

	for _, id := range ids {
		_, found, err := s.primary.LoadSecret(ctx, id)
		if err != nil {
			return migrated, fmt.Errorf("loading secret: %w", err)
		}

		if found {
			continue
		}

		secret, found, err := s.legacy.LoadSecret(ctx, id)
		if err != nil {
			return migrated, fmt.Errorf("loading legacy secret: %w", err)
		}

		if !found {
			continue
		}

		if s.migrate(ctx, id, secret) {
			migrated++
		}
	}

	return migrated, nil
}

// migrate copies the secret to the primary store and drops the legacy copy.
// Failures are logged; the legacy copy stays so the next read retries.
func (s *MigratingStore) migrate(ctx context.Context, id, secret string) bool {
	err := s.primary.SaveSecret(ctx, id, secret)
	if err != nil {
		s.warn("failed to migrate legacy secret", id, err)

		return false
	}

	err = s.legacy.DeleteSecret(ctx, id)
	if err != nil {
		s.warn("failed to remove legacy secret", id, err)
	}

	if s.logger != nil {
		s.logger.Info("migrated legacy secret", map[string]interface{}{"connection": id})
	}

	return true
}

func (s *MigratingStore) warn(msg, id string, err error) {
	if s.logger == nil {
		return
	}

	s.logger.Warn(msg, map[string]interface{}{
		"connection": id,
		"error":      err.Error(),
	})
}
