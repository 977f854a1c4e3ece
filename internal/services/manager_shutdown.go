package services

import (
	"context"
	"errors"
)

// Shutdown stops the planning loop and releases external connections. It
// keeps going past individual failures and returns the first error seen.
func (m *Manager) Shutdown(ctx context.Context) error {
	var errs []error

	if m.planning != nil {
		if err := m.planning.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if m.publisher != nil {
		if err := m.publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.natsConn != nil {
		m.natsConn.Close()
	}
	if m.taskStore != nil {
		if err := m.taskStore.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	m.logger.Info("services shut down")
	return nil
}
