package services

import "context"

// Start launches the planning control loop. bgCtx cancellation shuts the loop
// down, equivalent to Shutdown's explicit destroy.
func (m *Manager) Start(bgCtx context.Context) error {
	return m.planning.Start(bgCtx)
}
