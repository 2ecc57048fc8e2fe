/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package migrate

import "fmt"

// UnitFor selects the migration unit matching the handle's backend identity.
// It is a pure function of (migration, backend); cross-backend selection is
// impossible by construction. It fails with ErrUnknownBackend if the handle's
// identity is neither primary nor analytics.
func UnitFor(m *Migration, h *Handle) (MigrationUnit, error) {
	switch h.Backend() {
	case BackendPrimary:
		return m.primary, nil
	case BackendAnalytics:
		return m.analytics, nil
	}
	return MigrationUnit{}, fmt.Errorf("%w: %q", ErrUnknownBackend, h.Backend())
}
