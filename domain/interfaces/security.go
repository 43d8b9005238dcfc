package interfaces

import "ui_probe/domain/entities"

// Guard decides whether a probe may run
type Guard interface {
	// Check rejects probes that leave the application under test or write outside the artifact area
	Check(probe entities.Probe) error

	// RiskLevel classifies a single step
	RiskLevel(step entities.Step) string
}
