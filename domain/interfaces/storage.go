package interfaces

import "ui_probe/domain/entities"

// Storage keeps probe definitions and run artifacts
type Storage interface {
	// LoadProbe reads a probe definition file
	LoadProbe(path string) (entities.Probe, error)

	// SaveReport writes the run report and returns its path
	SaveReport(report entities.Report) (string, error)

	// LoadReport reads the last report of a probe
	LoadReport(probe string) (entities.Report, error)

	// SaveMarkup stores a page markup dump and returns its path
	SaveMarkup(probe string, markup string) (string, error)
}
