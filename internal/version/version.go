// ABOUTME: Version and product identification constants
package version

const (
	// Version is the application version, overridable at build time
	Version = "0.1.0"

	// Product is the application name shown in logs and discovery
	Product = "Soundlink"

	// Manufacturer identifies the project
	Manufacturer = "Soundlink Project"
)
