// ABOUTME: Version constants for the player
// ABOUTME: Single source of truth for product identification

package version

const (
	// Version is the current release version
	Version = "0.1.0"

	// Product is the product name reported in logs
	Product = "Ringfeed Player"

	// Manufacturer identifies the project
	Manufacturer = "Ringfeed"
)
