// ABOUTME: Version and product identification
// ABOUTME: Reported by the CLI and the mDNS TXT record
package version

const (
	// Version is the release version
	Version = "0.3.0"

	// Product is the product name
	Product = "Click Mute"
)
