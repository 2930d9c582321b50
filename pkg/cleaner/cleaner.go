// Package cleaner defines the common interface for HTML fragment cleaners and
// the small adapters used to compose them. Rule-driven cleaning lives in the
// rules subpackage and the fixed junk pass in the junk subpackage.
package cleaner

// Cleaner transforms an HTML fragment into a cleaner fragment.
type Cleaner interface {
	// Clean transforms the input HTML. Implementations must be safe for
	// concurrent use once constructed.
	Clean(html string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}
