package caching

// Resource names used to build cache keys. Keys are scoped to an actor so
// invalidating one user's view never evicts another's; InvalidatePrefix is
// the deliberate cross-actor eviction for shared aggregates.
const (
	ResourceDashboard     = "dashboard"
	ResourceRequests      = "requests"
	ResourceCertificates  = "certificates"
	ResourceOpportunities = "opportunities"
	ResourceSession       = "session"
)

// Key builds the canonical "resource:actorID" cache key.
func Key(resource, actorID string) string {
	return resource + ":" + actorID
}

// KeyPrefix builds the prefix matching every actor's keys for a resource.
func KeyPrefix(resource string) string {
	return resource + ":"
}
