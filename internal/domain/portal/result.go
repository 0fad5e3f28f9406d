package portal

// Source identifies where a read result came from.
type Source string

const (
	SourceLive     Source = "live"     // fresh from the backing store
	SourceCache    Source = "cache"    // served from a valid cache entry
	SourceFallback Source = "fallback" // static dataset after a store failure
)

// Result carries a read payload alongside its provenance so callers can show
// degraded data without inspecting logs. Reason holds the store error that
// forced a fallback; it is nil for live and cache results.
type Result[T any] struct {
	Value  T      `json:"value"`
	Source Source `json:"source"`
	Reason error  `json:"-"`
}

func Live[T any](v T) Result[T] { return Result[T]{Value: v, Source: SourceLive} }

func Cached[T any](v T) Result[T] { return Result[T]{Value: v, Source: SourceCache} }

func Fallback[T any](v T, reason error) Result[T] {
	return Result[T]{Value: v, Source: SourceFallback, Reason: reason}
}

// Degraded reports whether the value came from a fallback dataset.
func (r Result[T]) Degraded() bool { return r.Source == SourceFallback }
