package spec

import "sort"

// Found pairs a Version with the implementation registered for it.
type Found[T any] struct {
	Version Version
	Impl    T
}

// Implementations indexes a set of implementations by spec identity and
// version, built once at startup and read-only afterward.
type Implementations[T any] struct {
	byIdentity map[string][]Found[T]
}

// NewImplementations returns an empty registry.
func NewImplementations[T any]() *Implementations[T] {
	return &Implementations[T]{byIdentity: make(map[string][]Found[T])}
}

// Provide registers impl for (identity, version). Idempotent: if that exact
// pair was already provided, the first registration wins. Returns the
// receiver so registrations can be chained.
func (im *Implementations[T]) Provide(identity string, version Version, impl T) *Implementations[T] {
	bucket := im.byIdentity[identity]
	for _, f := range bucket {
		if f.Version == version {
			return im
		}
	}

	bucket = append(bucket, Found[T]{Version: version, Impl: impl})
	sort.Slice(bucket, func(i, j int) bool { return bucket[i].Version.Less(bucket[j].Version) })
	im.byIdentity[identity] = bucket
	return im
}

// Find returns, in increasing version order, every registered version V for
// identity such that V >= v and V.Satisfies(v). The range never crosses a
// major-version boundary above v.Major.
func (im *Implementations[T]) Find(identity string, v Version) []Found[T] {
	bucket, ok := im.byIdentity[identity]
	if !ok {
		return nil
	}

	start := sort.Search(len(bucket), func(i int) bool { return !bucket[i].Version.Less(v) })

	var result []Found[T]
	for _, f := range bucket[start:] {
		if f.Version.Major != v.Major {
			break
		}
		if f.Version.Satisfies(v) {
			result = append(result, f)
		}
	}
	return result
}

// FindFeature finds the implementations satisfying a Feature's requested spec.
func (im *Implementations[T]) FindFeature(f *Feature) []Found[T] {
	return im.Find(f.Spec.Identity, f.Spec.Version)
}

// Bounds returns the first and last entries of a Find result, or ok=false if
// it is empty.
func Bounds[T any](found []Found[T]) (first, last Found[T], ok bool) {
	if len(found) == 0 {
		return first, last, false
	}
	return found[0], found[len(found)-1], true
}
