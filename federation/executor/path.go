package executor

import "github.com/n9te9/stargate/federation/plan"

// selectPath walks value by path and returns the sub-value a Flatten node
// should execute its child against. A field segment descends into that key;
// if the key is absent, descent stops and the value at that point is
// returned unchanged (the child then runs against it, and the matching
// mergeFlattened call below is a no-op for the same reason). An array-marker
// segment maps the rest of the path across every element.
func selectPath(value any, path []plan.PathElement) any {
	if len(path) == 0 {
		return value
	}

	head, rest := path[0], path[1:]

	if head.IsArrayMarker() {
		arr, ok := value.([]any)
		if !ok {
			return value
		}
		out := make([]any, len(arr))
		for i, elem := range arr {
			out[i] = selectPath(elem, rest)
		}
		return out
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return value
	}
	child, exists := obj[head.Field]
	if !exists {
		return value
	}
	return selectPath(child, rest)
}

// mergeFlattened stitches a Flatten node's child result (src, the value held
// by its private Tree once the child has run) back into dst at path. It
// mirrors selectPath exactly: wherever selectPath would have stopped
// descending, mergeFlattened stops too and leaves dst untouched there.
func mergeFlattened(dst, src any, path []plan.PathElement) any {
	if len(path) == 0 || src == nil {
		return merge(dst, src)
	}

	head, rest := path[0], path[1:]

	if head.IsArrayMarker() {
		dstArr, dstOK := dst.([]any)
		srcArr, srcOK := src.([]any)
		if !dstOK || !srcOK {
			return dst
		}
		n := len(dstArr)
		if len(srcArr) < n {
			n = len(srcArr)
		}
		out := make([]any, len(dstArr))
		copy(out, dstArr)
		for i := 0; i < n; i++ {
			out[i] = mergeFlattened(dstArr[i], srcArr[i], rest)
		}
		return out
	}

	dstObj, ok := dst.(map[string]any)
	if !ok {
		return dst
	}
	child, exists := dstObj[head.Field]
	if !exists {
		return dst
	}
	out := make(map[string]any, len(dstObj))
	for k, v := range dstObj {
		out[k] = v
	}
	out[head.Field] = mergeFlattened(child, src, rest)
	return out
}
