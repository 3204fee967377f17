package devjson

// pathEntry is one step of a descent: the object visited and the key
// followed out of it.
type pathEntry struct {
	container map[string]interface{}
	key       string
}

// asMapping distinguishes objects, which can be descended into and merged,
// from arrays and primitives, which can only be replaced.
func asMapping(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	default:
		return nil, false
	}
}

// findPath descends from root following keys, recording every object it
// passes through. It stops at the first key that is absent, holds null, or
// would have to be looked up in something other than an object.
func findPath(root interface{}, keys KeyPath) ([]pathEntry, bool) {
	path := make([]pathEntry, 0, len(keys))
	node := root
	for _, key := range keys {
		container, ok := asMapping(node)
		if !ok {
			return nil, false
		}
		child, ok := container[key]
		if !ok || child == nil {
			return nil, false
		}
		path = append(path, pathEntry{container, key})
		node = child
	}
	return path, true
}

func valueAt(root interface{}, keys KeyPath) (interface{}, bool) {
	path, ok := findPath(root, keys)
	if !ok {
		return nil, false
	}
	if len(path) == 0 {
		return root, root != nil
	}
	last := path[len(path)-1]
	return last.container[last.key], true
}

// removeAndRebuild drops the final key of a non-empty path and rebuilds each
// object on the path, from the bottom up, as a new map pointing at its
// rebuilt child. Objects off the path are shared, not copied.
func removeAndRebuild(path []pathEntry) (root map[string]interface{}, removed interface{}) {
	last := path[len(path)-1]
	removed = last.container[last.key]
	rebuilt := shallowCopy(last.container)
	delete(rebuilt, last.key)
	for i := len(path) - 2; i >= 0; i-- {
		parent := shallowCopy(path[i].container)
		parent[path[i].key] = rebuilt
		rebuilt = parent
	}
	return rebuilt, removed
}

func shallowCopy(m map[string]interface{}) map[string]interface{} {
	c := make(map[string]interface{}, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// deepMerge folds patch into target. Only the patch's keys are visited.
// Objects present on both sides merge recursively; anything else in the
// patch replaces the target's value outright.
func deepMerge(target, patch map[string]interface{}) {
	for key, patchValue := range patch {
		patchChild, ok := asMapping(patchValue)
		if !ok {
			target[key] = patchValue
			continue
		}
		targetChild, ok := asMapping(target[key])
		if !ok {
			target[key] = patchChild
			continue
		}
		deepMerge(targetChild, patchChild)
	}
}
