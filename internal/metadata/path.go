package metadata

import "strings"

// splitFileParent finds the longest prefix of a file path that ends in
// "/" — the parent directory key — and the leaf name that follows it.
func splitFileParent(path string) (parent, leaf string, ok bool) {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "", "", false
	}
	parent = path[:idx+1]
	leaf = path[idx+1:]
	return parent, leaf, leaf != ""
}

// splitDirParent finds the parent directory key for a directory path
// (which itself ends in "/") and the leaf name, which keeps its trailing
// slash.
func splitDirParent(path string) (parent, leaf string, ok bool) {
	trimmed := strings.TrimSuffix(path, "/")
	idx := strings.LastIndexByte(trimmed, '/')
	if idx < 0 {
		return "", "", false
	}
	parent = trimmed[:idx+1]
	leaf = trimmed[idx+1:] + "/"
	return parent, leaf, leaf != "/"
}
