package metadata

import "fmt"

// PackDir encodes names as the wire's packed directory list:
// (len: u8, name[len])* in insertion order.
func PackDir(names ...string) ([]byte, error) {
	var out []byte
	for _, n := range names {
		b, err := appendDirEntry(nil, n)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// AppendDirEntry appends one (len, name) entry to an existing packed list.
func AppendDirEntry(packed []byte, name string) ([]byte, error) {
	return appendDirEntry(packed, name)
}

func appendDirEntry(packed []byte, name string) ([]byte, error) {
	if len(name) == 0 || len(name) > 255 {
		return nil, fmt.Errorf("metadata: directory entry name length %d out of [1, 255]", len(name))
	}
	packed = append(packed, byte(len(name)))
	packed = append(packed, name...)
	return packed, nil
}

// UnpackDir decodes a packed directory list back into names, in order.
func UnpackDir(packed []byte) ([]string, error) {
	var names []string
	for len(packed) > 0 {
		n := int(packed[0])
		packed = packed[1:]
		if n > len(packed) {
			return nil, fmt.Errorf("metadata: truncated directory entry")
		}
		names = append(names, string(packed[:n]))
		packed = packed[n:]
	}
	return names, nil
}

// rootDir is the packed directory list every freshly initialized root
// directory and directory record is seeded with.
func rootDir() []byte {
	packed, _ := PackDir(".", "..")
	return packed
}
