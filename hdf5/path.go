package hdf5

import (
	"fmt"
	"strings"
)

// splitPath breaks a slash-separated object path into components.
// Leading and trailing slashes and empty components are dropped, so
// "/a//b/" and "a/b" name the same object.
func splitPath(p string) []string {
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

// ParseAttrPath splits an attribute path of the form "/object@name"
// into the object path and attribute name. The object part may be
// empty or "/" to address the root group.
func ParseAttrPath(p string) (objectPath, attrName string, err error) {
	i := strings.LastIndexByte(p, '@')
	if i < 0 {
		return "", "", fmt.Errorf("attribute path %q has no @name part", p)
	}
	objectPath = p[:i]
	attrName = p[i+1:]
	if attrName == "" {
		return "", "", fmt.Errorf("attribute path %q has an empty attribute name", p)
	}
	if objectPath == "" {
		objectPath = "/"
	}
	return objectPath, attrName, nil
}
