package model

import (
	"fmt"
	"strings"
)

// Handle delimiters. A handle is the parent's handle followed by a delimiter
// and the element name, so handles never contain tabs or newlines.
const (
	handleModel       = "="
	delimRoot         = "/"
	delimPackage      = "<"
	delimUnit         = "{"
	delimPackageDecl  = "%"
	delimImport       = "#"
	delimType         = "["
	delimField        = "^"
	delimMethod       = "~"
	delimInitializer  = "|"
	anonymousTypeName = "$"
)

// ChildHandle returns the handle a child of the given kind and name would have.
func ChildHandle(parent *Element, kind Kind, name string) string {
	return childHandle(parent, kind, name)
}

func childHandle(parent *Element, kind Kind, name string) string {
	switch kind {
	case KindProject:
		return handleModel + name
	case KindPackageRoot:
		return parent.Handle + delimRoot + name
	case KindPackage:
		return parent.Handle + delimPackage + name
	case KindCompilationUnit:
		return parent.Handle + delimUnit + name
	case KindPackageDeclaration:
		return parent.Handle + delimPackageDecl + name
	case KindImportContainer:
		return parent.Handle + delimImport
	case KindImportDeclaration:
		// the container handle already ends with the import delimiter
		return parent.Handle + name
	case KindType:
		return parent.Handle + delimType + name
	case KindField:
		return parent.Handle + delimField + name
	case KindMethod:
		return parent.Handle + delimMethod + name
	case KindInitializer:
		return parent.Handle + delimInitializer + name
	default:
		return parent.Handle + "?" + name
	}
}

// IsResourceHandle reports whether a selection handle denotes a resource path
// rather than a program element.
func IsResourceHandle(handle string) bool {
	return strings.HasPrefix(handle, "/")
}

// ValidateHandle checks that a handle can be embedded in a descriptor record.
func ValidateHandle(handle string) error {
	if handle == "" {
		return fmt.Errorf("invalid handle: empty")
	}
	if strings.ContainsAny(handle, "\t\n") {
		return fmt.Errorf("invalid handle %q: must not contain tabs or newlines", handle)
	}
	return nil
}
