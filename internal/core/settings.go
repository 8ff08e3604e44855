package core

import "strings"

// ListName names one of the four settings lists.
type ListName string

const (
	Categories ListName = "categories"
	UpiApps    ListName = "upiApps"
	Cards      ListName = "cards"
	Banks      ListName = "banks"
)

func (n ListName) IsValid() bool {
	switch n {
	case Categories, UpiApps, Cards, Banks:
		return true
	}
	return false
}

// List returns a pointer to the named list, or nil for an unknown name.
func (s *Settings) List(name ListName) *[]string {
	switch name {
	case Categories:
		return &s.Categories
	case UpiApps:
		return &s.UpiApps
	case Cards:
		return &s.Cards
	case Banks:
		return &s.Banks
	}
	return nil
}

// InstrumentList returns the list holding sub-types for a payment method.
func InstrumentList(method PayMethod) (ListName, bool) {
	switch method {
	case UPI:
		return UpiApps, true
	case Card:
		return Cards, true
	case Bank:
		return Banks, true
	}
	return "", false
}

// AddUnique appends v unless an exact match is present. Blank values are ignored.
func AddUnique(list []string, v string) ([]string, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return list, false
	}
	for _, x := range list {
		if x == v {
			return list, false
		}
	}
	return append(list, v), true
}

// RemoveFirst deletes the first exact match of v.
func RemoveFirst(list []string, v string) ([]string, bool) {
	for i, x := range list {
		if x == v {
			return append(list[:i:i], list[i+1:]...), true
		}
	}
	return list, false
}

// Contains reports whether v is in list.
func Contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
