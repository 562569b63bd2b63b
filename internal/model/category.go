package model

import (
	"strings"
)

// Category groups tasks. Built-in categories have fixed identifiers that
// never change between versions; custom categories get a fresh UUID once.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ColorKey string `json:"color_key"`
	IsCustom bool   `json:"is_custom"`
}

// Uncategorized is returned when a task has no category or its category
// no longer exists
var Uncategorized = Category{Name: "Uncategorized", ColorKey: "gray"}

// builtin is one row of the fixed built-in category table
type builtin struct {
	id       string
	name     string
	colorKey string
}

// builtinTable is a compatibility contract: these ids are persisted inside
// tasks and must never be changed.
var builtinTable = []builtin{
	{"6f1c2a4e-8b1d-4c3e-9a57-0d2b7e4f1a01", "Urgent", "red"},
	{"6f1c2a4e-8b1d-4c3e-9a57-0d2b7e4f1a02", "Important", "orange"},
	{"6f1c2a4e-8b1d-4c3e-9a57-0d2b7e4f1a03", "Work", "blue"},
	{"6f1c2a4e-8b1d-4c3e-9a57-0d2b7e4f1a04", "Personal", "green"},
	{"6f1c2a4e-8b1d-4c3e-9a57-0d2b7e4f1a05", "Health", "pink"},
	{"6f1c2a4e-8b1d-4c3e-9a57-0d2b7e4f1a06", "Learning", "purple"},
	{"6f1c2a4e-8b1d-4c3e-9a57-0d2b7e4f1a07", "Shopping", "yellow"},
	{"6f1c2a4e-8b1d-4c3e-9a57-0d2b7e4f1a08", "Travel", "teal"},
}

// Builtins returns a fresh copy of the built-in categories in display order
func Builtins() []Category {
	cats := make([]Category, 0, len(builtinTable))
	for _, b := range builtinTable {
		cats = append(cats, Category{ID: b.id, Name: b.name, ColorKey: b.colorKey})
	}
	return cats
}

// BuiltinByName looks up a built-in category by case-insensitive name
func BuiltinByName(name string) (Category, bool) {
	name = strings.TrimSpace(name)
	for _, b := range builtinTable {
		if strings.EqualFold(b.name, name) {
			return Category{ID: b.id, Name: b.name, ColorKey: b.colorKey}, true
		}
	}
	return Category{}, false
}

// BuiltinByID looks up a built-in category by its fixed identifier
func BuiltinByID(id string) (Category, bool) {
	for _, b := range builtinTable {
		if b.id == id {
			return Category{ID: b.id, Name: b.name, ColorKey: b.colorKey}, true
		}
	}
	return Category{}, false
}

// IsBuiltinID returns true if id is one of the fixed built-in identifiers
func IsBuiltinID(id string) bool {
	_, ok := BuiltinByID(id)
	return ok
}
