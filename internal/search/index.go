// Package search keeps an in-memory token index over task text.
package search

import (
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Fields are the indexed parts of a task
type Fields struct {
	Title       string
	Description string
	Category    string
}

// Index maps lowercase tokens to task ids
type Index struct {
	mu     sync.RWMutex
	tokens map[string]map[string]struct{}
	byTask map[string][]string
}

func NewIndex() *Index {
	return &Index{
		tokens: make(map[string]map[string]struct{}),
		byTask: make(map[string][]string),
	}
}

// Update replaces the indexed text for a task
func (ix *Index) Update(taskID string, f Fields) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.removeLocked(taskID)

	toks := tokenize(f.Title + " " + f.Description + " " + f.Category)
	for _, tok := range toks {
		set, ok := ix.tokens[tok]
		if !ok {
			set = make(map[string]struct{})
			ix.tokens[tok] = set
		}
		set[taskID] = struct{}{}
	}
	ix.byTask[taskID] = toks
}

// Remove drops a task from the index. No-op if it isn't indexed.
func (ix *Index) Remove(taskID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(taskID)
}

// Search returns ids of tasks where every query term prefixes some token
func (ix *Index) Search(query string) []string {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var result map[string]struct{}
	for _, term := range terms {
		matches := make(map[string]struct{})
		for tok, ids := range ix.tokens {
			if !strings.HasPrefix(tok, term) {
				continue
			}
			for id := range ids {
				matches[id] = struct{}{}
			}
		}
		if result == nil {
			result = matches
			continue
		}
		for id := range result {
			if _, ok := matches[id]; !ok {
				delete(result, id)
			}
		}
	}

	ids := make([]string, 0, len(result))
	for id := range result {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of indexed tasks
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byTask)
}

func (ix *Index) removeLocked(taskID string) {
	for _, tok := range ix.byTask[taskID] {
		set := ix.tokens[tok]
		delete(set, taskID)
		if len(set) == 0 {
			delete(ix.tokens, tok)
		}
	}
	delete(ix.byTask, taskID)
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
