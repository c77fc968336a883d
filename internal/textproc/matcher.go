// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package textproc

import (
	"strings"
	"unicode/utf8"
)

// Matcher counts lexicon hits in text with an Aho-Corasick automaton.
// Patterns are organized in groups and Count reports one total per group.
//
// Matching is case-insensitive. Occurrences of the same pattern never
// overlap, so each pattern's count equals strings.Count on the lower-cased
// text.
//
// Example:
//
//	m := NewMatcher([]string{"great", "good"}, []string{"bad"})
//	m.Count("Great food, bad service") // [1 1]
type Matcher struct {
	root     *acNode
	patterns []acPattern
	groups   int
}

type acNode struct {
	children map[rune]*acNode
	failure  *acNode
	output   []int // indices of patterns ending here
}

type acPattern struct {
	text  string
	group int
}

func newACNode() *acNode {
	return &acNode{children: make(map[rune]*acNode)}
}

// NewMatcher builds an automaton over the given pattern groups. Empty
// patterns are ignored.
func NewMatcher(groups ...[]string) *Matcher {
	m := &Matcher{root: newACNode(), groups: len(groups)}
	for g, words := range groups {
		for _, w := range words {
			if w == "" {
				continue
			}
			m.insert(len(m.patterns), strings.ToLower(w))
			m.patterns = append(m.patterns, acPattern{text: strings.ToLower(w), group: g})
		}
	}
	m.buildFailureLinks()
	return m
}

func (m *Matcher) insert(index int, text string) {
	node := m.root
	for _, ch := range text {
		if node.children[ch] == nil {
			node.children[ch] = newACNode()
		}
		node = node.children[ch]
	}
	node.output = append(node.output, index)
}

// buildFailureLinks links every node to its longest proper suffix in the
// trie, breadth first.
func (m *Matcher) buildFailureLinks() {
	queue := make([]*acNode, 0, len(m.root.children))
	for _, child := range m.root.children {
		child.failure = m.root
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for ch, child := range current.children {
			queue = append(queue, child)

			fail := current.failure
			for fail != nil && fail.children[ch] == nil {
				fail = fail.failure
			}
			if fail == nil {
				child.failure = m.root
				continue
			}
			child.failure = fail.children[ch]
			child.output = append(child.output, child.failure.output...)
		}
	}
}

// Count returns the number of hits per group in text.
func (m *Matcher) Count(text string) []int {
	counts := make([]int, m.groups)
	if len(m.patterns) == 0 || text == "" {
		return counts
	}

	text = strings.ToLower(text)
	nextFree := make([]int, len(m.patterns)) // byte offset where the next hit may start
	node := m.root

	for i, ch := range text {
		for node != nil && node.children[ch] == nil {
			node = node.failure
		}
		if node == nil {
			node = m.root
			continue
		}
		node = node.children[ch]

		_, size := utf8.DecodeRuneInString(text[i:])
		end := i + size
		for _, idx := range node.output {
			p := m.patterns[idx]
			start := end - len(p.text)
			if start < nextFree[idx] {
				continue
			}
			nextFree[idx] = end
			counts[p.group]++
		}
	}
	return counts
}
