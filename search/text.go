package search

import "strings"

const wordPunctuation = ".,!?;:'\"-()[]{}"

// stopWords are ignored when testing for verbatim matches. The set covers
// common function words plus the question words that open most queries.
var stopWords = map[string]struct{}{}

func init() {
	words := "the a an be is are was to of and in that have it for not on " +
		"with as you do at this but by from what how why when where which who does"
	for _, w := range strings.Fields(words) {
		stopWords[w] = struct{}{}
	}
}

// tokenizeAndFilter lowercases text, strips surrounding punctuation from
// each word, and drops stop words.
func tokenizeAndFilter(text string) []string {
	var filtered []string
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, wordPunctuation)
		if word == "" {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		filtered = append(filtered, word)
	}
	return filtered
}

// containsAllQueryWords reports whether every filtered query word appears
// somewhere in the document. An all-stopword query never matches.
func containsAllQueryWords(document, query string) bool {
	queryWords := tokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return false
	}

	docWords := make(map[string]struct{})
	for _, word := range tokenizeAndFilter(document) {
		docWords[word] = struct{}{}
	}

	for _, word := range queryWords {
		if _, ok := docWords[word]; !ok {
			return false
		}
	}
	return true
}
