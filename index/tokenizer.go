package index

import (
	"strings"
	"unicode"
)

// Stop words filtered during tokenization. The corpus is mixed
// Chinese/English, so both scripts are covered. Single-rune entries are
// redundant (single-rune tokens are dropped anyway) and omitted.
var stopWords = map[string]bool{
	// English
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
	// Chinese (bigram-sized)
	"没有": true, "自己": true, "这样": true, "我们": true, "一个": true,
	"什么": true, "可以": true, "因为": true, "所以": true,
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

func isWordRune(r rune) bool {
	return r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Tokenize splits text into index terms. ASCII letter/digit runs become
// lowercase word tokens; CJK runs are segmented into overlapping bigrams.
// Stopwords, single-rune tokens, and pure-digit tokens are discarded.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var tokens []string
	var ascii strings.Builder
	var cjk []rune

	flushASCII := func() {
		if ascii.Len() == 0 {
			return
		}
		word := strings.ToLower(ascii.String())
		ascii.Reset()
		if len(word) <= 1 || stopWords[word] || isDigits(word) {
			return
		}
		tokens = append(tokens, word)
	}

	flushCJK := func() {
		if len(cjk) == 0 {
			return
		}
		run := cjk
		cjk = cjk[:0]
		// Single-rune runs carry too little signal to index.
		for i := 0; i+1 < len(run); i++ {
			bigram := string(run[i : i+2])
			if stopWords[bigram] {
				continue
			}
			tokens = append(tokens, bigram)
		}
	}

	for _, r := range text {
		switch {
		case isCJK(r):
			flushASCII()
			cjk = append(cjk, r)
		case isWordRune(r):
			flushCJK()
			ascii.WriteRune(r)
		default:
			flushASCII()
			flushCJK()
		}
	}
	flushASCII()
	flushCJK()

	return tokens
}
