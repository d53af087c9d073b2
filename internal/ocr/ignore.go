package ocr

import (
	"strings"

	"github.com/qduc/easyocr-go/internal/ocrerr"
	"github.com/qduc/easyocr-go/internal/recognizer"
)

// defaultSymbols is the default symbol set spec.md §4.H step 2 unions with a
// language's character set: the ten digits plus the literal ASCII
// punctuation set "!\"#$%&'()*+,-./:;<=>?@[\]^_`{|}~" and a trailing space.
const defaultSymbols = "0123456789" + "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~ "

// languageCharacterSets maps a language code to its recognizable character
// set. Only "en" is populated: the charset file this pipeline ships
// (spec.md §6, 96 characters) is English, and no per-language character
// table exists anywhere in the example pack to ground additional languages
// on, so requesting any other code is rejected rather than guessed at.
var languageCharacterSets = map[string]string{
	"en": "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ",
}

// BuildIgnoreSet implements spec.md §4.H step 2: synthesize the decoder's
// ignore-set of class indices from, in priority order, an allowlist, a
// blocklist, or a langList-derived default. Exactly one source is consulted
// — allowlist wins if non-empty, else blocklist, else langList — matching
// the reference's precedence (an allowlist is a stricter filter than a
// blocklist, and a langList is the implicit default when neither is set).
func BuildIgnoreSet(charset *recognizer.Charset, blank int, opts Options) (map[int]bool, error) {
	switch {
	case opts.Allowlist != "":
		return ignoreNotIn(charset, blank, opts.Allowlist), nil
	case opts.Blocklist != "":
		return ignoreIn(charset, blank, opts.Blocklist), nil
	case len(opts.LangList) > 0:
		allowed, err := unionLanguageCharacters(opts.LangList)
		if err != nil {
			return nil, err
		}
		return ignoreNotIn(charset, blank, allowed), nil
	default:
		return nil, nil
	}
}

// DetectLanguage tags a recognized result's text with a heuristic language
// hint, but only when the caller actually requested languages via langList
// — with no langList configured there is nothing to cross-check the
// heuristic against, so detection is skipped entirely. Wires
// recognizer.DetectLanguage, whose own doc comment scopes it to exactly
// this use ("post-processing hints, not model selection"), into the
// langList handling this file already owns.
func DetectLanguage(text string, langList []string) string {
	if len(langList) == 0 {
		return ""
	}
	return recognizer.DetectLanguage(text)
}

func unionLanguageCharacters(langList []string) (string, error) {
	var b strings.Builder
	b.WriteString(defaultSymbols)
	for _, lang := range langList {
		set, ok := languageCharacterSets[lang]
		if !ok {
			return "", ocrerr.Wrap(ocrerr.ErrUnsupportedConfig, "unknown language code %q", lang)
		}
		b.WriteString(set)
	}
	return b.String(), nil
}

// ignoreNotIn ignores every charset token whose rune is absent from allowed.
func ignoreNotIn(charset *recognizer.Charset, blank int, allowed string) map[int]bool {
	allowedSet := runeSet(allowed)
	out := make(map[int]bool)
	for i := 0; i < charset.Size(); i++ {
		tok := charset.LookupToken(i)
		if !containsAllRunes(tok, allowedSet) {
			out[recognizer.TokenClassIndex(i, blank)] = true
		}
	}
	return out
}

// ignoreIn ignores every charset token whose rune is present in blocked.
func ignoreIn(charset *recognizer.Charset, blank int, blocked string) map[int]bool {
	blockedSet := runeSet(blocked)
	out := make(map[int]bool)
	for i := 0; i < charset.Size(); i++ {
		tok := charset.LookupToken(i)
		if containsAnyRune(tok, blockedSet) {
			out[recognizer.TokenClassIndex(i, blank)] = true
		}
	}
	return out
}

func runeSet(s string) map[rune]bool {
	out := make(map[rune]bool, len(s))
	for _, r := range s {
		out[r] = true
	}
	return out
}

func containsAllRunes(tok string, set map[rune]bool) bool {
	for _, r := range tok {
		if !set[r] {
			return false
		}
	}
	return true
}

func containsAnyRune(tok string, set map[rune]bool) bool {
	for _, r := range tok {
		if set[r] {
			return true
		}
	}
	return false
}
