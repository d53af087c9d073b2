// Package recognizer implements the CRNN+CTC text-recognition stage: the
// two-stage resampling preprocess (spec §4.F) and the greedy CTC decoder with
// ignore-set masking and geometric-mean confidence (spec §4.G).
package recognizer

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Charset is the ordered alphabet the recognizer's CTC head was trained
// against. Its length is one less than the model's class count: the CTC
// blank occupies a class slot with no charset entry (spec §4.G).
type Charset struct {
	Tokens       []string
	IndexToToken map[int]string
	TokenToIndex map[string]int
}

func removeBOM(line string, isFirstLine bool) string {
	if isFirstLine {
		return strings.TrimPrefix(line, "\ufeff")
	}
	return line
}

func processLine(line string, lineNum int) string {
	return strings.TrimSpace(removeBOM(line, lineNum == 1))
}

func buildCharsetMaps(tokens []string) (map[int]string, map[string]int) {
	indexToToken := make(map[int]string, len(tokens))
	tokenToIndex := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		if _, exists := tokenToIndex[tok]; !exists {
			tokenToIndex[tok] = i
		}
		indexToToken[i] = tok
	}
	return indexToToken, tokenToIndex
}

// LoadCharset reads a charset file, one token per line. Blank lines are
// skipped, a leading BOM is stripped, and lines are whitespace-trimmed. The
// first occurrence of a duplicated token keeps its index.
func LoadCharset(path string) (*Charset, error) {
	if path == "" {
		return nil, errors.New("recognizer: charset path is empty")
	}
	f, err := os.Open(path) //nolint:gosec // G304: path is operator-supplied model asset
	if err != nil {
		return nil, fmt.Errorf("recognizer: open charset: %w", err)
	}
	defer f.Close()

	tokens := make([]string, 0, 512)
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		tok := processLine(scanner.Text(), lineNum)
		if tok == "" {
			continue
		}
		tokens = append(tokens, tok)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("recognizer: read charset: %w", err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("recognizer: charset %q has no tokens", path)
	}

	indexToToken, tokenToIndex := buildCharsetMaps(tokens)
	return &Charset{Tokens: tokens, IndexToToken: indexToToken, TokenToIndex: tokenToIndex}, nil
}

// LoadCharsets merges multiple charset files in file order, de-duplicating
// tokens (first occurrence wins). Used when a language list resolves to
// several per-language dictionaries (spec §4.H step 2).
func LoadCharsets(paths []string) (*Charset, error) {
	if len(paths) == 0 {
		return nil, errors.New("recognizer: no charset paths provided")
	}
	seen := make(map[string]struct{}, 1024)
	tokens := make([]string, 0, 1024)
	for _, path := range paths {
		if path == "" {
			continue
		}
		cs, err := LoadCharset(path)
		if err != nil {
			return nil, err
		}
		for _, tok := range cs.Tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) == 0 {
		return nil, errors.New("recognizer: merged charset is empty")
	}
	indexToToken, tokenToIndex := buildCharsetMaps(tokens)
	return &Charset{Tokens: tokens, IndexToToken: indexToToken, TokenToIndex: tokenToIndex}, nil
}

// Size returns the number of tokens in the charset (excludes blank).
func (c *Charset) Size() int { return len(c.Tokens) }

// LookupIndex returns the 0-based charset index of token, or -1 if absent.
func (c *Charset) LookupIndex(token string) int {
	if c == nil {
		return -1
	}
	if idx, ok := c.TokenToIndex[token]; ok {
		return idx
	}
	return -1
}

// LookupToken returns the token at a 0-based charset index, or "" if missing.
func (c *Charset) LookupToken(index int) string {
	if c == nil {
		return ""
	}
	if tok, ok := c.IndexToToken[index]; ok {
		return tok
	}
	return ""
}
