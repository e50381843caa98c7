// # internal/engine/syntax/loader.go
package syntax

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

var (
	ErrParse            = errors.New("syntax: parse failed")
	ErrInvalidSpan      = errors.New("syntax: span out of range")
	ErrMalformedSnippet = errors.New("syntax: snippet does not parse")
)

// snippetPrefix opens PHP mode so that synthesized code can be checked on its own.
const snippetPrefix = "<?php\n"

var defaultExtensions = []string{".php", ".phtml", ".inc"}

// GrammarLoader binds the PHP grammar and hands out units parsed with it.
type GrammarLoader struct {
	lang       *sitter.Language
	pool       *ParserPool
	extensions map[string]bool
}

// NewGrammarLoader creates a loader accepting the given file extensions
// (defaults to .php, .phtml and .inc when empty).
func NewGrammarLoader(extensions []string) *GrammarLoader {
	lang := sitter.NewLanguage(tree_sitter_php.LanguagePHP())
	gl := &GrammarLoader{
		lang:       lang,
		pool:       NewParserPool(lang),
		extensions: make(map[string]bool),
	}
	if len(extensions) == 0 {
		extensions = defaultExtensions
	}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		gl.extensions[ext] = true
	}
	return gl
}

func (gl *GrammarLoader) Language() *sitter.Language {
	return gl.lang
}

func (gl *GrammarLoader) IsSupportedPath(path string) bool {
	return gl.extensions[strings.ToLower(filepath.Ext(path))]
}

func (gl *GrammarLoader) SupportedExtensions() []string {
	out := make([]string, 0, len(gl.extensions))
	for ext := range gl.extensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Parse builds a unit for src. The unit keeps its own copy of the bytes.
func (gl *GrammarLoader) Parse(path string, src []byte, level Level) (*Unit, error) {
	u := &Unit{
		ID:    uuid.New(),
		Path:  path,
		level: level,
		pool:  gl.pool,
	}
	if err := u.reparse(append([]byte(nil), src...)); err != nil {
		return nil, err
	}
	return u, nil
}

// CheckStatements reports ErrMalformedSnippet unless text parses as one or
// more complete statements without syntax errors.
func (gl *GrammarLoader) CheckStatements(text string) error {
	_, err := gl.snippetStatements(text)
	return err
}

// CheckExpression reports ErrMalformedSnippet unless text is exactly one expression.
func (gl *GrammarLoader) CheckExpression(text string) error {
	stmts, err := gl.snippetStatements(text + ";")
	if err != nil {
		return err
	}
	if len(stmts) != 1 || stmts[0] != KindExpressionStatement {
		return ErrMalformedSnippet
	}
	return nil
}

func (gl *GrammarLoader) snippetStatements(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrMalformedSnippet
	}
	tree := gl.pool.Parse([]byte(snippetPrefix + text))
	if tree == nil {
		return nil, ErrParse
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		return nil, ErrMalformedSnippet
	}
	kinds := make([]string, 0, 2)
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		switch child.Kind() {
		case KindPHPTag, KindComment:
			continue
		}
		kinds = append(kinds, child.Kind())
	}
	if len(kinds) == 0 {
		return nil, ErrMalformedSnippet
	}
	return kinds, nil
}
