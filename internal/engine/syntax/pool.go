// # internal/engine/syntax/pool.go
package syntax

import (
	"fmt"
	"sync"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ParserPool recycles tree-sitter parser instances so that re-parsing a unit
// after every fix does not pay the sitter.NewParser() / parser.Close() cost.
//
// A pool is tied to one grammar. Units reparse through the pool of the loader
// that created them.
//
// Concurrency: safe for use by multiple goroutines simultaneously.
type ParserPool struct {
	lang *sitter.Language
	pool sync.Pool

	leases   map[*sitter.Parser]time.Time
	leasesMu sync.Mutex
}

// NewParserPool panics when lang cannot be bound to a parser, which only
// happens when the grammar was built for an incompatible tree-sitter ABI.
func NewParserPool(lang *sitter.Language) *ParserPool {
	first, err := newParser(lang)
	if err != nil {
		panic(fmt.Sprintf("syntax: bind grammar: %v", err))
	}

	p := &ParserPool{
		lang:   lang,
		leases: make(map[*sitter.Parser]time.Time),
	}
	p.pool = sync.Pool{
		New: func() any {
			// The ABI check above makes this infallible.
			sp, _ := newParser(lang)
			return sp
		},
	}
	p.pool.Put(first)
	return p
}

func newParser(lang *sitter.Language) (*sitter.Parser, error) {
	sp := sitter.NewParser()
	if err := sp.SetLanguage(lang); err != nil {
		sp.Close()
		return nil, err
	}
	return sp, nil
}

// Get returns a parser configured for the pool's grammar.
func (p *ParserPool) Get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)

	p.leasesMu.Lock()
	p.leases[sp] = time.Now()
	p.leasesMu.Unlock()

	return sp
}

// Put resets sp and returns it to the pool. Callers must not use sp afterwards.
func (p *ParserPool) Put(sp *sitter.Parser) {
	if sp == nil {
		return
	}

	p.leasesMu.Lock()
	delete(p.leases, sp)
	p.leasesMu.Unlock()

	sp.Reset()
	p.pool.Put(sp)
}

// Parse leases a parser, parses src and returns the tree. The caller owns the tree.
func (p *ParserPool) Parse(src []byte) *sitter.Tree {
	sp := p.Get()
	defer p.Put(sp)
	return sp.Parse(src, nil)
}

// Active returns the number of parsers currently leased.
func (p *ParserPool) Active() int {
	p.leasesMu.Lock()
	defer p.leasesMu.Unlock()
	return len(p.leases)
}
