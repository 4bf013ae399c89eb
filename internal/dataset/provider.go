// internal/dataset/provider.go
package dataset

import "sync"

// Provider loads the table once and hands out the same instance afterwards.
type Provider struct {
	path  string
	once  sync.Once
	table *Table
	err   error
}

func NewProvider(path string) *Provider {
	return &Provider{path: path}
}

// Get loads on first use. Later calls return the identical table (or error).
func (p *Provider) Get() (*Table, error) {
	p.once.Do(func() {
		p.table, p.err = Load(p.path)
	})
	return p.table, p.err
}

func (p *Provider) Path() string {
	return p.path
}
