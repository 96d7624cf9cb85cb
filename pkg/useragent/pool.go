package useragent

import (
	"math/rand"
	"sync/atomic"
)

// defaultAgents is a small rotation of current desktop browser User-Agents.
// Vendor storefronts serve stripped-down pages (or block outright) when the
// UA looks like a bot, so extraction always presents a browser signature.
var defaultAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:128.0) Gecko/20100101 Firefox/128.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:128.0) Gecko/20100101 Firefox/128.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 Edg/126.0.0.0",
}

// Pool hands out User-Agent strings round-robin. Safe for concurrent use.
type Pool struct {
	agents []string
	next   atomic.Uint64
}

// NewPool builds a pool from the given agents, falling back to the built-in
// set when empty. The slice is copied so callers cannot mutate it later.
func NewPool(agents []string) *Pool {
	if len(agents) == 0 {
		agents = defaultAgents
	}
	copied := make([]string, len(agents))
	copy(copied, agents)
	return &Pool{agents: copied}
}

// Next returns the next User-Agent in rotation.
func (p *Pool) Next() string {
	if len(p.agents) == 0 {
		return ""
	}
	n := p.next.Add(1) - 1
	return p.agents[n%uint64(len(p.agents))]
}

// Random returns a uniformly random User-Agent from the pool.
func (p *Pool) Random() string {
	if len(p.agents) == 0 {
		return ""
	}
	return p.agents[rand.Intn(len(p.agents))]
}

// All returns a copy of the pool's agents.
func (p *Pool) All() []string {
	copied := make([]string, len(p.agents))
	copy(copied, p.agents)
	return copied
}
