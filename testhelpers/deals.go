// Package testhelpers holds fixtures shared by the tests of the command
// packages.
package testhelpers

import (
	"testing"

	"github.com/domino14/ddsolve/config"
	"github.com/domino14/ddsolve/deal"
	"github.com/domino14/ddsolve/dealio"
)

const (
	// TwoTricksLine: North leads 2H and North/South take both tricks.
	TwoTricksLine = "W:2.3.. N:3.2.. E:A..J. S:.K10.. lead=N trump=NT"
	// OneTrickLine: South's 5S wins the only trick.
	OneTrickLine = "W:2... N:3... E:4... S:5... lead=N trump=NT"
)

// Config returns the default settings with a small position cache.
func Config() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigCacheMemoryFraction, 0.01)
	return cfg
}

// Entries parses deal lines, failing the test on error.
func Entries(t testing.TB, lines ...string) []dealio.Entry {
	t.Helper()
	var es []dealio.Entry
	for _, l := range lines {
		e, err := dealio.ParseLine(l)
		if err != nil {
			t.Fatal(err)
		}
		es = append(es, e)
	}
	return es
}

// Deal parses a single deal line.
func Deal(t testing.TB, line string) *deal.Deal {
	t.Helper()
	d, err := Entries(t, line)[0].Deal()
	if err != nil {
		t.Fatal(err)
	}
	return d
}
