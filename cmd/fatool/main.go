// Command fatool compiles a regular expression into a minimal DFA, prints
// statistics about its language, lists its first words in shortlex order and
// extracts an equivalent expression back out of the automaton.
//
//	fatool -re '(a|b)*abb' -words 5
//	fatool -re 'a{2,3}^b' -symbols abc -dump
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	u "github.com/araddon/gou"
	"github.com/kr/pretty"

	"automata/automaton"
	"automata/fa"
)

var (
	configPath = flag.String("config", "", "path to a TOML config file")
	pattern    = flag.String("re", "", "regular expression to compile")
	symbols    = flag.String("symbols", "", "input alphabet (default: symbols used by the pattern)")
	numWords   = flag.Int("words", 10, "number of accepted words to list")
	dump       = flag.Bool("dump", false, "print the parameters of the minimal DFA")
)

type options struct {
	pattern string
	symbols []rune
	words   int
	dump    bool
}

func main() {
	flag.Parse()
	if *pattern == "" && flag.NArg() > 0 {
		*pattern = flag.Arg(0)
	}
	if *pattern == "" {
		fmt.Fprintln(os.Stderr, "usage: fatool [-config file.toml] [-symbols abc] [-words n] [-dump] -re pattern")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := automaton.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = automaton.LoadConfig(*configPath); err != nil {
			log.Fatalf("config %s: %v", *configPath, err)
		}
	}
	automaton.Configure(cfg)
	u.SetupLogging(cfg.LogLevel)
	u.SetColorOutput()

	opts := options{pattern: *pattern, words: *numWords, dump: *dump}
	if *symbols != "" {
		opts.symbols = []rune(*symbols)
	}
	if err := run(os.Stdout, opts); err != nil {
		log.Fatal(err)
	}
}

func run(w io.Writer, opts options) error {
	n, err := fa.NFAFromRegex(opts.pattern, opts.symbols)
	if err != nil {
		return err
	}
	u.Debugf("compiled %q into an NFA with %d states", opts.pattern, n.NumStates())

	d := fa.DFAFromNFA(n)
	fmt.Fprintf(w, "alphabet:  %s\n", string(d.InputSymbols()))
	fmt.Fprintf(w, "states:    %d\n", d.NumStates())
	fmt.Fprintf(w, "partial:   %v\n", d.IsPartial())

	if d.IsEmpty() {
		fmt.Fprintln(w, "language:  empty")
		return nil
	}
	lo, err := d.MinimumWordLength()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "shortest:  %d\n", lo)
	if d.IsFinite() {
		hi, err := d.MaximumWordLength()
		if err != nil {
			return err
		}
		card, err := d.Cardinality()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "longest:   %d\n", hi)
		fmt.Fprintf(w, "words:     %s\n", card)
	} else {
		fmt.Fprintln(w, "language:  infinite")
	}

	if opts.words > 0 {
		fmt.Fprintf(w, "first %d:\n", opts.words)
		i := 0
		for word := range d.Words() {
			if i == opts.words {
				break
			}
			if word == "" {
				word = "ε"
			}
			fmt.Fprintf(w, "  %s\n", word)
			i++
		}
	}

	re, err := fa.GNFAFromDFA(d).ToRegex()
	switch {
	case errors.Is(err, automaton.ErrEmptyLanguage):
		re = "(no word)"
	case err != nil:
		return err
	}
	fmt.Fprintf(w, "regex:     %s\n", re)

	if opts.dump {
		fmt.Fprintf(w, "%# v\n", pretty.Formatter(d.Params()))
	}
	return nil
}
