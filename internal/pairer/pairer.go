// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pairer extracts (question, answer) pairs from a Posts.xml dump.
//
// A run has three stages. One feed goroutine tokenizes the XML, classifies
// rows, inserts questions into the table and looks up the parent of every
// qualifying answer, all in input order. A pool of workers renders the
// matched answers (HTML normalization, the expensive part). The caller's
// goroutine collects finished pairs in completion order.
//
// Because the feed is the only writer of the table and performs every
// lookup itself, an answer is joined iff its parent appears earlier in the
// file. Answers whose parent comes later are dropped.
package pairer

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/net/html/charset"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/stackpair/internal/qtable"
	"github.com/pdiddy/stackpair/internal/record"
	"github.com/pdiddy/stackpair/internal/textnorm"
	"github.com/pdiddy/stackpair/pkg/types"
)

// Pairer runs one pass over one dump.
type Pairer struct {
	cfg    types.PairConfig
	table  qtable.Table
	engine *Engine

	logMu sync.Mutex
	log   io.Writer
}

// New returns a pairer that joins against table and stamps pairs with
// xmlPath. Skipped rows are reported to log; a nil log discards them.
func New(cfg types.PairConfig, table qtable.Table, xmlPath string, log io.Writer) *Pairer {
	return &Pairer{
		cfg:    cfg,
		table:  table,
		engine: NewEngine(table, textnorm.Normalize, xmlPath),
		log:    log,
	}
}

// Workers returns the size of the render pool.
func (p *Pairer) Workers() int {
	if p.cfg.Workers > 0 {
		return p.cfg.Workers
	}
	return runtime.NumCPU()
}

func (p *Pairer) warnf(format string, args ...any) {
	if p.log == nil {
		return
	}
	p.logMu.Lock()
	fmt.Fprintf(p.log, format+"\n", args...)
	p.logMu.Unlock()
}

// Run reads the dump from r and calls emit for every pair, from the
// calling goroutine only. Pairs arrive in completion order. When
// MaxResponses is set, pairs are held until the dump is exhausted, ranked
// per question, and emitted afterwards.
//
// Per-row problems are counted in the summary and never stop the run.
// Errors reading the stream or the table abort it.
func (p *Pairer) Run(ctx context.Context, r io.Reader, emit func(types.Pair)) (types.RunSummary, error) {
	workers := p.Workers()
	jobs := make(chan match, workers*2)
	results := make(chan types.Pair, workers*2)

	var summary types.RunSummary
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		return p.feed(gctx, r, jobs, &summary)
	})
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for m := range jobs {
				pair, ok := p.render(m)
				if !ok {
					failed.Add(1)
					continue
				}
				select {
				case results <- pair:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	var runErr error
	go func() {
		runErr = g.Wait()
		close(results)
	}()

	rows := 0
	var held []types.Pair
	for pair := range results {
		if p.cfg.MaxResponses > 0 {
			held = append(held, pair)
			continue
		}
		emit(pair)
		rows++
	}

	// The group has finished; the feed's counts are safe to read.
	summary.Failed = int(failed.Load())
	if runErr != nil {
		summary.Rows = rows
		return summary, runErr
	}

	if p.cfg.MaxResponses > 0 {
		kept := LimitPerQuestion(held, p.cfg.MaxResponses)
		summary.Trimmed = len(held) - len(kept)
		for _, pair := range kept {
			emit(pair)
		}
		rows = len(kept)
	}
	summary.Rows = rows
	return summary, nil
}

// feed is the single sequential stage: it owns the table writes and the
// answer-sequence counter.
func (p *Pairer) feed(ctx context.Context, r io.Reader, jobs chan<- match, s *types.RunSummary) error {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	row := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading xml after row %d: %w", row, err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != record.RowElement {
			continue
		}
		row++
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := record.ParseElement(se)
		if err != nil {
			s.Skipped++
			p.warnf("skipped row %d: %v", row, err)
			continue
		}

		switch rec.Kind {
		case record.KindQuestion:
			if err := p.table.Insert(rec.Question); err != nil {
				return err
			}
			s.Questions++

		case record.KindAnswer:
			if !rec.Qualifies(p.cfg.MinScore) {
				s.Filtered++
				continue
			}
			s.Answers++
			m, found, err := p.engine.lookup(rec.Answer)
			if err != nil {
				return err
			}
			if !found {
				s.Unmatched++
				continue
			}
			s.Matched++
			select {
			case jobs <- m:
			case <-ctx.Done():
				return ctx.Err()
			}

		default:
			s.Neither++
		}
	}
}

// render builds the pair for m, converting a panic into a failed record.
func (p *Pairer) render(m match) (pair types.Pair, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.warnf("failed answer %s: %v", m.answer.ID, r)
			ok = false
		}
	}()
	return p.engine.render(m), true
}
