/*
Package recordparser drives the processing of record files.

A record file is processed atomically: the listener is told when the file
starts, receives every record of the file in order, and is told when the file
ends, at which point the records are persisted together with the file itself.
When anything fails in between, the listener is told to discard what it
collected.

Record files are chained by hash.  A file whose previous hash doesn't match
the hash of the last processed file is rejected before any of its records is
read.
*/
package recordparser

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/step-security-bot/hedera-mirror-node/common"
	"github.com/step-security-bot/hedera-mirror-node/log"
	"github.com/step-security-bot/hedera-mirror-node/metric"
)

// EntityListener receives the records of the record files being parsed
type EntityListener interface {
	OnStart(ctx context.Context) error
	OnRecord(ctx context.Context, record interface{}) error
	OnEnd(ctx context.Context, file *common.RecordFile) error
	OnError(ctx context.Context)
}

// RecordSource yields the records of one record file in order.  Next returns
// io.EOF after the last record.
type RecordSource interface {
	Next(ctx context.Context) (interface{}, error)
}

// LastFileStore returns the last record file persisted, or nil
type LastFileStore interface {
	GetLastRecordFile(ctx context.Context) (*common.RecordFile, error)
}

// SliceSource is a RecordSource over an in memory list of records
type SliceSource struct {
	records []interface{}
	pos     int
}

// NewSliceSource creates a SliceSource
func NewSliceSource(records ...interface{}) *SliceSource {
	return &SliceSource{records: records}
}

// Next implements RecordSource
func (s *SliceSource) Next(ctx context.Context) (interface{}, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	r := s.records[s.pos]
	s.pos++
	return r, nil
}

// Stats of the parser
type Stats struct {
	Updated  time.Time
	LastFile common.RecordFile
	Files    int64
	Records  int64
	Failures int64
}

// StatsHolder stores stats and allows reading and writing them concurrently
type StatsHolder struct {
	Stats
	// last is the last record file processed, or loaded from storage
	last *common.RecordFile
	rw   sync.RWMutex
}

func (s *StatsHolder) setLast(file *common.RecordFile) {
	s.rw.Lock()
	s.last = file
	s.rw.Unlock()
}

// Last returns a copy of the last record file, or nil
func (s *StatsHolder) Last() *common.RecordFile {
	s.rw.RLock()
	defer s.rw.RUnlock()
	if s.last == nil {
		return nil
	}
	file := *s.last
	return &file
}

func (s *StatsHolder) update(file *common.RecordFile, records int64) {
	s.rw.Lock()
	last := *file
	s.last = &last
	s.LastFile = *file
	s.Files++
	s.Records += records
	s.Updated = time.Now()
	s.rw.Unlock()
}

func (s *StatsHolder) fail() {
	s.rw.Lock()
	s.Failures++
	s.rw.Unlock()
}

// CopyStats returns a copy of the inner Stats
func (s *StatsHolder) CopyStats() *Stats {
	s.rw.RLock()
	sCopy := s.Stats
	s.rw.RUnlock()
	return &sCopy
}

// Parser feeds record files to an EntityListener.  Parse must not be called
// concurrently; Stats and LastFile may be called from any goroutine.
type Parser struct {
	listener EntityListener
	store    LastFileStore
	loaded   bool
	stats    StatsHolder
}

// NewParser creates a Parser.  store is used once to find the last processed
// record file and may be nil, in which case the first file isn't checked.
func NewParser(listener EntityListener, store LastFileStore) *Parser {
	return &Parser{listener: listener, store: store}
}

// Stats returns a copy of the parser stats
func (p *Parser) Stats() *Stats {
	return p.stats.CopyStats()
}

// LastFile returns the last record file processed, or nil
func (p *Parser) LastFile() *common.RecordFile {
	return p.stats.Last()
}

func (p *Parser) init(ctx context.Context) error {
	if p.loaded {
		return nil
	}
	if p.store != nil {
		last, err := p.store.GetLastRecordFile(ctx)
		if err != nil {
			return common.Wrap(fmt.Errorf("GetLastRecordFile: %w", err))
		}
		p.stats.setLast(last)
	}
	p.loaded = true
	return nil
}

func (p *Parser) verify(file *common.RecordFile) error {
	last := p.stats.Last()
	if last == nil || last.Hash == "" {
		return nil
	}
	if file.PreviousHash != last.Hash {
		return common.Wrap(fmt.Errorf("%w: %s has previous hash %q, expected %q of %s",
			common.ErrHashMismatch, file.Name, file.PreviousHash, last.Hash, last.Name))
	}
	return nil
}

// Parse processes file, whose records are read from source.  When Parse
// returns an error nothing of file has been persisted.
func (p *Parser) Parse(ctx context.Context, file *common.RecordFile, source RecordSource) (err error) {
	if err := p.init(ctx); err != nil {
		return common.Wrap(err)
	}
	if err := p.verify(file); err != nil {
		metric.RecordFilesParsed.WithLabelValues("mismatch").Inc()
		p.stats.fail()
		return common.Wrap(err)
	}

	start := time.Now()
	if err := p.listener.OnStart(ctx); err != nil {
		return common.Wrap(err)
	}
	defer func() {
		if err != nil {
			p.listener.OnError(ctx)
			p.stats.fail()
			metric.RecordFilesParsed.WithLabelValues("failure").Inc()
			log.Errorw("Parse record file", "file", file.Name, "err", err)
		}
	}()

	var count int64
	for {
		select {
		case <-ctx.Done():
			return common.Wrap(common.ErrDone)
		default:
		}
		record, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return common.Wrap(fmt.Errorf("RecordSource.Next: %w", err))
		}
		if err := p.listener.OnRecord(ctx, record); err != nil {
			return common.Wrap(err)
		}
		count++
	}

	if file.Count == 0 {
		file.Count = count
	}
	file.LoadStart = start
	file.LoadEnd = time.Now()
	if err := p.listener.OnEnd(ctx, file); err != nil {
		return common.Wrap(err)
	}

	p.stats.update(file, count)
	metric.RecordFilesParsed.WithLabelValues("success").Inc()
	log.Infow("Parsed record file", "file", file.Name, "records", count,
		"duration", time.Since(start))
	return nil
}
