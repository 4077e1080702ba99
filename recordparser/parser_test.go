package recordparser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/step-security-bot/hedera-mirror-node/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listener struct {
	calls   []string
	records []interface{}
	ended   []common.RecordFile
	failOn  int
	endErr  error
}

func (l *listener) OnStart(ctx context.Context) error {
	l.calls = append(l.calls, "start")
	return nil
}

func (l *listener) OnRecord(ctx context.Context, record interface{}) error {
	l.records = append(l.records, record)
	if l.failOn > 0 && len(l.records) == l.failOn {
		return common.Wrap(common.ErrMalformedRecord)
	}
	return nil
}

func (l *listener) OnEnd(ctx context.Context, file *common.RecordFile) error {
	l.calls = append(l.calls, "end")
	if l.endErr != nil {
		return l.endErr
	}
	l.ended = append(l.ended, *file)
	return nil
}

func (l *listener) OnError(ctx context.Context) {
	l.calls = append(l.calls, "error")
}

type lastFile struct {
	file *common.RecordFile
	gets int
}

func (s *lastFile) GetLastRecordFile(ctx context.Context) (*common.RecordFile, error) {
	s.gets++
	return s.file, nil
}

func transactions(timestamps ...int64) []interface{} {
	records := make([]interface{}, 0, len(timestamps))
	for _, ts := range timestamps {
		records = append(records, &common.Transaction{ConsensusTimestamp: ts, PayerAccountID: common.EntityIDOf(2)})
	}
	return records
}

func TestParseInOrder(t *testing.T) {
	l := &listener{}
	p := NewParser(l, nil)
	file := &common.RecordFile{Name: "a.rcd", Hash: "h1"}
	require.NoError(t, p.Parse(context.Background(), file, NewSliceSource(transactions(1, 2, 3)...)))

	assert.Equal(t, []string{"start", "end"}, l.calls)
	require.Len(t, l.records, 3)
	for i, r := range l.records {
		assert.Equal(t, int64(i+1), r.(*common.Transaction).ConsensusTimestamp)
	}
	require.Len(t, l.ended, 1)
	assert.Equal(t, int64(3), l.ended[0].Count)
	assert.False(t, l.ended[0].LoadEnd.Before(l.ended[0].LoadStart))

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Files)
	assert.Equal(t, int64(3), stats.Records)
	assert.Equal(t, "h1", p.LastFile().Hash)
}

func TestParseHashChain(t *testing.T) {
	store := &lastFile{file: &common.RecordFile{Name: "a.rcd", Hash: "h1"}}
	l := &listener{}
	p := NewParser(l, store)
	ctx := context.Background()

	err := p.Parse(ctx, &common.RecordFile{Name: "b.rcd", Hash: "h2", PreviousHash: "zz"}, NewSliceSource())
	assert.True(t, errors.Is(err, common.ErrHashMismatch))
	assert.Empty(t, l.calls)

	require.NoError(t, p.Parse(ctx, &common.RecordFile{Name: "b.rcd", Hash: "h2", PreviousHash: "h1"},
		NewSliceSource()))
	require.NoError(t, p.Parse(ctx, &common.RecordFile{Name: "c.rcd", Hash: "h3", PreviousHash: "h2"},
		NewSliceSource()))
	err = p.Parse(ctx, &common.RecordFile{Name: "d.rcd", Hash: "h4", PreviousHash: "h2"}, NewSliceSource())
	assert.True(t, errors.Is(err, common.ErrHashMismatch))
	assert.Equal(t, 1, store.gets)
	assert.Equal(t, int64(2), p.Stats().Failures)
}

func TestLastFileConcurrentReads(t *testing.T) {
	p := NewParser(&listener{}, nil)
	ctx := context.Background()

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			if file := p.LastFile(); file != nil {
				assert.NotEmpty(t, file.Hash)
			}
			p.Stats()
		}
	}()

	prev := ""
	for i := 0; i < 50; i++ {
		hash := fmt.Sprintf("h%d", i)
		file := &common.RecordFile{Name: fmt.Sprintf("%03d.rcd", i), Hash: hash, PreviousHash: prev}
		require.NoError(t, p.Parse(ctx, file, NewSliceSource(transactions(int64(i+1))...)))
		prev = hash
	}
	close(done)
	wg.Wait()
	assert.Equal(t, "h49", p.LastFile().Hash)
	assert.Equal(t, int64(50), p.Stats().Files)
}

func TestParseRecordError(t *testing.T) {
	l := &listener{failOn: 2}
	p := NewParser(l, nil)
	err := p.Parse(context.Background(), &common.RecordFile{Name: "a.rcd", Hash: "h1"},
		NewSliceSource(transactions(1, 2, 3)...))
	assert.True(t, errors.Is(err, common.ErrMalformedRecord))
	assert.Equal(t, []string{"start", "error"}, l.calls)
	assert.Len(t, l.records, 2)
	assert.Nil(t, p.LastFile())
}

func TestParseEndError(t *testing.T) {
	l := &listener{endErr: common.ErrStorageWrite}
	p := NewParser(l, nil)
	err := p.Parse(context.Background(), &common.RecordFile{Name: "a.rcd"}, NewSliceSource(transactions(1)...))
	assert.True(t, errors.Is(err, common.ErrStorageWrite))
	assert.Equal(t, []string{"start", "end", "error"}, l.calls)
	assert.Nil(t, p.LastFile())
}

func TestParseCancelled(t *testing.T) {
	l := &listener{}
	p := NewParser(l, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Parse(ctx, &common.RecordFile{Name: "a.rcd"}, NewSliceSource(transactions(1)...))
	assert.True(t, common.IsErrDone(err))
	assert.Equal(t, []string{"start", "error"}, l.calls)
	assert.Empty(t, l.records)
}

const recordFileDump = `
[file]
Name = "2024-01-01T00_00_00.000000000Z.rcd"
Hash = "h2"
PreviousHash = "h1"
ConsensusStart = 10
ConsensusEnd = 20
Index = 7
Version = 6

[[record]]
kind = "transaction"
[record.data]
ConsensusTimestamp = 10
PayerAccountID = 1001
Type = 14
Result = 22

[[record]]
kind = "entity"
[record.data]
ID = 1001
Balance = 500
Type = "ACCOUNT"
[record.data.TimestampRange]
Lower = 10

[[record]]
kind = "token_transfer"
[record.data]
ConsensusTimestamp = 20
TokenID = 2001
AccountID = 1001
Amount = -5
Dissociate = true
`

func TestDecodeRecordFile(t *testing.T) {
	file, source, err := DecodeRecordFile(recordFileDump)
	require.NoError(t, err)
	assert.Equal(t, "h2", file.Hash)
	assert.Equal(t, "h1", file.PreviousHash)
	assert.Equal(t, int64(7), file.Index)
	assert.Equal(t, int32(6), file.Version)

	ctx := context.Background()
	r, err := source.Next(ctx)
	require.NoError(t, err)
	tx := r.(*common.Transaction)
	assert.Equal(t, int64(10), tx.ConsensusTimestamp)
	assert.Equal(t, common.EntityIDOf(1001), tx.PayerAccountID)

	r, err = source.Next(ctx)
	require.NoError(t, err)
	e := r.(*common.Entity)
	require.NotNil(t, e.Balance)
	assert.Equal(t, int64(500), *e.Balance)
	assert.Equal(t, common.EntityTypeAccount, e.Type)
	require.NotNil(t, e.TimestampRange)
	assert.Equal(t, int64(10), e.TimestampRange.Lower)
	assert.Nil(t, e.Deleted)

	r, err = source.Next(ctx)
	require.NoError(t, err)
	assert.True(t, r.(*common.TokenTransfer).Dissociate)

	_, err = source.Next(ctx)
	assert.Error(t, err)

	_, _, err = DecodeRecordFile("[file]\nName = \"x\"\n[[record]]\nkind = \"nope\"\n")
	assert.True(t, errors.Is(err, common.ErrMalformedRecord))
}

func TestPendingFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2024-01-03.rcd.toml", "2024-01-01.rcd.toml", "2024-01-02.rcd.toml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte{}, 0600))
	}
	pending, err := PendingFiles(dir, "2024-01-01.rcd")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "2024-01-02.rcd.toml"),
		filepath.Join(dir, "2024-01-03.rcd.toml"),
	}, pending)

	pending, err = PendingFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}

func TestLoadRecordFileName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2024-01-01.rcd.toml")
	require.NoError(t, os.WriteFile(path, []byte("[file]\nHash = \"h\"\n"), 0600))
	file, _, err := LoadRecordFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01.rcd", file.Name)

	require.NoError(t, os.WriteFile(path, []byte("[file]\nName = \"other.rcd\"\n"), 0600))
	_, _, err = LoadRecordFile(path)
	assert.True(t, errors.Is(err, common.ErrMalformedRecord))
}
