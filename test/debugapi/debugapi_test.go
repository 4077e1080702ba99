package debugapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dghubble/sling"
	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/params"
	"github.com/step-security-bot/hedera-mirror-node/common"
	"github.com/step-security-bot/hedera-mirror-node/evm"
	"github.com/step-security-bot/hedera-mirror-node/recordparser"
	"github.com/step-security-bot/hedera-mirror-node/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type parserStats struct {
	last *common.RecordFile
}

func (p *parserStats) Stats() *recordparser.Stats {
	return &recordparser.Stats{Files: 3, Records: 42}
}

func (p *parserStats) LastFile() *common.RecordFile {
	return p.last
}

type accountStore map[ethCommon.Address]evm.Account

func (s accountStore) Load(ctx context.Context, kind state.Kind, key state.Key) (interface{}, error) {
	if a, ok := s[key.Address]; ok && kind == state.KindAccount {
		return a, nil
	}
	return nil, common.Wrap(state.ErrNotFound)
}

var (
	from = common.EntityIDOf(1001).Address()
	to   = common.EntityIDOf(1002).Address()
)

func newServer(t *testing.T, last *common.RecordFile) *httptest.Server {
	store := accountStore{}
	for _, address := range []ethCommon.Address{from, to} {
		a := evm.Account{Address: address}
		a.Balance.SetUint64(100)
		store[address] = a
	}
	calls := evm.NewCallService(evm.Config{
		MinGas:   params.TxGas,
		MaxGas:   1_000_000,
		Estimate: evm.EstimateConfig{Threshold: 1, MaxIterations: 32},
		Cache:    evm.CacheConfig{Mode: evm.CacheModeShared, TTL: time.Minute, Size: 16},
	}, evm.TransferExecutor{}, store, nil)
	api := NewDebugAPI("localhost:0", &parserStats{last: last}, calls)
	server := httptest.NewServer(api.Router())
	t.Cleanup(server.Close)
	return server
}

func TestImporterEndpoints(t *testing.T) {
	server := newServer(t, &common.RecordFile{Name: "a.rcd", Hash: "h1"})
	client := sling.New().Base(server.URL + "/debug/")

	var stats recordparser.Stats
	resp, err := client.New().Get("importer/stats").ReceiveSuccess(&stats)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(3), stats.Files)
	assert.Equal(t, int64(42), stats.Records)

	var file common.RecordFile
	resp, err = client.New().Get("importer/lastfile").ReceiveSuccess(&file)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "h1", file.Hash)

	resp, err = client.New().Get("nope").ReceiveSuccess(nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLastFileMissing(t *testing.T) {
	server := newServer(t, nil)
	var msg errorMsg
	resp, err := sling.New().Base(server.URL+"/debug/").Get("importer/lastfile").Receive(nil, &msg)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, msg.Message)
}

func TestCallEndpoint(t *testing.T) {
	server := newServer(t, nil)
	client := sling.New().Base(server.URL + "/debug/")
	value := hexutil.Big(*hexutil.MustDecodeBig("0x10"))
	req := callRequest{From: from, To: &to, Value: &value}

	var res struct {
		Success bool
		GasUsed hexutil.Uint64
	}
	resp, err := client.New().Post("web3/call").BodyJSON(req).ReceiveSuccess(&res)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, res.Success)
	assert.Equal(t, hexutil.Uint64(params.TxGas), res.GasUsed)

	req.Estimate = true
	var estimate struct {
		Gas hexutil.Uint64
	}
	resp, err = client.New().Post("web3/call").BodyJSON(req).ReceiveSuccess(&estimate)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, hexutil.Uint64(params.TxGas), estimate.Gas)

	var cache struct {
		SharedEntries int
	}
	_, err = client.New().Get("web3/cache").ReceiveSuccess(&cache)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.SharedEntries)

	req.Gas = 1
	resp, err = client.New().Post("web3/call").BodyJSON(req).ReceiveSuccess(nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	server := newServer(t, nil)
	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
