package debugapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/step-security-bot/hedera-mirror-node/common"
	"github.com/step-security-bot/hedera-mirror-node/evm"
	"github.com/step-security-bot/hedera-mirror-node/log"
	"github.com/step-security-bot/hedera-mirror-node/recordparser"
)

func handleNoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error": "404 page not found",
	})
}

type errorMsg struct {
	Message string
}

func badReq(err error, c *gin.Context) {
	log.Errorw("Bad request", "err", err)
	c.JSON(http.StatusBadRequest, errorMsg{
		Message: err.Error(),
	})
}

// ParserStats is the view of the importer served by the DebugAPI
type ParserStats interface {
	Stats() *recordparser.Stats
	LastFile() *common.RecordFile
}

// DebugAPI is an http API with debugging endpoints
type DebugAPI struct {
	addr   string
	parser ParserStats
	calls  *evm.CallService
}

// NewDebugAPI creates a new DebugAPI.  parser and calls may be nil when the
// importer or the web3 service are disabled.
func NewDebugAPI(addr string, parser ParserStats, calls *evm.CallService) *DebugAPI {
	return &DebugAPI{
		addr:   addr,
		parser: parser,
		calls:  calls,
	}
}

func (a *DebugAPI) handleImporterStats(c *gin.Context) {
	if a.parser == nil {
		c.JSON(http.StatusServiceUnavailable, errorMsg{Message: "importer disabled"})
		return
	}
	c.JSON(http.StatusOK, a.parser.Stats())
}

func (a *DebugAPI) handleLastFile(c *gin.Context) {
	if a.parser == nil {
		c.JSON(http.StatusServiceUnavailable, errorMsg{Message: "importer disabled"})
		return
	}
	file := a.parser.LastFile()
	if file == nil {
		c.JSON(http.StatusNotFound, errorMsg{Message: "no record file processed"})
		return
	}
	c.JSON(http.StatusOK, file)
}

func (a *DebugAPI) handleCacheStats(c *gin.Context) {
	if a.calls == nil {
		c.JSON(http.StatusServiceUnavailable, errorMsg{Message: "web3 disabled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sharedEntries": a.calls.SharedCacheLen()})
}

// callRequest is the body of a call, in the form of eth_call arguments
type callRequest struct {
	From     ethCommon.Address  `json:"from"`
	To       *ethCommon.Address `json:"to"`
	Gas      hexutil.Uint64     `json:"gas"`
	Value    *hexutil.Big       `json:"value"`
	Data     hexutil.Bytes      `json:"data"`
	Estimate bool               `json:"estimate"`
}

func (r *callRequest) params() (evm.CallParams, error) {
	p := evm.CallParams{
		Sender: r.From,
		Gas:    uint64(r.Gas),
		Data:   r.Data,
	}
	if r.To != nil {
		p.Receiver = *r.To
	}
	if r.Value != nil {
		value, overflow := uint256.FromBig(r.Value.ToInt())
		if overflow {
			return p, errors.New("value overflows 256 bits")
		}
		p.Value = value
	}
	return p, nil
}

func (a *DebugAPI) handleCall(c *gin.Context) {
	if a.calls == nil {
		c.JSON(http.StatusServiceUnavailable, errorMsg{Message: "web3 disabled"})
		return
	}
	var req callRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badReq(err, c)
		return
	}
	p, err := req.params()
	if err != nil {
		badReq(err, c)
		return
	}
	if req.Estimate {
		gas, err := a.calls.EstimateGas(c.Request.Context(), p)
		var revert *evm.RevertError
		if errors.As(err, &revert) {
			c.JSON(http.StatusBadRequest, gin.H{"error": revert.Error(), "gasUsed": revert.GasUsed})
			return
		} else if errors.Is(err, evm.ErrGasLimit) {
			badReq(err, c)
			return
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, errorMsg{Message: err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"gas": hexutil.Uint64(gas)})
		return
	}
	res, err := a.calls.Call(c.Request.Context(), p)
	if errors.Is(err, evm.ErrGasLimit) {
		badReq(err, c)
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, errorMsg{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      res.Success,
		"gasUsed":      hexutil.Uint64(res.GasUsed),
		"result":       hexutil.Bytes(res.Output),
		"revertReason": res.RevertReason,
	})
}

// Router returns the gin engine serving the debug endpoints
func (a *DebugAPI) Router() *gin.Engine {
	api := gin.Default()
	api.NoRoute(handleNoRoute)
	api.GET("/metrics", gin.WrapH(promhttp.Handler()))
	debugAPI := api.Group("/debug")
	debugAPI.GET("importer/stats", a.handleImporterStats)
	debugAPI.GET("importer/lastfile", a.handleLastFile)
	debugAPI.GET("web3/cache", a.handleCacheStats)
	debugAPI.POST("web3/call", a.handleCall)
	return api
}

// Run starts the http server of the DebugAPI.  To stop it, cancel the context.
func (a *DebugAPI) Run(ctx context.Context) error {
	debugAPIServer := &http.Server{
		Handler: a.Router(),
		// Use some hardcoded numbers that are suitable for testing
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	listener, err := net.Listen("tcp", a.addr)
	if err != nil {
		return common.Wrap(err)
	}
	log.Infof("DebugAPI is ready at %v", a.addr)
	go func() {
		if err := debugAPIServer.Serve(listener); err != nil &&
			common.Unwrap(err) != http.ErrServerClosed {
			log.Fatalf("Listen: %s\n", err)
		}
	}()

	<-ctx.Done()
	log.Info("Stopping DebugAPI...")
	ctxTimeout, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := debugAPIServer.Shutdown(ctxTimeout); err != nil {
		return common.Wrap(err)
	}
	log.Info("DebugAPI done")
	return nil
}
