package recordparser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/step-security-bot/hedera-mirror-node/common"
)

// recordTypes builds an empty record for each kind accepted in record dumps
var recordTypes = map[common.RowKind]func() interface{}{
	common.KindAssessedCustomFee:    func() interface{} { return new(common.AssessedCustomFee) },
	common.KindContract:             func() interface{} { return new(common.Contract) },
	common.KindContractLog:          func() interface{} { return new(common.ContractLog) },
	common.KindContractResult:       func() interface{} { return new(common.ContractResult) },
	common.KindContractStateChange:  func() interface{} { return new(common.ContractStateChange) },
	common.KindCryptoTransfer:       func() interface{} { return new(common.CryptoTransfer) },
	common.KindCustomFee:            func() interface{} { return new(common.CustomFee) },
	common.KindEntity:               func() interface{} { return new(common.Entity) },
	common.KindFileData:             func() interface{} { return new(common.FileData) },
	common.KindLiveHash:             func() interface{} { return new(common.LiveHash) },
	common.KindNonFeeTransfer:       func() interface{} { return new(common.NonFeeTransfer) },
	common.KindNft:                  func() interface{} { return new(common.Nft) },
	common.KindNftTransfer:          func() interface{} { return new(common.NftTransfer) },
	common.KindSchedule:             func() interface{} { return new(common.Schedule) },
	common.KindToken:                func() interface{} { return new(common.Token) },
	common.KindTokenAccount:         func() interface{} { return new(common.TokenAccount) },
	common.KindTokenTransfer:        func() interface{} { return new(common.TokenTransfer) },
	common.KindTopicMessage:         func() interface{} { return new(common.TopicMessage) },
	common.KindTransaction:          func() interface{} { return new(common.Transaction) },
	common.KindTransactionSignature: func() interface{} { return new(common.TransactionSignature) },
}

type dump struct {
	File    common.RecordFile
	Records []struct {
		Kind common.RowKind
		Data toml.Primitive
	} `toml:"record"`
}

// DecodeRecordFile decodes a record file dumped as TOML.  The dump has a
// [file] table with the fields of common.RecordFile followed by the records
// in order:
//
//	[[record]]
//	kind = "transaction"
//	[record.data]
//	ConsensusTimestamp = 1
//	PayerAccountID = 1001
//
// Record fields are named after the fields of the record types of package
// common.
func DecodeRecordFile(data string) (*common.RecordFile, *SliceSource, error) {
	var d dump
	md, err := toml.Decode(data, &d)
	if err != nil {
		return nil, nil, common.Wrap(err)
	}
	records := make([]interface{}, 0, len(d.Records))
	for i, r := range d.Records {
		newRecord, ok := recordTypes[r.Kind]
		if !ok {
			return nil, nil, common.Wrap(fmt.Errorf("record %d: %w: unknown kind %q",
				i, common.ErrMalformedRecord, r.Kind))
		}
		record := newRecord()
		if err := md.PrimitiveDecode(r.Data, record); err != nil {
			return nil, nil, common.Wrap(fmt.Errorf("record %d (%s): %w", i, r.Kind, err))
		}
		records = append(records, record)
	}
	return &d.File, NewSliceSource(records...), nil
}

// LoadRecordFile reads and decodes a TOML record file dump.  The dump of the
// record file X is named X.toml; a dump without name takes it from the path.
func LoadRecordFile(path string) (*common.RecordFile, *SliceSource, error) {
	bs, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, nil, common.Wrap(err)
	}
	file, source, err := DecodeRecordFile(string(bs))
	if err != nil {
		return nil, nil, common.Wrap(err)
	}
	name := strings.TrimSuffix(filepath.Base(path), ".toml")
	if file.Name == "" {
		file.Name = name
	} else if file.Name != name {
		return nil, nil, common.Wrap(fmt.Errorf("%w: dump %s holds record file %s",
			common.ErrMalformedRecord, path, file.Name))
	}
	return file, source, nil
}

// PendingFiles returns the record file dumps of dir named after the file
// last, in name order.  Record file names start with their consensus
// timestamp, so name order is processing order.
func PendingFiles(dir, last string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.toml"))
	if err != nil {
		return nil, common.Wrap(err)
	}
	sort.Strings(paths)
	pending := paths[:0]
	for _, path := range paths {
		if strings.TrimSuffix(filepath.Base(path), ".toml") > last {
			pending = append(pending, path)
		}
	}
	return pending, nil
}
