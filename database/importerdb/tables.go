package importerdb

import (
	"fmt"

	"github.com/russross/meddler"
	"github.com/step-security-bot/hedera-mirror-node/common"
	"github.com/step-security-bot/hedera-mirror-node/database"
)

func columnsOf(row interface{}) []string {
	columns, err := meddler.Default.Columns(row, true)
	if err != nil {
		panic(fmt.Errorf("columns of %T: %w", row, err))
	}
	return columns
}

const (
	createdTimestampUpdate = "coalesce(t.created_timestamp, excluded.created_timestamp)"
	timestampRangeUpdate   = "coalesce(case when t.timestamp_range is null or " +
		"lower(excluded.timestamp_range) >= lower(t.timestamp_range) " +
		"then excluded.timestamp_range end, t.timestamp_range)"
)

var entityLikeUpdates = map[string]string{
	"created_timestamp": createdTimestampUpdate,
	"timestamp_range":   timestampRangeUpdate,
}

// upsertTables holds how each upsertable kind is merged into its table
var upsertTables = map[common.RowKind]*database.UpsertTable{
	common.KindContract: {
		Name:       "contract",
		PrimaryKey: []string{"id"},
		Columns:    columnsOf(&common.Contract{}),
		Insert: map[string]string{
			"type": "coalesce(nullif(tmp.type, ''), 'CONTRACT')",
		},
		Update: entityLikeUpdates,
	},
	common.KindEntity: {
		Name:       "entity",
		PrimaryKey: []string{"id"},
		Columns:    columnsOf(&common.Entity{}),
		Update:     entityLikeUpdates,
	},
	common.KindToken: {
		Name:       "token",
		PrimaryKey: []string{"token_id"},
		Columns:    columnsOf(&common.Token{}),
		Update: map[string]string{
			"created_timestamp": createdTimestampUpdate,
			// A negative supply is a delta of the persisted one
			"total_supply": "case when excluded.total_supply < 0 " +
				"then t.total_supply + excluded.total_supply " +
				"else coalesce(excluded.total_supply, t.total_supply) end",
		},
	},
	common.KindTokenAccount: {
		Name:       "token_account",
		PrimaryKey: []string{"account_id", "token_id", "modified_timestamp"},
		Columns:    columnsOf(&common.TokenAccount{}),
		// Unset columns of a new version come from the previous version,
		// then from the defaults of the token
		Insert: map[string]string{
			"associated":            "coalesce(tmp.associated, prev.associated, false)",
			"automatic_association": "coalesce(tmp.automatic_association, prev.automatic_association, false)",
			"created_timestamp":     "coalesce(tmp.created_timestamp, prev.created_timestamp)",
			"freeze_status": "coalesce(tmp.freeze_status, prev.freeze_status, " +
				"case when tk.freeze_key is null then 0 when tk.freeze_default then 1 else 2 end)",
			"kyc_status": "coalesce(tmp.kyc_status, prev.kyc_status, " +
				"case when tk.kyc_key is null then 0 else 2 end)",
		},
		Update: map[string]string{
			"created_timestamp": createdTimestampUpdate,
		},
		Joins: "left join token tk on tk.token_id = tmp.token_id " +
			"left join lateral (select p.associated, p.automatic_association, p.created_timestamp, " +
			"p.freeze_status, p.kyc_status from token_account p " +
			"where p.account_id = tmp.account_id and p.token_id = tmp.token_id " +
			"and p.modified_timestamp < tmp.modified_timestamp " +
			"order by p.modified_timestamp desc limit 1) prev on true",
	},
	common.KindNft: {
		Name:       "nft",
		PrimaryKey: []string{"token_id", "serial_number"},
		Columns:    columnsOf(&common.Nft{}),
		Update: map[string]string{
			"created_timestamp": createdTimestampUpdate,
		},
	},
	common.KindSchedule: {
		Name:       "schedule",
		PrimaryKey: []string{"schedule_id"},
		Columns:    columnsOf(&common.Schedule{}),
		Update: map[string]string{
			"consensus_timestamp": "t.consensus_timestamp",
		},
	},
}

// Dissociating from a deleted token zeroes fungible balances through a
// transfer and removes the nfts of the account
var (
	dissociateFungibleQuery = `insert into token_transfer as t
		(consensus_timestamp, token_id, account_id, amount, is_approval, payer_account_id)
		select tmp.consensus_timestamp, tmp.token_id, tmp.account_id, tmp.amount, tmp.is_approval,
			tmp.payer_account_id
		from token_transfer_temp tmp
		join token tk on tk.token_id = tmp.token_id
		where tk.type = 'FUNGIBLE_COMMON'
		on conflict (consensus_timestamp, token_id, account_id) do nothing`
	dissociateNftQuery = `update nft set deleted = true, modified_timestamp = tmp.consensus_timestamp
		from token_transfer_temp tmp
		join token tk on tk.token_id = tmp.token_id
		where tk.type = 'NON_FUNGIBLE_UNIQUE'
			and nft.token_id = tmp.token_id
			and nft.account_id = tmp.account_id
			and nft.deleted is not true`
)
