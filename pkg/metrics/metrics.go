package metrics

var (
	TxSubmitted     = NewInt64Counter("tx_submitted", "Transactions accepted by the node")
	TxSubmitError   = NewInt64Counter("tx_submit_error", "Transactions the node refused or failed to receive")
	TxSigningError  = NewInt64Counter("tx_signing_error", "Transactions that could not be signed")
	BlocksProduced  = NewInt64Counter("blocks_produced", "Blocks produced by the local node")
	ReceiptsApplied = NewInt64Counter("receipts_applied", "Receipts executed by the local node")

	TxCommitDuration   = NewTimerMs("tx_commit_ms", "Duration of a transaction commit until its final outcome")
	NonceLockWait      = NewTimerMs("nonce_lock_wait_ms", "Time spent waiting for the per key nonce lock")
	BlockApplyDuration = NewTimerMs("block_apply_ms", "Duration of applying one block in the local node")
)
