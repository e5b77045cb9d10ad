package database

const (
	queryInsertAccount = `
		INSERT INTO accounts (
			id, username, password, password_salt, active, created_date,
			deposit_wallet_address, deposit_wallet_passphrase,
			deposit_wallet_private_key, deposit_wallet_public_key
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetAccountById = `
		SELECT id, username, password, password_salt, active, created_date,
		       deposit_wallet_address, deposit_wallet_passphrase,
		       deposit_wallet_private_key, deposit_wallet_public_key
		FROM accounts WHERE id = ?`

	queryGetAccountByUsername = `
		SELECT id, username, password, password_salt, active, created_date,
		       deposit_wallet_address, deposit_wallet_passphrase,
		       deposit_wallet_private_key, deposit_wallet_public_key
		FROM accounts WHERE username = ?`

	queryGetAccountByDepositAddress = `
		SELECT id, username, password, password_salt, active, created_date,
		       deposit_wallet_address, deposit_wallet_passphrase,
		       deposit_wallet_private_key, deposit_wallet_public_key
		FROM accounts WHERE deposit_wallet_address = ?`

	queryInsertDeposit = `
		INSERT INTO deposits (id, account_id, transaction_id, height, created_date)
		VALUES (?, ?, ?, ?, ?)`

	queryGetDepositById = `
		SELECT id, account_id, transaction_id, height, created_date
		FROM deposits WHERE id = ?`

	queryInsertTransaction = `
		INSERT INTO transactions (
			id, account_id, type, amount, created_date, settled, balance, canceled, settlement_shard_key
		) VALUES (?, ?, ?, ?, ?, 0, '0', 0, ?)`

	queryGetTransactionById = `
		SELECT id, account_id, type, amount, created_date, settled, settled_date, balance, canceled, settlement_shard_key
		FROM transactions WHERE id = ?`

	queryUpdateTransactionSettlement = `
		UPDATE transactions
		SET settled = ?, settled_date = ?, balance = ?, canceled = ?
		WHERE id = ?`

	queryClearSettlementShardKey = `
		UPDATE transactions SET settlement_shard_key = NULL WHERE id = ?`

	querySettleTransactionOnly = `
		UPDATE transactions SET settled = 1, settled_date = ? WHERE id = ?`

	queryTransactionsInShardRange = `
		SELECT id, account_id, type, amount, created_date, settled, settled_date, balance, canceled, settlement_shard_key
		FROM transactions
		WHERE settlement_shard_key >= ? AND settlement_shard_key < ?
		ORDER BY created_date ASC, id ASC`
)
