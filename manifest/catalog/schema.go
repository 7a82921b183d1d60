package catalog

const schemaDeployments = `
	CREATE TABLE IF NOT EXISTS starknet_deployments (
		entry_id          TEXT PRIMARY KEY,
		network           TEXT,
		contract          TEXT,
		artifact          TEXT,
		address           TEXT,
		class_hash        TEXT,
		transaction_hash  TEXT,
		block_number      BIGINT,
		fingerprint       TEXT,
		deployed_at       TEXT
	);`

const (
	columnsDeployments = `network, contract, artifact, address, class_hash, transaction_hash, block_number, fingerprint, deployed_at`

	queryInsertDeployment = `INSERT INTO starknet_deployments (entry_id, ` + columnsDeployments + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	queryDeleteDeployment = `DELETE FROM starknet_deployments WHERE entry_id = $1`
	querySelectDeployment = `SELECT ` + columnsDeployments + ` FROM starknet_deployments WHERE entry_id = $1`
	queryListDeployments  = `SELECT ` + columnsDeployments + ` FROM starknet_deployments WHERE network = $1`
)
