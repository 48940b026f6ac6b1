package model

// Domain constants shared across handler, catalog, and storage packages.
const (
	PresignedURLTTLSeconds   = 300 // 5 minutes
	IdempotencyWindowSeconds = 30
	MaxRecordID              = 10_000_000 // exclusive upper bound of generated ids
)

// Wire values of RetagRequest.Operation.
const (
	OperationRemove = 0
	OperationAdd    = 1
)
