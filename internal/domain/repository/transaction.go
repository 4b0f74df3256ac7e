package repository

import "context"

// TransactionManager defines the interface for managing database transactions.
// This allows the use case layer to handle transactions without depending on
// a specific DB driver like GORM.
type TransactionManager interface {
	// Execute runs a function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// Otherwise, it's committed. All repository operations within the
	// function use the same database transaction.
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// RepositoryFactory provides repository instances bound to a specific
// transaction, so that all operations within one logical mutation share the
// same database connection.
type RepositoryFactory interface {
	// IdentityRepo returns an IdentityRepository bound to the current transaction.
	IdentityRepo() IdentityRepository

	// ClientRepo returns a ClientRepository bound to the current transaction.
	ClientRepo() ClientRepository

	// VehicleRepo returns a VehicleRepository bound to the current transaction.
	VehicleRepo() VehicleRepository

	// OrderRepo returns an OrderRepository bound to the current transaction.
	OrderRepo() OrderRepository

	// HistoryRepo returns a HistoryRepository bound to the current transaction.
	HistoryRepo() HistoryRepository
}
