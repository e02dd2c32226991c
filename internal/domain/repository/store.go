package repository

// Store agrupa los repositorios atados a una misma transacción (o al pool, fuera de ella).
type Store struct {
	Users      UserRepository
	Customers  CustomerRepository
	Categories CategoryRepository
	Products   ProductRepository
	Logs       InventoryLogRepository
	Sales      SaleRepository
	Details    SalesDetailRepository
	References ReferenceRepository
}
