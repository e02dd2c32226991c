package ledger

// Table nombre de tabla del esquema.
type Table string

// Tablas del libro.
const (
	TableUsers         Table = "users"
	TableCustomers     Table = "customers"
	TableCategories    Table = "categories"
	TableProducts      Table = "products"
	TableInventoryLogs Table = "inventory_logs"
	TableSales         Table = "sales"
	TableSalesDetails  Table = "sales_details"
)

// Tables todas las tablas, en orden de creación.
var Tables = []Table{
	TableUsers, TableCustomers, TableCategories, TableProducts,
	TableInventoryLogs, TableSales, TableSalesDetails,
}

// ParseTable devuelve la tabla si el nombre es conocido.
func ParseTable(name string) (Table, bool) {
	for _, t := range Tables {
		if string(t) == name {
			return t, true
		}
	}
	return "", false
}

// Action acción referencial fija de una relación.
type Action string

// Acciones referenciales.
const (
	ActionCascade  Action = "CASCADE"
	ActionSetNull  Action = "SET NULL"
	ActionRestrict Action = "RESTRICT"
)

// Aggregate agregado del padre al que contribuye el hijo por esta relación.
type Aggregate string

// Agregados mantenidos.
const (
	AggregateNone            Aggregate = ""
	AggregateProductQuantity Aggregate = "products.quantity"
	AggregateSaleTotal       Aggregate = "sales.total_cents"
)

// Relationship una clave foránea hijo.columna → padre.id con sus acciones.
type Relationship struct {
	Child     Table
	Column    string
	Parent    Table
	OnUpdate  Action
	OnDelete  Action
	Aggregate Aggregate
}

// Name identificador "tabla.columna".
func (r Relationship) Name() string { return string(r.Child) + "." + r.Column }

// Matrix la matriz de acciones referenciales; no es configurable.
var Matrix = []Relationship{
	{Child: TableProducts, Column: "category_id", Parent: TableCategories, OnUpdate: ActionCascade, OnDelete: ActionSetNull},
	{Child: TableInventoryLogs, Column: "product_id", Parent: TableProducts, OnUpdate: ActionCascade, OnDelete: ActionSetNull, Aggregate: AggregateProductQuantity},
	{Child: TableSales, Column: "customer_id", Parent: TableCustomers, OnUpdate: ActionCascade, OnDelete: ActionSetNull},
	{Child: TableSales, Column: "user_id", Parent: TableUsers, OnUpdate: ActionCascade, OnDelete: ActionSetNull},
	{Child: TableSalesDetails, Column: "sale_id", Parent: TableSales, OnUpdate: ActionCascade, OnDelete: ActionCascade, Aggregate: AggregateSaleTotal},
	{Child: TableSalesDetails, Column: "log_id", Parent: TableInventoryLogs, OnUpdate: ActionCascade, OnDelete: ActionSetNull},
	// Sin acción declarada en el esquema original: se trata como RESTRICT.
	{Child: TableSalesDetails, Column: "product_id", Parent: TableProducts, OnUpdate: ActionCascade, OnDelete: ActionRestrict},
}

// ReferencedBy relaciones cuyo padre es table: primero las RESTRICT, luego el resto
// en el orden de la matriz.
func ReferencedBy(table Table) []Relationship {
	var restrict, rest []Relationship
	for _, r := range Matrix {
		if r.Parent != table {
			continue
		}
		if r.OnDelete == ActionRestrict {
			restrict = append(restrict, r)
		} else {
			rest = append(rest, r)
		}
	}
	return append(restrict, rest...)
}

// Lookup busca la relación por tabla hija y columna.
func Lookup(child Table, column string) (Relationship, bool) {
	for _, r := range Matrix {
		if r.Child == child && r.Column == column {
			return r, true
		}
	}
	return Relationship{}, false
}
