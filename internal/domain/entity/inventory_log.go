package entity

import "time"

// LogType tipo de evento que afecta el stock.
type LogType string

// Tipos de registro de inventario.
const (
	LogTypeSale       LogType = "sale"
	LogTypeRestock    LogType = "restock"
	LogTypeReturn     LogType = "return"
	LogTypeDamage     LogType = "damage"
	LogTypeAdjustment LogType = "adjustment"
	LogTypeOther      LogType = "other"
)

// LogTypes dominio completo, en el orden del esquema.
var LogTypes = []LogType{
	LogTypeSale, LogTypeRestock, LogTypeReturn, LogTypeDamage, LogTypeAdjustment, LogTypeOther,
}

// Valid indica si el tipo pertenece al dominio.
func (t LogType) Valid() bool {
	for _, v := range LogTypes {
		if v == t {
			return true
		}
	}
	return false
}

// InventoryLog un evento de stock: Delta positivo entra, negativo sale.
type InventoryLog struct {
	ID        int64
	Type      LogType
	ProductID *int64 // nulo tras borrar el producto
	Delta     int64
	Time      time.Time
	Note      string
}
