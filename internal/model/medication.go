package model

type Medication struct {
	ID                int64   `db:"medication_id" json:"id"`
	Name              string  `db:"name" json:"name"`
	Description       string  `db:"description" json:"description,omitempty"`
	UnitPrice         float64 `db:"unit_price" json:"unit_price"`
	StockQuantity     int     `db:"stock_quantity" json:"stock_quantity"`
	LowStockThreshold int     `db:"low_stock_threshold" json:"low_stock_threshold"`
}

func (m *Medication) LowStock() bool {
	return m.StockQuantity <= m.LowStockThreshold
}

type CreateMedicationRequest struct {
	Name              string  `json:"name" binding:"required,max=150"`
	Description       string  `json:"description"`
	UnitPrice         float64 `json:"unit_price" binding:"gte=0"`
	StockQuantity     int     `json:"stock_quantity" binding:"gte=0"`
	LowStockThreshold int     `json:"low_stock_threshold" binding:"gte=0"`
}

type UpdateMedicationRequest struct {
	Name              *string  `json:"name" binding:"omitempty,max=150"`
	Description       *string  `json:"description"`
	UnitPrice         *float64 `json:"unit_price" binding:"omitempty,gte=0"`
	LowStockThreshold *int     `json:"low_stock_threshold" binding:"omitempty,gte=0"`
}

type AdjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"max=200"`
}
