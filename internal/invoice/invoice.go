package invoice

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Item is one line of an NFC-e. It has no identity beyond its position.
type Item struct {
	Description string          `json:"descricao" validate:"required"`
	Quantity    decimal.Decimal `json:"quantidade"`
	UnitValue   decimal.Decimal `json:"valor_unitario"`
	Total       decimal.Decimal `json:"valor_total"`
}

// Invoice is the structured receipt returned by the NFC-e backend.
// Items are kept in the order they were received, and Total is the
// backend's figure, never recomputed from the items.
type Invoice struct {
	Store    string          `json:"loja" validate:"required"`
	TaxID    string          `json:"cnpj" validate:"required"`
	IssuedAt string          `json:"data_emissao"`
	Total    decimal.Decimal `json:"total"`
	Items    []Item          `json:"itens" validate:"required,dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the fields the result card depends on are present.
func (inv *Invoice) Validate() error {
	if err := validate.Struct(inv); err != nil {
		return fmt.Errorf("invalid invoice: %w", err)
	}

	return nil
}
