package invoice_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/nfscan/internal/invoice"
)

const mercadoX = `{"loja":"Mercado X","cnpj":"00.000.000/0001-00","data_emissao":"2024-01-01","total":19.9,` +
	`"itens":[{"descricao":"Arroz","quantidade":1,"valor_unitario":19.9,"valor_total":19.9}]}`

func TestInvoice_Decode(t *testing.T) {
	var inv invoice.Invoice
	require.NoError(t, json.Unmarshal([]byte(mercadoX), &inv))

	assert.Equal(t, "Mercado X", inv.Store)
	assert.Equal(t, "00.000.000/0001-00", inv.TaxID)
	assert.Equal(t, "2024-01-01", inv.IssuedAt)
	assert.Equal(t, "19.90", inv.Total.StringFixed(2))
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "Arroz", inv.Items[0].Description)
	assert.Equal(t, "1", inv.Items[0].Quantity.String())
	assert.Equal(t, "19.90", inv.Items[0].Total.StringFixed(2))
}

func TestInvoice_DecodeKeepsItemOrder(t *testing.T) {
	body := `{"itens":[{"descricao":"C"},{"descricao":"A"},{"descricao":"B"},{"descricao":"A"}]}`

	var inv invoice.Invoice
	require.NoError(t, json.Unmarshal([]byte(body), &inv))

	got := make([]string, 0, len(inv.Items))
	for _, it := range inv.Items {
		got = append(got, it.Description)
	}

	assert.Equal(t, []string{"C", "A", "B", "A"}, got)
}

func TestInvoice_Validate(t *testing.T) {
	type testCase struct {
		name    string
		body    string
		wantErr bool
	}

	tests := []testCase{
		{name: "Complete", body: mercadoX},
		{name: "Missing Store", body: `{"cnpj":"1","itens":[]}`, wantErr: true},
		{name: "Missing Items", body: `{"loja":"X","cnpj":"1"}`, wantErr: true},
		{name: "Item Without Description", body: `{"loja":"X","cnpj":"1","itens":[{"quantidade":2}]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var inv invoice.Invoice
			require.NoError(t, json.Unmarshal([]byte(tt.body), &inv))

			err := inv.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
		})
	}
}
