package remote

import "time"

// Server table names
const (
	TableProducts       = "products"
	TableClients        = "clients"
	TableSales          = "sales"
	TableSaleItems      = "sale_items"
	TableTransactions   = "financial_transactions"
	TableEstablishments = "establishments"
)

// AllTables is requested by every full pull
var AllTables = []string{
	TableProducts,
	TableClients,
	TableSales,
	TableSaleItems,
	TableTransactions,
	TableEstablishments,
}

// Rows use the server's snake_case columns. The tenant column is
// establishment_id.

type ProductRow struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	SellPrice       float64   `json:"sell_price"`
	CostPrice       float64   `json:"cost_price"`
	Category        string    `json:"category"`
	Unit            *string   `json:"unit"`
	Quantity        int       `json:"quantity"`
	ScanCode        string    `json:"scan_code"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Image           *string   `json:"image"`
	EstablishmentID *string   `json:"establishment_id"`
}

type ClientRow struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	Address         string    `json:"address"`
	TaxID           string    `json:"tax_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	EstablishmentID *string   `json:"establishment_id"`
}

type SaleRow struct {
	ID                string     `json:"id"`
	HumanNumber       *string    `json:"human_number"`
	Date              time.Time  `json:"date"`
	DueDate           *time.Time `json:"due_date"`
	Total             float64    `json:"total"`
	Profit            *float64   `json:"profit"`
	DocumentType      string     `json:"document_type"`
	ClientID          *string    `json:"client_id"`
	ClientName        *string    `json:"client_name"`
	Observations      *string    `json:"observations"`
	ExternalReference *string    `json:"external_reference"`
	PaymentMethod     *string    `json:"payment_method"`
	Status            string     `json:"status"`
	EstablishmentID   *string    `json:"establishment_id"`
}

type SaleItemRow struct {
	ID              string  `json:"id"`
	SaleID          string  `json:"sale_id"`
	Position        int     `json:"position"`
	ProductID       string  `json:"product_id"`
	ProductName     string  `json:"product_name"`
	Quantity        int     `json:"quantity"`
	UnitPrice       float64 `json:"unit_price"`
	UnitCost        float64 `json:"unit_cost"`
	EstablishmentID *string `json:"establishment_id"`
}

type TransactionRow struct {
	ID              string    `json:"id"`
	Kind            string    `json:"kind"`
	Description     string    `json:"description"`
	Amount          float64   `json:"amount"`
	Date            time.Time `json:"date"`
	Category        *string   `json:"category"`
	EstablishmentID *string   `json:"establishment_id"`
}

type EstablishmentRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TaxID     *string   `json:"tax_id"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChangeSet carries rows per table. Empty tables are left out of the payload.
type ChangeSet struct {
	Products              []ProductRow       `json:"products,omitempty"`
	Clients               []ClientRow        `json:"clients,omitempty"`
	Sales                 []SaleRow          `json:"sales,omitempty"`
	SaleItems             []SaleItemRow      `json:"sale_items,omitempty"`
	FinancialTransactions []TransactionRow   `json:"financial_transactions,omitempty"`
	Establishments        []EstablishmentRow `json:"establishments,omitempty"`
}

// Counts returns the number of rows per non-empty table
func (c *ChangeSet) Counts() map[string]int {
	counts := map[string]int{}
	add := func(table string, n int) {
		if n > 0 {
			counts[table] = n
		}
	}
	add(TableProducts, len(c.Products))
	add(TableClients, len(c.Clients))
	add(TableSales, len(c.Sales))
	add(TableSaleItems, len(c.SaleItems))
	add(TableTransactions, len(c.FinancialTransactions))
	add(TableEstablishments, len(c.Establishments))
	return counts
}

// Empty reports whether no table carries a row
func (c *ChangeSet) Empty() bool {
	return len(c.Counts()) == 0
}

type PullRequest struct {
	Tables []string   `json:"tables"`
	Since  *time.Time `json:"since,omitempty"`
}

type PullResponse struct {
	Changes    ChangeSet `json:"changes"`
	ServerTime time.Time `json:"serverTime"`
}

type PushRequest struct {
	Changes ChangeSet `json:"changes"`
}

type PushResponse struct {
	OK         bool       `json:"ok"`
	ServerTime *time.Time `json:"serverTime,omitempty"`
}

type DeleteRequest struct {
	Table string   `json:"table"`
	IDs   []string `json:"ids"`
}

type DeleteResponse struct {
	OK bool `json:"ok"`
}

// Profile is the caller's user profile
type Profile struct {
	ID              string  `json:"id"`
	EstablishmentID *string `json:"establishment_id,omitempty"`
}
