package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FlexBool decodes the catalog API's IsParent field, which is sent either as a
// JSON boolean or as the strings "true"/"false".
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*b = false
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = FlexBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid boolean value %s", raw)
	}
	*b = FlexBool(strings.EqualFold(strings.TrimSpace(s), "true"))
	return nil
}

// RemoteItem is one row of a merchant catalog as returned by the affiliate network.
type RemoteItem struct {
	ExternalID          string   `json:"CatalogItemId" validate:"required"`
	ParentExternalID    string   `json:"ParentSku"`
	IsParent            FlexBool `json:"IsParent"`
	Name                string   `json:"Name"`
	Description         string   `json:"Description"`
	Size                string   `json:"Size"`
	Color               string   `json:"Color"`
	Manufacturer        string   `json:"Manufacturer"`
	ImageURL            string   `json:"ImageUrl"`
	AdditionalImageURLs []string `json:"AdditionalImageUrls"`
	PurchaseURL         string   `json:"Url"`
	StockState          string   `json:"StockAvailability"`
}

// IsParentDefining reports whether the row defines a product family.
func (i RemoteItem) IsParentDefining() bool {
	return bool(i.IsParent)
}

// HasDeclaredParent reports whether the row names a family other than itself.
func (i RemoteItem) HasDeclaredParent() bool {
	return i.ParentExternalID != "" && i.ParentExternalID != i.ExternalID
}

// CatalogPage is a single page of catalog items. Skipped counts upstream
// rows that were dropped for failing validation.
type CatalogPage struct {
	Items   []RemoteItem `json:"Items"`
	Skipped int          `json:"-"`
}

// Exhausted reports whether the upstream page had no rows at all. A page
// whose rows were all invalid is not the end of the catalog.
func (p *CatalogPage) Exhausted() bool {
	return p == nil || len(p.Items)+p.Skipped == 0
}

// Catalog identifies a merchant feed.
type Catalog struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
