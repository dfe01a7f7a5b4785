package models

import (
	"github.com/google/uuid"
)

// LineItem is one purchased item extracted from a receipt. Values keep
// whatever scalar representation the extraction service produced.
type LineItem struct {
	Description interface{} `json:"description,omitempty"`
	Quantity    interface{} `json:"quantity,omitempty"`
	TotalPrice  interface{} `json:"totalPrice,omitempty"`
	UnitPrice   interface{} `json:"unitPrice,omitempty"`
}

// Empty reports whether no sub-field carries a value.
func (li LineItem) Empty() bool {
	return li.Description == nil && li.Quantity == nil && li.TotalPrice == nil && li.UnitPrice == nil
}

// ExtractedReceipt holds the typed fields read from one analyzed receipt.
// Fields the extraction service did not return stay absent in the stored
// JSON; ItemsConfidenceScore is always serialized and is null when no item
// sub-field carried a confidence score.
type ExtractedReceipt struct {
	FechaTransaccion     interface{} `json:"fechaTransaccion,omitempty"`
	MontoTotal           interface{} `json:"montoTotal,omitempty"`
	NombreComercio       interface{} `json:"nombreComercio,omitempty"`
	RIFComercio          interface{} `json:"rifComercio,omitempty"`
	FacturaNumero        interface{} `json:"facturaNumero,omitempty"`
	NombreRazon          interface{} `json:"nombreRazon,omitempty"`
	RIFCI                interface{} `json:"rifCI,omitempty"`
	MontoExento          interface{} `json:"montoExento,omitempty"`
	MontoIVA             interface{} `json:"montoIVA,omitempty"`
	BaseImponible        interface{} `json:"baseImponible,omitempty"`
	Items                []LineItem  `json:"items,omitempty"`
	ItemsConfidenceScore *float64    `json:"itemsConfidenceScore"`
}

// HasRequiredFields reports whether transaction date and total amount were
// both extracted. Receipts without them are never stored.
func (r *ExtractedReceipt) HasRequiredFields() bool {
	return r.FechaTransaccion != nil && r.MontoTotal != nil
}

// ReceiptDocument is the unit written to the document store. UserID doubles
// as the partition key; IDUsuario repeats the value for consumers of the
// legacy field name. Username stays null when the relational lookup was
// skipped or failed.
type ReceiptDocument struct {
	ID         string  `json:"id"`
	UserID     string  `json:"userId"`
	IDUsuario  string  `json:"id_usuario"`
	Username   *string `json:"username"`
	Directorio string  `json:"directorio"`
	BlobURL    string  `json:"blobURL"`
	ExtractedReceipt
}

// NewReceiptDocument assembles a document with a fresh random identifier,
// so repeated processing of the same blob produces distinct documents.
func NewReceiptDocument(ownerID string, username *string, subdirectory, blobURL string, receipt *ExtractedReceipt) *ReceiptDocument {
	return &ReceiptDocument{
		ID:               uuid.New().String(),
		UserID:           ownerID,
		IDUsuario:        ownerID,
		Username:         username,
		Directorio:       subdirectory,
		BlobURL:          blobURL,
		ExtractedReceipt: *receipt,
	}
}
