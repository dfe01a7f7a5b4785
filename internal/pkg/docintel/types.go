package docintel

// FieldKind names the scalar representation a field resolves to. When the
// service returns several representations for one field, the smallest kind
// wins.
type FieldKind int

const (
	KindNone FieldKind = iota
	KindString
	KindNumber
	KindDate
	KindTime
	KindCurrency
	KindGeneric
)

func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindCurrency:
		return "currency"
	case KindGeneric:
		return "generic"
	default:
		return "none"
	}
}

// CurrencyValue is the structured money representation of a field.
type CurrencyValue struct {
	Amount         float64 `json:"amount"`
	CurrencySymbol string  `json:"currencySymbol,omitempty"`
	CurrencyCode   string  `json:"currencyCode,omitempty"`
}

// Field is one extracted document field. The service populates at most a
// few of the value variants; pointers keep absent and zero apart.
type Field struct {
	Type               string           `json:"type,omitempty"`
	Content            string           `json:"content,omitempty"`
	ValueString        *string          `json:"valueString,omitempty"`
	ValueNumber        *float64         `json:"valueNumber,omitempty"`
	ValueInteger       *int64           `json:"valueInteger,omitempty"`
	ValueBoolean       *bool            `json:"valueBoolean,omitempty"`
	ValueDate          *string          `json:"valueDate,omitempty"`
	ValueTime          *string          `json:"valueTime,omitempty"`
	ValueSelectionMark *string          `json:"valueSelectionMark,omitempty"`
	ValuePhoneNumber   *string          `json:"valuePhoneNumber,omitempty"`
	ValueCountryRegion *string          `json:"valueCountryRegion,omitempty"`
	ValueCurrency      *CurrencyValue   `json:"valueCurrency,omitempty"`
	ValueArray         []Field          `json:"valueArray,omitempty"`
	ValueObject        map[string]Field `json:"valueObject,omitempty"`
	Confidence         *float64         `json:"confidence,omitempty"`
}

// Kind returns the winning representation in fixed priority order: string,
// number, date, time, currency, then any remaining scalar variant.
func (f *Field) Kind() FieldKind {
	switch {
	case f == nil:
		return KindNone
	case f.ValueString != nil:
		return KindString
	case f.ValueNumber != nil:
		return KindNumber
	case f.ValueDate != nil:
		return KindDate
	case f.ValueTime != nil:
		return KindTime
	case f.ValueCurrency != nil:
		return KindCurrency
	case f.ValueInteger != nil, f.ValueBoolean != nil, f.ValueSelectionMark != nil,
		f.ValuePhoneNumber != nil, f.ValueCountryRegion != nil:
		return KindGeneric
	default:
		return KindNone
	}
}

// Scalar renders the winning representation as a plain value. Dates keep
// their YYYY-MM-DD form, times their HH:MM:SS form, currency collapses to
// its amount. Fields with no scalar representation (bare arrays or
// objects) yield nil.
func (f *Field) Scalar() interface{} {
	switch f.Kind() {
	case KindString:
		return *f.ValueString
	case KindNumber:
		return *f.ValueNumber
	case KindDate:
		return *f.ValueDate
	case KindTime:
		return *f.ValueTime
	case KindCurrency:
		return f.ValueCurrency.Amount
	case KindGeneric:
		switch {
		case f.ValueInteger != nil:
			return *f.ValueInteger
		case f.ValueBoolean != nil:
			return *f.ValueBoolean
		case f.ValueSelectionMark != nil:
			return *f.ValueSelectionMark
		case f.ValuePhoneNumber != nil:
			return *f.ValuePhoneNumber
		default:
			return *f.ValueCountryRegion
		}
	default:
		return nil
	}
}

// Document is one recognized document instance within an analysis.
type Document struct {
	DocType    string           `json:"docType,omitempty"`
	Fields     map[string]Field `json:"fields,omitempty"`
	Confidence float64          `json:"confidence,omitempty"`
}

// AnalyzeResult is the payload of a finished analysis operation.
type AnalyzeResult struct {
	APIVersion string     `json:"apiVersion,omitempty"`
	ModelID    string     `json:"modelId,omitempty"`
	Content    string     `json:"content,omitempty"`
	Documents  []Document `json:"documents,omitempty"`
}
