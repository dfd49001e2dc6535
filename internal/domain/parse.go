package domain

import "github.com/google/uuid"

// Guidance messages returned to the speaker.
const (
	MessagePartialOnly   = "Partial quantity detected. If you also meant full bottles, please say that separately."
	MessageFullOnly      = "Full quantity detected. If there are partials, say 'point five' in a separate sentence."
	MessageNoQuantity    = "No quantity detected. Please try again."
	MessageParsed        = "Quantity parsed successfully."
	MessageAmbiguous     = "No exact match. Did you mean one of these?"
	MessageProvisionalOK = "No match found. Product saved as temp item."
	MessageNoProduct     = "No product name detected. Please say the product and the quantity."
)

// ResolutionKind tells how a spoken name was bound to a product.
type ResolutionKind string

const (
	ResolutionMatched     ResolutionKind = "MATCHED"
	ResolutionCloned      ResolutionKind = "CLONED"
	ResolutionProvisional ResolutionKind = "PROVISIONAL"
	ResolutionAmbiguous   ResolutionKind = "AMBIGUOUS"
)

func (k ResolutionKind) String() string { return string(k) }

// Quantities is a counted amount: whole bottles plus a fraction of one.
type Quantities struct {
	Full    int
	Partial float64
}

// IsZero reports whether nothing was counted.
func (q Quantities) IsZero() bool {
	return q.Full == 0 && q.Partial == 0
}

// QuantityMessage returns the guidance message for the detected quantities.
func QuantityMessage(q Quantities) string {
	switch {
	case q.Full == 0 && q.Partial > 0:
		return MessagePartialOnly
	case q.Full > 0 && q.Partial == 0:
		return MessageFullOnly
	case q.IsZero():
		return MessageNoQuantity
	default:
		return MessageParsed
	}
}

// ParseOutcome is the result of parsing one transcript. The concrete type is
// one of ParseMatched, ParseProvisional or ParseNoQuantity.
type ParseOutcome interface {
	GuidanceMessage() string
	parseOutcome()
}

// ParseMatched is a transcript bound to a tenant catalog product.
type ParseMatched struct {
	ProductID  uuid.UUID
	Resolution ResolutionKind // ResolutionMatched or ResolutionCloned
	Quantities Quantities
	Brand      string
	Variant    *string
	Category   string
	Message    string
}

// ParseProvisional is a transcript with no confident catalog match.
// ProvisionalID is nil when the name was ambiguous and nothing was stored.
type ParseProvisional struct {
	ProvisionalID *uuid.UUID
	SpokenName    string
	Quantities    Quantities
	Suggestions   []string
	Message       string
}

// ParseNoQuantity is a transcript in which no count was detected.
type ParseNoQuantity struct {
	ProductName string
	Message     string
}

func (o ParseMatched) GuidanceMessage() string     { return o.Message }
func (o ParseProvisional) GuidanceMessage() string { return o.Message }
func (o ParseNoQuantity) GuidanceMessage() string  { return o.Message }

func (ParseMatched) parseOutcome()     {}
func (ParseProvisional) parseOutcome() {}
func (ParseNoQuantity) parseOutcome()  {}

// ParseView is the flattened form of a ParseOutcome served to clients.
// ProductID is set only for catalog products; a stored placeholder is
// reported in ProvisionalID. Suggestions is never null.
type ParseView struct {
	ProductID       string   `json:"productId"`
	ProvisionalID   string   `json:"provisionalId,omitempty"`
	QuantityFull    int      `json:"quantity_full"`
	QuantityPartial float64  `json:"quantity_partial"`
	IsTemp          bool     `json:"isTemp,omitempty"`
	Resolution      string   `json:"resolution,omitempty"`
	Suggestions     []string `json:"suggestions"`
	Message         string   `json:"message"`
	Brand           string   `json:"brand,omitempty"`
	Variant         string   `json:"variant,omitempty"`
	Category        string   `json:"category,omitempty"`
}

// NewParseView flattens o. Provisional and ambiguous outcomes carry an empty
// product id.
func NewParseView(o ParseOutcome) ParseView {
	switch v := o.(type) {
	case ParseMatched:
		view := ParseView{
			ProductID:       v.ProductID.String(),
			QuantityFull:    v.Quantities.Full,
			QuantityPartial: v.Quantities.Partial,
			Resolution:      v.Resolution.String(),
			Suggestions:     []string{},
			Message:         v.Message,
			Brand:           v.Brand,
			Category:        v.Category,
		}
		if v.Variant != nil {
			view.Variant = *v.Variant
		}
		return view
	case ParseProvisional:
		view := ParseView{
			QuantityFull:    v.Quantities.Full,
			QuantityPartial: v.Quantities.Partial,
			IsTemp:          true,
			Suggestions:     v.Suggestions,
			Message:         v.Message,
			Brand:           v.SpokenName,
			Resolution:      ResolutionAmbiguous.String(),
		}
		if view.Suggestions == nil {
			view.Suggestions = []string{}
		}
		if v.ProvisionalID != nil {
			view.ProvisionalID = v.ProvisionalID.String()
			view.Resolution = ResolutionProvisional.String()
		}
		return view
	case ParseNoQuantity:
		return ParseView{Message: v.Message, Brand: v.ProductName, Suggestions: []string{}}
	}
	return ParseView{Suggestions: []string{}}
}
