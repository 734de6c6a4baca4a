package gateway

import (
	"encoding/json"
	"strings"
)

type ResponseKind int

const (
	ResponseUnparseable ResponseKind = iota
	ResponseRejected
	ResponseParsed
)

func (k ResponseKind) String() string {
	switch k {
	case ResponseParsed:
		return "parsed"
	case ResponseRejected:
		return "rejected"
	default:
		return "unparseable"
	}
}

type InvoiceResponse struct {
	Kind      ResponseKind
	PayURL    string
	InvoiceID string
	Raw       string
}

var (
	payURLAliases = []string{
		"pay_url", "payUrl", "payment_url", "paymentUrl",
		"invoice_url", "invoiceUrl", "bot_invoice_url", "mini_app_invoice_url", "url",
	}
	invoiceIDAliases = []string{"invoice_id", "invoiceId", "id", "uuid"}
)

// ParseInvoiceResponse reads a createInvoice answer whatever shape the
// gateway chose for it.
func ParseInvoiceResponse(body []byte) InvoiceResponse {
	resp := InvoiceResponse{Kind: ResponseUnparseable, Raw: strings.TrimSpace(string(body))}

	var top object
	if err := json.Unmarshal(body, &top); err != nil || top == nil {
		return resp
	}

	in := scopes(top, "result", "data")
	if lookup(in[:1], "ok", "success") == "false" {
		resp.Kind = ResponseRejected
		return resp
	}

	resp.PayURL = lookup(in, payURLAliases...)
	resp.InvoiceID = lookup(in, invoiceIDAliases...)
	if resp.PayURL == "" {
		return resp
	}
	resp.Kind = ResponseParsed
	return resp
}
