package mpesa

import (
	"encoding/json"
	"fmt"
)

type callbackEnvelope struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string      `json:"Name"`
					Value interface{} `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// CallbackResult is the reconciled content of the gateway's asynchronous
// notification. ResultCode 0 means the payer approved and was charged.
type CallbackResult struct {
	CheckoutRequestID string
	ResultCode        int
	ResultDesc        string
	MpesaReceipt      string
}

func (r *CallbackResult) Success() bool {
	return r.ResultCode == 0
}

// ParseCallback decodes the gateway's callback payload and pulls out the
// correlation id, result code and, on success, the transaction receipt.
func ParseCallback(payload []byte) (*CallbackResult, error) {
	var envelope callbackEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("mpesa: failed to parse callback payload: %w", err)
	}

	cb := envelope.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		return nil, fmt.Errorf("mpesa: callback payload missing CheckoutRequestID")
	}

	result := &CallbackResult{
		CheckoutRequestID: cb.CheckoutRequestID,
		ResultCode:        cb.ResultCode,
		ResultDesc:        cb.ResultDesc,
	}

	if result.Success() {
		for _, item := range cb.CallbackMetadata.Item {
			if item.Name == "MpesaReceiptNumber" {
				if receipt, ok := item.Value.(string); ok {
					result.MpesaReceipt = receipt
				}
				break
			}
		}
	}

	return result, nil
}
