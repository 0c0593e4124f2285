package httpapi

import (
	"time"

	"github.com/alejandrodnm/eicfolio/internal/application/reconcile"
	"github.com/alejandrodnm/eicfolio/internal/domain"
)

type writeResponse struct {
	Kind     string    `json:"kind"`
	Key      string    `json:"key"`
	Detail   string    `json:"detail,omitempty"`
	Amount   string    `json:"amount,omitempty"`
	Currency string    `json:"currency,omitempty"`
	At       time.Time `json:"at"`
}

type runResponse struct {
	RunID      string          `json:"runId"`
	Status     string          `json:"status"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Error      string          `json:"error,omitempty"`
	Counts     map[string]int  `json:"counts"`
	Writes     []writeResponse `json:"writes"`
}

func newRunResponse(s domain.RunSummary) runResponse {
	out := runResponse{
		RunID:      s.RunID,
		Status:     string(s.Status),
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		Error:      s.Error,
		Counts:     map[string]int{},
		Writes:     make([]writeResponse, 0, len(s.Writes)),
	}
	for _, w := range s.Writes {
		out.Counts[string(w.Kind)]++
		wr := writeResponse{Kind: string(w.Kind), Key: w.Key, Detail: w.Detail, At: w.At}
		if w.Currency != "" {
			wr.Amount = w.Amount.String()
			wr.Currency = w.Currency
		}
		out.Writes = append(out.Writes, wr)
	}
	return out
}

type runRecordResponse struct {
	RunID      string     `json:"runId"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	Writes     int        `json:"writes"`
}

type transactionResponse struct {
	Symbol    string `json:"symbol"`
	Type      string `json:"type"`
	Currency  string `json:"currency"`
	Amount    string `json:"amount"`
	Price     string `json:"price"`
	Volume    string `json:"volume"`
	Fee       string `json:"fee"`
	Date      string `json:"date"`
	Accounted bool   `json:"accounted"`
}

type orderResponse struct {
	Currency string    `json:"currency"`
	Amount   string    `json:"amount"`
	Symbol   string    `json:"symbol"`
	ISIN     string    `json:"isin"`
	Date     time.Time `json:"date"`
}

type feeResponse struct {
	ManagementFee string     `json:"managementFee"`
	BaggageFee    string     `json:"baggageFee"`
	ProcessingFee string     `json:"processingFee"`
	Date          *time.Time `json:"date"`
}

type instrumentResponse struct {
	Symbol   string `json:"symbol"`
	ISIN     string `json:"isin"`
	Currency string `json:"currency"`
}

type previewResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	Orders       []orderResponse       `json:"orders"`
	Fees         struct {
		Currency string        `json:"currency"`
		Fees     []feeResponse `json:"fees"`
	} `json:"fees"`
	Instruments []instrumentResponse `json:"instruments"`
}

func newPreviewResponse(p reconcile.Preview) previewResponse {
	var out previewResponse

	out.Transactions = make([]transactionResponse, 0, len(p.Data.Transactions))
	for _, tx := range p.Data.Transactions {
		out.Transactions = append(out.Transactions, transactionResponse{
			Symbol:    tx.Symbol,
			Type:      string(tx.Type),
			Currency:  tx.Currency,
			Amount:    tx.Amount.String(),
			Price:     tx.Price.String(),
			Volume:    tx.Volume.String(),
			Fee:       tx.Fee.String(),
			Date:      tx.Date,
			Accounted: tx.Accounted,
		})
	}

	out.Orders = make([]orderResponse, 0, len(p.Data.Orders))
	for _, o := range p.Data.Orders {
		out.Orders = append(out.Orders, orderResponse{
			Currency: o.Currency,
			Amount:   o.Amount.String(),
			Symbol:   o.Symbol,
			ISIN:     o.ISIN,
			Date:     o.Date,
		})
	}

	out.Fees.Currency = p.Data.Fees.Currency
	out.Fees.Fees = make([]feeResponse, 0, len(p.Data.Fees.Fees))
	for _, f := range p.Data.Fees.Fees {
		out.Fees.Fees = append(out.Fees.Fees, feeResponse{
			ManagementFee: f.ManagementFee.String(),
			BaggageFee:    f.BaggageFee.String(),
			ProcessingFee: f.ProcessingFee.String(),
			Date:          f.Date,
		})
	}

	out.Instruments = make([]instrumentResponse, 0, len(p.Instruments))
	for _, d := range p.Instruments {
		out.Instruments = append(out.Instruments, instrumentResponse(d))
	}
	return out
}
