package transaction

import (
	"time"

	"github.com/mfigueiredo/ledgerhawk/internal/transaction"
)

type transactionResponse struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Amount    string    `json:"amount"`
	Merchant  string    `json:"merchant"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

type pageResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	Offset       int                   `json:"offset"`
	Total        int                   `json:"total"`
}

func toResponse(tx *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:        tx.ID,
		AccountID: tx.AccountID,
		Amount:    tx.Amount.StringFixed(2),
		Merchant:  tx.Merchant,
		Category:  tx.Category,
		Timestamp: tx.Timestamp,
		Location:  tx.Location,
		CreatedAt: tx.CreatedAt,
	}
}

func toPageResponse(txs []*transaction.Transaction, offset, total int) pageResponse {
	responses := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		responses = append(responses, toResponse(tx))
	}

	return pageResponse{
		Transactions: responses,
		Offset:       offset,
		Total:        total,
	}
}
