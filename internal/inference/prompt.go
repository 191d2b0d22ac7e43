package inference

import (
	"strings"

	"github.com/mfigueiredo/ledgerhawk/internal/transaction"
)

const systemPrompt = "You are a forensic financial auditor. You analyze card transaction " +
	"batches for anomalies such as unusually high amounts, rapid location changes and " +
	"repeated small charges, and you answer with strict JSON only."

const timestampLayout = "2006-01-02 15:04:05"

// BuildPrompt serializes the batch into the fixed instruction template.
// The serialization is deterministic: one pipe-separated line per
// transaction, in input order.
func BuildPrompt(txs []*transaction.Transaction) string {
	var b strings.Builder

	b.WriteString("Review the following card transactions and identify the suspicious ones.\n\n")
	b.WriteString("Transactions (TransactionID | AccountID | Amount | Merchant | Category | Timestamp | Location):\n")

	for _, tx := range txs {
		b.WriteString(tx.ID)
		b.WriteString(" | ")
		b.WriteString(tx.AccountID)
		b.WriteString(" | ")
		b.WriteString(tx.Amount.StringFixed(2))
		b.WriteString(" | ")
		b.WriteString(tx.Merchant)
		b.WriteString(" | ")
		b.WriteString(tx.Category)
		b.WriteString(" | ")
		b.WriteString(tx.Timestamp.UTC().Format(timestampLayout))
		b.WriteString(" | ")
		b.WriteString(tx.Location)
		b.WriteString("\n")
	}

	b.WriteString("\nReturn ONLY a JSON object of this exact shape:\n")
	b.WriteString(`{"suspiciousTransactions":[{"TransactionID":"...","RiskLevel":"Low|Medium|High","MitigationStrategy":"...","Reasoning":"...","tldr":"..."}]}`)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- OMIT transactions you judge non-suspicious. Do not list them with a low or empty risk level.\n")
	b.WriteString("- Structure each Reasoning as Observation / Context / Risk.\n")
	b.WriteString("- Keep tldr to one sentence.\n")
	b.WriteString("- Return raw JSON only. No code fences, no Markdown, no extra text.\n")

	return b.String()
}
