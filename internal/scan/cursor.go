package scan

// Cursor marks the slice of the ledger the next scan should cover.
type Cursor struct {
	Offset int
	Size   int
	Total  int
	Done   bool
}

// NextFromWatermark resolves the next batch from the persisted scan
// watermark: the count of transactions already submitted to the provider.
// The watermark advances in the same database transaction as each merge
// commit, so batches that produced zero reports still count as scanned.
func NextFromWatermark(watermark, total, batchSize int) Cursor {
	offset := watermark
	if offset < 0 {
		offset = 0
	}

	if offset >= total {
		return Cursor{Offset: total, Total: total, Done: true}
	}

	return Cursor{
		Offset: offset,
		Size:   min(batchSize, total-offset),
		Total:  total,
	}
}

// NextFromReports reconstructs progress from which transactions already
// have a risk report: the batch after the highest flagged position is the
// next one. Kept for databases that predate the watermark; a batch whose
// transactions were all judged clean leaves no trace here, so such a batch
// gets re-submitted to the provider on the next scan.
func NextFromReports(ids []string, flagged map[string]struct{}, batchSize int) Cursor {
	total := len(ids)

	highest := -1

	for i, id := range ids {
		if _, ok := flagged[id]; ok {
			highest = i
		}
	}

	offset := 0
	if highest >= 0 {
		offset = (highest/batchSize + 1) * batchSize
	}

	if offset >= total {
		return Cursor{Offset: total, Total: total, Done: true}
	}

	return Cursor{
		Offset: offset,
		Size:   min(batchSize, total-offset),
		Total:  total,
	}
}
