package metrics

// Push records the outcome of a push request ("ok" or an error kind).
func Push(flow, outcome string) {
	if !enabled {
		return
	}
	pushTotal.WithLabelValues(flow, outcome).Inc()
}

// MetadataRead records a release metadata read.
func MetadataRead(status string) {
	if !enabled {
		return
	}
	metadataReadTotal.WithLabelValues(status).Inc()
}

// LedgerTransaction records a transaction submission.
func LedgerTransaction(method, status string) {
	if !enabled {
		return
	}
	ledgerTxTotal.WithLabelValues(method, status).Inc()
}
