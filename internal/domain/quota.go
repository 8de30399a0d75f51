package domain

// QuotaState is the per-session view of conversion usage. Used only ever
// increases; Budget grows by the configured top-up amount per confirmed
// payment.
type QuotaState struct {
	Used   int
	Budget int
	Paid   bool
}

// Remaining reports how many conversions the session may still run.
func (q QuotaState) Remaining() int {
	if q.Budget <= q.Used {
		return 0
	}
	return q.Budget - q.Used
}
