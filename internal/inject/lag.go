package inject

// Inventory sync lag, in seconds, reported after each checkout.
const (
	LagDegraded = 600
	LagFailure  = 120
	LagSuccess  = 15
)

// InventoryLag is the value the inventory lag gauge takes after a checkout.
// Degraded mode pins it high regardless of the outcome.
func InventoryLag(succeeded, degraded bool) float64 {
	switch {
	case degraded:
		return LagDegraded
	case succeeded:
		return LagSuccess
	default:
		return LagFailure
	}
}
