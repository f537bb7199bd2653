package stock

// Decrement returns the stock left after selling sold units, never below zero.
func Decrement(current, sold int) int {
	if sold >= current {
		return 0
	}
	return current - sold
}
