package sensors

// IsArmed derives the device readiness from a status flag. A nil flag means
// no reading has arrived yet and is treated the same as 0 (not armed).
func IsArmed(status *int) bool {
	return status != nil && *status != 0
}
