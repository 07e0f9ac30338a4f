package history

// NotFoundError is returned when a turn doesn't exist in the store.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "turn not found"
	}

	return "turn not found: " + e.ID
}
