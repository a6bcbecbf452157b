package portfolio

// OrderUpdate is the sort position assigned to one project.
type OrderUpdate struct {
	ID        string `json:"id"`
	SortOrder int    `json:"sort_order"`
}

// BuildProjectOrderUpdates numbers ids consecutively from startAt.
func BuildProjectOrderUpdates(ids []string, startAt int) []OrderUpdate {
	updates := make([]OrderUpdate, len(ids))
	for i, id := range ids {
		updates[i] = OrderUpdate{ID: id, SortOrder: startAt + i}
	}
	return updates
}

// ValidateProjectOrder returns an error message, or "" when ids is a usable order.
func ValidateProjectOrder(ids []string) string {
	if len(ids) == 0 {
		return MsgNoProjectsToOrder
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return MsgDuplicateOrderIDs
		}
		seen[id] = struct{}{}
	}
	return ""
}
