package workflow

import (
	"github.com/google/uuid"

	"github.com/mamadbah2/scantrak/internal/domain/models"
)

// Cart is the ordered list of items scanned in one session. It is not safe for
// concurrent use; the Controller serializes access.
type Cart struct {
	items []models.ScannedItem
	newID func() string
}

// NewCart returns an empty cart that tags items with random UUIDs.
func NewCart() *Cart {
	return &Cart{newID: uuid.NewString}
}

// Add appends item under a fresh TempID and returns the updated sequence.
// Identical scans are kept as separate entries.
func (c *Cart) Add(item models.ScannedItem) []models.ScannedItem {
	item.TempID = c.newID()
	c.items = append(c.items, item)
	return c.Items()
}

// Remove drops the entry with the given TempID and reports whether one was found.
func (c *Cart) Remove(tempID string) bool {
	for i, item := range c.items {
		if item.TempID == tempID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the cart in insertion order.
func (c *Cart) Items() []models.ScannedItem {
	out := make([]models.ScannedItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of entries.
func (c *Cart) Len() int {
	return len(c.items)
}
