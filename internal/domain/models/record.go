package models

import (
	"strings"
	"time"
)

// SubmittedRecord is one persisted cart line. Records are never mutated once written.
type SubmittedRecord struct {
	ProductName string `bson:"productName" json:"productName" yaml:"productName"`
	BatchNumber string `bson:"batchNumber" json:"batchNumber" yaml:"batchNumber"`
	BagNumber   string `bson:"bagNumber" json:"bagNumber" yaml:"bagNumber"`
	ProductID   string `bson:"productId" json:"productId" yaml:"productId"`
	Quantity    string `bson:"quantity" json:"quantity" yaml:"quantity"`
	MemberName  string `bson:"memberName" json:"memberName" yaml:"memberName"`
	MemberID    string `bson:"memberId" json:"memberId" yaml:"memberId"`
	Role        Role   `bson:"role" json:"role" yaml:"role"`
	Timestamp   int64  `bson:"timestamp" json:"timestamp" yaml:"timestamp"`
	UserID      string `bson:"userId" json:"userId" yaml:"userId"`
}

// NewSubmittedRecord maps a cart item and the member form onto its stored shape.
// The timestamp is assigned by the store.
func NewSubmittedRecord(item ScannedItem, memberName, memberID string, role Role, userID string) SubmittedRecord {
	return SubmittedRecord{
		ProductName: item.Name,
		BatchNumber: item.Batch,
		BagNumber:   item.Bag,
		ProductID:   item.ID,
		Quantity:    item.Qty,
		MemberName:  strings.TrimSpace(memberName),
		MemberID:    strings.ToUpper(strings.TrimSpace(memberID)),
		Role:        role,
		UserID:      userID,
	}
}

// SubmittedAt converts the millisecond timestamp into a time.Time.
func (r SubmittedRecord) SubmittedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}
