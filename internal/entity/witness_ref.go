package entity

// WitnessRefKind discriminates which record a witness signature attests to.
type WitnessRefKind string

const (
	WitnessRefWasteRecord   WitnessRefKind = "WasteRecord"
	WitnessRefInventoryItem WitnessRefKind = "InventoryItem"
)

// WitnessRef is a typed reference from a witness signature to the record it
// attests. Construct via WasteRecordRef or InventoryItemRef so the kind and id
// always agree.
type WitnessRef struct {
	Kind WitnessRefKind `json:"kind"`
	ID   string         `json:"id"`
}

func WasteRecordRef(wasteRecordID string) WitnessRef {
	return WitnessRef{Kind: WitnessRefWasteRecord, ID: wasteRecordID}
}

func InventoryItemRef(itemID string) WitnessRef {
	return WitnessRef{Kind: WitnessRefInventoryItem, ID: itemID}
}
