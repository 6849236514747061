package audit

// SystemServiceID marks audit events not owned by any tenant (data resets,
// system-level imports).
const SystemServiceID = "0"

// Event type taxonomy. These strings are an external contract — reports and
// exports key on them — and must never be renamed.
const (
	EventUserLogin     = "USER_LOGIN"
	EventUserLogout    = "USER_LOGOUT"
	EventServiceSwitch = "SERVICE_SWITCH"

	EventOrderCreated      = "ORDER_CREATED"
	EventOrderSubmitted    = "ORDER_SUBMITTED"
	EventOrderReceived     = "ORDER_RECEIVED"
	EventOrderLineReceived = "ORDER_LINE_RECEIVED"

	EventItemCreated         = "ITEM_CREATED"
	EventItemUpdated         = "ITEM_UPDATED"
	EventItemDeactivated     = "ITEM_DEACTIVATED"
	EventItemTransferred     = "ITEM_TRANSFERRED"
	EventItemAdministered    = "ITEM_ADMINISTERED"
	EventItemWasted          = "ITEM_WASTED"
	EventItemExpiredExchange = "ITEM_EXPIRED_EXCHANGE"

	EventLocationCreated = "LOCATION_CREATED"
	EventLocationUpdated = "LOCATION_UPDATED"

	EventCheckSessionStarted   = "CHECK_SESSION_STARTED"
	EventCheckSealVerified     = "CHECK_SEAL_VERIFIED"
	EventCheckItemVerified     = "CHECK_ITEM_VERIFIED"
	EventCheckSessionCompleted = "CHECK_SESSION_COMPLETED"

	EventWasteWitnessed = "WASTE_WITNESSED"
	EventCorrectionMade = "CORRECTION_MADE"

	EventDiscrepancyOpened   = "DISCREPANCY_OPENED"
	EventDiscrepancyResolved = "DISCREPANCY_RESOLVED"

	EventIncidentCreated   = "INCIDENT_CREATED"
	EventIncidentItemAdded = "INCIDENT_ITEM_ADDED"
	EventIncidentClosed    = "INCIDENT_CLOSED"

	EventDataExported = "DATA_EXPORTED"
	EventDataImported = "DATA_IMPORTED"
	EventDataReset    = "DATA_RESET"
	EventDataSeeded   = "DATA_SEEDED"
)

// Entity type names used in audit rows.
const (
	EntityInventoryItem    = "InventoryItem"
	EntityWasteRecord      = "WasteRecord"
	EntityWitnessSignature = "WitnessSignature"
	EntityOrder            = "Order"
	EntityLocation         = "Location"
	EntityCheckSession     = "CheckSession"
	EntityDiscrepancyCase  = "DiscrepancyCase"
	EntityIncident         = "Incident"
	EntityIncidentItem     = "IncidentItem"
	EntityUser             = "User"
	EntityDatabase         = "Database"
)
