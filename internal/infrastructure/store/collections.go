package store

// Collection names for every entity kind. Export/import iterates these, so a
// new entity kind must be added here to round-trip.
const (
	CollCompanies          = "companies"
	CollServices           = "services"
	CollUsers              = "users"
	CollServiceMemberships = "service_memberships"
	CollVendors            = "vendors"
	CollItemCatalogs       = "item_catalogs"
	CollMedicationLots     = "medication_lots"
	CollInventoryItems     = "inventory_items"
	CollLocations          = "locations"
	CollExpectedContents   = "location_expected_contents"
	CollOrders             = "orders"
	CollOrderLines         = "order_lines"
	CollTransfers          = "transfers"
	CollCheckSessions      = "check_sessions"
	CollCheckLines         = "check_lines"
	CollAdministrations    = "administration_records"
	CollWasteRecords       = "waste_records"
	CollWitnessSignatures  = "witness_signatures"
	CollDiscrepancyCases   = "discrepancy_cases"
	CollIncidents          = "incidents"
	CollIncidentItems      = "incident_items"
	CollSettings           = "settings"
)

// AllCollections lists every entity collection for bulk export/import.
var AllCollections = []string{
	CollCompanies,
	CollServices,
	CollUsers,
	CollServiceMemberships,
	CollVendors,
	CollItemCatalogs,
	CollMedicationLots,
	CollInventoryItems,
	CollLocations,
	CollExpectedContents,
	CollOrders,
	CollOrderLines,
	CollTransfers,
	CollCheckSessions,
	CollCheckLines,
	CollAdministrations,
	CollWasteRecords,
	CollWitnessSignatures,
	CollDiscrepancyCases,
	CollIncidents,
	CollIncidentItems,
	CollSettings,
}
