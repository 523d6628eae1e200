package billing

import "slices"

// TravelServices is the fixed catalog every invoice line description comes from.
var TravelServices = []string{
	"Flight Booking",
	"Hotel Reservation",
	"Car Rental",
	"Travel Insurance",
	"Visa Processing",
	"Tour Package",
	"Airport Transfer",
	"Travel Consultation",
	"Group Booking",
	"Cruise Booking",
}

// InCatalog reports whether description names a catalog service.
func InCatalog(description string) bool {
	return slices.Contains(TravelServices, description)
}
