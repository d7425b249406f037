package dashboard

// ProfessionalServicesGroupID is the PSA group id that splits project work
// off the helpdesk board.
const ProfessionalServicesGroupID int64 = 19000234009

// SupportedViews maps URL slugs to display names.
var SupportedViews = map[string]string{
	"helpdesk":              "Helpdesk",
	"professional-services": "Professional Services",
}

// DefaultViewSlug is where the bare root path redirects.
const DefaultViewSlug = "helpdesk"

// AutoRefreshSeconds is the page's meta-refresh cadence.
const AutoRefreshSeconds = 60

// viewMatches reports whether a ticket's group belongs on the given view.
func viewMatches(slug string, groupID *int64) bool {
	isPS := groupID != nil && *groupID == ProfessionalServicesGroupID
	if slug == "professional-services" {
		return isPS
	}
	return !isPS
}
