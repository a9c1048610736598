package models

// ServiceMetadata is the document returned when no queries are supplied
type ServiceMetadata struct {
	Name            string      `json:"name"`
	DefaultTypes    []QueryType `json:"defaultTypes"`
	IdentifierSpace string      `json:"identifierSpace"`
	SchemaSpace     string      `json:"schemaSpace"`
	View            View        `json:"view"`
	Suggest         Suggest     `json:"suggest"`
}

// View tells clients how to build a link for an id
type View struct {
	URL string `json:"url"`
}

// Suggest lists the suggest sub-services
type Suggest struct {
	Entity SuggestService `json:"entity"`
}

// SuggestService locates a suggest endpoint and its optional flyout
type SuggestService struct {
	ServicePath       string `json:"service_path"`
	ServiceURL        string `json:"service_url"`
	FlyoutServicePath string `json:"flyout_service_path,omitempty"`
}
