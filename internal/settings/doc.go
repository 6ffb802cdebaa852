// Package settings materializes the layered key-value document that lists
// the endpoints to check per environment.
//
// A Document is backed by a dedicated viper instance, so lookups are
// case-insensitive and nested keys are addressed with dots
// ("dev.ApiEndpoints"). Viper does not remember the order in which
// top-level sections appear, so the loader records it separately; Sections
// returns sections in that order.
//
// Example usage:
//
//	doc, err := settings.Load("appsettings.json")
//	if err != nil {
//		return err
//	}
//	endpoints := doc.Endpoints("dev.ApiEndpoints")
package settings
