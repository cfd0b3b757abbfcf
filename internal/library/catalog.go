package library

import (
	"context"
	"errors"

	"ratesync/internal/plex"
)

// Catalog abstracts one library section for index building and lazy lookup.
type Catalog interface {
	Section() plex.Section
	All(ctx context.Context) ([]plex.Item, error)
	FindByGUID(ctx context.Context, guid string) (plex.Item, bool, error)
}

// SectionCatalog adapts a plex.Client plus one of its sections to Catalog.
type SectionCatalog struct {
	client  *plex.Client
	section plex.Section
}

// NewSectionCatalog wraps a section of the given server.
func NewSectionCatalog(client *plex.Client, section plex.Section) *SectionCatalog {
	return &SectionCatalog{client: client, section: section}
}

func (c *SectionCatalog) Section() plex.Section {
	return c.section
}

func (c *SectionCatalog) All(ctx context.Context) ([]plex.Item, error) {
	return c.client.SectionItems(ctx, c.section.Key)
}

func (c *SectionCatalog) FindByGUID(ctx context.Context, guid string) (plex.Item, bool, error) {
	return c.client.FindByGUID(ctx, c.section.Key, guid)
}

// SelectCatalogs resolves the sections a run operates on. With allLibraries
// set, every movie and show section is selected in server enumeration order.
// A named section must exist; an empty name selects the first eligible
// section.
func SelectCatalogs(ctx context.Context, client *plex.Client, libraryName string, allLibraries bool) ([]Catalog, error) {
	if libraryName != "" && !allLibraries {
		section, err := client.SectionByTitle(ctx, libraryName)
		if err != nil {
			return nil, err
		}
		return []Catalog{NewSectionCatalog(client, section)}, nil
	}

	sections, err := client.Sections(ctx)
	if err != nil {
		return nil, err
	}
	catalogs := make([]Catalog, 0, len(sections))
	for _, section := range sections {
		if !section.Eligible() {
			continue
		}
		catalogs = append(catalogs, NewSectionCatalog(client, section))
		if !allLibraries {
			return catalogs, nil
		}
	}
	if len(catalogs) == 0 {
		return nil, errors.New("no movie or show libraries on server")
	}
	return catalogs, nil
}
