package services

import (
	"sort"

	"templateKitManager/internal/models"
)

const DefaultDateLayout = "January 2, 2006"

// Catalog presents stored archives as kit records for the admin gallery.
type Catalog struct {
	store      *ArchiveStore
	previews   *PreviewResolver
	dateLayout string
}

func NewCatalog(store *ArchiveStore, previews *PreviewResolver, dateLayout string) *Catalog {
	if dateLayout == "" {
		dateLayout = DefaultDateLayout
	}
	return &Catalog{store: store, previews: previews, dateLayout: dateLayout}
}

// ListKits returns every stored kit, newest first. Ties are broken by name so
// the order is stable across calls.
func (c *Catalog) ListKits() ([]models.KitRecord, error) {
	archives, err := c.store.ListArchives()
	if err != nil {
		return nil, err
	}

	sort.Slice(archives, func(i, j int) bool {
		ti, tj := archives[i].ModTime.Unix(), archives[j].ModTime.Unix()
		if ti != tj {
			return ti > tj
		}
		return archives[i].Name < archives[j].Name
	})

	kits := make([]models.KitRecord, 0, len(archives))
	for _, archive := range archives {
		kits = append(kits, c.record(archive))
	}
	return kits, nil
}

func (c *Catalog) record(archive models.KitArchive) models.KitRecord {
	rec := models.KitRecord{
		Name:        archive.Name,
		DisplayName: FormatKitName(archive.Name),
		Size:        HumanSize(archive.Size),
		Date:        archive.ModTime.Format(c.dateLayout),
		Timestamp:   archive.ModTime.Unix(),
	}
	if url, ok := c.previews.Resolve(archive.Name); ok {
		rec.Preview = url
	}
	return rec
}
