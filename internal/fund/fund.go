package fund

import (
	funddm "github.com/frahmantamala/giving-api/internal/core/datamodel/fund"
)

// RepositoryAPI is the persistence surface for funds. Load and LoadByName
// return (nil, nil) when no row matches.
type RepositoryAPI interface {
	Save(fund *funddm.Fund) error
	Load(churchID, id string) (*funddm.Fund, error)
	LoadByName(churchID, name string) (*funddm.Fund, error)
	LoadAll(churchID string) ([]*funddm.Fund, error)
	MarkRemoved(churchID, id string) error
}
