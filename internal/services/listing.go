package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/admissionsflow/internal/applicants"
	"github.com/Lllllllleong/admissionsflow/internal/models"
)

// ListingFunction serves the admin applicant list. Only applicants with a
// verified email are listed.
type ListingFunction struct {
	store  applicants.Store
	mirror *applicants.Mirror
}

// NewListing creates a ListingFunction from the environment.
func NewListing(ctx context.Context) (*ListingFunction, error) {
	storeCfg, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}
	store, err := newFirestoreStore(ctx, storeCfg)
	if err != nil {
		return nil, err
	}
	slog.Info("Listing logic initialized.", "collection", storeCfg.CollectionName)
	return NewListingWith(store, startMirror(store)), nil
}

// NewListingWith wires a ListingFunction from existing dependencies.
func NewListingWith(store applicants.Store, mirror *applicants.Mirror) *ListingFunction {
	return &ListingFunction{store: store, mirror: mirror}
}

// Process returns the verified applicants matching req, oldest first. A
// synced mirror answers directly; otherwise the store is queried and the
// results are fed into the mirror.
func (f *ListingFunction) Process(ctx context.Context, req *models.ListApplicantsRequest) (*models.ListApplicantsResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	q := applicants.Query{
		Statuses:        req.Statuses,
		InterviewDate:   req.InterviewDate,
		IncludeArchived: req.IncludeArchived,
		VerifiedOnly:    true,
	}

	if f.mirror.Synced() {
		list := f.mirror.Visible(q)
		return &models.ListApplicantsResponse{Applicants: orEmpty(list), Count: len(list), Source: "mirror"}, nil
	}

	list, err := f.store.List(ctx, q)
	if err != nil {
		slog.Error("Failed to list applicants.", "error", err, "statuses", req.Statuses)
		return nil, fmt.Errorf("failed to list applicants: %w", err)
	}
	for _, a := range list {
		f.mirror.Apply(a)
	}
	return &models.ListApplicantsResponse{Applicants: orEmpty(list), Count: len(list), Source: "store"}, nil
}

func orEmpty(list []models.Applicant) []models.Applicant {
	if list == nil {
		return []models.Applicant{}
	}
	return list
}
