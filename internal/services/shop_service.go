// Package services – ShopService
//
// This file implements the shop: catalog listing with per-user ownership
// flags, catalog seeding, and the purchase transition
// NotOwned → Owned/Unplaced.
//
// A purchase is one transaction: item lookup, premium gate, price check,
// ownership check, the conditional point debit and the ownership insert either
// all commit or none do. The debit is a single guarded UPDATE
// (current_points >= cost), and the (user_id, item_id) unique index rejects a
// concurrent second purchase of the same item, which rolls its debit back.
package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/bloom-backend/internal/catalog"
	"github.com/tbourn/bloom-backend/internal/domain"
	"github.com/tbourn/bloom-backend/internal/observability"
	"github.com/tbourn/bloom-backend/internal/repo"
)

// ShopService lists and sells catalog items.
type ShopService struct {
	DB *gorm.DB

	// Cache serves catalog reads; nil reads through to the database.
	Cache *catalog.ItemCache
}

// ShopItem is a catalog item annotated for the caller.
type ShopItem struct {
	domain.Item
	IsOwned bool `json:"is_owned"`
}

// PurchaseRequest is a validated purchase input. ExpectedCost, when set,
// must equal the stored price.
type PurchaseRequest struct {
	ItemID       string
	ExpectedCost *int
}

// PurchaseResult reports a purchase outcome with enough detail for the
// caller to explain a failure.
type PurchaseResult struct {
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
	NewBalance      *int   `json:"new_balance,omitempty"`
	ItemID          string `json:"item_id,omitempty"`
	ItemName        string `json:"item_name,omitempty"`
	CurrentPrice    *int   `json:"current_price,omitempty"`
	PremiumRequired bool   `json:"premium_required,omitempty"`
	CurrentPoints   *int   `json:"current_points,omitempty"`
	ItemCost        *int   `json:"item_cost,omitempty"`
	PointsNeeded    *int   `json:"points_needed,omitempty"`
}

// Seed upserts the built-in catalog and drops cached items.
func (s *ShopService) Seed(ctx context.Context) error {
	if err := repo.UpsertItems(ctx, s.DB, catalog.SeedItems()); err != nil {
		return err
	}
	s.RefreshCache()
	return nil
}

// RefreshCache drops every cached catalog item.
func (s *ShopService) RefreshCache() {
	if s.Cache != nil {
		s.Cache.Purge()
	}
}

// Item returns an active catalog item or ErrItemNotFound.
func (s *ShopService) Item(ctx context.Context, id string) (*domain.Item, error) {
	var (
		it  *domain.Item
		err error
	)
	if s.Cache != nil {
		it, err = s.Cache.Get(ctx, id)
	} else {
		it, err = repo.GetItem(ctx, s.DB, id)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !it.IsActive) {
		return nil, ErrItemNotFound
	}
	return it, err
}

// List returns active items matching f, each flagged with whether userID
// owns it.
func (s *ShopService) List(ctx context.Context, userID string, f repo.ItemFilter) ([]ShopItem, error) {
	ctx, span := otel.Tracer("services/ShopService").Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("category", f.Category),
			attribute.String("sort", f.Sort),
		),
	)
	defer span.End()

	items, err := repo.ListItems(ctx, s.DB, f)
	if err != nil {
		return nil, err
	}
	owned, err := repo.OwnedItemIDs(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	out := make([]ShopItem, 0, len(items))
	for _, it := range items {
		_, has := owned[it.ID]
		out = append(out, ShopItem{Item: it, IsOwned: has})
	}
	return out, nil
}

// Purchase buys one unit of an item for userID. The returned result is
// always non-nil; on failure it carries the detail fields for the error.
func (s *ShopService) Purchase(ctx context.Context, userID string, req PurchaseRequest) (*PurchaseResult, error) {
	ctx, span := otel.Tracer("services/ShopService").Start(ctx, "Purchase",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("item.id", req.ItemID),
		),
	)
	defer span.End()

	res := &PurchaseResult{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		it, err := repo.GetItem(ctx, tx, req.ItemID)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !it.IsActive) {
			return ErrItemNotFound
		}
		if err != nil {
			return err
		}
		res.ItemID, res.ItemName = it.ID, it.Name

		p, err := repo.GetOrCreateProfile(ctx, tx, userID)
		if err != nil {
			return err
		}
		if it.IsPremiumOnly && !p.IsPremium {
			res.PremiumRequired = true
			return ErrPremiumRequired
		}
		if req.ExpectedCost != nil && *req.ExpectedCost != it.PointCost {
			res.CurrentPrice = intp(it.PointCost)
			return ErrPriceMismatch
		}
		if _, err := repo.GetUserItem(ctx, tx, userID, it.ID); err == nil {
			return ErrAlreadyOwned
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := repo.DebitPoints(ctx, tx, userID, it.PointCost); err != nil {
			if errors.Is(err, repo.ErrInsufficientPoints) {
				res.CurrentPoints = intp(p.CurrentPoints)
				res.ItemCost = intp(it.PointCost)
				res.PointsNeeded = intp(max(it.PointCost-p.CurrentPoints, 1))
				return ErrInsufficientPoints
			}
			return err
		}
		if _, err := repo.CreateUserItem(ctx, tx, userID, it.ID); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrAlreadyOwned
			}
			return err
		}
		meta := map[string]any{"item_id": it.ID, "item_name": it.Name, "cost": it.PointCost}
		if _, err := repo.AppendActivity(ctx, tx, userID, domain.ActivityPurchase, -it.PointCost, meta); err != nil {
			return err
		}

		after, err := repo.GetProfile(ctx, tx, userID)
		if err != nil {
			return err
		}
		res.NewBalance = intp(after.CurrentPoints)
		return nil
	})
	if err != nil {
		res.Success = false
		res.NewBalance = nil
		res.Error = purchaseMessage(err)
		observability.Purchase(purchaseOutcome(err))
		span.SetAttributes(attribute.String("outcome", purchaseOutcome(err)))
		return res, err
	}
	res.Success = true
	observability.Purchase(observability.OutcomeOK)
	return res, nil
}

func purchaseOutcome(err error) string {
	switch {
	case errors.Is(err, ErrItemNotFound):
		return "item_not_found"
	case errors.Is(err, ErrPremiumRequired):
		return "premium_required"
	case errors.Is(err, ErrPriceMismatch):
		return "price_mismatch"
	case errors.Is(err, ErrAlreadyOwned):
		return "already_owned"
	case errors.Is(err, ErrInsufficientPoints):
		return "insufficient_points"
	default:
		return observability.OutcomeError
	}
}

func purchaseMessage(err error) string {
	switch {
	case errors.Is(err, ErrItemNotFound):
		return "Item not found"
	case errors.Is(err, ErrPremiumRequired):
		return "This item requires premium"
	case errors.Is(err, ErrPriceMismatch):
		return "Price has changed"
	case errors.Is(err, ErrAlreadyOwned):
		return "You already own this item"
	case errors.Is(err, ErrInsufficientPoints):
		return "Not enough points"
	default:
		return "Purchase failed, please try again"
	}
}

func intp(v int) *int { return &v }
