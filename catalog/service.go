// Package catalog serves the browsable storefront: categories, products,
// services, add-ons, banners, locations and the about page. Public list
// reads that every page load hits are cached in Redis.
package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"makeeasy/apperr"
	"makeeasy/models"
	"makeeasy/rdx"
	"makeeasy/repo"
	"makeeasy/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	cacheTTL      = 10 * time.Minute
	featuredLimit = 6
)

type BannerStore interface {
	Store[models.Banner]
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) error
}

type LocationStore interface {
	Store[models.Location]
	Distinct(ctx context.Context, field string, filter bson.M) ([]string, error)
}

// Stores groups the collections behind the catalog.
type Stores struct {
	Categories Store[models.Category]
	Products   Store[models.Product]
	Services   Store[models.Service]
	AddOns     Store[models.AddOn]
	Banners    BannerStore
	Locations  LocationStore
	About      Store[models.About]
}

type Service struct {
	Categories *Resource[models.Category, *models.Category]
	Products   *Resource[models.Product, *models.Product]
	Services   *Resource[models.Service, *models.Service]
	AddOns     *Resource[models.AddOn, *models.AddOn]
	Banners    *Resource[models.Banner, *models.Banner]
	Locations  *Resource[models.Location, *models.Location]
	About      *Resource[models.About, *models.About]

	banners   BannerStore
	locations LocationStore
	cache     *rdx.Client

	Now func() time.Time
}

func NewService(st Stores, cache *rdx.Client) *Service {
	s := &Service{banners: st.Banners, locations: st.Locations, cache: cache, Now: time.Now}
	now := func() time.Time { return s.Now() }

	s.Categories = &Resource[models.Category, *models.Category]{
		Name: "Category", store: st.Categories, cache: cache, now: now,
		stamp: func(c *models.Category) Stamps { return Stamps{&c.ID, &c.CreatedAt, &c.UpdatedAt} },
	}
	s.Products = &Resource[models.Product, *models.Product]{
		Name: "Product", store: st.Products, cache: cache, now: now,
		keys:  []string{rdx.KeyFeaturedProducts},
		stamp: func(p *models.Product) Stamps { return Stamps{&p.ID, &p.CreatedAt, &p.UpdatedAt} },
	}
	s.Services = &Resource[models.Service, *models.Service]{
		Name: "Service", store: st.Services, cache: cache, now: now,
		keys:  []string{rdx.KeyFeaturedServices},
		stamp: func(sv *models.Service) Stamps { return Stamps{&sv.ID, &sv.CreatedAt, &sv.UpdatedAt} },
	}
	s.AddOns = &Resource[models.AddOn, *models.AddOn]{
		Name: "Add-on", store: st.AddOns, cache: cache, now: now,
		keys:  []string{rdx.KeyActiveAddOns},
		stamp: func(a *models.AddOn) Stamps { return Stamps{&a.ID, &a.CreatedAt, &a.UpdatedAt} },
	}
	s.Banners = &Resource[models.Banner, *models.Banner]{
		Name: "Banner", store: st.Banners, cache: cache, now: now,
		keys:  []string{rdx.KeyActiveBanners},
		stamp: func(b *models.Banner) Stamps { return Stamps{&b.ID, &b.CreatedAt, &b.UpdatedAt} },
		check: func(b *models.Banner) error {
			if strings.TrimSpace(b.Title) == "" || strings.TrimSpace(b.Image) == "" {
				return apperr.BadRequest("Title and image are required")
			}
			return nil
		},
	}
	s.Locations = &Resource[models.Location, *models.Location]{
		Name: "Location", store: st.Locations, cache: cache, now: now,
		keys:  []string{rdx.KeyActiveLocations, rdx.KeyLocationStates},
		stamp: func(l *models.Location) Stamps { return Stamps{&l.ID, &l.CreatedAt, &l.UpdatedAt} },
		check: func(l *models.Location) error {
			if strings.TrimSpace(l.City) == "" || strings.TrimSpace(l.District) == "" || strings.TrimSpace(l.State) == "" {
				return apperr.BadRequest("City, district, and state are required")
			}
			return nil
		},
	}
	s.About = &Resource[models.About, *models.About]{
		Name: "About content", store: st.About, cache: cache, now: now,
		stamp: func(a *models.About) Stamps { return Stamps{&a.ID, &a.CreatedAt, &a.UpdatedAt} },
	}
	return s
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	list, _, err := s.Categories.List(ctx, bson.M{}, repo.ListOptions{Sort: bson.D{{Key: "name", Value: 1}}})
	return list, err
}

// ListProducts runs a storefront product query.
func (s *Service) ListProducts(ctx context.Context, q ListQuery) ([]models.Product, int64, error) {
	return s.Products.List(ctx, q.filter(productSearchFields), q.options())
}

func (s *Service) FeaturedProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := rdx.Remember(ctx, s.cache, rdx.KeyFeaturedProducts, cacheTTL, &out, func() (any, error) {
		list, _, err := s.Products.List(ctx, bson.M{"featured": true}, repo.ListOptions{Limit: featuredLimit, Sort: repo.NewestFirst})
		return list, err
	})
	return out, err
}

// AddProductImages appends uploaded images; the first image of a product
// also becomes its cover.
func (s *Service) AddProductImages(ctx context.Context, id string, urls []string) (*models.Product, error) {
	p, err := s.Products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, apperr.BadRequest("Please upload at least one image")
	}
	p.Images = append(p.Images, urls...)
	if p.ImageURL == "" {
		p.ImageURL = urls[0]
	}
	if err := s.Products.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListServices(ctx context.Context, q ListQuery) ([]models.Service, int64, error) {
	return s.Services.List(ctx, q.filter(serviceSearchFields), q.options())
}

func (s *Service) FeaturedServices(ctx context.Context) ([]models.Service, error) {
	var out []models.Service
	err := rdx.Remember(ctx, s.cache, rdx.KeyFeaturedServices, cacheTTL, &out, func() (any, error) {
		list, _, err := s.Services.List(ctx, bson.M{"featured": true}, repo.ListOptions{Limit: featuredLimit, Sort: repo.NewestFirst})
		return list, err
	})
	return out, err
}

// SetServiceImage replaces a service's image and returns the previous one.
func (s *Service) SetServiceImage(ctx context.Context, id, url string) (*models.Service, string, error) {
	sv, err := s.Services.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	old := sv.Image
	sv.Image = url
	if err := s.Services.Save(ctx, sv); err != nil {
		return nil, "", err
	}
	return sv, old, nil
}

// ActiveAddOns lists purchasable add-ons in display order.
func (s *Service) ActiveAddOns(ctx context.Context) ([]models.AddOn, error) {
	var out []models.AddOn
	err := rdx.Remember(ctx, s.cache, rdx.KeyActiveAddOns, cacheTTL, &out, func() (any, error) {
		list, _, err := s.AddOns.List(ctx, bson.M{"active": true}, repo.ListOptions{Sort: bson.D{{Key: "displayOrder", Value: 1}}})
		return list, err
	})
	return out, err
}

// AllAddOns lists every add-on, inactive ones included, for admins.
func (s *Service) AllAddOns(ctx context.Context) ([]models.AddOn, error) {
	list, _, err := s.AddOns.List(ctx, bson.M{}, repo.ListOptions{Sort: displayOrder})
	return list, err
}

var displayOrder = bson.D{{Key: "displayOrder", Value: 1}, {Key: "createdAt", Value: -1}}

func (s *Service) ActiveBanners(ctx context.Context) ([]models.Banner, error) {
	var out []models.Banner
	err := rdx.Remember(ctx, s.cache, rdx.KeyActiveBanners, cacheTTL, &out, func() (any, error) {
		list, _, err := s.Banners.List(ctx, bson.M{"isActive": true}, repo.ListOptions{Sort: displayOrder})
		return list, err
	})
	return out, err
}

func (s *Service) AllBanners(ctx context.Context) ([]models.Banner, error) {
	list, _, err := s.Banners.List(ctx, bson.M{}, repo.ListOptions{Sort: displayOrder})
	return list, err
}

func (s *Service) ToggleBanner(ctx context.Context, id string) (*models.Banner, error) {
	b, err := s.Banners.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	b.IsActive = !b.IsActive
	if err := s.Banners.Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// BannerPosition is one entry of a reorder request.
type BannerPosition struct {
	ID           string `json:"id"`
	DisplayOrder int    `json:"displayOrder"`
}

// ReorderBanners applies display positions. Unknown banners are skipped.
func (s *Service) ReorderBanners(ctx context.Context, positions []BannerPosition) error {
	if positions == nil {
		return apperr.BadRequest("Invalid data format")
	}
	for _, p := range positions {
		id, err := utils.ParseObjectID(p.ID)
		if err != nil {
			return err
		}
		if err := s.banners.Update(ctx, id, bson.M{"displayOrder": p.DisplayOrder}); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
	}
	rdx.Invalidate(ctx, s.cache, rdx.KeyActiveBanners)
	return nil
}

var locationOrder = bson.D{{Key: "displayOrder", Value: 1}, {Key: "city", Value: 1}}

func (s *Service) ActiveLocations(ctx context.Context) ([]models.Location, error) {
	var out []models.Location
	err := rdx.Remember(ctx, s.cache, rdx.KeyActiveLocations, cacheTTL, &out, func() (any, error) {
		list, _, err := s.Locations.List(ctx, bson.M{"isActive": true}, repo.ListOptions{Sort: locationOrder})
		return list, err
	})
	return out, err
}

func (s *Service) AllLocations(ctx context.Context) ([]models.Location, error) {
	list, _, err := s.Locations.List(ctx, bson.M{}, repo.ListOptions{Sort: locationOrder})
	return list, err
}

func (s *Service) LocationsByState(ctx context.Context, state string) ([]models.Location, error) {
	list, _, err := s.Locations.List(ctx, bson.M{"state": state, "isActive": true}, repo.ListOptions{Sort: locationOrder})
	return list, err
}

// States lists the distinct states with an active location, sorted.
func (s *Service) States(ctx context.Context) ([]string, error) {
	var out []string
	err := rdx.Remember(ctx, s.cache, rdx.KeyLocationStates, cacheTTL, &out, func() (any, error) {
		states, err := s.locations.Distinct(ctx, "state", bson.M{"isActive": true})
		if err != nil {
			return nil, err
		}
		sort.Strings(states)
		return states, nil
	})
	return out, err
}

func (s *Service) ToggleLocation(ctx context.Context, id string) (*models.Location, error) {
	l, err := s.Locations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	l.IsActive = !l.IsActive
	if err := s.Locations.Save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) ListAbout(ctx context.Context) ([]models.About, error) {
	list, _, err := s.About.List(ctx, bson.M{}, repo.ListOptions{})
	return list, err
}
