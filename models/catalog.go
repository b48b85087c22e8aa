package models

import (
	"time"

	"makeeasy/apperr"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Key       string             `bson:"key" json:"key"`
	Icon      string             `bson:"icon,omitempty" json:"icon,omitempty"`
	Path      string             `bson:"path" json:"path"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (c *Category) Validate() error {
	var v apperr.ValidationError
	if c.Name == "" {
		v.Add("Please add a category name")
	} else if len(c.Name) > 50 {
		v.Add("Name cannot be more than 50 characters")
	}
	if c.Key == "" {
		v.Add("Please add a category key")
	}
	if c.Path == "" {
		v.Add("Please add a category path")
	}
	return v.OrNil()
}

// TenurePricing is the monthly rent for one commitment length.
type TenurePricing struct {
	Months          int     `bson:"months" json:"months"`
	MonthlyRent     float64 `bson:"monthlyRent" json:"monthlyRent"`
	DiscountPercent float64 `bson:"discountPercent,omitempty" json:"discountPercent,omitempty"`
}

// CityPricing is a product's rental terms in one city.
type CityPricing struct {
	City           string          `bson:"city" json:"city"`
	Deposit        float64         `bson:"deposit" json:"deposit"`
	DeliveryCharge float64         `bson:"deliveryCharge" json:"deliveryCharge"`
	Stock          int             `bson:"stock" json:"stock"`
	Available      bool            `bson:"available" json:"available"`
	Tenures        []TenurePricing `bson:"tenures" json:"tenures"`
}

type Product struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title              string             `bson:"title" json:"title"`
	Description        string             `bson:"description,omitempty" json:"description,omitempty"`
	Price              float64            `bson:"price" json:"price"`
	Location           string             `bson:"location" json:"location"`
	Category           string             `bson:"category" json:"category"`
	ImageURL           string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Images             []string           `bson:"images,omitempty" json:"images,omitempty"`
	Specifications     map[string]string  `bson:"specifications,omitempty" json:"specifications,omitempty"`
	Available          bool               `bson:"available" json:"available"`
	Featured           bool               `bson:"featured" json:"featured"`
	EarlyClosureCharge *float64           `bson:"earlyClosureCharge,omitempty" json:"earlyClosureCharge,omitempty"`
	CityPricing        []CityPricing      `bson:"cityPricing,omitempty" json:"cityPricing,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (p *Product) Validate() error {
	var v apperr.ValidationError
	if p.Title == "" {
		v.Add("Please add a product title")
	} else if len(p.Title) > 100 {
		v.Add("Title cannot be more than 100 characters")
	}
	if len(p.Description) > 500 {
		v.Add("Description cannot be more than 500 characters")
	}
	if p.Price < 0 {
		v.Add("Price must be at least 0")
	}
	if p.Location == "" {
		v.Add("Please add a location")
	}
	if p.Category == "" {
		v.Add("Please add a category")
	}
	for _, cp := range p.CityPricing {
		if cp.City == "" {
			v.Add("City pricing requires a city")
		}
		for _, t := range cp.Tenures {
			if t.Months < 1 {
				v.Add("Tenure must be at least 1 month")
			}
		}
	}
	return v.OrNil()
}

// ProductSummary is the projection embedded when a product is populated.
type ProductSummary struct {
	ID             primitive.ObjectID `bson:"_id" json:"_id"`
	Title          string             `bson:"title" json:"title"`
	Price          float64            `bson:"price,omitempty" json:"price,omitempty"`
	Images         []string           `bson:"images,omitempty" json:"images,omitempty"`
	ImageURL       string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Specifications map[string]string  `bson:"specifications,omitempty" json:"specifications,omitempty"`
}

type Service struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Icon        string             `bson:"icon,omitempty" json:"icon,omitempty"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	Price       float64            `bson:"price" json:"price"`
	Available   bool               `bson:"available" json:"available"`
	Featured    bool               `bson:"featured" json:"featured"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (s *Service) Validate() error {
	var v apperr.ValidationError
	if s.Title == "" {
		v.Add("Please add a service title")
	} else if len(s.Title) > 100 {
		v.Add("Title cannot be more than 100 characters")
	}
	if len(s.Description) > 500 {
		v.Add("Description cannot be more than 500 characters")
	}
	if s.Price < 0 {
		v.Add("Price must be at least 0")
	}
	return v.OrNil()
}

type AddOnType string

const (
	AddOnDamageProtection AddOnType = "damage_protection"
	AddOnInsurance        AddOnType = "insurance"
	AddOnAccessory        AddOnType = "accessory"
	AddOnServicePlan      AddOnType = "service_plan"
)

type AddOn struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name                 string             `bson:"name" json:"name"`
	Description          string             `bson:"description,omitempty" json:"description,omitempty"`
	Type                 AddOnType          `bson:"type" json:"type"`
	MonthlyCharge        float64            `bson:"monthlyCharge" json:"monthlyCharge"`
	OneTimeCharge        float64            `bson:"oneTimeCharge" json:"oneTimeCharge"`
	Coverage             string             `bson:"coverage,omitempty" json:"coverage,omitempty"`
	Inclusions           []string           `bson:"inclusions,omitempty" json:"inclusions,omitempty"`
	Exclusions           []string           `bson:"exclusions,omitempty" json:"exclusions,omitempty"`
	MaxCoverageAmount    float64            `bson:"maxCoverageAmount,omitempty" json:"maxCoverageAmount,omitempty"`
	Terms                string             `bson:"terms,omitempty" json:"terms,omitempty"`
	ImageURL             string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Active               bool               `bson:"active" json:"active"`
	DisplayOrder         int                `bson:"displayOrder" json:"displayOrder"`
	ApplicableCategories []string           `bson:"applicableCategories,omitempty" json:"applicableCategories,omitempty"`
	CreatedAt            time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (a *AddOn) Validate() error {
	var v apperr.ValidationError
	if a.Name == "" {
		v.Add("Please add an add-on name")
	}
	switch a.Type {
	case AddOnDamageProtection, AddOnInsurance, AddOnAccessory, AddOnServicePlan:
	default:
		v.Add("Please add a valid add-on type")
	}
	if a.MonthlyCharge < 0 || a.OneTimeCharge < 0 {
		v.Add("Charges cannot be negative")
	}
	return v.OrNil()
}

type Banner struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title        string             `bson:"title" json:"title"`
	Subtitle     string             `bson:"subtitle,omitempty" json:"subtitle,omitempty"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Image        string             `bson:"image" json:"image"`
	Link         string             `bson:"link,omitempty" json:"link,omitempty"`
	ButtonText   string             `bson:"buttonText,omitempty" json:"buttonText,omitempty"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	DisplayOrder int                `bson:"displayOrder" json:"displayOrder"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (b *Banner) Validate() error {
	var v apperr.ValidationError
	if b.Title == "" {
		v.Add("Please add a banner title")
	}
	if b.Image == "" {
		v.Add("Please add a banner image")
	}
	return v.OrNil()
}

type Location struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	City         string             `bson:"city" json:"city"`
	District     string             `bson:"district,omitempty" json:"district,omitempty"`
	State        string             `bson:"state" json:"state"`
	Icon         string             `bson:"icon,omitempty" json:"icon,omitempty"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	DisplayOrder int                `bson:"displayOrder" json:"displayOrder"`
	IsNew        bool               `bson:"isNew" json:"isNew"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (l *Location) Validate() error {
	var v apperr.ValidationError
	if l.City == "" {
		v.Add("Please add a city")
	}
	if l.State == "" {
		v.Add("Please add a state")
	}
	return v.OrNil()
}

type AboutMission struct {
	Title    string `bson:"title" json:"title"`
	Subtitle string `bson:"subtitle" json:"subtitle"`
	LogoURL  string `bson:"logoUrl,omitempty" json:"logoUrl,omitempty"`
}

type AboutStory struct {
	Heading     string            `bson:"heading,omitempty" json:"heading,omitempty"`
	Description string            `bson:"description" json:"description"`
	Highlights  map[string]string `bson:"highlights,omitempty" json:"highlights,omitempty"`
}

type CoreValue struct {
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description" json:"description"`
}

type TeamMember struct {
	Name     string            `bson:"name" json:"name"`
	Role     string            `bson:"role" json:"role"`
	Bio      string            `bson:"bio" json:"bio"`
	ImageURL string            `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Socials  map[string]string `bson:"socials,omitempty" json:"socials,omitempty"`
}

type BlogEntry struct {
	Category    string    `bson:"category" json:"category"`
	Date        time.Time `bson:"date" json:"date"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description" json:"description"`
	Link        string    `bson:"link,omitempty" json:"link,omitempty"`
}

type Milestone struct {
	Year        string `bson:"year" json:"year"`
	Description string `bson:"description" json:"description"`
}

type LinkButton struct {
	Text string `bson:"text" json:"text"`
	Link string `bson:"link" json:"link"`
}

type Community struct {
	Heading     string       `bson:"heading,omitempty" json:"heading,omitempty"`
	Description string       `bson:"description,omitempty" json:"description,omitempty"`
	Buttons     []LinkButton `bson:"buttons,omitempty" json:"buttons,omitempty"`
}

type About struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Mission        AboutMission       `bson:"mission" json:"mission"`
	Story          AboutStory         `bson:"story" json:"story"`
	CoreValues     []CoreValue        `bson:"coreValues,omitempty" json:"coreValues,omitempty"`
	LeadershipTeam []TeamMember       `bson:"leadershipTeam,omitempty" json:"leadershipTeam,omitempty"`
	Blog           []BlogEntry        `bson:"blog,omitempty" json:"blog,omitempty"`
	Journey        []Milestone        `bson:"journey,omitempty" json:"journey,omitempty"`
	Community      Community          `bson:"community" json:"community"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (a *About) Validate() error {
	var v apperr.ValidationError
	if a.Mission.Title == "" || a.Mission.Subtitle == "" {
		v.Add("Mission title and subtitle are required")
	}
	if a.Story.Description == "" {
		v.Add("Story description is required")
	}
	if a.Story.Heading == "" {
		a.Story.Heading = "Our Story"
	}
	if a.Community.Heading == "" {
		a.Community.Heading = "Join the MakeEasy Community"
	}
	return v.OrNil()
}
