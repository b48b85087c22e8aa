package repo

import (
	"context"
	"time"

	"makeeasy/db"
	"makeeasy/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repos is every repository, built once over a db.Store.
type Repos struct {
	Users           *Users
	Categories      Collection[models.Category]
	Products        Collection[models.Product]
	Services        Collection[models.Service]
	AddOns          *AddOns
	Carts           *Carts
	Orders          *Orders
	Bookings        *Bookings
	KYC             *KYC
	ServiceRequests *ServiceRequests
	Banners         Collection[models.Banner]
	Locations       Collection[models.Location]
	About           Collection[models.About]
	Billing         *Billing
	Idempotency     *Idempotency
}

func New(s *db.Store) *Repos {
	return &Repos{
		Users:           &Users{Collection[models.User]{s.Users}},
		Categories:      Collection[models.Category]{s.Categories},
		Products:        Collection[models.Product]{s.Products},
		Services:        Collection[models.Service]{s.Services},
		AddOns:          &AddOns{Collection[models.AddOn]{s.AddOns}},
		Carts:           &Carts{Collection: Collection[models.Cart]{s.Carts}, products: s.Products, services: s.Services},
		Orders:          &Orders{Collection: Collection[models.Order]{s.Orders}, products: s.Products, services: s.Services, users: s.Users},
		Bookings:        &Bookings{Collection: Collection[models.Booking]{s.Bookings}, products: s.Products, services: s.Services, users: s.Users},
		KYC:             &KYC{Collection: Collection[models.KYC]{s.KYC}, users: s.Users},
		ServiceRequests: &ServiceRequests{Collection: Collection[models.ServiceRequest]{s.ServiceRequests}, products: s.Products, users: s.Users},
		Banners:         Collection[models.Banner]{s.Banners},
		Locations:       Collection[models.Location]{s.Locations},
		About:           Collection[models.About]{s.About},
		Billing:         &Billing{Collection[models.MonthlyBilling]{s.Billing}},
		Idempotency:     &Idempotency{Collection[models.IdempotencyRecord]{s.Idempotency}},
	}
}

type Users struct {
	Collection[models.User]
}

func (r *Users) ByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.FindOne(ctx, bson.M{"email": email})
}

// SetKYC records the user's KYC status and, when given, the KYC record id.
func (r *Users) SetKYC(ctx context.Context, userID primitive.ObjectID, status models.KYCStatus, kycID *primitive.ObjectID) error {
	set := bson.M{"kycStatus": status}
	if kycID != nil {
		set["kycDetails"] = *kycID
	}
	return r.Update(ctx, userID, set)
}

type AddOns struct {
	Collection[models.AddOn]
}

// ActiveByIDs resolves ids to active add-ons; unknown or inactive ids are dropped.
func (r *AddOns) ActiveByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.AddOn, error) {
	return r.ByIDs(ctx, ids, bson.M{"active": true})
}

type Carts struct {
	Collection[models.Cart]
	products *mongo.Collection
	services *mongo.Collection
}

func (r *Carts) ByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	return r.FindOne(ctx, bson.M{"user": userID})
}

// Populate fills the product and service summaries of each cart line.
func (r *Carts) Populate(ctx context.Context, c *models.Cart) error {
	var productIDs, serviceIDs []primitive.ObjectID
	for _, it := range c.Items {
		if it.Product != nil {
			productIDs = append(productIDs, *it.Product)
		}
		if it.Service != nil {
			serviceIDs = append(serviceIDs, *it.Service)
		}
	}

	products := map[primitive.ObjectID]*models.ProductSummary{}
	if err := lookup(ctx, r.products, productIDs, bson.M{"title": 1, "price": 1, "images": 1, "imageUrl": 1}, func(p *models.ProductSummary) {
		products[p.ID] = p
	}); err != nil {
		return err
	}
	services := map[primitive.ObjectID]*models.ServiceSummary{}
	if err := lookup(ctx, r.services, serviceIDs, bson.M{"title": 1, "price": 1, "icon": 1}, func(s *models.ServiceSummary) {
		services[s.ID] = s
	}); err != nil {
		return err
	}

	for i := range c.Items {
		it := &c.Items[i]
		if it.Product != nil {
			it.ProductInfo = products[*it.Product]
		}
		if it.Service != nil {
			it.ServiceInfo = services[*it.Service]
		}
	}
	return nil
}

type Orders struct {
	Collection[models.Order]
	products *mongo.Collection
	services *mongo.Collection
	users    *mongo.Collection
}

// Populate fills item and user summaries on each order.
func (r *Orders) Populate(ctx context.Context, orders []models.Order) error {
	var productIDs, serviceIDs, userIDs []primitive.ObjectID
	for _, o := range orders {
		userIDs = append(userIDs, o.User)
		for _, it := range o.Items {
			if it.Product != nil {
				productIDs = append(productIDs, *it.Product)
			}
			if it.Service != nil {
				serviceIDs = append(serviceIDs, *it.Service)
			}
		}
	}

	products := map[primitive.ObjectID]*models.ProductSummary{}
	if err := lookup(ctx, r.products, productIDs, bson.M{"title": 1, "price": 1, "images": 1, "imageUrl": 1}, func(p *models.ProductSummary) {
		products[p.ID] = p
	}); err != nil {
		return err
	}
	services := map[primitive.ObjectID]*models.ServiceSummary{}
	if err := lookup(ctx, r.services, serviceIDs, bson.M{"title": 1, "price": 1, "icon": 1}, func(s *models.ServiceSummary) {
		services[s.ID] = s
	}); err != nil {
		return err
	}
	users := map[primitive.ObjectID]*models.UserSummary{}
	if err := lookup(ctx, r.users, userIDs, bson.M{"name": 1, "email": 1}, func(u *models.UserSummary) {
		users[u.ID] = u
	}); err != nil {
		return err
	}

	for i := range orders {
		o := &orders[i]
		o.UserInfo = users[o.User]
		for j := range o.Items {
			it := &o.Items[j]
			if it.Product != nil {
				it.ProductInfo = products[*it.Product]
			}
			if it.Service != nil {
				it.ServiceInfo = services[*it.Service]
			}
		}
	}
	return nil
}

type Bookings struct {
	Collection[models.Booking]
	products *mongo.Collection
	services *mongo.Collection
	users    *mongo.Collection
}

// MarkOrderPaid cascades a completed payment to every booking of the order.
func (r *Bookings) MarkOrderPaid(ctx context.Context, orderID primitive.ObjectID) (int64, error) {
	res, err := r.C.UpdateMany(ctx,
		bson.M{"order": orderID},
		bson.M{"$set": bson.M{"paymentStatus": models.PaymentCompleted, "updatedAt": time.Now()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// AttachServiceRequest links a service request back onto its booking.
func (r *Bookings) AttachServiceRequest(ctx context.Context, bookingID, requestID primitive.ObjectID) error {
	_, err := r.C.UpdateOne(ctx,
		bson.M{"_id": bookingID},
		bson.M{"$addToSet": bson.M{"serviceRequests": requestID}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	return err
}

// Populate fills the product, service and user summaries of each booking.
func (r *Bookings) Populate(ctx context.Context, bookings []models.Booking) error {
	var productIDs, serviceIDs, userIDs []primitive.ObjectID
	for _, b := range bookings {
		if b.Product != nil {
			productIDs = append(productIDs, *b.Product)
		}
		if b.Service != nil {
			serviceIDs = append(serviceIDs, *b.Service)
		}
		userIDs = append(userIDs, b.User)
	}

	products := map[primitive.ObjectID]*models.ProductSummary{}
	if err := lookup(ctx, r.products, productIDs, bson.M{"title": 1, "images": 1, "imageUrl": 1, "specifications": 1}, func(p *models.ProductSummary) {
		products[p.ID] = p
	}); err != nil {
		return err
	}
	services := map[primitive.ObjectID]*models.ServiceSummary{}
	if err := lookup(ctx, r.services, serviceIDs, bson.M{"title": 1, "price": 1, "icon": 1, "image": 1}, func(s *models.ServiceSummary) {
		services[s.ID] = s
	}); err != nil {
		return err
	}
	users := map[primitive.ObjectID]*models.UserSummary{}
	if err := lookup(ctx, r.users, userIDs, bson.M{"name": 1, "email": 1, "phone": 1, "kycStatus": 1}, func(u *models.UserSummary) {
		users[u.ID] = u
	}); err != nil {
		return err
	}

	for i := range bookings {
		b := &bookings[i]
		if b.Product != nil {
			b.ProductInfo = products[*b.Product]
		}
		if b.Service != nil {
			b.ServiceInfo = services[*b.Service]
		}
		b.UserInfo = users[b.User]
	}
	return nil
}

// lookup loads projected documents by id and hands each to fn.
func lookup[T any](ctx context.Context, c *mongo.Collection, ids []primitive.ObjectID, projection bson.M, fn func(*T)) error {
	if len(ids) == 0 || c == nil {
		return nil
	}
	cur, err := c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(projection))
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return err
		}
		fn(&v)
	}
	return cur.Err()
}

type KYC struct {
	Collection[models.KYC]
	users *mongo.Collection
}

func (r *KYC) ByUser(ctx context.Context, userID primitive.ObjectID) (*models.KYC, error) {
	return r.FindOne(ctx, bson.M{"user": userID})
}

// Upsert writes the user's single KYC record, creating it if needed.
func (r *KYC) Upsert(ctx context.Context, k *models.KYC) error {
	_, err := r.C.ReplaceOne(ctx, bson.M{"user": k.User}, k, options.Replace().SetUpsert(true))
	return err
}

// PopulateUsers fills the owner and verifier summaries of each record.
func (r *KYC) PopulateUsers(ctx context.Context, records []models.KYC) error {
	ids := make([]primitive.ObjectID, 0, len(records))
	for _, k := range records {
		ids = append(ids, k.User)
		if k.VerifiedBy != nil {
			ids = append(ids, *k.VerifiedBy)
		}
	}
	users := map[primitive.ObjectID]*models.UserSummary{}
	if err := lookup(ctx, r.users, ids, bson.M{"name": 1, "email": 1, "phone": 1, "kycStatus": 1}, func(u *models.UserSummary) {
		users[u.ID] = u
	}); err != nil {
		return err
	}
	for i := range records {
		records[i].UserInfo = users[records[i].User]
		if records[i].VerifiedBy != nil {
			records[i].VerifierInfo = users[*records[i].VerifiedBy]
		}
	}
	return nil
}

// CountByStatus groups KYC records by status.
func (r *KYC) CountByStatus(ctx context.Context) ([]Group, error) {
	return CountBy(ctx, r.C, bson.M{}, "status")
}

type ServiceRequests struct {
	Collection[models.ServiceRequest]
	products *mongo.Collection
	users    *mongo.Collection
}

// Populate fills the requester, product and assignee summaries.
func (r *ServiceRequests) Populate(ctx context.Context, list []models.ServiceRequest) error {
	var productIDs, userIDs []primitive.ObjectID
	for _, sr := range list {
		if sr.Product != nil {
			productIDs = append(productIDs, *sr.Product)
		}
		userIDs = append(userIDs, sr.User)
		if sr.AssignedTo != nil {
			userIDs = append(userIDs, *sr.AssignedTo)
		}
	}

	products := map[primitive.ObjectID]*models.ProductSummary{}
	if err := lookup(ctx, r.products, productIDs, bson.M{"title": 1, "images": 1, "specifications": 1}, func(p *models.ProductSummary) {
		products[p.ID] = p
	}); err != nil {
		return err
	}
	users := map[primitive.ObjectID]*models.UserSummary{}
	if err := lookup(ctx, r.users, userIDs, bson.M{"name": 1, "email": 1, "phone": 1}, func(u *models.UserSummary) {
		users[u.ID] = u
	}); err != nil {
		return err
	}

	for i := range list {
		sr := &list[i]
		if sr.Product != nil {
			sr.ProductInfo = products[*sr.Product]
		}
		sr.UserInfo = users[sr.User]
		if sr.AssignedTo != nil {
			sr.AssigneeInfo = users[*sr.AssignedTo]
		}
	}
	return nil
}

// RequestStats summarises service requests for the admin dashboard.
type RequestStats struct {
	ByStatus      []Group `json:"byStatus"`
	ByType        []Group `json:"byType"`
	ByPriority    []Group `json:"byPriority"`
	AverageRating float64 `json:"averageRating"`
	RatedCount    int64   `json:"ratedCount"`
}

func (r *ServiceRequests) Stats(ctx context.Context) (*RequestStats, error) {
	var (
		st  RequestStats
		err error
	)
	if st.ByStatus, err = CountBy(ctx, r.C, bson.M{}, "status"); err != nil {
		return nil, err
	}
	if st.ByType, err = CountBy(ctx, r.C, bson.M{}, "type"); err != nil {
		return nil, err
	}
	if st.ByPriority, err = CountBy(ctx, r.C, bson.M{}, "priority"); err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"rating": bson.M{"$gte": 1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "avg", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := r.C.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var rows []struct {
		Avg   float64 `bson:"avg"`
		Count int64   `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		st.AverageRating = rows[0].Avg
		st.RatedCount = rows[0].Count
	}
	return &st, nil
}

type Billing struct {
	Collection[models.MonthlyBilling]
}

// MarkOverdue flags pending bills whose due date has passed.
func (r *Billing) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.C.UpdateMany(ctx,
		bson.M{"paymentStatus": models.BillPending, "dueDate": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"paymentStatus": models.BillOverdue, "updatedAt": now}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

type Idempotency struct {
	Collection[models.IdempotencyRecord]
}

func (r *Idempotency) ByKey(ctx context.Context, key string) (*models.IdempotencyRecord, error) {
	return r.FindOne(ctx, bson.M{"key": key})
}

// StoreResponse attaches the captured response to a key.
func (r *Idempotency) StoreResponse(ctx context.Context, key string, response map[string]interface{}) error {
	_, err := r.C.UpdateOne(ctx, bson.M{"key": key}, bson.M{"$set": bson.M{"response": response}})
	return err
}
