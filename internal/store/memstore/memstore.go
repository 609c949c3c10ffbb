// Package memstore is an in-process store.Store used for local runs without
// Postgres and as the backing store in tests.
package memstore

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
)

type data struct {
	users    map[uuid.UUID]models.User
	attrs    map[uuid.UUID]map[string]datatypes.JSON
	tasks    map[uuid.UUID]models.Task
	bids     map[uuid.UUID]models.Bid
	orders   map[uuid.UUID]models.PaymentOrder
	vendors  map[uuid.UUID]models.VendorProfile
	messages []models.Message
}

func newData() *data {
	return &data{
		users:   map[uuid.UUID]models.User{},
		attrs:   map[uuid.UUID]map[string]datatypes.JSON{},
		tasks:   map[uuid.UUID]models.Task{},
		bids:    map[uuid.UUID]models.Bid{},
		orders:  map[uuid.UUID]models.PaymentOrder{},
		vendors: map[uuid.UUID]models.VendorProfile{},
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, m := range d.attrs {
		cm := make(map[string]datatypes.JSON, len(m))
		for kk, vv := range m {
			cm[kk] = vv
		}
		c.attrs[k] = cm
	}
	for k, v := range d.tasks {
		c.tasks[k] = v
	}
	for k, v := range d.bids {
		c.bids[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = v
	}
	for k, v := range d.vendors {
		c.vendors[k] = v
	}
	c.messages = append([]models.Message(nil), d.messages...)
	return c
}

// Store guards a data set with one mutex. Transaction holds the lock for the
// whole callback and restores a snapshot on error.
type Store struct {
	mu  sync.Mutex
	d   *data
	now func() time.Time
}

func New() *Store {
	return &Store{d: newData(), now: time.Now}
}

// WithClock sets the timestamp source for CreatedAt/UpdatedAt fields.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) view() *view { return &view{d: s.d, now: s.now} }

// Messages returns a copy of every persisted message, oldest first.
func (s *Store) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.d.messages...)
}

// VendorProfiles returns a copy of every vendor profile.
func (s *Store) VendorProfiles() []models.VendorProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.VendorProfile, 0, len(s.d.vendors))
	for _, v := range s.d.vendors {
		out = append(out, v)
	}
	return out
}

func (s *Store) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.d.clone()
	if err := fn(s.view()); err != nil {
		s.d = snap
		return err
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetUser(ctx, id)
}

func (s *Store) FindUserByLogin(ctx context.Context, loginOrEmail string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().FindUserByLogin(ctx, loginOrEmail)
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CreateUser(ctx, u)
}

func (s *Store) SetUserRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().SetUserRole(ctx, id, role)
}

func (s *Store) UserAttribute(ctx context.Context, userID uuid.UUID, key string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().UserAttribute(ctx, userID, key)
}

func (s *Store) SetUserAttribute(ctx context.Context, userID uuid.UUID, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().SetUserAttribute(ctx, userID, key, value)
}

func (s *Store) UsersWithAttribute(ctx context.Context, keys ...string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().UsersWithAttribute(ctx, keys...)
}

func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetTask(ctx, id)
}

func (s *Store) CreateTask(ctx context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CreateTask(ctx, t)
}

func (s *Store) SetTaskStatus(ctx context.Context, id uuid.UUID, status models.TaskStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().SetTaskStatus(ctx, id, status)
}

func (s *Store) GetBid(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetBid(ctx, id)
}

func (s *Store) CreateBid(ctx context.Context, b *models.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CreateBid(ctx, b)
}

func (s *Store) AcceptBid(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().AcceptBid(ctx, id)
}

func (s *Store) CountUnseenBids(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CountUnseenBids(ctx, ownerID)
}

func (s *Store) MarkBidsSeen(ctx context.Context, taskID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().MarkBidsSeen(ctx, taskID)
}

func (s *Store) GetPaymentOrder(ctx context.Context, id uuid.UUID) (*models.PaymentOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetPaymentOrder(ctx, id)
}

func (s *Store) CreatePaymentOrder(ctx context.Context, o *models.PaymentOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CreatePaymentOrder(ctx, o)
}

func (s *Store) SetPaymentOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.PaymentOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().SetPaymentOrderStatus(ctx, id, status)
}

func (s *Store) OrdersBetween(ctx context.Context, buyerID, workerID uuid.UUID, statuses []models.OrderStatus) ([]models.PaymentOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().OrdersBetween(ctx, buyerID, workerID, statuses)
}

func (s *Store) GetVendorProfile(ctx context.Context, id uuid.UUID) (*models.VendorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetVendorProfile(ctx, id)
}

func (s *Store) FindVendorProfileByUser(ctx context.Context, userID uuid.UUID) (*models.VendorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().FindVendorProfileByUser(ctx, userID)
}

func (s *Store) CreateVendorProfile(ctx context.Context, p *models.VendorProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CreateVendorProfile(ctx, p)
}

func (s *Store) SendSystemMessage(ctx context.Context, m store.SystemMessage) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().SendSystemMessage(ctx, m)
}

func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CreateMessage(ctx, m)
}

// view does the actual work and assumes the caller holds the lock.
type view struct {
	d   *data
	now func() time.Time
}

func (v *view) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(v)
}

func (v *view) stamp(id *uuid.UUID, created, updated *time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	now := v.now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func (v *view) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := v.d.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (v *view) FindUserByLogin(_ context.Context, loginOrEmail string) (*models.User, error) {
	needle := strings.ToLower(strings.TrimSpace(loginOrEmail))
	for _, u := range v.d.users {
		if strings.ToLower(u.Login) == needle || strings.ToLower(u.Email) == needle {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (v *view) CreateUser(_ context.Context, u *models.User) error {
	for _, existing := range v.d.users {
		if strings.EqualFold(existing.Login, u.Login) || strings.EqualFold(existing.Email, u.Email) {
			return store.ErrDuplicate
		}
	}
	v.stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	v.d.users[u.ID] = *u
	return nil
}

func (v *view) SetUserRole(_ context.Context, id uuid.UUID, role models.Role) error {
	u, ok := v.d.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = v.now()
	v.d.users[id] = u
	return nil
}

func (v *view) UserAttribute(_ context.Context, userID uuid.UUID, key string) (any, error) {
	raw, ok := v.d.attrs[userID][key]
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (v *view) SetUserAttribute(_ context.Context, userID uuid.UUID, key string, value any) error {
	if _, ok := v.d.users[userID]; !ok {
		return store.ErrNotFound
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m := v.d.attrs[userID]
	if m == nil {
		m = map[string]datatypes.JSON{}
		v.d.attrs[userID] = m
	}
	m[key] = datatypes.JSON(raw)
	return nil
}

func (v *view) UsersWithAttribute(ctx context.Context, keys ...string) ([]models.User, error) {
	var out []models.User
	for id, u := range v.d.users {
		for _, k := range keys {
			val, err := v.UserAttribute(ctx, id, k)
			if err != nil {
				return nil, err
			}
			if !store.Empty(val) {
				out = append(out, u)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (v *view) GetTask(_ context.Context, id uuid.UUID) (*models.Task, error) {
	t, ok := v.d.tasks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

func (v *view) CreateTask(_ context.Context, t *models.Task) error {
	if t.Status == "" {
		t.Status = models.TaskPublished
	}
	v.stamp(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	v.d.tasks[t.ID] = *t
	return nil
}

func (v *view) SetTaskStatus(_ context.Context, id uuid.UUID, status models.TaskStatus) (bool, error) {
	t, ok := v.d.tasks[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if t.Status == status {
		return false, nil
	}
	t.Status = status
	t.UpdatedAt = v.now()
	v.d.tasks[id] = t
	return true, nil
}

func (v *view) GetBid(_ context.Context, id uuid.UUID) (*models.Bid, error) {
	b, ok := v.d.bids[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (v *view) CreateBid(_ context.Context, b *models.Bid) error {
	if _, ok := v.d.tasks[b.TaskID]; !ok {
		return store.ErrNotFound
	}
	v.stamp(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	v.d.bids[b.ID] = *b
	return nil
}

func (v *view) AcceptBid(_ context.Context, id uuid.UUID) (bool, error) {
	b, ok := v.d.bids[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if b.Accepted {
		return false, nil
	}
	b.Accepted = true
	b.UpdatedAt = v.now()
	v.d.bids[id] = b
	return true, nil
}

func (v *view) CountUnseenBids(_ context.Context, ownerID uuid.UUID) (int64, error) {
	var n int64
	for _, b := range v.d.bids {
		if b.SeenByTaskOwner {
			continue
		}
		if t, ok := v.d.tasks[b.TaskID]; ok && t.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (v *view) MarkBidsSeen(_ context.Context, taskID uuid.UUID) (int64, error) {
	var n int64
	for id, b := range v.d.bids {
		if b.TaskID != taskID || b.SeenByTaskOwner {
			continue
		}
		b.SeenByTaskOwner = true
		b.UpdatedAt = v.now()
		v.d.bids[id] = b
		n++
	}
	return n, nil
}

func (v *view) GetPaymentOrder(_ context.Context, id uuid.UUID) (*models.PaymentOrder, error) {
	o, ok := v.d.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &o, nil
}

func (v *view) CreatePaymentOrder(_ context.Context, o *models.PaymentOrder) error {
	if o.Status == "" {
		o.Status = models.OrderPending
	}
	v.stamp(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	v.d.orders[o.ID] = *o
	return nil
}

func (v *view) SetPaymentOrderStatus(_ context.Context, id uuid.UUID, status models.OrderStatus) (*models.PaymentOrder, error) {
	o, ok := v.d.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = v.now()
	if status.Paid() && o.PaidAt == nil {
		paid := o.UpdatedAt
		o.PaidAt = &paid
	}
	v.d.orders[id] = o
	return &o, nil
}

func (v *view) OrdersBetween(_ context.Context, buyerID, workerID uuid.UUID, statuses []models.OrderStatus) ([]models.PaymentOrder, error) {
	want := map[models.OrderStatus]bool{}
	for _, s := range statuses {
		want[s] = true
	}
	var out []models.PaymentOrder
	for _, o := range v.d.orders {
		if o.BuyerID != buyerID || !want[o.Status] {
			continue
		}
		if vp, ok := v.d.vendors[o.VendorID]; ok && vp.UserID == workerID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (v *view) GetVendorProfile(_ context.Context, id uuid.UUID) (*models.VendorProfile, error) {
	p, ok := v.d.vendors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (v *view) FindVendorProfileByUser(_ context.Context, userID uuid.UUID) (*models.VendorProfile, error) {
	for _, p := range v.d.vendors {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (v *view) CreateVendorProfile(_ context.Context, p *models.VendorProfile) error {
	for _, existing := range v.d.vendors {
		if existing.UserID == p.UserID {
			return store.ErrDuplicate
		}
	}
	if p.Status == "" {
		p.Status = models.VendorPublished
	}
	v.stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	v.d.vendors[p.ID] = *p
	return nil
}

func (v *view) SendSystemMessage(ctx context.Context, m store.SystemMessage) (*models.Message, error) {
	for _, existing := range v.d.messages {
		if existing.BidID != nil && *existing.BidID == m.BidID {
			return nil, store.ErrDuplicate
		}
	}
	taskID, bidID := m.TaskID, m.BidID
	msg := &models.Message{
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		TaskID:      &taskID,
		BidID:       &bidID,
		Type:        models.MessageSystem,
		Text:        m.Text,
	}
	if err := v.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (v *view) CreateMessage(_ context.Context, m *models.Message) error {
	if m.Type == "" {
		m.Type = models.MessageText
	}
	v.stamp(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	v.d.messages = append(v.d.messages, *m)
	return nil
}

var _ store.Store = (*Store)(nil)
var _ store.Store = (*view)(nil)
