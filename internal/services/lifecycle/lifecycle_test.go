package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/verification"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store/memstore"
)

type sentEvent struct {
	UserID uuid.UUID
	Event  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentEvent
}

func (f *fakeNotifier) Notify(_ context.Context, userID uuid.UUID, event string, _ any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEvent{UserID: userID, Event: event})
}

func (f *fakeNotifier) events() []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentEvent(nil), f.sent...)
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	st    *memstore.Store
	lc    *Lifecycle
	notes *fakeNotifier
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		st:    memstore.New(),
		notes: &fakeNotifier{},
		now:   time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC),
	}
	f.st.WithClock(func() time.Time { return f.now })
	f.lc = New(f.st, verification.NewReader(f.st), Config{
		Now:      func() time.Time { return f.now },
		Notifier: f.notes,
	})
	return f
}

func (f *fixture) user(role models.Role) *models.User {
	f.t.Helper()
	login := uuid.NewString()[:8]
	u := &models.User{Login: login, Email: login + "@example.com", Role: role}
	if err := f.st.CreateUser(f.ctx, u); err != nil {
		f.t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func (f *fixture) task(owner *models.User, date *time.Time) *models.Task {
	f.t.Helper()
	task := &models.Task{OwnerID: owner.ID, Title: "Help moving", Budget: 4000, TaskDate: date}
	if err := f.st.CreateTask(f.ctx, task); err != nil {
		f.t.Fatalf("CreateTask: %v", err)
	}
	return task
}

func (f *fixture) bid(task *models.Task, worker *models.User) *models.Bid {
	f.t.Helper()
	b := &models.Bid{TaskID: task.ID, WorkerID: worker.ID, Price: 3500, Message: "I can do it"}
	if err := f.st.CreateBid(f.ctx, b); err != nil {
		f.t.Fatalf("CreateBid: %v", err)
	}
	return b
}

func (f *fixture) vendor(worker *models.User) *models.VendorProfile {
	f.t.Helper()
	vp, _, err := f.lc.EnsureVendorProfile(f.ctx, worker)
	if err != nil {
		f.t.Fatalf("EnsureVendorProfile: %v", err)
	}
	return vp
}

func (f *fixture) paidOrder(buyer *models.User, vp *models.VendorProfile, b *models.Bid, status models.OrderStatus) *models.PaymentOrder {
	f.t.Helper()
	o := &models.PaymentOrder{BuyerID: buyer.ID, VendorID: vp.ID, TaskID: b.TaskID, BidID: b.ID, Amount: 500, Status: status}
	if err := f.st.CreatePaymentOrder(f.ctx, o); err != nil {
		f.t.Fatalf("CreatePaymentOrder: %v", err)
	}
	return o
}

func TestAcceptanceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	requester, worker := f.user(models.RoleRequester), f.user(models.RoleWorker)
	date := f.now.Add(48 * time.Hour)
	task := f.task(requester, &date)
	b := f.bid(task, worker)
	order := f.paidOrder(requester, f.vendor(worker), b, models.OrderCompleted)

	res, err := f.lc.OnPaymentOrderStatusChanged(f.ctx, order)
	if err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if !res.Applied || !res.TaskPrivatized || res.Welcome == nil {
		t.Fatalf("first delivery result = %+v", res)
	}
	if res.Welcome.SenderID != requester.ID || res.Welcome.RecipientID != worker.ID || res.Welcome.Text != DefaultWelcomeText {
		t.Fatalf("welcome = %+v", res.Welcome)
	}
	if res.Welcome.Type != models.MessageSystem {
		t.Fatalf("welcome type = %s", res.Welcome.Type)
	}

	again, err := f.lc.OnPaymentOrderStatusChanged(f.ctx, order)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if again.Applied || again.Welcome != nil {
		t.Fatalf("replay changed state: %+v", again)
	}

	if n := len(f.st.Messages()); n != 1 {
		t.Fatalf("messages = %d, want 1", n)
	}
	gotBid, _ := f.st.GetBid(f.ctx, b.ID)
	gotTask, _ := f.st.GetTask(f.ctx, task.ID)
	if !gotBid.Accepted || gotTask.Status != models.TaskPrivate {
		t.Fatalf("bid accepted=%v task status=%s", gotBid.Accepted, gotTask.Status)
	}

	ev := f.notes.events()
	if len(ev) != 2 || ev[0].Event != EventMessageNew || ev[1].Event != EventBidAccepted || ev[0].UserID != worker.ID {
		t.Fatalf("notifications = %+v", ev)
	}
}

func TestAcceptanceIgnoresUnpaidStatuses(t *testing.T) {
	f := newFixture(t)
	requester, worker := f.user(models.RoleRequester), f.user(models.RoleWorker)
	task := f.task(requester, nil)
	b := f.bid(task, worker)
	vp := f.vendor(worker)

	for _, s := range []models.OrderStatus{models.OrderPending, models.OrderCancelled, models.OrderRefunded, models.OrderFailed} {
		res, err := f.lc.OnPaymentOrderStatusChanged(f.ctx, f.paidOrder(requester, vp, b, s))
		if err != nil || res != nil {
			t.Fatalf("%s: got %+v, %v", s, res, err)
		}
	}
	if got, _ := f.st.GetBid(f.ctx, b.ID); got.Accepted {
		t.Fatal("bid accepted by an unpaid order")
	}
}

func TestAcceptanceEachPaidStatus(t *testing.T) {
	for _, s := range models.PaidOrderStatuses {
		t.Run(string(s), func(t *testing.T) {
			f := newFixture(t)
			requester, worker := f.user(models.RoleRequester), f.user(models.RoleWorker)
			b := f.bid(f.task(requester, nil), worker)
			res, err := f.lc.OnPaymentOrderStatusChanged(f.ctx, f.paidOrder(requester, f.vendor(worker), b, s))
			if err != nil || !res.Applied {
				t.Fatalf("got %+v, %v", res, err)
			}
		})
	}
}

func TestAcceptanceSkipsWelcomeWhenWorkerUnresolved(t *testing.T) {
	f := newFixture(t)
	requester, worker := f.user(models.RoleRequester), f.user(models.RoleWorker)
	task := f.task(requester, nil)
	b := f.bid(task, worker)
	order := f.paidOrder(requester, &models.VendorProfile{ID: uuid.New()}, b, models.OrderProcessing)

	res, err := f.lc.OnPaymentOrderStatusChanged(f.ctx, order)
	if err != nil {
		t.Fatalf("OnPaymentOrderStatusChanged: %v", err)
	}
	if !res.Applied || res.Welcome != nil {
		t.Fatalf("result = %+v", res)
	}
	if got, _ := f.st.GetTask(f.ctx, task.ID); got.Status != models.TaskPrivate {
		t.Fatalf("task status = %s", got.Status)
	}
	if n := len(f.st.Messages()); n != 0 {
		t.Fatalf("messages = %d, want 0", n)
	}
	if len(f.notes.events()) != 0 {
		t.Fatal("no notification expected without a welcome")
	}
}

func TestAcceptanceRejectsForeignBuyer(t *testing.T) {
	f := newFixture(t)
	owner, stranger, worker := f.user(models.RoleRequester), f.user(models.RoleRequester), f.user(models.RoleWorker)
	task := f.task(owner, nil)
	b := f.bid(task, worker)
	order := f.paidOrder(stranger, f.vendor(worker), b, models.OrderCompleted)

	if _, err := f.lc.OnPaymentOrderStatusChanged(f.ctx, order); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if got, _ := f.st.GetBid(f.ctx, b.ID); got.Accepted {
		t.Fatal("bid accepted for a foreign buyer")
	}

	other := f.task(owner, nil)
	mismatched := &models.PaymentOrder{BuyerID: owner.ID, VendorID: order.VendorID, TaskID: other.ID, BidID: b.ID, Status: models.OrderCompleted}
	if _, err := f.lc.OnPaymentOrderStatusChanged(f.ctx, mismatched); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for bid on another task, got %v", err)
	}
}

func TestVendorProvisionedOnce(t *testing.T) {
	f := newFixture(t)
	worker := f.user(models.RoleWorker)

	for i := 0; i < 3; i++ {
		st, err := f.lc.OnUserLoggedIn(f.ctx, worker.ID)
		if err != nil {
			t.Fatalf("login %d: %v", i, err)
		}
		if st.VendorProfile == nil || st.VendorProfile.UserID != worker.ID {
			t.Fatalf("login %d: vendor = %+v", i, st.VendorProfile)
		}
		if st.VendorProvisioned != (i == 0) {
			t.Fatalf("login %d: provisioned = %v", i, st.VendorProvisioned)
		}
	}
	if n := len(f.st.VendorProfiles()); n != 1 {
		t.Fatalf("vendor profiles = %d, want 1", n)
	}

	requester := f.user(models.RoleRequester)
	st, err := f.lc.OnUserRegistered(f.ctx, requester.ID)
	if err != nil {
		t.Fatal(err)
	}
	if st.VendorProfile != nil || len(f.st.VendorProfiles()) != 1 {
		t.Fatal("requesters get no vendor profile")
	}
}

func TestVendorProvisioningRespectsDraftProfile(t *testing.T) {
	f := newFixture(t)
	worker := f.user(models.RoleWorker)
	draft := &models.VendorProfile{UserID: worker.ID, Status: models.VendorDraft}
	if err := f.st.CreateVendorProfile(f.ctx, draft); err != nil {
		t.Fatal(err)
	}

	vp, created, err := f.lc.EnsureVendorProfile(f.ctx, worker)
	if err != nil || created || vp.ID != draft.ID {
		t.Fatalf("got %+v created=%v err=%v", vp, created, err)
	}
}

func TestAssignRegistrationRole(t *testing.T) {
	f := newFixture(t)
	u := f.user(models.RoleSubscriber)

	if err := f.lc.AssignRegistrationRole(f.ctx, u.ID, "admin"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("admin: %v", err)
	}
	if err := f.lc.AssignRegistrationRole(f.ctx, u.ID, "bee"); err != nil {
		t.Fatalf("bee: %v", err)
	}
	if err := f.lc.AssignRegistrationRole(f.ctx, u.ID, "bee"); err != nil {
		t.Fatalf("repeat: %v", err)
	}
	if err := f.lc.AssignRegistrationRole(f.ctx, u.ID, "requestor"); !errors.Is(err, ErrRoleAlreadyAssigned) {
		t.Fatalf("switch: %v", err)
	}
	got, _ := f.st.GetUser(f.ctx, u.ID)
	if got.Role != models.RoleWorker {
		t.Fatalf("role = %s", got.Role)
	}
}

func TestSessionTermsAndLanding(t *testing.T) {
	f := newFixture(t)
	worker := f.user(models.RoleWorker)

	st, err := f.lc.OnUserLoggedIn(f.ctx, worker.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !st.TermsRequired || st.TermsRevision != "v1" || st.Landing != "/requests/" {
		t.Fatalf("state = %+v", st)
	}

	_ = f.st.SetUserAttribute(f.ctx, worker.ID, verification.TermsKey("v1"), f.now.Unix())
	st, _ = f.lc.OnUserLoggedIn(f.ctx, worker.ID)
	if st.TermsRequired {
		t.Fatal("terms still required after acceptance")
	}

	admin := f.user(models.RoleAdmin)
	st, _ = f.lc.OnUserLoggedIn(f.ctx, admin.ID)
	if st.TermsRequired || st.Landing != "/" {
		t.Fatalf("admin state = %+v", st)
	}

	if Landing(models.RoleRequester) != "/submit-request/details/" {
		t.Fatal("requester landing")
	}
}

func TestCanCommunicateWindow(t *testing.T) {
	f := newFixture(t)
	requester, worker := f.user(models.RoleRequester), f.user(models.RoleWorker)
	date := f.now.Add(time.Hour)
	task := f.task(requester, &date)
	b := f.bid(task, worker)
	f.paidOrder(requester, f.vendor(worker), b, models.OrderCompleted)

	check := func(want bool) {
		t.Helper()
		ab, err := f.lc.CanCommunicate(f.ctx, requester, worker)
		if err != nil {
			t.Fatal(err)
		}
		ba, err := f.lc.CanCommunicate(f.ctx, worker, requester)
		if err != nil {
			t.Fatal(err)
		}
		if ab != ba {
			t.Fatalf("asymmetric result %v/%v at %s", ab, ba, f.now)
		}
		if ab != want {
			t.Fatalf("CanCommunicate at %s = %v, want %v", f.now, ab, want)
		}
	}

	check(true)
	f.now = date.Add(24 * time.Hour)
	check(true)
	f.now = date.Add(24*time.Hour + time.Second)
	check(false)
}

func TestCanCommunicateRequiresPaidOrder(t *testing.T) {
	f := newFixture(t)
	requester, worker, stranger := f.user(models.RoleRequester), f.user(models.RoleWorker), f.user(models.RoleWorker)
	b := f.bid(f.task(requester, nil), worker)
	vp := f.vendor(worker)

	if ok, _ := f.lc.CanCommunicate(f.ctx, requester, worker); ok {
		t.Fatal("eligible without any order")
	}
	f.paidOrder(requester, vp, b, models.OrderPending)
	if ok, _ := f.lc.CanCommunicate(f.ctx, requester, worker); ok {
		t.Fatal("eligible with a pending order")
	}
	f.paidOrder(requester, vp, b, models.OrderOnHold)
	if ok, _ := f.lc.CanCommunicate(f.ctx, worker, requester); !ok {
		t.Fatal("not eligible with an on-hold order and no task date")
	}
	if ok, _ := f.lc.CanCommunicate(f.ctx, requester, stranger); ok {
		t.Fatal("eligible with an unrelated worker")
	}
	if ok, _ := f.lc.CanCommunicate(f.ctx, worker, worker); ok {
		t.Fatal("self messaging allowed")
	}

	admin := f.user(models.RoleAdmin)
	if ok, _ := f.lc.CanCommunicate(f.ctx, admin, stranger); !ok {
		t.Fatal("admin not eligible")
	}
	if ok, _ := f.lc.CanCommunicate(f.ctx, stranger, admin); !ok {
		t.Fatal("messaging an admin not eligible")
	}
}

func TestCanCommunicateMissingTask(t *testing.T) {
	f := newFixture(t)
	requester, worker := f.user(models.RoleRequester), f.user(models.RoleWorker)
	vp := f.vendor(worker)
	o := &models.PaymentOrder{BuyerID: requester.ID, VendorID: vp.ID, TaskID: uuid.New(), BidID: uuid.New(), Status: models.OrderCompleted}
	_ = f.st.CreatePaymentOrder(f.ctx, o)

	ok, err := f.lc.CanCommunicate(f.ctx, requester, worker)
	if err != nil || ok {
		t.Fatalf("got %v, %v", ok, err)
	}
}

func TestViewTaskMarksBidsSeenForOwner(t *testing.T) {
	f := newFixture(t)
	owner, worker := f.user(models.RoleRequester), f.user(models.RoleWorker)
	task := f.task(owner, nil)
	f.bid(task, worker)
	f.bid(task, worker)

	if n, _ := f.lc.UnseenBidCount(f.ctx, owner.ID); n != 2 {
		t.Fatalf("unseen = %d", n)
	}
	if _, err := f.lc.ViewTask(f.ctx, worker, task.ID); err != nil {
		t.Fatal(err)
	}
	if n, _ := f.lc.UnseenBidCount(f.ctx, owner.ID); n != 2 {
		t.Fatalf("a non-owner view changed the count to %d", n)
	}
	if _, err := f.lc.ViewTask(f.ctx, owner, task.ID); err != nil {
		t.Fatal(err)
	}
	if n, _ := f.lc.UnseenBidCount(f.ctx, owner.ID); n != 0 {
		t.Fatalf("unseen after owner view = %d", n)
	}
	if _, err := f.lc.ViewTask(f.ctx, owner, uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing task: %v", err)
	}
}

func TestCheckoutThroughAcceptance(t *testing.T) {
	f := newFixture(t)
	owner, stranger, worker := f.user(models.RoleRequester), f.user(models.RoleRequester), f.user(models.RoleWorker)
	date := f.now.Add(72 * time.Hour)
	b := f.bid(f.task(owner, &date), worker)

	if _, err := f.lc.OpenCheckout(f.ctx, stranger, b.ID, 500); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("stranger checkout: %v", err)
	}

	order, err := f.lc.OpenCheckout(f.ctx, owner, b.ID, 500)
	if err != nil {
		t.Fatalf("OpenCheckout: %v", err)
	}
	if order.Status != models.OrderPending || order.Amount != 500 || order.BidAmount != b.Price {
		t.Fatalf("order = %+v", order)
	}
	vp, err := f.st.FindVendorProfileByUser(f.ctx, worker.ID)
	if err != nil || vp.ID != order.VendorID {
		t.Fatalf("vendor %v / %v", vp, err)
	}

	paid, err := f.st.SetPaymentOrderStatus(f.ctx, order.ID, models.OrderProcessing)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.lc.OnPaymentOrderStatusChanged(f.ctx, paid); err != nil {
		t.Fatal(err)
	}
	if ok, _ := f.lc.CanCommunicate(f.ctx, owner, worker); !ok {
		t.Fatal("paid booking should open messaging")
	}

	if _, err := f.lc.OpenCheckout(f.ctx, owner, b.ID, 500); !errors.Is(err, ErrBidAlreadyAccepted) {
		t.Fatalf("checkout of accepted bid: %v", err)
	}
}

func TestConcurrentProvisioningAndAcceptance(t *testing.T) {
	f := newFixture(t)
	requester, worker := f.user(models.RoleRequester), f.user(models.RoleWorker)
	date := f.now.Add(48 * time.Hour)
	task := f.task(requester, &date)
	b := f.bid(task, worker)
	order := f.paidOrder(requester, f.vendor(worker), b, models.OrderProcessing)

	const n = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := f.lc.OnUserLoggedIn(f.ctx, worker.ID); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
		go func() {
			defer wg.Done()
			o := *order
			res, err := f.lc.OnPaymentOrderStatusChanged(f.ctx, &o)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if res.Applied {
				applied++
			}
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("concurrent calls failed: %v", errs)
	}
	if applied != 1 {
		t.Fatalf("applied = %d, want 1", applied)
	}
	if got := len(f.st.VendorProfiles()); got != 1 {
		t.Fatalf("vendor profiles = %d, want 1", got)
	}
	if got := len(f.st.Messages()); got != 1 {
		t.Fatalf("messages = %d, want 1", got)
	}
}
