package pickup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/samudra-paket/erp/backend/internal/models"
	"github.com/samudra-paket/erp/backend/internal/repositories"
	"github.com/samudra-paket/erp/backend/pkg/logger"
	"github.com/samudra-paket/erp/backend/validators"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeItemRepo is an in-memory repositories.PickupItemRepository.
type fakeItemRepo struct {
	items   map[primitive.ObjectID]*models.PickupItem
	saveErr error
	saves   int

	// stale is served once by GetItemByID instead of the stored item, as if read before a concurrent write.
	stale map[primitive.ObjectID]*models.PickupItem
	reads int
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: map[primitive.ObjectID]*models.PickupItem{}}
}

func (f *fakeItemRepo) CreateItem(_ context.Context, item *models.PickupItem) error {
	for _, existing := range f.items {
		if existing.Code == item.Code {
			return fmt.Errorf("pickup item %s: %w", item.Code, models.ErrDuplicateCode)
		}
	}
	item.ID = primitive.NewObjectID()
	item.Version = 1
	item.ComputeWeights()
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeItemRepo) GetItemByID(_ context.Context, id primitive.ObjectID) (*models.PickupItem, error) {
	f.reads++
	if old, ok := f.stale[id]; ok {
		delete(f.stale, id)
		cp := *old
		return &cp, nil
	}
	item, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("pickup item %s: %w", id.Hex(), models.ErrNotFound)
	}
	cp := *item
	cp.Images = append([]models.ItemImage(nil), item.Images...)
	return &cp, nil
}

func (f *fakeItemRepo) GetItemsByRequestID(_ context.Context, requestID primitive.ObjectID) ([]models.PickupItem, error) {
	var out []models.PickupItem
	for _, item := range f.items {
		if item.PickupRequestID == requestID {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f *fakeItemRepo) CountItemsByRequestID(ctx context.Context, requestID primitive.ObjectID) (int64, error) {
	items, _ := f.GetItemsByRequestID(ctx, requestID)
	return int64(len(items)), nil
}

func (f *fakeItemRepo) SaveItem(_ context.Context, item *models.PickupItem) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	stored, ok := f.items[item.ID]
	if !ok {
		return fmt.Errorf("pickup item %s: %w", item.ID.Hex(), models.ErrNotFound)
	}
	if stored.Version != item.Version {
		return fmt.Errorf("pickup item %s at version %d: %w", item.ID.Hex(), item.Version, models.ErrConflict)
	}
	item.Version++
	item.ComputeWeights()
	cp := *item
	f.items[item.ID] = &cp
	f.saves++
	return nil
}

type fakeRequestRepo struct {
	requests  map[primitive.ObjectID]*models.PickupRequest
	updateErr error

	// beforeTransition runs just before the guarded write, like an owner acting concurrently.
	beforeTransition func(req *models.PickupRequest)
}

func (f *fakeRequestRepo) GetRequestByID(_ context.Context, id primitive.ObjectID) (*models.PickupRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, fmt.Errorf("pickup request %s: %w", id.Hex(), models.ErrNotFound)
	}
	cp := *req
	return &cp, nil
}

func (f *fakeRequestRepo) TransitionRequestStatus(_ context.Context, id primitive.ObjectID, from, to models.RequestStatus, activity models.Activity) (bool, error) {
	if f.updateErr != nil {
		return false, f.updateErr
	}
	req, ok := f.requests[id]
	if !ok {
		return false, nil
	}
	if f.beforeTransition != nil {
		f.beforeTransition(req)
	}
	if req.Status != from {
		return false, nil
	}
	req.Status = to
	req.ActivityHistory = append(req.ActivityHistory, activity)
	return true, nil
}

type itemEvent struct {
	code     string
	from, to models.ItemStatus
	request  string
	actor    string
}

// recordingNotifier keeps the events the workflow announced.
type recordingNotifier struct {
	items     []itemEvent
	completed []string
	itemCount int
}

func (n *recordingNotifier) ItemStatusChanged(_ context.Context, item *models.PickupItem, previous models.ItemStatus, request *models.PickupRequest, actorID string) {
	ev := itemEvent{code: item.Code, from: previous, to: item.Status, actor: actorID}
	if request != nil {
		ev.request = request.Code
	}
	n.items = append(n.items, ev)
}

func (n *recordingNotifier) RequestCompleted(_ context.Context, request *models.PickupRequest, itemCount int, _ string) {
	n.completed = append(n.completed, string(request.Status)+":"+request.Code)
	n.itemCount = itemCount
}

type fakeRateRepo struct {
	rates []models.ForwarderRate
}

func (f *fakeRateRepo) CreateRate(_ context.Context, rate *models.ForwarderRate) error {
	f.rates = append(f.rates, *rate)
	return nil
}

func (f *fakeRateRepo) FindRatesForRoute(_ context.Context, forwarderID string, origin, destination models.Area) ([]models.ForwarderRate, error) {
	var out []models.ForwarderRate
	for _, r := range f.rates {
		if forwarderID != "" && r.ForwarderID != forwarderID {
			continue
		}
		if r.OriginProvince == origin.Province && r.DestinationProvince == destination.Province {
			out = append(out, r)
		}
	}
	return out, nil
}

// fixedSequencer hands out a scripted list of sequence numbers.
type fixedSequencer struct {
	seqs  []int64
	calls int
}

func (s *fixedSequencer) NextSequence(context.Context, primitive.ObjectID) (int64, error) {
	seq := s.seqs[s.calls%len(s.seqs)]
	s.calls++
	return seq, nil
}

// rollbackRunner mimics a transactional store: fn's item writes are discarded when it fails.
type rollbackRunner struct {
	items *fakeItemRepo
}

func (r *rollbackRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snapshot := map[primitive.ObjectID]*models.PickupItem{}
	for id, item := range r.items.items {
		cp := *item
		snapshot[id] = &cp
	}
	if err := fn(ctx); err != nil {
		r.items.items = snapshot
		return err
	}
	return nil
}

func (r *rollbackRunner) Atomic() bool { return true }

var testNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type workflowFixture struct {
	wf        *Workflow
	items     *fakeItemRepo
	requests  *fakeRequestRepo
	rates     *fakeRateRepo
	requestID primitive.ObjectID
}

func newWorkflowFixture(t *testing.T, status models.RequestStatus) *workflowFixture {
	t.Helper()
	requestID := primitive.NewObjectID()
	items := newFakeItemRepo()
	requests := &fakeRequestRepo{requests: map[primitive.ObjectID]*models.PickupRequest{
		requestID: {ID: requestID, Code: "PU-2405-0001", Status: status},
	}}
	rates := &fakeRateRepo{}
	wf := NewWorkflow(items, requests, rates, repositories.NewCountSequencer(items), repositories.NewDirectRunner(), nil, validators.NewValidator(), logger.Discard())
	wf.Now = func() time.Time { return testNow }
	return &workflowFixture{wf: wf, items: items, requests: requests, rates: rates, requestID: requestID}
}

func (fx *workflowFixture) createItem(t *testing.T) *models.PickupItem {
	t.Helper()
	item, err := fx.wf.CreateItem(context.Background(), models.CreatePickupItemRequest{
		PickupRequestID:    fx.requestID.Hex(),
		PickupAssignmentID: primitive.NewObjectID().Hex(),
		Description:        "Carton of books",
		Category:           "package",
		Quantity:           1,
		Weight:             models.Weight{Value: 5, Unit: "kg"},
		Dimensions:         models.Dimensions{Length: 50, Width: 40, Height: 30, Unit: "cm"},
	}, "courier-1")
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	return item
}

func (fx *workflowFixture) requestStatus() models.RequestStatus {
	return fx.requests.requests[fx.requestID].Status
}

func TestCreateItemAssignsCodeAndWeights(t *testing.T) {
	fx := newWorkflowFixture(t, models.RequestStatusInProgress)

	first := fx.createItem(t)
	second := fx.createItem(t)

	if first.Code != "PU-2405-0001-001" || second.Code != "PU-2405-0001-002" {
		t.Errorf("codes = %q, %q", first.Code, second.Code)
	}
	if first.Status != models.ItemStatusPending {
		t.Errorf("status = %s, want pending", first.Status)
	}
	if first.VolumetricWeight != 12 || first.ChargeableWeight != 12 {
		t.Errorf("weights = %v / %v, want 12 / 12", first.VolumetricWeight, first.ChargeableWeight)
	}
	if fx.requestStatus() != models.RequestStatusInProgress {
		t.Errorf("request status = %s", fx.requestStatus())
	}
}

func TestCreateItemRetriesOnDuplicateCode(t *testing.T) {
	fx := newWorkflowFixture(t, models.RequestStatusInProgress)
	fx.createItem(t)

	seq := &fixedSequencer{seqs: []int64{1, 1, 2}}
	fx.wf.sequencer = seq

	item := fx.createItem(t)
	if item.Code != "PU-2405-0001-002" {
		t.Errorf("code = %q, want PU-2405-0001-002", item.Code)
	}
	if seq.calls != 3 {
		t.Errorf("sequencer calls = %d, want 3", seq.calls)
	}
}

func TestCreateItemGivesUpAfterRetries(t *testing.T) {
	fx := newWorkflowFixture(t, models.RequestStatusInProgress)
	fx.createItem(t)
	seq := &fixedSequencer{seqs: []int64{1}}
	fx.wf.sequencer = seq

	_, err := fx.wf.CreateItem(context.Background(), models.CreatePickupItemRequest{
		PickupRequestID:    fx.requestID.Hex(),
		PickupAssignmentID: primitive.NewObjectID().Hex(),
		Description:        "Second carton",
		Category:           "package",
		Quantity:           1,
		Weight:             models.Weight{Value: 1, Unit: "kg"},
		Dimensions:         models.Dimensions{Length: 10, Width: 10, Height: 10, Unit: "cm"},
	}, "courier-1")
	if !errors.Is(err, models.ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
	if seq.calls != codeRetries+1 {
		t.Errorf("sequencer calls = %d, want %d", seq.calls, codeRetries+1)
	}
}

func TestCreateItemValidation(t *testing.T) {
	fx := newWorkflowFixture(t, models.RequestStatusInProgress)
	_, err := fx.wf.CreateItem(context.Background(), models.CreatePickupItemRequest{
		PickupRequestID: fx.requestID.Hex(),
		Description:     "x",
		Category:        "furniture",
		Quantity:        0,
		Weight:          models.Weight{Value: 1, Unit: "kg"},
		Dimensions:      models.Dimensions{Unit: "cm"},
	}, "courier-1")

	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"pickupAssignmentId", "category", "quantity", "description"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("missing field error for %s: %v", field, verr.Fields)
		}
	}
}

func TestCreateItemUnknownRequest(t *testing.T) {
	fx := newWorkflowFixture(t, models.RequestStatusInProgress)
	_, err := fx.wf.CreateItem(context.Background(), models.CreatePickupItemRequest{
		PickupRequestID:    primitive.NewObjectID().Hex(),
		PickupAssignmentID: primitive.NewObjectID().Hex(),
		Description:        "Envelope",
		Category:           "document",
		Quantity:           1,
		Weight:             models.Weight{Value: 0.2, Unit: "kg"},
		Dimensions:         models.Dimensions{Length: 30, Width: 20, Height: 1, Unit: "cm"},
	}, "courier-1")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestAllItemsVerifiedCompletesRequest runs the completion and the partial-rejection paths.
func TestAllItemsVerifiedCompletesRequest(t *testing.T) {
	cases := []struct {
		name       string
		secondTo   models.ItemStatus
		wantStatus models.RequestStatus
	}{
		{"all verified", models.ItemStatusVerified, models.RequestStatusCompleted},
		{"one rejected", models.ItemStatusRejected, models.RequestStatusInProgress},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newWorkflowFixture(t, models.RequestStatusInProgress)
			ctx := context.Background()
			a := fx.createItem(t)
			b := fx.createItem(t)

			if _, err := fx.wf.UpdateItemStatus(ctx, a.ID, models.ItemStatusVerified, "checker", ""); err != nil {
				t.Fatalf("verify a: %v", err)
			}
			if fx.requestStatus() != models.RequestStatusInProgress {
				t.Fatalf("request completed early")
			}
			updated, err := fx.wf.UpdateItemStatus(ctx, b.ID, tc.secondTo, "checker", "checked at depot")
			if err != nil {
				t.Fatalf("update b: %v", err)
			}
			if updated.Notes != "checked at depot" {
				t.Errorf("notes = %q", updated.Notes)
			}
			if fx.requestStatus() != tc.wantStatus {
				t.Errorf("request status = %s, want %s", fx.requestStatus(), tc.wantStatus)
			}
			history := fx.requests.requests[fx.requestID].ActivityHistory
			if tc.wantStatus == models.RequestStatusCompleted {
				if len(history) != 1 || history[0].Status != models.RequestStatusCompleted || history[0].PerformedBy != "checker" {
					t.Errorf("activity history = %+v", history)
				}
			} else if len(history) != 0 {
				t.Errorf("unexpected activity: %+v", history)
			}
		})
	}
}

func TestRequestOutsideInProgressIsNotDerived(t *testing.T) {
	fx := newWorkflowFixture(t, models.RequestStatusScheduled)
	item := fx.createItem(t)
	if _, err := fx.wf.UpdateItemStatus(context.Background(), item.ID, models.ItemStatusVerified, "checker", ""); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if fx.requestStatus() != models.RequestStatusScheduled {
		t.Errorf("request status = %s, want scheduled", fx.requestStatus())
	}
}

func TestUpdateItemStatusErrors(t *testing.T) {
	fx := newWorkflowFixture(t, models.RequestStatusInProgress)
	ctx := context.Background()

	if _, err := fx.wf.UpdateItemStatus(ctx, primitive.NewObjectID(), models.ItemStatusVerified, "checker", ""); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing item: got %v, want ErrNotFound", err)
	}

	item := fx.createItem(t)
	saves := fx.items.saves
	_, err := fx.wf.UpdateItemStatus(ctx, item.ID, models.ItemStatusShipped, "checker", "")
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("pending -> shipped: got %v, want ErrInvalidTransition", err)
	}
	if fx.items.saves != saves {
		t.Errorf("item saved despite invalid transition")
	}
}

func TestParentSyncFailureWithoutTransaction(t *testing.T) {
	fx := newWorkflowFixture(t, models.RequestStatusInProgress)
	item := fx.createItem(t)
	fx.requests.updateErr = errors.New("connection reset")

	_, err := fx.wf.UpdateItemStatus(context.Background(), item.ID, models.ItemStatusVerified, "checker", "")
	var pse *models.ParentSyncError
	if !errors.As(err, &pse) {
		t.Fatalf("expected ParentSyncError, got %v", err)
	}
	if !errors.Is(err, models.ErrParentSync) || !pse.Committed {
		t.Errorf("committed = %v, err = %v", pse.Committed, err)
	}
	if pse.Item == nil || pse.Item.Status != models.ItemStatusVerified {
		t.Errorf("error should carry the saved item: %+v", pse.Item)
	}
	if stored := fx.items.items[item.ID]; stored.Status != models.ItemStatusVerified {
		t.Errorf("stored status = %s, want verified", stored.Status)
	}
}

func TestParentSyncFailureRollsBackInTransaction(t *testing.T) {
	fx := newWorkflowFixture(t, models.RequestStatusInProgress)
	item := fx.createItem(t)
	fx.wf.tx = &rollbackRunner{items: fx.items}
	fx.requests.updateErr = errors.New("write conflict")

	_, err := fx.wf.UpdateItemStatus(context.Background(), item.ID, models.ItemStatusVerified, "checker", "")
	var pse *models.ParentSyncError
	if !errors.As(err, &pse) {
		t.Fatalf("expected ParentSyncError, got %v", err)
	}
	if pse.Committed || pse.Item != nil {
		t.Errorf("rolled back error should not carry an item: %+v", pse)
	}
	if stored := fx.items.items[item.ID]; stored.Status != models.ItemStatusPending {
		t.Errorf("stored status = %s, want pending after rollback", stored.Status)
	}
}

func TestReconcileRequestStatus(t *testing.T) {
	fx := newWorkflowFixture(t, models.RequestStatusInProgress)
	item := fx.createItem(t)
	fx.requests.updateErr = errors.New("timeout")
	if _, err := fx.wf.UpdateItemStatus(context.Background(), item.ID, models.ItemStatusVerified, "checker", ""); !errors.Is(err, models.ErrParentSync) {
		t.Fatalf("expected ErrParentSync, got %v", err)
	}

	fx.requests.updateErr = nil
	req, err := fx.wf.ReconcileRequestStatus(context.Background(), fx.requestID, "supervisor")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if req.Status != models.RequestStatusCompleted {
		t.Errorf("status = %s, want completed", req.Status)
	}
}

func TestMeasurementsImagesAndSignature(t *testing.T) {
	fx := newWorkflowFixture(t, models.RequestStatusInProgress)
	ctx := context.Background()
	item := fx.createItem(t)

	updated, err := fx.wf.UpdateMeasurements(ctx, item.ID, models.UpdateMeasurementsRequest{
		Weight: &models.Weight{Value: 20, Unit: "kg"},
	}, "checker")
	if err != nil {
		t.Fatalf("measurements: %v", err)
	}
	if updated.ChargeableWeight != 20 || updated.VolumetricWeight != 12 {
		t.Errorf("weights = %v / %v, want 12 / 20", updated.VolumetricWeight, updated.ChargeableWeight)
	}

	if _, err := fx.wf.UpdateMeasurements(ctx, item.ID, models.UpdateMeasurementsRequest{}, "checker"); !errors.Is(err, models.ErrValidation) {
		t.Errorf("empty measurements: got %v, want ErrValidation", err)
	}

	withImage, err := fx.wf.AddImage(ctx, item.ID, models.AddImageRequest{URL: "https://cdn.example.com/a.jpg", Type: "label"}, "courier-1")
	if err != nil {
		t.Fatalf("add image: %v", err)
	}
	if len(withImage.Images) != 1 || withImage.Images[0].ID == "" || withImage.Images[0].TakenBy != "courier-1" {
		t.Fatalf("images = %+v", withImage.Images)
	}

	if _, err := fx.wf.RemoveImage(ctx, item.ID, "missing", "courier-1"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("remove missing image: got %v", err)
	}
	removed, err := fx.wf.RemoveImage(ctx, item.ID, withImage.Images[0].ID, "courier-1")
	if err != nil {
		t.Fatalf("remove image: %v", err)
	}
	if len(removed.Images) != 0 {
		t.Errorf("images after remove = %+v", removed.Images)
	}

	signed, err := fx.wf.SetSignature(ctx, item.ID, models.SignatureRequest{Image: "data:image/png;base64,AAA", Name: "Budi Santoso"}, "courier-1")
	if err != nil {
		t.Fatalf("signature: %v", err)
	}
	if signed.Signature == nil || signed.Signature.Name != "Budi Santoso" || !signed.Signature.Timestamp.Equal(testNow) {
		t.Errorf("signature = %+v", signed.Signature)
	}
}

func TestQuoteRatesForItem(t *testing.T) {
	fx := newWorkflowFixture(t, models.RequestStatusInProgress)
	item := fx.createItem(t)
	fx.rates.rates = []models.ForwarderRate{
		{ForwarderID: "jne", OriginProvince: "Jawa Timur", DestinationProvince: "Bali", PricePerKg: 9000, MinWeight: 1},
		{ForwarderID: "tiki", OriginProvince: "Jawa Timur", DestinationProvince: "Bali", PricePerKg: 11000, MinWeight: 1},
		{ForwarderID: "jne", OriginProvince: "Jawa Timur", DestinationProvince: "Papua", PricePerKg: 30000, MinWeight: 1},
	}

	quotes, err := fx.wf.QuoteRates(context.Background(), item.ID, "",
		models.Area{Province: "Jawa Timur"}, models.Area{Province: "Bali"})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("quotes = %d, want 2", len(quotes))
	}
	if quotes[0].BilledWeight != 12 || quotes[0].EstimatedPrice != 108000 {
		t.Errorf("first quote = %+v", quotes[0])
	}
}

func TestStaleStatusUpdateIsRevalidated(t *testing.T) {
	fx := newWorkflowFixture(t, models.RequestStatusInProgress)
	ctx := context.Background()
	item := fx.createItem(t)
	pending := *fx.items.items[item.ID]

	if _, err := fx.wf.UpdateItemStatus(ctx, item.ID, models.ItemStatusVerified, "checker", ""); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, err := fx.wf.UpdateItemStatus(ctx, item.ID, models.ItemStatusProcessed, "checker", ""); err != nil {
		t.Fatalf("process: %v", err)
	}

	// The caller read the item while it was still pending.
	fx.items.stale = map[primitive.ObjectID]*models.PickupItem{item.ID: &pending}
	_, err := fx.wf.UpdateItemStatus(ctx, item.ID, models.ItemStatusRejected, "other-checker", "")

	var terr *models.InvalidTransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if terr.Current != models.ItemStatusProcessed || terr.Requested != models.ItemStatusRejected {
		t.Errorf("transition error = %+v, want processed -> rejected", terr)
	}
	if stored := fx.items.items[item.ID]; stored.Status != models.ItemStatusProcessed {
		t.Errorf("stored status = %s, want processed", stored.Status)
	}
}

func TestStaleTransitionStillValidIsApplied(t *testing.T) {
	fx := newWorkflowFixture(t, models.RequestStatusScheduled)
	ctx := context.Background()
	item := fx.createItem(t)
	pending := *fx.items.items[item.ID]

	if _, err := fx.wf.UpdateItemStatus(ctx, item.ID, models.ItemStatusVerified, "checker", ""); err != nil {
		t.Fatalf("verify: %v", err)
	}

	fx.items.stale = map[primitive.ObjectID]*models.PickupItem{item.ID: &pending}
	updated, err := fx.wf.UpdateItemStatus(ctx, item.ID, models.ItemStatusRejected, "supervisor", "")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if updated.Status != models.ItemStatusRejected || updated.VerifiedBy != "checker" {
		t.Errorf("item = %s verified by %q", updated.Status, updated.VerifiedBy)
	}
	if stored := fx.items.items[item.ID]; stored.Version != 3 {
		t.Errorf("stored version = %d, want 3", stored.Version)
	}
}

func TestStaleMeasurementKeepsStatus(t *testing.T) {
	fx := newWorkflowFixture(t, models.RequestStatusScheduled)
	ctx := context.Background()
	item := fx.createItem(t)
	pending := *fx.items.items[item.ID]

	if _, err := fx.wf.UpdateItemStatus(ctx, item.ID, models.ItemStatusVerified, "checker", ""); err != nil {
		t.Fatalf("verify: %v", err)
	}

	fx.items.stale = map[primitive.ObjectID]*models.PickupItem{item.ID: &pending}
	updated, err := fx.wf.UpdateMeasurements(ctx, item.ID, models.UpdateMeasurementsRequest{
		Weight: &models.Weight{Value: 20, Unit: "kg"},
	}, "checker")
	if err != nil {
		t.Fatalf("measurements: %v", err)
	}
	stored := fx.items.items[item.ID]
	if stored.Status != models.ItemStatusVerified || updated.Status != models.ItemStatusVerified {
		t.Errorf("status = %s / %s, want verified", stored.Status, updated.Status)
	}
	if stored.ChargeableWeight != 20 {
		t.Errorf("chargeable = %v, want 20", stored.ChargeableWeight)
	}
}

func TestPersistentConflictIsReported(t *testing.T) {
	fx := newWorkflowFixture(t, models.RequestStatusInProgress)
	item := fx.createItem(t)
	fx.items.saveErr = fmt.Errorf("pickup item: %w", models.ErrConflict)
	reads := fx.items.reads

	_, err := fx.wf.UpdateItemStatus(context.Background(), item.ID, models.ItemStatusVerified, "checker", "")
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if got := fx.items.reads - reads; got != writeRetries+1 {
		t.Errorf("reads = %d, want %d", got, writeRetries+1)
	}
}

func TestCompletionSkippedWhenOwnerMovesRequest(t *testing.T) {
	fx := newWorkflowFixture(t, models.RequestStatusInProgress)
	notifier := &recordingNotifier{}
	fx.wf.notifier = notifier
	item := fx.createItem(t)
	fx.requests.beforeTransition = func(req *models.PickupRequest) {
		req.Status = models.RequestStatusCancelled
	}

	if _, err := fx.wf.UpdateItemStatus(context.Background(), item.ID, models.ItemStatusVerified, "checker", ""); err != nil {
		t.Fatalf("verify: %v", err)
	}
	req := fx.requests.requests[fx.requestID]
	if req.Status != models.RequestStatusCancelled {
		t.Errorf("request status = %s, want cancelled", req.Status)
	}
	if len(req.ActivityHistory) != 0 {
		t.Errorf("unexpected activity: %+v", req.ActivityHistory)
	}
	if len(notifier.completed) != 0 {
		t.Errorf("completion announced: %v", notifier.completed)
	}
}

func TestNotifierHearsStatusChangesAndCompletion(t *testing.T) {
	fx := newWorkflowFixture(t, models.RequestStatusInProgress)
	notifier := &recordingNotifier{}
	fx.wf.notifier = notifier
	ctx := context.Background()
	a := fx.createItem(t)
	b := fx.createItem(t)

	if _, err := fx.wf.UpdateItemStatus(ctx, a.ID, models.ItemStatusVerified, "checker", ""); err != nil {
		t.Fatalf("verify a: %v", err)
	}
	if len(notifier.completed) != 0 {
		t.Fatalf("completed early: %v", notifier.completed)
	}
	if _, err := fx.wf.UpdateItemStatus(ctx, b.ID, models.ItemStatusVerified, "checker", ""); err != nil {
		t.Fatalf("verify b: %v", err)
	}
	if _, err := fx.wf.UpdateItemStatus(ctx, b.ID, models.ItemStatusShipped, "checker", ""); err == nil {
		t.Fatal("verified -> shipped should fail")
	}

	want := []itemEvent{
		{code: "PU-2405-0001-001", from: models.ItemStatusPending, to: models.ItemStatusVerified, request: "PU-2405-0001", actor: "checker"},
		{code: "PU-2405-0001-002", from: models.ItemStatusPending, to: models.ItemStatusVerified, request: "PU-2405-0001", actor: "checker"},
	}
	if len(notifier.items) != len(want) {
		t.Fatalf("item events = %+v", notifier.items)
	}
	for i := range want {
		if notifier.items[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, notifier.items[i], want[i])
		}
	}
	if len(notifier.completed) != 1 || notifier.completed[0] != "completed:PU-2405-0001" || notifier.itemCount != 2 {
		t.Errorf("completed = %v (items %d)", notifier.completed, notifier.itemCount)
	}
}

func TestNotifierSilentOnParentSyncFailure(t *testing.T) {
	fx := newWorkflowFixture(t, models.RequestStatusInProgress)
	notifier := &recordingNotifier{}
	fx.wf.notifier = notifier
	item := fx.createItem(t)
	fx.requests.updateErr = errors.New("connection reset")

	if _, err := fx.wf.UpdateItemStatus(context.Background(), item.ID, models.ItemStatusVerified, "checker", ""); !errors.Is(err, models.ErrParentSync) {
		t.Fatalf("expected ErrParentSync, got %v", err)
	}
	if len(notifier.items) != 0 || len(notifier.completed) != 0 {
		t.Errorf("events = %+v / %v", notifier.items, notifier.completed)
	}
}
