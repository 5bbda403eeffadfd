package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-2pack-wms/internal/meli"
	"go-2pack-wms/internal/model"
	"go-2pack-wms/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// syncUpstream is a scripted marketplace double. Body strings are raw JSON.
type syncUpstream struct {
	me         string
	orders     string
	itemIDs    string
	items      string
	stock      string
	operations string
	meStatus   int
}

func (u *syncUpstream) handler() http.Handler {
	writeJSON := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		if u.meStatus != 0 {
			w.WriteHeader(u.meStatus)
			return
		}
		writeJSON(w, u.me)
	})
	mux.HandleFunc("/orders/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "0" {
			writeJSON(w, `{"results":[],"paging":{"total":0}}`)
			return
		}
		writeJSON(w, u.orders)
	})
	mux.HandleFunc("/users/123456/items/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "0" {
			writeJSON(w, `{"results":[],"paging":{"total":0}}`)
			return
		}
		writeJSON(w, u.itemIDs)
	})
	mux.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, u.items)
	})
	mux.HandleFunc("/inventories/INV1/stock/fulfillment", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, u.stock)
	})
	mux.HandleFunc("/stock/fulfillment/operations/search", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, u.operations)
	})
	return mux
}

func emptyUpstream() *syncUpstream {
	return &syncUpstream{
		me:         `{"id":123456,"nickname":"WAREHOUSE"}`,
		orders:     `{"results":[],"paging":{"total":0}}`,
		itemIDs:    `{"results":[],"paging":{"total":0}}`,
		items:      `[]`,
		stock:      `{"inventory_id":"INV1","total":0,"available_quantity":0}`,
		operations: `{"results":[],"paging":{"total":0}}`,
	}
}

func newSyncFixture(t *testing.T, upstream *syncUpstream) (SyncService, *gorm.DB, uuid.UUID) {
	t.Helper()
	db := setupTestDB(t)
	srv := httptest.NewServer(upstream.handler())
	t.Cleanup(srv.Close)

	client, err := meli.NewClient(meli.Config{
		ClientID:     "test-app",
		ClientSecret: "test-secret",
		BaseURL:      srv.URL,
	})
	require.NoError(t, err)

	accountRepo := repository.NewMeliAccountRepo(db)
	svc := NewSyncService(
		accountRepo,
		repository.NewProductRepo(db),
		repository.NewShipmentRepo(db),
		NewMeliTokenService(accountRepo, client),
		client,
		db,
		nil,
	)

	org := createTestOrg(t, db)
	account := &model.MeliAccount{
		OrganizationID: org.ID,
		MeliUserID:     123456,
		AccessToken:    "valid-access",
		RefreshToken:   "valid-refresh",
		ExpiresAt:      time.Now().Add(time.Hour),
	}
	require.NoError(t, db.Create(account).Error)

	return svc, db, org.ID
}

func TestSyncRunNotConnected(t *testing.T) {
	db := setupTestDB(t)
	srv := httptest.NewServer(emptyUpstream().handler())
	t.Cleanup(srv.Close)

	client, err := meli.NewClient(meli.Config{ClientID: "a", ClientSecret: "b", BaseURL: srv.URL})
	require.NoError(t, err)
	accountRepo := repository.NewMeliAccountRepo(db)
	svc := NewSyncService(accountRepo, repository.NewProductRepo(db), repository.NewShipmentRepo(db),
		NewMeliTokenService(accountRepo, client), client, db, nil)

	_, err = svc.Run(context.Background(), uuid.New(), "op")

	assert.ErrorIs(t, err, ErrMeliNotConnected)
}

func TestSyncRunRejectedSessionNeedsReconnect(t *testing.T) {
	upstream := emptyUpstream()
	upstream.meStatus = http.StatusUnauthorized
	svc, _, orgID := newSyncFixture(t, upstream)

	_, err := svc.Run(context.Background(), orgID, "op")

	assert.ErrorIs(t, err, ErrMeliReconnect)
}

func TestSyncRunCreatesOutboundShipmentsWithPlaceholders(t *testing.T) {
	upstream := emptyUpstream()
	upstream.orders = `{
		"results": [{
			"id": 9001,
			"status": "paid",
			"order_items": [
				{"item": {"id": "MLB777", "title": "Widget", "seller_sku": ""}, "quantity": 3}
			]
		}],
		"paging": {"total": 1}
	}`
	svc, db, orgID := newSyncFixture(t, upstream)

	report, err := svc.Run(context.Background(), orgID, "op")

	require.NoError(t, err)
	assert.Equal(t, 1, report.OutboundSynced)
	assert.Equal(t, 0, report.Skipped)

	var shipment model.Shipment
	require.NoError(t, db.Preload("Items").First(&shipment, "meli_id = ?", "9001").Error)
	assert.Equal(t, model.ShipmentPending, shipment.Status)
	assert.Equal(t, model.ShipmentOutbound, shipment.Type)
	require.Len(t, shipment.Items, 1)
	assert.Equal(t, 3, shipment.Items[0].ExpectedQty)
	assert.Equal(t, 0, shipment.Items[0].ScannedQty)

	// No seller SKU: a placeholder product keyed off the external item id.
	var product model.Product
	require.NoError(t, db.First(&product, "organization_id = ? AND sku = ?", orgID, "MELI-MLB777").Error)
	assert.Equal(t, model.BarcodeUnknown, product.Barcode)
	assert.Equal(t, "Widget", product.Title)
}

func TestSyncRunIsIdempotentAndPreservesScannedQty(t *testing.T) {
	upstream := emptyUpstream()
	upstream.orders = `{
		"results": [{
			"id": 9001,
			"status": "paid",
			"order_items": [
				{"item": {"id": "MLB777", "title": "Widget", "seller_sku": "SKU-W"}, "quantity": 3}
			]
		}],
		"paging": {"total": 1}
	}`
	svc, db, orgID := newSyncFixture(t, upstream)

	_, err := svc.Run(context.Background(), orgID, "op")
	require.NoError(t, err)

	// Picking happens between syncs.
	require.NoError(t, db.Model(&model.ShipmentItem{}).
		Where("sku = ?", "SKU-W").
		Update("scanned_qty", 2).Error)

	report, err := svc.Run(context.Background(), orgID, "op")
	require.NoError(t, err)
	assert.Equal(t, 1, report.OutboundSynced)

	// Still exactly one shipment, one line, one product.
	var shipmentCount, itemCount, productCount int64
	require.NoError(t, db.Model(&model.Shipment{}).Count(&shipmentCount).Error)
	require.NoError(t, db.Model(&model.ShipmentItem{}).Count(&itemCount).Error)
	require.NoError(t, db.Model(&model.Product{}).Count(&productCount).Error)
	assert.EqualValues(t, 1, shipmentCount)
	assert.EqualValues(t, 1, itemCount)
	assert.EqualValues(t, 1, productCount)

	// The re-sync must not clobber in-progress picking.
	var item model.ShipmentItem
	require.NoError(t, db.First(&item, "sku = ?", "SKU-W").Error)
	assert.Equal(t, 2, item.ScannedQty)
	assert.Equal(t, 3, item.ExpectedQty)
}

func TestSyncRunInboundOperations(t *testing.T) {
	upstream := emptyUpstream()
	upstream.itemIDs = `{"results":["MLB1"],"paging":{"total":1}}`
	upstream.items = `[{"code":200,"body":{"id":"MLB1","title":"Gadget","seller_custom_field":"SKU-IN","inventory_id":"INV1"}}]`
	upstream.stock = `{"inventory_id":"INV1","total":40,"available_quantity":35}`
	upstream.operations = `{
		"results": [{"id":"OP-1","type":"inbound_reception","status":"finished","detail":{"quantity":5}}],
		"paging": {"total": 1}
	}`
	svc, db, orgID := newSyncFixture(t, upstream)
	// Catalog already knows this SKU: no placeholder expected.
	existing := createTestProduct(t, db, orgID, "SKU-IN", "789000000009", "1.250")

	report, err := svc.Run(context.Background(), orgID, "op")

	require.NoError(t, err)
	assert.Equal(t, 1, report.InboundSynced)
	assert.Equal(t, 1, report.StockSynced)

	var shipment model.Shipment
	require.NoError(t, db.Preload("Items").First(&shipment, "meli_id = ?", "OP-1").Error)
	assert.Equal(t, model.ShipmentInbound, shipment.Type)
	assert.Equal(t, model.ShipmentCompleted, shipment.Status)
	require.Len(t, shipment.Items, 1)
	assert.Equal(t, existing.ID, shipment.Items[0].ProductID)
	assert.Equal(t, 5, shipment.Items[0].ExpectedQty)

	var productCount int64
	require.NoError(t, db.Model(&model.Product{}).Count(&productCount).Error)
	assert.EqualValues(t, 1, productCount)
}

func TestSyncRunPromotesPendingInboundWhenFinishedUpstream(t *testing.T) {
	upstream := emptyUpstream()
	upstream.itemIDs = `{"results":["MLB1"],"paging":{"total":1}}`
	upstream.items = `[{"code":200,"body":{"id":"MLB1","title":"Gadget","seller_custom_field":"SKU-IN","inventory_id":"INV1"}}]`
	upstream.operations = `{
		"results": [{"id":"OP-1","type":"inbound_transfer","status":"working","detail":{"quantity":5}}],
		"paging": {"total": 1}
	}`
	svc, db, orgID := newSyncFixture(t, upstream)
	createTestProduct(t, db, orgID, "SKU-IN", "789000000009", "1.250")

	_, err := svc.Run(context.Background(), orgID, "op")
	require.NoError(t, err)

	var shipment model.Shipment
	require.NoError(t, db.First(&shipment, "meli_id = ?", "OP-1").Error)
	assert.Equal(t, model.ShipmentPending, shipment.Status)

	// The operation finishes upstream; the next run moves it forward.
	upstream.operations = `{
		"results": [{"id":"OP-1","type":"inbound_transfer","status":"finished","detail":{"quantity":5}}],
		"paging": {"total": 1}
	}`
	_, err = svc.Run(context.Background(), orgID, "op")
	require.NoError(t, err)

	require.NoError(t, db.First(&shipment, "meli_id = ?", "OP-1").Error)
	assert.Equal(t, model.ShipmentCompleted, shipment.Status)
}

// flakyItemRepo fails line upserts for one SKU and delegates the rest.
type flakyItemRepo struct {
	repository.ShipmentRepository
	failSKU string
}

func (r *flakyItemRepo) UpsertItem(tx *gorm.DB, item *model.ShipmentItem) error {
	if item.SKU == r.failSKU {
		return errors.New("simulated write failure")
	}
	return r.ShipmentRepository.UpsertItem(tx, item)
}

func TestSyncRunKeepsOrderWhenOneLineFails(t *testing.T) {
	upstream := emptyUpstream()
	upstream.orders = `{
		"results": [{
			"id": 9001,
			"status": "paid",
			"order_items": [
				{"item": {"id": "MLB1", "title": "Widget", "seller_sku": "SKU-OK"}, "quantity": 2},
				{"item": {"id": "MLB2", "title": "Gadget", "seller_sku": "SKU-BAD"}, "quantity": 1}
			]
		}],
		"paging": {"total": 1}
	}`

	db := setupTestDB(t)
	srv := httptest.NewServer(upstream.handler())
	t.Cleanup(srv.Close)
	client, err := meli.NewClient(meli.Config{ClientID: "a", ClientSecret: "b", BaseURL: srv.URL})
	require.NoError(t, err)

	accountRepo := repository.NewMeliAccountRepo(db)
	shipmentRepo := &flakyItemRepo{repository.NewShipmentRepo(db), "SKU-BAD"}
	svc := NewSyncService(accountRepo, repository.NewProductRepo(db), shipmentRepo,
		NewMeliTokenService(accountRepo, client), client, db, nil)

	org := createTestOrg(t, db)
	account := &model.MeliAccount{
		OrganizationID: org.ID,
		MeliUserID:     123456,
		AccessToken:    "valid-access",
		RefreshToken:   "valid-refresh",
		ExpiresAt:      time.Now().Add(time.Hour),
	}
	require.NoError(t, db.Create(account).Error)

	report, err := svc.Run(context.Background(), org.ID, "op")

	require.NoError(t, err)
	assert.Equal(t, 1, report.OutboundSynced)

	// The bad line is dropped, the order and its good line still commit.
	var shipment model.Shipment
	require.NoError(t, db.Preload("Items").First(&shipment, "meli_id = ?", "9001").Error)
	require.Len(t, shipment.Items, 1)
	assert.Equal(t, "SKU-OK", shipment.Items[0].SKU)
	assert.Equal(t, 2, shipment.Items[0].ExpectedQty)
}
