package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"go-2pack-wms/internal/meli"
	"go-2pack-wms/internal/model"
	"go-2pack-wms/internal/repository"
	"go-2pack-wms/internal/ws"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrMeliNotConnected = errors.New("marketplace account not connected")
	// ErrMeliReconnect means the stored session was rejected upstream and
	// the operator has to re-link the account.
	ErrMeliReconnect = errors.New("marketplace session rejected, reconnect the account")
)

const (
	orderPageSize = 50
	itemPageSize  = 50
	itemBatchSize = 20
	// inboundWindow bounds the receiving-operations history query.
	inboundWindow = 30 * 24 * time.Hour
	// maxSyncPages caps pagination loops against a misbehaving upstream.
	maxSyncPages = 20
)

// SyncReport carries the aggregate counters back to the operator. There is
// no all-or-nothing guarantee: each upsert commits independently.
type SyncReport struct {
	OutboundSynced int `json:"outbound_synced"`
	InboundSynced  int `json:"inbound_synced"`
	StockSynced    int `json:"stock_synced"`
	Skipped        int `json:"skipped"`
}

type SyncService interface {
	Run(ctx context.Context, orgID uuid.UUID, operatorID string) (*SyncReport, error)
}

type syncService struct {
	accountRepo  repository.MeliAccountRepository
	productRepo  repository.ProductRepository
	shipmentRepo repository.ShipmentRepository
	tokenService MeliTokenService
	client       *meli.Client
	db           *gorm.DB
	wsHub        *ws.Hub
}

func NewSyncService(
	accountRepo repository.MeliAccountRepository,
	productRepo repository.ProductRepository,
	shipmentRepo repository.ShipmentRepository,
	tokenService MeliTokenService,
	client *meli.Client,
	db *gorm.DB,
	hub *ws.Hub,
) SyncService {
	return &syncService{
		accountRepo:  accountRepo,
		productRepo:  productRepo,
		shipmentRepo: shipmentRepo,
		tokenService: tokenService,
		client:       client,
		db:           db,
		wsHub:        hub,
	}
}

// Run reconciles the organization's marketplace orders and fulfillment
// operations into local shipments. Safe to re-run: shipments upsert by
// meli_id, items by (shipment_id, product_id) with scanned_qty preserved.
func (s *syncService) Run(ctx context.Context, orgID uuid.UUID, operatorID string) (*SyncReport, error) {
	// 1. Resolve credentials: nothing runs without a linked account.
	account, err := s.accountRepo.FindByOrganization(orgID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrMeliNotConnected
		}
		return nil, err
	}

	// 2. Token refresh (5-minute buffer). Refresh failure is fatal: nothing
	// downstream can authenticate.
	accessToken, err := s.tokenService.ValidAccessToken(ctx, account)
	if err != nil {
		return nil, err
	}

	// 3. Connectivity probe. A rejected who-am-I means the session is dead.
	if _, err := s.client.Me(ctx, accessToken); err != nil {
		log.Printf("Sync probe failed for org %s: %v", orgID, err)
		return nil, ErrMeliReconnect
	}

	report := &SyncReport{}

	// 4. Outbound: recently paid orders become outbound shipments.
	s.syncOutbound(ctx, orgID, operatorID, account, accessToken, report)

	// 5. Inbound: fulfillment stock and receiving operations.
	s.syncInbound(ctx, orgID, operatorID, account, accessToken, report)

	s.broadcast(map[string]interface{}{
		"type":            "sync_completed",
		"organization_id": orgID,
		"report":          report,
	})

	return report, nil
}

func (s *syncService) syncOutbound(ctx context.Context, orgID uuid.UUID, operatorID string, account *model.MeliAccount, accessToken string, report *SyncReport) {
	offset := 0
	for page := 0; page < maxSyncPages; page++ {
		result, err := s.client.SearchOrders(ctx, accessToken, account.MeliUserID, orderPageSize, offset)
		if err != nil {
			// Upstream API errors skip the step, not the whole sync.
			log.Printf("Order search failed for org %s at offset %d: %v", orgID, offset, err)
			return
		}
		if len(result.Results) == 0 {
			return
		}

		for _, order := range result.Results {
			if err := s.syncOrder(orgID, operatorID, &order); err != nil {
				log.Printf("Skipping order %d: %v", order.ID, err)
				report.Skipped++
				continue
			}
			report.OutboundSynced++
		}

		offset += len(result.Results)
		if offset >= result.Paging.Total {
			return
		}
	}
}

// syncOrder upserts one order as an outbound shipment. Runs in its own
// transaction so one bad order never poisons the rest of the page.
func (s *syncService) syncOrder(orgID uuid.UUID, operatorID string, order *meli.Order) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		shipment := &model.Shipment{
			OrganizationID: orgID,
			MeliID:         strconv.FormatInt(order.ID, 10),
			Status:         model.ShipmentPending,
			Type:           model.ShipmentOutbound,
		}
		shipment.CreatedBy = operatorID
		shipment.UpdatedBy = operatorID

		stored, _, err := s.shipmentRepo.EnsureByMeliID(tx, shipment)
		if err != nil {
			return err
		}

		for _, line := range order.OrderItems {
			product, err := s.resolveProduct(tx, orgID, operatorID, line.Item.SellerSKU, line.Item.ID, line.Item.Title)
			if err != nil {
				log.Printf("Skipping line %s on order %d: %v", line.Item.ID, order.ID, err)
				continue
			}
			item := &model.ShipmentItem{
				ShipmentID:  stored.ID,
				ProductID:   product.ID,
				SKU:         product.SKU,
				ExpectedQty: line.Quantity,
			}
			item.CreatedBy = operatorID
			item.UpdatedBy = operatorID
			// One bad line skips, the rest of the order still lands.
			if err := s.shipmentRepo.UpsertItem(tx, item); err != nil {
				log.Printf("Skipping line %s on order %d: %v", line.Item.ID, order.ID, err)
				continue
			}
		}
		return nil
	})
}

func (s *syncService) syncInbound(ctx context.Context, orgID uuid.UUID, operatorID string, account *model.MeliAccount, accessToken string, report *SyncReport) {
	itemIDs := s.collectItemIDs(ctx, accessToken, account.MeliUserID)

	for start := 0; start < len(itemIDs); start += itemBatchSize {
		end := start + itemBatchSize
		if end > len(itemIDs) {
			end = len(itemIDs)
		}

		details, err := s.client.GetItems(ctx, accessToken, itemIDs[start:end])
		if err != nil {
			log.Printf("Item detail batch failed for org %s: %v", orgID, err)
			continue
		}

		for _, envelope := range details {
			if envelope.Code != 200 || envelope.Body.InventoryID == "" {
				continue
			}
			// One inventory id failing never aborts the inbound phase.
			s.syncInventory(ctx, orgID, operatorID, accessToken, &envelope.Body, report)
		}
	}
}

func (s *syncService) collectItemIDs(ctx context.Context, accessToken string, sellerID int64) []string {
	var ids []string
	offset := 0
	for page := 0; page < maxSyncPages; page++ {
		result, err := s.client.SearchItemIDs(ctx, accessToken, sellerID, itemPageSize, offset)
		if err != nil {
			log.Printf("Item search failed for seller %d: %v", sellerID, err)
			return ids
		}
		if len(result.Results) == 0 {
			return ids
		}
		ids = append(ids, result.Results...)
		offset += len(result.Results)
		if offset >= result.Paging.Total {
			return ids
		}
	}
	return ids
}

func (s *syncService) syncInventory(ctx context.Context, orgID uuid.UUID, operatorID, accessToken string, item *meli.ItemDetail, report *SyncReport) {
	if _, err := s.client.GetFulfillmentStock(ctx, accessToken, item.InventoryID); err != nil {
		log.Printf("Stock query failed for inventory %s: %v", item.InventoryID, err)
	} else {
		report.StockSynced++
	}

	now := time.Now()
	operations, err := s.client.SearchOperations(ctx, accessToken, item.InventoryID, now.Add(-inboundWindow), now)
	if err != nil {
		log.Printf("Operations query failed for inventory %s: %v", item.InventoryID, err)
		return
	}

	for _, op := range operations.Results {
		if err := s.syncOperation(orgID, operatorID, item, &op); err != nil {
			log.Printf("Skipping operation %s: %v", op.ID, err)
			report.Skipped++
			continue
		}
		report.InboundSynced++
	}
}

// syncOperation maps one receiving operation to an inbound shipment.
func (s *syncService) syncOperation(orgID uuid.UUID, operatorID string, item *meli.ItemDetail, op *meli.Operation) error {
	status := inboundStatus(op)

	return s.db.Transaction(func(tx *gorm.DB) error {
		shipment := &model.Shipment{
			OrganizationID: orgID,
			MeliID:         op.ID,
			Status:         status,
			Type:           model.ShipmentInbound,
		}
		shipment.CreatedBy = operatorID
		shipment.UpdatedBy = operatorID

		stored, created, err := s.shipmentRepo.EnsureByMeliID(tx, shipment)
		if err != nil {
			return err
		}

		// An already-tracked operation may finish upstream; move it forward
		// but never override completed or in-progress picking states.
		if !created && status == model.ShipmentCompleted && stored.Status == model.ShipmentPending {
			if err := stored.TransitionTo(model.ShipmentCompleted); err == nil {
				if err := tx.Model(&model.Shipment{}).Where("id = ?", stored.ID).
					Update("status", stored.Status).Error; err != nil {
					return err
				}
			}
		}

		product, err := s.resolveProduct(tx, orgID, operatorID, item.SellerSKU, item.ID, item.Title)
		if err != nil {
			return err
		}

		line := &model.ShipmentItem{
			ShipmentID:  stored.ID,
			ProductID:   product.ID,
			SKU:         product.SKU,
			ExpectedQty: op.Detail.Quantity,
		}
		line.CreatedBy = operatorID
		line.UpdatedBy = operatorID
		return s.shipmentRepo.UpsertItem(tx, line)
	})
}

// inboundStatus infers the local status from the external operation state.
func inboundStatus(op *meli.Operation) model.ShipmentStatus {
	status := strings.ToLower(op.Status)
	opType := strings.ToLower(op.Type)
	if status == "finished" || status == "received" || status == "closed" || opType == "inbound_reception" {
		return model.ShipmentCompleted
	}
	return model.ShipmentPending
}

// resolveProduct finds the catalog product by seller SKU, creating a
// placeholder when the marketplace line has no local match. Lines without a
// seller SKU get a synthetic one derived from the external item id.
func (s *syncService) resolveProduct(tx *gorm.DB, orgID uuid.UUID, operatorID, sellerSKU, externalItemID, title string) (*model.Product, error) {
	sku := sellerSKU
	if sku == "" {
		sku = "MELI-" + externalItemID
	}

	var existing model.Product
	err := tx.First(&existing, "organization_id = ? AND sku = ?", orgID, sku).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	product := &model.Product{
		OrganizationID: orgID,
		SKU:            sku,
		Barcode:        model.BarcodeUnknown,
		Title:          title,
	}
	product.CreatedBy = operatorID
	product.UpdatedBy = operatorID
	if err := tx.Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (s *syncService) broadcast(payload map[string]interface{}) {
	if s.wsHub == nil {
		return
	}
	go func() {
		msg, _ := json.Marshal(payload)
		s.wsHub.Broadcast <- msg
	}()
}
