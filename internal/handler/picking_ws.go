package handler

import (
	"log"
	"time"

	"go-2pack-wms/internal/scanner"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// KeystrokeEvent is one raw key from the picking station. Scanner guns
// emit these in a fast burst terminated by Enter.
type KeystrokeEvent struct {
	Key string `json:"key"`
}

// Session drives one live picking connection: keystrokes stream in, each
// assembled barcode runs through the scan pipeline, and the result goes
// straight back to the station.
func (h *PickingHandler) Session(c *websocket.Conn) {
	shipmentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		c.WriteJSON(map[string]string{"error": "Invalid shipment ID"})
		return
	}

	operatorRaw, _ := c.Locals("user_id").(string)
	operatorID, err := uuid.Parse(operatorRaw)
	if err != nil {
		c.WriteJSON(map[string]string{"error": "Unauthorized"})
		return
	}

	buf := scanner.NewBuffer()
	for {
		var event KeystrokeEvent
		if err := c.ReadJSON(&event); err != nil {
			break
		}

		barcode, complete := buf.Key(event.Key, time.Now())
		if !complete {
			continue
		}

		result, err := h.pickingService.ProcessScan(shipmentID, barcode, operatorID)
		if err != nil {
			log.Printf("Picking session scan failed for shipment %s: %v", shipmentID, err)
			c.WriteJSON(map[string]string{"error": "Scan failed"})
			continue
		}
		if err := c.WriteJSON(result); err != nil {
			break
		}
	}
}
