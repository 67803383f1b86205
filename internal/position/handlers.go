package position

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/roncastellon/BWM-walker-app-sub000/internal/logging"
)

// DeviceMessage is one frame on the device socket: either a fix or a
// reported acquisition failure.
type DeviceMessage struct {
	Lat      *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng      *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
	Accuracy float64  `json:"accuracy" validate:"gte=0"`
	Error    string   `json:"error"`
}

var validate = validator.New()

// RegisterRoutes mounts the socket the walker's device streams fixes into.
func RegisterRoutes(r fiber.Router, feed *Feed, logger *slog.Logger) {
	logger = logging.OrDefault(logger)

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			if err := handleDeviceMessage(feed, data); err != nil {
				logger.Warn("device frame rejected", "error", err)
				if werr := c.WriteJSON(fiber.Map{"error": err.Error()}); werr != nil {
					return
				}
			}
		}
	}))
}

func handleDeviceMessage(feed *Feed, data []byte) error {
	var msg DeviceMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	if msg.Error != "" {
		feed.PublishError(errors.New(msg.Error))
		return nil
	}
	if err := validate.Struct(msg); err != nil {
		return err
	}
	return feed.Publish(Sample{Lat: *msg.Lat, Lng: *msg.Lng, AccuracyM: msg.Accuracy})
}
