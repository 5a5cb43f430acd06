// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package location

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/farmgate/internal/platform/constants"
	"github.com/taibuivan/farmgate/internal/platform/ctxutil"
	"github.com/taibuivan/farmgate/internal/platform/respond"
	"github.com/taibuivan/farmgate/internal/platform/validate"
	"github.com/taibuivan/farmgate/pkg/uuidv7"
)

// Field identifiers.
const (
	FieldLatitude  = "lat"
	FieldLongitude = "lon"
	FieldPoint     = "point"
)

// pingInterval keeps idle picker sockets alive behind proxies.
const pingInterval = 30 * time.Second

// # Definitions & Constructors

// Handler serves reverse lookups and the live picker channel.
type Handler struct {
	geocoder       Geocoder
	debounce       time.Duration
	originPatterns []string
	logger         *slog.Logger
}

// NewHandler constructs a new [Handler]. originPatterns are host patterns
// accepted for cross-origin WebSocket handshakes.
func NewHandler(geocoder Geocoder, debounce time.Duration, originPatterns []string, logger *slog.Logger) *Handler {
	return &Handler{
		geocoder:       geocoder,
		debounce:       debounce,
		originPatterns: originPatterns,
		logger:         logger,
	}
}

// Routes returns the request/response location routes.
//
// # Endpoints
//   - GET /reverse?lat=&lon= : One-shot reverse geocoding.
//
// The picker socket is served by [Handler.Picker] and mounted separately
// because it outlives the request timeout.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/reverse", handler.reverse)
	return router
}

/*
Reverse resolves a single point.

GET /api/location/reverse?lat=&lon=

Description: Lookup failures are not errors: the place name degrades to
"Unknown location".

Response:
  - 200: Selection
  - 400: ErrValidation: Missing or out-of-range coordinates
*/
func (handler *Handler) reverse(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()

	validator := &validate.Validator{}
	validator.Required(FieldLatitude, query.Get(FieldLatitude)).
		Required(FieldLongitude, query.Get(FieldLongitude))

	latitude, latErr := strconv.ParseFloat(query.Get(FieldLatitude), 64)
	longitude, lonErr := strconv.ParseFloat(query.Get(FieldLongitude), 64)
	validator.Custom(FieldPoint, latErr != nil || lonErr != nil, "Must be numeric").
		Coordinates(FieldPoint, latitude, longitude)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	point := Point{Latitude: latitude, Longitude: longitude}
	name, err := handler.geocoder.Reverse(request.Context(), point)
	if err != nil {
		ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "reverse_geocode_failed", slog.Any("error", err))
		name = constants.UnknownLocation
	}

	respond.OK(writer, Selection{Latitude: latitude, Longitude: longitude, PlaceName: name})
}

// # Picker Channel

// Message types of the picker protocol.
const (
	MessagePick      = "pick"
	MessageConfirm   = "confirm"
	MessageCancel    = "cancel"
	MessageState     = "state"
	MessageConfirmed = "confirmed"
	MessageError     = "error"
)

// ClientMessage is one frame sent by the browser.
type ClientMessage struct {
	Type      string  `json:"type"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// ServerMessage is one frame sent to the browser.
type ServerMessage struct {
	Type      string     `json:"type"`
	State     *State     `json:"state,omitempty"`
	Selection *Selection `json:"selection,omitempty"`
	Error     string     `json:"error,omitempty"`
}

/*
Picker upgrades to a WebSocket and runs one [Picker] per connection.

GET /api/location/picker

Description: The browser sends pick/confirm/cancel frames; every state change
is pushed back as a "state" frame. The connection ends after "confirmed".
*/
func (handler *Handler) Picker(writer http.ResponseWriter, request *http.Request) {
	// Hijacked connections keep the server's read/write deadlines unless cleared.
	controller := http.NewResponseController(writer)
	_ = controller.SetReadDeadline(time.Time{})
	_ = controller.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(writer, request, &websocket.AcceptOptions{
		OriginPatterns: handler.originPatterns,
	})
	if err != nil {
		handler.logger.WarnContext(request.Context(), "picker_accept_failed", slog.Any("error", err))
		return
	}
	defer conn.CloseNow()

	pickerID := uuidv7.New()
	logger := ctxutil.GetLogger(request.Context()).With(slog.String("picker_id", pickerID))

	ctx, cancel := context.WithCancel(request.Context())
	defer cancel()

	picker := NewPicker(ctx, handler.geocoder, handler.debounce)
	defer picker.Close()

	logger.InfoContext(ctx, "picker_opened")

	frames := make(chan ServerMessage, 1)
	go handler.writePump(ctx, cancel, conn, picker, frames)

	err = handler.readPump(ctx, conn, picker, frames)

	switch {
	case err == nil:
		conn.Close(websocket.StatusNormalClosure, "selection confirmed")
	case websocket.CloseStatus(err) == websocket.StatusNormalClosure,
		websocket.CloseStatus(err) == websocket.StatusGoingAway,
		errors.Is(err, context.Canceled):
	default:
		logger.WarnContext(ctx, "picker_closed_with_error", slog.Any("error", err))
	}

	logger.InfoContext(ctx, "picker_closed")
}

// readPump applies browser frames until the selection is confirmed (nil) or
// the connection fails.
func (handler *Handler) readPump(ctx context.Context, conn *websocket.Conn, picker *Picker, frames chan<- ServerMessage) error {
	for {
		var message ClientMessage
		if err := wsjson.Read(ctx, conn, &message); err != nil {
			return err
		}

		switch message.Type {
		case MessagePick:
			validator := &validate.Validator{}
			if err := validator.Coordinates(FieldPoint, message.Latitude, message.Longitude).Err(); err != nil {
				send(ctx, frames, ServerMessage{Type: MessageError, Error: "Invalid coordinates"})
				continue
			}
			_ = picker.Pick(Point{Latitude: message.Latitude, Longitude: message.Longitude})

		case MessageCancel:
			picker.Cancel()

		case MessageConfirm:
			selection, err := picker.Confirm()
			if err != nil {
				send(ctx, frames, ServerMessage{Type: MessageError, Error: confirmError(err)})
				continue
			}
			send(ctx, frames, ServerMessage{Type: MessageConfirmed, Selection: &selection})
			close(frames)
			return handler.drain(ctx)

		default:
			send(ctx, frames, ServerMessage{Type: MessageError, Error: "Unknown message type"})
		}
	}
}

// drain waits until the write pump has flushed the final frame.
func (handler *Handler) drain(ctx context.Context) error {
	<-ctx.Done()
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

// writePump serialises every outgoing frame onto the socket.
func (handler *Handler) writePump(ctx context.Context, done context.CancelFunc, conn *websocket.Conn, picker *Picker, frames <-chan ServerMessage) {
	defer done()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case state := <-picker.Updates():
			if err := wsjson.Write(ctx, conn, ServerMessage{Type: MessageState, State: &state}); err != nil {
				return
			}

		case frame, ok := <-frames:
			if !ok {
				return
			}
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				return
			}

		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func send(ctx context.Context, frames chan<- ServerMessage, frame ServerMessage) {
	select {
	case frames <- frame:
	case <-ctx.Done():
	}
}

func confirmError(err error) string {
	switch {
	case errors.Is(err, ErrNothingPicked):
		return "Select a point on the map first"
	case errors.Is(err, ErrLookupPending):
		return "Still looking up the place name"
	default:
		return "The picker is closed"
	}
}
