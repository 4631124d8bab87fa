package handler

import (
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rental/internal/domain"
	"rental/internal/pricing"
	"rental/internal/service"
)

// VehicleHandler handles HTTP requests for the vehicle fleet.
type VehicleHandler struct {
	vehicleService      *service.VehicleService
	orderService        *service.OrderService
	availabilityService *service.AvailabilityService
	vatRate             float64
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(
	vehicleService *service.VehicleService,
	orderService *service.OrderService,
	availabilityService *service.AvailabilityService,
	vatRate float64,
) *VehicleHandler {
	return &VehicleHandler{
		vehicleService:      vehicleService,
		orderService:        orderService,
		availabilityService: availabilityService,
		vatRate:             vatRate,
	}
}

// CreateVehicleRequest is the HTTP request body for registering a vehicle.
type CreateVehicleRequest struct {
	Name         string       `json:"name"`
	LicensePlate string       `json:"license_plate"`
	Tariff       *[][]float64 `json:"tariff,omitempty"` // 7 rows x 4 bands, hourly prices
	PricePerDay  float64      `json:"price_per_day"`
	Currency     string       `json:"currency,omitempty"`
}

// UpdateTariffRequest is the HTTP request body for replacing a tariff.
type UpdateTariffRequest struct {
	Tariff [][]float64 `json:"tariff"`
}

// SetStatusRequest is the HTTP request body for changing a vehicle's status.
type SetStatusRequest struct {
	Status string `json:"status"`
}

// VehicleResponse is the HTTP response for vehicle data.
type VehicleResponse struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	LicensePlate string      `json:"license_plate"`
	Tariff       [][]float64 `json:"tariff"`
	PricePerDay  float64     `json:"price_per_day"`
	Currency     string      `json:"currency"`
	Status       string      `json:"status"`
}

// QuoteResponse is the HTTP response for a price quote.
type QuoteResponse struct {
	VehicleID   string  `json:"vehicle_id"`
	RentalStart string  `json:"rental_start"`
	RentalEnd   string  `json:"rental_end"`
	NetAmount   float64 `json:"net_amount"`
	VATAmount   float64 `json:"vat_amount"`
	GrossAmount float64 `json:"gross_amount"`
	Currency    string  `json:"currency"`
	Available   bool    `json:"available"`
}

// AvailabilityResponse is the HTTP response for an availability check.
type AvailabilityResponse struct {
	VehicleID string             `json:"vehicle_id"`
	Available bool               `json:"available"`
	Booked    []IntervalResponse `json:"booked"`
}

// IntervalResponse is a booked interval in an availability response.
type IntervalResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func vehicleToResponse(v *domain.Vehicle) VehicleResponse {
	tariff := make([][]float64, domain.TariffRows)
	for row := 0; row < domain.TariffRows; row++ {
		tariff[row] = make([]float64, domain.TariffBands)
		copy(tariff[row], v.Tariff[row][:])
	}
	return VehicleResponse{
		ID:           v.ID,
		Name:         v.Name,
		LicensePlate: v.LicensePlate,
		Tariff:       tariff,
		PricePerDay:  v.PricePerDay,
		Currency:     v.Currency,
		Status:       string(v.Status),
	}
}

func tariffFromRows(rows [][]float64) (*domain.TariffMatrix, bool) {
	if len(rows) != domain.TariffRows {
		return nil, false
	}
	var m domain.TariffMatrix
	for i, row := range rows {
		if len(row) != domain.TariffBands {
			return nil, false
		}
		copy(m[i][:], row)
	}
	return &m, true
}

// CreateVehicle handles POST /v1/vehicles
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var req CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	var tariff *domain.TariffMatrix
	if req.Tariff != nil {
		m, ok := tariffFromRows(*req.Tariff)
		if !ok {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "tariff must be 7 rows of 4 hourly prices"})
			return
		}
		tariff = m
	}

	vehicle, err := h.vehicleService.CreateVehicle(c.Request.Context(), service.CreateVehicleRequest{
		Name:         req.Name,
		LicensePlate: req.LicensePlate,
		Tariff:       tariff,
		PricePerDay:  req.PricePerDay,
		Currency:     req.Currency,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, vehicleToResponse(vehicle))
}

// GetVehicle handles GET /v1/vehicles/:id
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	vehicle, err := h.vehicleService.GetVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, vehicleToResponse(vehicle))
}

// GetAll handles GET /v1/vehicles
func (h *VehicleHandler) GetAll(c *gin.Context) {
	vehicles, err := h.vehicleService.ListVehicles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		response = append(response, vehicleToResponse(v))
	}
	c.JSON(http.StatusOK, response)
}

// UpdateTariff handles PUT /v1/vehicles/:id/tariff
func (h *VehicleHandler) UpdateTariff(c *gin.Context) {
	var req UpdateTariffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	tariff, ok := tariffFromRows(req.Tariff)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "tariff must be 7 rows of 4 hourly prices"})
		return
	}

	vehicle, err := h.vehicleService.UpdateTariff(c.Request.Context(), c.Param("id"), *tariff)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, vehicleToResponse(vehicle))
}

// SetStatus handles PUT /v1/vehicles/:id/status
func (h *VehicleHandler) SetStatus(c *gin.Context) {
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	vehicle, err := h.vehicleService.SetVehicleStatus(c.Request.Context(), c.Param("id"), domain.VehicleStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, vehicleToResponse(vehicle))
}

// Quote handles GET /v1/vehicles/:id/quote?start=...&end=...
func (h *VehicleHandler) Quote(c *gin.Context) {
	start, end, ok := parseInterval(c)
	if !ok {
		return
	}

	quote, err := h.orderService.QuotePrice(c.Request.Context(), c.Param("id"), start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	vat := roundToCent(quote.Amount * h.vatRate)
	respondJSON(c, http.StatusOK, QuoteResponse{
		VehicleID:   quote.VehicleID,
		RentalStart: quote.RentalStart.Format(time.RFC3339),
		RentalEnd:   quote.RentalEnd.Format(time.RFC3339),
		NetAmount:   roundToCent(quote.Amount),
		VATAmount:   vat,
		GrossAmount: roundToCent(quote.Amount) + vat,
		Currency:    quote.Currency,
		Available:   quote.Available,
	})
}

// Availability handles GET /v1/vehicles/:id/availability?start=...&end=...
func (h *VehicleHandler) Availability(c *gin.Context) {
	start, end, ok := parseInterval(c)
	if !ok {
		return
	}

	vehicleID := c.Param("id")
	available, err := h.availabilityService.IsAvailable(c.Request.Context(), vehicleID, start, end, "")
	if err != nil {
		respondError(c, err)
		return
	}

	booked, err := h.availabilityService.BookedIntervals(c.Request.Context(), vehicleID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := AvailabilityResponse{
		VehicleID: vehicleID,
		Available: available,
		Booked:    make([]IntervalResponse, 0, len(booked)),
	}
	for _, iv := range booked {
		response.Booked = append(response.Booked, IntervalResponse{
			Start: iv.Start.Format(time.RFC3339),
			End:   iv.End.Format(time.RFC3339),
		})
	}
	respondJSON(c, http.StatusOK, response)
}

// parseInterval reads the start/end RFC3339 query parameters. On failure it
// writes the error response and returns ok=false.
func parseInterval(c *gin.Context) (start, end time.Time, ok bool) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "start must be RFC3339"})
		return time.Time{}, time.Time{}, false
	}
	end, err = time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "end must be RFC3339"})
		return time.Time{}, time.Time{}, false
	}
	if !end.After(start) {
		respondError(c, pricing.ErrInvalidInterval)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func roundToCent(amount float64) float64 {
	return math.Round(amount*100) / 100
}
