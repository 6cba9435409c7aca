package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/geofence-bridge/module/geofence/domain"
)

type registrar interface {
	Register(ctx context.Context, def domain.GeofenceDefinition, done func(domain.Outcome)) error
	Unregister(ctx context.Context, identifier string, done func(domain.Outcome)) error
	ListRegistered(ctx context.Context) ([]domain.GeofenceDefinition, error)
}

type registerRequest struct {
	Identifier string   `json:"identifier"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Radius     *float64 `json:"radius"`
}

type geofenceResponse struct {
	Identifier string  `json:"identifier"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Radius     float64 `json:"radius"`
}

type GeofenceHandler struct {
	registrar registrar
}

func NewGeofenceHandler(registrar registrar) *GeofenceHandler {
	return &GeofenceHandler{registrar: registrar}
}

func (h *GeofenceHandler) Register(r *gin.RouterGroup) {
	r.GET("/geofences", h.GetRegisteredGeofences)
	r.POST("/geofences", h.RegisterGeofence)
	r.DELETE("/geofences/:identifier", h.RemoveGeofence)
}

// RegisterGeofence accepts the request and returns before the platform
// answers; 202 does not mean the geofence is active.
func (h *GeofenceHandler) RegisterGeofence(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Latitude == nil || req.Longitude == nil || req.Radius == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude, longitude and radius are required"})
		return
	}

	def := domain.GeofenceDefinition{
		Identifier:   req.Identifier,
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		RadiusMeters: *req.Radius,
	}
	if err := h.registrar.Register(c.Request.Context(), def, nil); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"identifier": def.Identifier, "status": "pending"})
}

func (h *GeofenceHandler) RemoveGeofence(c *gin.Context) {
	identifier := c.Param("identifier")

	if err := h.registrar.Unregister(c.Request.Context(), identifier, nil); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"identifier": identifier, "status": "pending"})
}

func (h *GeofenceHandler) GetRegisteredGeofences(c *gin.Context) {
	defs, err := h.registrar.ListRegistered(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch geofences"})
		return
	}

	results := make([]geofenceResponse, len(defs))
	for i, d := range defs {
		results[i] = geofenceResponse{
			Identifier: d.Identifier,
			Latitude:   d.Latitude,
			Longitude:  d.Longitude,
			Radius:     d.RadiusMeters,
		}
	}
	c.JSON(http.StatusOK, results)
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrInvalidDefinition) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
