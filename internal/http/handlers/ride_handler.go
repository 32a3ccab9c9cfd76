// Ride handlers: create, search, mine, detail, join, cancel, start, complete.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campool/internal/http/middleware"
	"campool/internal/modules/ride"
	"campool/internal/observability"
	"campool/internal/types"
)

type RideHandler struct {
	rides *ride.Service
}

func NewRideHandler(svc *ride.Service) *RideHandler {
	return &RideHandler{rides: svc}
}

type createRideReq struct {
	StartLocation string `json:"start_location"`
	EndLocation   string `json:"end_location"`
	StartDate     string `json:"start_date"`
	StartTime     string `json:"start_time"`
	TotalFare     int64  `json:"total_fare"`
	VehicleType   string `json:"vehicle_type"`
	MaxPassengers int    `json:"max_passengers"`
}

func (h *RideHandler) Create(c *gin.Context) {
	var req createRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r, err := h.rides.Create(c.Request.Context(), ride.CreateCommand{
		HostID:        types.ID(middleware.UserID(c)),
		StartLocation: req.StartLocation,
		EndLocation:   req.EndLocation,
		StartDate:     req.StartDate,
		StartTime:     req.StartTime,
		TotalFare:     req.TotalFare,
		VehicleType:   ride.VehicleType(req.VehicleType),
		MaxPassengers: req.MaxPassengers,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	observability.RidesCreatedTotal.Inc()
	c.JSON(http.StatusCreated, gin.H{"ride": rideBody(r)})
}

func (h *RideHandler) Search(c *gin.Context) {
	rides, err := h.rides.Search(c.Request.Context(), ride.SearchQuery{
		Start: c.Query("start"),
		End:   c.Query("end"),
		Date:  c.Query("date"),
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	out := make([]gin.H, 0, len(rides))
	for i := range rides {
		out = append(out, rideBody(&rides[i]))
	}
	c.JSON(http.StatusOK, gin.H{"rides": out})
}

func (h *RideHandler) Mine(c *gin.Context) {
	mine, err := h.rides.Mine(c.Request.Context(), types.ID(middleware.UserID(c)))
	if err != nil {
		writeRideError(c, err)
		return
	}
	hosted := make([]gin.H, 0, len(mine.Hosted))
	for i := range mine.Hosted {
		hosted = append(hosted, rideBody(&mine.Hosted[i]))
	}
	joined := make([]gin.H, 0, len(mine.Joined))
	for i := range mine.Joined {
		j := &mine.Joined[i]
		body := rideBody(&j.Ride)
		body["participation"] = participantBody(&j.Participation)
		joined = append(joined, body)
	}
	c.JSON(http.StatusOK, gin.H{"hosted": hosted, "joined": joined})
}

func (h *RideHandler) Get(c *gin.Context) {
	detail, err := h.rides.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeRideError(c, err)
		return
	}
	parts := make([]gin.H, 0, len(detail.Participants))
	for i := range detail.Participants {
		parts = append(parts, participantBody(&detail.Participants[i]))
	}
	c.JSON(http.StatusOK, gin.H{"ride": rideBody(&detail.Ride), "participants": parts})
}

func (h *RideHandler) Join(c *gin.Context) {
	p, err := h.rides.Join(c.Request.Context(), ride.JoinCommand{
		RideID: types.ID(c.Param("id")),
		UserID: types.ID(middleware.UserID(c)),
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	observability.JoinsTotal.Inc()
	c.JSON(http.StatusCreated, gin.H{"participant": participantBody(p)})
}

func (h *RideHandler) Cancel(c *gin.Context) {
	res, err := h.rides.Cancel(c.Request.Context(), ride.CancelCommand{
		RideID: types.ID(c.Param("id")),
		UserID: types.ID(middleware.UserID(c)),
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	observability.CancellationsTotal.WithLabelValues(string(res.Role)).Inc()

	body := gin.H{
		"cancelled": true,
		"role":      res.Role,
		"penalty":   res.Penalty,
	}
	if res.Role == ride.RoleParticipant {
		body["late_fee"] = res.LateFee
	}
	if res.Role == ride.RoleDriver {
		body["transferred"] = res.Transferred
		if res.Transferred {
			body["new_driver_id"] = res.NewDriverID
		}
	}
	c.JSON(http.StatusOK, body)
}

func (h *RideHandler) Start(c *gin.Context) {
	r, err := h.rides.Start(c.Request.Context(), ride.StartCommand{
		RideID: types.ID(c.Param("id")),
		UserID: types.ID(middleware.UserID(c)),
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ride": rideBody(r)})
}

func (h *RideHandler) Complete(c *gin.Context) {
	r, err := h.rides.Complete(c.Request.Context(), ride.CompleteCommand{
		RideID: types.ID(c.Param("id")),
		UserID: types.ID(middleware.UserID(c)),
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ride": rideBody(r)})
}

func rideBody(r *ride.Ride) gin.H {
	return gin.H{
		"ride_id":        r.ID,
		"driver_id":      r.DriverID,
		"start_location": r.StartLocation,
		"end_location":   r.EndLocation,
		"start_at":       r.StartAt.Format(time.RFC3339),
		"total_fare":     r.TotalFare,
		"max_passengers": r.MaxPassengers,
		"status":         r.Status,
	}
}

func participantBody(p *ride.Participant) gin.H {
	return gin.H{
		"ride_id":      p.RideID,
		"user_id":      p.UserID,
		"status":       p.Status,
		"share_fare":   p.ShareFare,
		"booking_time": p.BookingTime.Format(time.RFC3339),
	}
}
