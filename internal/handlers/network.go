package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/network-optimizer/internal/optimizer"
)

// Global optimizer (initialized by the application)
var networkOptimizer optimizer.Optimizer

// InitOptimizer sets the optimizer used by the network endpoints.
func InitOptimizer(opt optimizer.Optimizer) {
	networkOptimizer = opt
}

// SolveNetwork runs the LP flow solver
// @Summary Solve network flows
// @Description Builds the facility-to-customer flow LP and solves it with the simplex method
// @Tags network
// @Accept json
// @Produce json
// @Param request body optimizer.SolveRequest true "Network"
// @Success 200 {object} optimizer.SolveResponse
// @Failure 400 {object} ErrorResponse "Invalid network"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Security InternalAPIKey
// @Router /internal/network/solve [post]
func SolveNetwork(c *gin.Context) {
	var req optimizer.SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := networkOptimizer.Solve(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AllocateDemand runs the gravity allocator
// @Summary Allocate demand to facilities
// @Description Greedily assigns each customer's demand to the facility with the highest gravity score
// @Tags network
// @Accept json
// @Produce json
// @Param request body optimizer.AllocateRequest true "Customers and facilities"
// @Success 200 {object} optimizer.AllocateResponse
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Security InternalAPIKey
// @Router /internal/network/allocate [post]
func AllocateDemand(c *gin.Context) {
	var req optimizer.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := networkOptimizer.Allocate(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LocateFacilities plans distribution center sites
// @Summary Plan distribution centers
// @Description Clusters customers into sites, reconciles them with existing sites and assigns demand
// @Tags network
// @Accept json
// @Produce json
// @Param request body optimizer.LocateRequest true "Customers, existing sites and settings"
// @Success 200 {object} optimizer.LocateResponse
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Security InternalAPIKey
// @Router /internal/network/locate [post]
func LocateFacilities(c *gin.Context) {
	var req optimizer.LocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := networkOptimizer.Locate(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
