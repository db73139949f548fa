package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"coa-backend/internal/accounts"
	"coa-backend/internal/shared/server/middleware"
	"coa-backend/internal/shared/server/respond"
	"coa-backend/internal/shared/telemetry"
)

// entitlementDecider is the slice of the accounts service /me needs.
type entitlementDecider interface {
	Decide(ctx context.Context, userID string, requestPaid bool) (accounts.Decision, error)
}

type meCapabilities struct {
	CleanDownload bool            `json:"cleanDownload"`
	CustomHeader  bool            `json:"customHeader"`
	Source        accounts.Source `json:"source"`
}

// registerMeRoutes attaches /me. decider may be nil, in which case every
// caller is reported on the free tier.
func registerMeRoutes(rg *gin.RouterGroup, decider entitlementDecider) {
	rg.GET("/me", func(c *gin.Context) {
		userID := middleware.UserIDFromContext(c)
		if userID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		response := gin.H{
			"userId":       userID,
			"isGuest":      middleware.IsGuest(c),
			"capabilities": capabilitiesFor(c.Request.Context(), decider, userID),
		}
		if email := middleware.UserEmailFromContext(c); email != "" {
			response["email"] = email
		}
		if name := middleware.UserNameFromContext(c); name != "" {
			response["name"] = name
		}
		if picture := middleware.UserPictureFromContext(c); picture != "" {
			response["picture"] = picture
		}
		respond.JSON(c, http.StatusOK, response)
	})
}

// capabilitiesFor asks what a render requesting paid output would get,
// without charging anything.
func capabilitiesFor(ctx context.Context, decider entitlementDecider, userID string) meCapabilities {
	free := meCapabilities{Source: accounts.SourceFree}
	if decider == nil {
		return free
	}
	d, err := decider.Decide(ctx, userID, true)
	if err != nil {
		telemetry.Warn("me.entitlement_failed", map[string]any{"user_id": userID, "err": err})
		return free
	}
	return meCapabilities{
		CleanDownload: !d.Entitlement.Watermarked,
		CustomHeader:  d.Entitlement.UseCustomHeader,
		Source:        d.Source,
	}
}
