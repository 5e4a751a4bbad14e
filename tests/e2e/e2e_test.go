package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Jovan-creator/armaflex-sub001/internal/database"
	"github.com/Jovan-creator/armaflex-sub001/internal/middleware"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/availability"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/booking"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/catalog"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/channel"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/payment"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/pricing"
	jwtsvc "github.com/Jovan-creator/armaflex-sub001/internal/pkg/jwt"
	"github.com/Jovan-creator/armaflex-sub001/internal/pkg/lock"
	"github.com/Jovan-creator/armaflex-sub001/internal/repository"
)

const callbackToken = "test-callback-token"

type E2ETestSuite struct {
	router     *gin.Engine
	db         *gorm.DB
	jwtService *jwtsvc.Service
	staffToken string
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	db, err := database.Connect(":memory:")
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, repository.AutoMigrate(db), "Failed to migrate schema")

	resourceRepo := repository.NewResourceRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	syncRepo := repository.NewSyncEventRepository(db)

	jwtService := jwtsvc.New("test_secret_key_32_characters_min", 24*time.Hour)
	resourceLocks := lock.NewKeyed()
	reservationLocks := lock.NewKeyed()

	pricingService := pricing.NewService(resourceRepo)
	availabilityService := availability.NewService(reservationRepo, resourceRepo, resourceLocks, 15*time.Minute, nil)
	channelService := channel.NewService(channelRepo, reservationRepo, resourceRepo, syncRepo,
		pricingService, availabilityService, nil, resourceLocks, nil)
	bookingService := booking.NewService(reservationRepo, pricingService, availabilityService,
		channelService, booking.AllowAllCancellations, resourceLocks, nil)
	paymentService := payment.NewService(paymentRepo, reservationRepo, reservationRepo,
		bookingService, reservationLocks, nil)
	catalogService := catalog.NewService(resourceRepo, reservationRepo, "USD")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")

	public := v1.Group("/")
	public.Use(middleware.RateLimit(nil, 1000)) // nil client: limiter passes through
	{
		catalog.NewHandler(catalogService).RegisterPublicRoutes(public)
		pricing.NewHandler(pricingService).RegisterRoutes(public)
		availability.NewHandler(availabilityService).RegisterRoutes(public)
		booking.NewHandler(bookingService).RegisterPublicRoutes(public)
	}

	webhooks := v1.Group("/webhooks")
	{
		channel.NewHandler(channelService).RegisterWebhookRoutes(webhooks)
		payment.NewHandler(paymentService, callbackToken).RegisterWebhookRoutes(webhooks)
	}

	admin := v1.Group("/admin")
	admin.Use(middleware.JWTAuth(jwtService), middleware.RequireStaff())
	{
		catalog.NewHandler(catalogService).RegisterAdminRoutes(admin)
		booking.NewHandler(bookingService).RegisterAdminRoutes(admin)
		payment.NewHandler(paymentService, callbackToken).RegisterAdminRoutes(admin)
		channel.NewHandler(channelService).RegisterAdminRoutes(admin)
	}

	token, err := jwtService.GenerateToken(1, "admin")
	require.NoError(t, err, "Failed to mint admin token")

	return &E2ETestSuite{
		router:     r,
		db:         db,
		jwtService: jwtService,
		staffToken: token,
	}
}

func (s *E2ETestSuite) makeRequest(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *E2ETestSuite) asStaff() map[string]string {
	return map[string]string{"Authorization": "Bearer " + s.staffToken}
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) *TestResponse {
	var resp TestResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Failed to parse response. Status: %d, Body: %s", w.Code, w.Body.String())
	return &resp
}

func (s *E2ETestSuite) createRoom(t *testing.T, name string) int64 {
	w := s.makeRequest("POST", "/api/v1/admin/resources", map[string]interface{}{
		"kind":         "room",
		"name":         name,
		"capacity":     2,
		"base_rate":    100.0,
		"weekend_rate": 150.0,
	}, s.asStaff())
	require.Equal(t, http.StatusCreated, w.Code, "resource creation failed: %s", w.Body.String())

	resp := parseResponse(t, w)
	return int64(resp.Data["id"].(float64))
}

// stay returns a future two-night interval aligned to midnight UTC so the
// quoted amount is deterministic per-rate, not per-clock.
func stay(daysFromNow int) (time.Time, time.Time) {
	start := time.Now().UTC().AddDate(0, 0, daysFromNow).Truncate(24 * time.Hour)
	return start, start.AddDate(0, 0, 2)
}

func reservationField(t *testing.T, data map[string]interface{}, field string) interface{} {
	r, ok := data["reservation"].(map[string]interface{})
	require.True(t, ok, "response has no reservation object: %+v", data)
	return r[field]
}

// =============================================================================
// Flow 1: quote -> hold -> confirm -> pay -> refund -> cancel -> rebook
// =============================================================================

func TestFlow1_DirectBookingLifecycle(t *testing.T) {
	suite := setupTestSuite(t)
	resourceID := suite.createRoom(t, "Standard Double 101")
	startAt, endAt := stay(14)

	var (
		bookingRef    string
		totalAmount   float64
		paymentID     float64
		reservationID float64
	)

	t.Run("POST /quotes", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/quotes", map[string]interface{}{
			"resource_id": resourceID,
			"start_at":    startAt,
			"end_at":      endAt,
			"adults":      2,
		}, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := parseResponse(t, w)
		quote := resp.Data["quote"].(map[string]interface{})
		totalAmount = quote["amount"].(float64)
		assert.Greater(t, totalAmount, 0.0)
		assert.Equal(t, "USD", quote["currency"])
	})

	t.Run("POST /bookings creates a pending hold", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/bookings", map[string]interface{}{
			"resource_id": resourceID,
			"start_at":    startAt,
			"end_at":      endAt,
			"adults":      2,
		}, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp := parseResponse(t, w)
		assert.Equal(t, "pending", reservationField(t, resp.Data, "status"))
		assert.NotNil(t, reservationField(t, resp.Data, "hold_expires_at"))
		assert.Equal(t, totalAmount, reservationField(t, resp.Data, "total_amount"))

		bookingRef = reservationField(t, resp.Data, "booking_reference").(string)
		require.NotEmpty(t, bookingRef)
	})

	t.Run("POST /bookings/:ref/confirm clears the hold", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/bookings/"+bookingRef+"/confirm", nil, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := parseResponse(t, w)
		assert.Equal(t, "confirmed", reservationField(t, resp.Data, "status"))
		assert.Nil(t, reservationField(t, resp.Data, "hold_expires_at"))
	})

	t.Run("payment callback settles the full amount", func(t *testing.T) {
		w := suite.makeRequest("GET", "/api/v1/bookings/"+bookingRef, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		reservationID = reservationField(t, parseResponse(t, w).Data, "id").(float64)

		w = suite.makeRequest("POST", "/api/v1/webhooks/payments/callback", map[string]interface{}{
			"reservation_id":     reservationID,
			"amount":             totalAmount,
			"currency":           "USD",
			"method":             "card",
			"provider_reference": "e2e-settlement-1",
			"status":             "succeeded",
		}, map[string]string{"X-Callback-Token": callbackToken})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		paymentID = parseResponse(t, w).Data["payment"].(map[string]interface{})["id"].(float64)

		w = suite.makeRequest("GET", "/api/v1/bookings/"+bookingRef, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "paid", reservationField(t, parseResponse(t, w).Data, "payment_status"))
	})

	t.Run("callback redelivery does not double-charge", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/webhooks/payments/callback", map[string]interface{}{
			"reservation_id":     reservationID,
			"amount":             totalAmount,
			"provider_reference": "e2e-settlement-1",
			"status":             "succeeded",
		}, map[string]string{"X-Callback-Token": callbackToken})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		redelivered := parseResponse(t, w).Data["payment"].(map[string]interface{})["id"].(float64)
		assert.Equal(t, paymentID, redelivered)
	})

	t.Run("partial refund flips the rollup to partial", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/admin/payments/%.0f/refunds", paymentID)
		w := suite.makeRequest("POST", path, map[string]interface{}{
			"amount": 40.0,
			"reason": "late arrival compensation",
		}, suite.asStaff())
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = suite.makeRequest("GET", "/api/v1/bookings/"+bookingRef, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "partial", reservationField(t, parseResponse(t, w).Data, "payment_status"))
	})

	t.Run("cancel releases the interval for rebooking", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/bookings/"+bookingRef+"/cancel", map[string]interface{}{
			"reason": "change of plans",
		}, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "cancelled", reservationField(t, parseResponse(t, w).Data, "status"))

		w = suite.makeRequest("POST", "/api/v1/bookings", map[string]interface{}{
			"resource_id": resourceID,
			"start_at":    startAt,
			"end_at":      endAt,
			"adults":      2,
		}, nil)
		assert.Equal(t, http.StatusCreated, w.Code, "interval was not released: %s", w.Body.String())
	})
}

// =============================================================================
// Flow 2: overlapping bookings conflict
// =============================================================================

func TestFlow2_OverlapConflict(t *testing.T) {
	suite := setupTestSuite(t)
	resourceID := suite.createRoom(t, "Deluxe Suite 301")
	startAt, endAt := stay(21)

	first := suite.makeRequest("POST", "/api/v1/bookings", map[string]interface{}{
		"resource_id": resourceID,
		"start_at":    startAt,
		"end_at":      endAt,
		"adults":      2,
	}, nil)
	require.Equal(t, http.StatusCreated, first.Code)
	firstID := reservationField(t, parseResponse(t, first).Data, "id").(float64)

	// overlaps the first night only; still a conflict
	second := suite.makeRequest("POST", "/api/v1/bookings", map[string]interface{}{
		"resource_id": resourceID,
		"start_at":    startAt,
		"end_at":      startAt.AddDate(0, 0, 1),
		"adults":      1,
	}, nil)
	require.Equal(t, http.StatusConflict, second.Code, second.Body.String())

	resp := parseResponse(t, second)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CONFLICT", resp.Error.Code)

	details := resp.Error.Details.(map[string]interface{})
	blocking := details["blocking_reservation_ids"].([]interface{})
	assert.Contains(t, blocking, firstID)

	// back-to-back stay starting at checkout is fine
	adjacent := suite.makeRequest("POST", "/api/v1/bookings", map[string]interface{}{
		"resource_id": resourceID,
		"start_at":    endAt,
		"end_at":      endAt.AddDate(0, 0, 2),
		"adults":      2,
	}, nil)
	assert.Equal(t, http.StatusCreated, adjacent.Code, adjacent.Body.String())
}

// =============================================================================
// Flow 3: channel webhooks
// =============================================================================

func TestFlow3_ChannelWebhooks(t *testing.T) {
	suite := setupTestSuite(t)
	resourceID := suite.createRoom(t, "Garden View 205")
	startAt, endAt := stay(30)

	const webhookKey = "globalstays-signing-key-01"

	w := suite.makeRequest("POST", "/api/v1/admin/channels", map[string]interface{}{
		"code":        "globalstays",
		"name":        "GlobalStays",
		"webhook_key": webhookKey,
	}, suite.asStaff())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	bookingBody := map[string]interface{}{
		"resource_id":  resourceID,
		"start_at":     startAt,
		"end_at":       endAt,
		"adults":       2,
		"operation_id": "ota-e2e-1",
	}

	t.Run("wrong key is rejected", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/webhooks/channels/globalstays/bookings",
			bookingBody, map[string]string{"X-Channel-Key": "not-the-key"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	var reference string

	t.Run("inbound booking confirms without a hold", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/webhooks/channels/globalstays/bookings",
			bookingBody, map[string]string{"X-Channel-Key": webhookKey})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp := parseResponse(t, w)
		assert.Equal(t, "confirmed", resp.Data["status"])
		assert.Nil(t, resp.Data["hold_expires_at"])
		reference = resp.Data["booking_reference"].(string)
		require.NotEmpty(t, reference)
	})

	t.Run("redelivered webhook returns the same reservation", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/webhooks/channels/globalstays/bookings",
			bookingBody, map[string]string{"X-Channel-Key": webhookKey})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, reference, parseResponse(t, w).Data["booking_reference"])
	})

	t.Run("overbooking is kept with the conflict flag", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/webhooks/channels/globalstays/bookings", map[string]interface{}{
			"resource_id":  resourceID,
			"start_at":     startAt,
			"end_at":       endAt,
			"adults":       2,
			"operation_id": "ota-e2e-2",
		}, map[string]string{"X-Channel-Key": webhookKey})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp := parseResponse(t, w)
		assert.Equal(t, "confirmed", resp.Data["status"])
		assert.Equal(t, true, resp.Data["conflict"])
	})

	t.Run("inbound cancellation releases the booking", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/webhooks/channels/globalstays/cancellations", map[string]interface{}{
			"booking_reference": reference,
			"reason":            "guest cancelled with the agency",
		}, map[string]string{"X-Channel-Key": webhookKey})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "cancelled", parseResponse(t, w).Data["status"])
	})
}

// =============================================================================
// Flow 4: admin surface requires a staff token
// =============================================================================

func TestFlow4_AdminAuth(t *testing.T) {
	suite := setupTestSuite(t)

	w := suite.makeRequest("GET", "/api/v1/admin/reservations", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	guestToken, err := suite.jwtService.GenerateToken(7, "guest")
	require.NoError(t, err)
	w = suite.makeRequest("GET", "/api/v1/admin/reservations", nil,
		map[string]string{"Authorization": "Bearer " + guestToken})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.makeRequest("GET", "/api/v1/admin/reservations", nil, suite.asStaff())
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

// =============================================================================
// Flow 5: public availability calendar reflects bookings
// =============================================================================

func TestFlow5_AvailabilityCalendar(t *testing.T) {
	suite := setupTestSuite(t)
	resourceID := suite.createRoom(t, "Corner Room 110")
	startAt, endAt := stay(10)

	w := suite.makeRequest("POST", "/api/v1/bookings", map[string]interface{}{
		"resource_id": resourceID,
		"start_at":    startAt,
		"end_at":      endAt,
		"adults":      2,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	from := startAt.AddDate(0, 0, -2).Format("2006-01-02")
	to := endAt.AddDate(0, 0, 2).Format("2006-01-02")
	path := fmt.Sprintf("/api/v1/resources/%d/availability?from=%s&to=%s", resourceID, from, to)

	w = suite.makeRequest("GET", path, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := parseResponse(t, w)
	assert.NotNil(t, resp.Data["availability"], "calendar payload missing")
}
